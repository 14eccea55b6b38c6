package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/JaimeStill/caesar/internal/rules"
)

// ErrInvalidAction is returned for action names that cannot form a subject token.
var ErrInvalidAction = errors.New("invalid action name")

// ActionMessage is the body published for a dispatched rule action.
type ActionMessage struct {
	WorkflowID int64          `json:"workflow_id"`
	SubjectID  int64          `json:"subject_id"`
	Action     string         `json:"action"`
	Params     map[string]any `json:"params,omitempty"`
}

// ActionDispatcher publishes each action to "<prefix>.actions.<action>".
type ActionDispatcher struct {
	js     nats.JetStreamContext
	prefix string
	logger *slog.Logger
}

// NewActionDispatcher creates a dispatcher publishing under the subject prefix.
func NewActionDispatcher(js nats.JetStreamContext, prefix string, logger *slog.Logger) *ActionDispatcher {
	return &ActionDispatcher{
		js:     js,
		prefix: prefix,
		logger: logger.With("dispatcher", "nats"),
	}
}

func (d *ActionDispatcher) Dispatch(ctx context.Context, workflowID, subjectID int64, a rules.Action) error {
	if err := validToken(a.Name); err != nil {
		return err
	}

	data, err := json.Marshal(ActionMessage{
		WorkflowID: workflowID,
		SubjectID:  subjectID,
		Action:     a.Name,
		Params:     a.Params,
	})
	if err != nil {
		return fmt.Errorf("marshal action %s: %w", a.Name, err)
	}

	subject := d.prefix + "." + ActionsToken + "." + a.Name
	if _, err := d.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish action %s: %w", a.Name, err)
	}
	return nil
}

// LogDispatcher records actions in the log when no broker is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a LogDispatcher.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger.With("dispatcher", "log")}
}

func (d *LogDispatcher) Dispatch(_ context.Context, workflowID, subjectID int64, a rules.Action) error {
	d.logger.Info("action fired",
		"workflow_id", workflowID,
		"subject_id", subjectID,
		"action", a.Name,
		"params", a.Params,
	)
	return nil
}

func validToken(name string) error {
	if name == "" || strings.ContainsAny(name, ". *>\t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidAction, name)
	}
	return nil
}
