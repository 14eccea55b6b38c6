package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// BackfillRequest asks the backfill runner for a subject's full classification history.
type BackfillRequest struct {
	SubjectID  int64 `json:"subject_id"`
	WorkflowID int64 `json:"workflow_id"`
}

// Backfill publishes backfill requests to JetStream.
// Repeat requests for one subject inside the stream's duplicate window are
// collapsed by message id.
type Backfill struct {
	js      nats.JetStreamContext
	subject string
	logger  *slog.Logger
}

// NewBackfill creates a publisher for the given subject.
func NewBackfill(js nats.JetStreamContext, subject string, logger *slog.Logger) *Backfill {
	return &Backfill{
		js:      js,
		subject: subject,
		logger:  logger.With("publisher", "backfill"),
	}
}

func (b *Backfill) Backfill(ctx context.Context, subjectID, workflowID int64) error {
	data, err := json.Marshal(BackfillRequest{SubjectID: subjectID, WorkflowID: workflowID})
	if err != nil {
		return fmt.Errorf("marshal backfill request: %w", err)
	}

	msgID := fmt.Sprintf("backfill-%d-%d", workflowID, subjectID)
	ack, err := b.js.Publish(b.subject, data, nats.Context(ctx), nats.MsgId(msgID))
	if err != nil {
		return fmt.Errorf("publish backfill: %w", err)
	}

	b.logger.Debug("backfill published",
		"subject_id", subjectID,
		"workflow_id", workflowID,
		"seq", ack.Sequence,
		"duplicate", ack.Duplicate,
	)
	return nil
}

// LogBackfill records backfill requests in the log when no broker is configured.
type LogBackfill struct {
	logger *slog.Logger
}

// NewLogBackfill creates a LogBackfill.
func NewLogBackfill(logger *slog.Logger) *LogBackfill {
	return &LogBackfill{logger: logger.With("publisher", "backfill")}
}

func (b *LogBackfill) Backfill(_ context.Context, subjectID, workflowID int64) error {
	b.logger.Info("backfill requested without broker",
		"subject_id", subjectID,
		"workflow_id", workflowID,
	)
	return nil
}
