// Package classifications defines the inbound classification event and its
// ingestion surface. A classification is one user's (or algorithm's) single
// annotation of a subject within a workflow; it is never mutated here.
package classifications

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Classification is the immutable inbound event processed by the pipeline.
// UserID is nil for anonymous classifications.
type Classification struct {
	ID         int64          `json:"id" validate:"required"`
	WorkflowID int64          `json:"workflow_id" validate:"required"`
	SubjectID  int64          `json:"subject_id" validate:"required"`
	UserID     *int64         `json:"user_id"`
	CreatedAt  time.Time      `json:"created_at" validate:"required"`
	Payload    map[string]any `json:"payload"`
}

// Annotation is one task response within a classification payload.
type Annotation struct {
	Task  string `json:"task"`
	Value any    `json:"value"`
}

// Decode parses a JSON classification and validates it.
func Decode(data []byte) (Classification, error) {
	var c Classification
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks the fields the pipeline keys on.
func (c Classification) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fe.Field() + " " + fe.Tag()
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
}

// Annotations returns the payload's "annotations" list.
// Entries that are not objects with a string task are skipped.
func (c Classification) Annotations() []Annotation {
	raw, ok := c.Payload["annotations"].([]any)
	if !ok {
		return nil
	}

	annotations := make([]Annotation, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		task, ok := m["task"].(string)
		if !ok {
			continue
		}
		annotations = append(annotations, Annotation{Task: task, Value: m["value"]})
	}
	return annotations
}

// Annotation returns the first annotation for task.
func (c Classification) Annotation(task string) (Annotation, bool) {
	for _, a := range c.Annotations() {
		if a.Task == task {
			return a, true
		}
	}
	return Annotation{}, false
}
