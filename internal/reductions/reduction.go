// Package reductions stores the aggregate facts computed by reducers over a
// subject's extract history. A reduction is recomputed in full on every
// classification and overwritten at its natural key.
package reductions

import (
	"time"

	"github.com/google/uuid"
)

// Reduction is the current aggregate of one reducer for one subject.
type Reduction struct {
	ID         uuid.UUID      `json:"id"`
	WorkflowID int64          `json:"workflow_id"`
	SubjectID  int64          `json:"subject_id"`
	ReducerKey string         `json:"reducer_key"`
	Data       map[string]any `json:"data"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
