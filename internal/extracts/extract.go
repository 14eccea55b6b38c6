// Package extracts stores the facts derived by extractors from individual
// classifications. One row exists per (workflow, subject, classification,
// extractor key); concurrent writers converge on it through an upsert.
package extracts

import (
	"time"

	"github.com/google/uuid"
)

// Extract is one fact derived by one extractor from one classification.
type Extract struct {
	ID               uuid.UUID      `json:"id"`
	WorkflowID       int64          `json:"workflow_id"`
	SubjectID        int64          `json:"subject_id"`
	ClassificationID int64          `json:"classification_id"`
	ExtractorKey     string         `json:"extractor_key"`
	UserID           *int64         `json:"user_id"`
	ClassificationAt time.Time      `json:"classification_at"`
	Data             map[string]any `json:"data"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
