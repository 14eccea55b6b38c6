package extracts

import "context"

// System defines the public contract for extract storage.
type System interface {
	Handler() *Handler

	// Exists reports whether any extract is stored for the subject in the workflow.
	Exists(ctx context.Context, workflowID, subjectID int64) (bool, error)
	// Upsert creates or overwrites the extract at its natural key.
	// A lost race on the unique constraint surfaces as ErrDuplicate.
	Upsert(ctx context.Context, e Extract) (*Extract, error)
	// ListBySubject returns the subject's extract history, most recent classification first.
	ListBySubject(ctx context.Context, workflowID, subjectID int64) ([]Extract, error)
}
