package reductions

import "context"

// System defines the public contract for reduction storage.
type System interface {
	Handler() *Handler

	// Upsert overwrites the reduction at (workflow, subject, reducer key).
	// A lost race on the unique constraint surfaces as ErrDuplicate.
	Upsert(ctx context.Context, r Reduction) (*Reduction, error)
	ListBySubject(ctx context.Context, workflowID, subjectID int64) ([]Reduction, error)
}
