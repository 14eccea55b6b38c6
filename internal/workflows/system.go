package workflows

import "context"

// System defines the public contract for the workflow config cache.
type System interface {
	Handler() *Handler

	// Find returns the cached workflow or ErrNotFound.
	Find(ctx context.Context, id int64) (*Workflow, error)
	// UpdateCache validates cmd and writes it when no record exists or the
	// cached updated_at is strictly older. Returns whether the write applied.
	UpdateCache(ctx context.Context, cmd CacheCommand) (bool, error)
}
