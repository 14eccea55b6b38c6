package reductions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/caesar/pkg/query"
	"github.com/JaimeStill/caesar/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a reduction repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "reductions"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Upsert(ctx context.Context, red Reduction) (*Reduction, error) {
	data, err := repository.MarshalJSONB(red.Data)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		INSERT INTO reductions(id, workflow_id, subject_id, reducer_key, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (workflow_id, subject_id, reducer_key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = NOW()
		RETURNING %s`, projection.Returning())

	if red.ID == uuid.Nil {
		red.ID = uuid.New()
	}

	args := []any{red.ID, red.WorkflowID, red.SubjectID, red.ReducerKey, string(data)}

	saved, err := repository.QueryOne(ctx, r.db, q, args, scanReduction)
	if err != nil {
		return nil, repository.MapError(
			fmt.Errorf("upsert reduction %s: %w", red.ReducerKey, err),
			ErrNotFound, ErrDuplicate,
		)
	}

	r.logger.Debug("reduction saved",
		"workflow_id", saved.WorkflowID,
		"subject_id", saved.SubjectID,
		"reducer_key", saved.ReducerKey,
	)
	return &saved, nil
}

func (r *repo) ListBySubject(ctx context.Context, workflowID, subjectID int64) ([]Reduction, error) {
	q, args := query.NewBuilder(projection, keySort).
		WhereEquals("WorkflowID", workflowID).
		WhereEquals("SubjectID", subjectID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanReduction)
	if err != nil {
		return nil, fmt.Errorf("query reductions: %w", err)
	}
	return items, nil
}
