package extracts

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

// New creates an extract repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "extracts"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Exists(ctx context.Context, workflowID, subjectID int64) (bool, error) {
	q, args := query.NewBuilder(projection).
		WhereEquals("WorkflowID", workflowID).
		WhereEquals("SubjectID", subjectID).
		BuildExists()

	exists, err := repository.QueryExists(ctx, r.db, q, args...)
	if err != nil {
		return false, fmt.Errorf("check subject %d in workflow %d: %w", subjectID, workflowID, err)
	}
	return exists, nil
}

func (r *repo) Upsert(ctx context.Context, e Extract) (*Extract, error) {
	data, err := repository.MarshalJSONB(e.Data)
	if err != nil {
		return nil, err
	}

	upsertQ := fmt.Sprintf(`
		INSERT INTO extracts(
			id, workflow_id, subject_id, classification_id, extractor_key,
			user_id, classification_at, data
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (workflow_id, subject_id, classification_id, extractor_key) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			classification_at = EXCLUDED.classification_at,
			data = EXCLUDED.data,
			updated_at = NOW()
		RETURNING %s`, projection.Returning())

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	upsertArgs := []any{
		e.ID,
		e.WorkflowID,
		e.SubjectID,
		e.ClassificationID,
		e.ExtractorKey,
		e.UserID,
		e.ClassificationAt,
		string(data),
	}

	saved, err := repository.QueryOne(ctx, r.db, upsertQ, upsertArgs, scanExtract)
	if err != nil {
		return nil, repository.MapError(
			fmt.Errorf("upsert extract %s: %w", e.ExtractorKey, err),
			ErrNotFound, ErrDuplicate,
		)
	}

	r.logger.Debug("extract saved",
		"workflow_id", saved.WorkflowID,
		"subject_id", saved.SubjectID,
		"classification_id", saved.ClassificationID,
		"extractor_key", saved.ExtractorKey,
	)
	return &saved, nil
}

func (r *repo) ListBySubject(ctx context.Context, workflowID, subjectID int64) ([]Extract, error) {
	q, args := query.NewBuilder(projection, historySort...).
		WhereEquals("WorkflowID", workflowID).
		WhereEquals("SubjectID", subjectID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanExtract)
	if err != nil {
		return nil, fmt.Errorf("query extracts: %w", err)
	}
	return items, nil
}
