package workflows

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/caesar/pkg/query"
	"github.com/JaimeStill/caesar/pkg/repository"
)

// The WHERE clause on the conflict branch makes a stale update a no-op
// reported through zero affected rows.
const upsertQuery = `
	INSERT INTO workflows (id, extractors_config, reducers_config, rules_config, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET
		extractors_config = EXCLUDED.extractors_config,
		reducers_config = EXCLUDED.reducers_config,
		rules_config = EXCLUDED.rules_config,
		updated_at = EXCLUDED.updated_at
	WHERE workflows.updated_at < EXCLUDED.updated_at`

type repo struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// New creates a workflow repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "workflows"),
		now:    time.Now,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Find(ctx context.Context, id int64) (*Workflow, error) {
	q, args := query.NewBuilder(projection).WhereEquals("ID", id).Build()

	w, err := repository.QueryOne(ctx, r.db, q, args, scanWorkflow)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find workflow %d: %w", id, err)
	}
	return &w, nil
}

func (r *repo) UpdateCache(ctx context.Context, cmd CacheCommand) (bool, error) {
	w := cmd.Workflow(r.now())
	if err := w.Validate(); err != nil {
		return false, err
	}

	args := make([]any, 0, 5)
	args = append(args, w.ID)
	for _, section := range []any{w.ExtractorsConfig, w.ReducersConfig, w.RulesConfig} {
		data, err := json.Marshal(section)
		if err != nil {
			return false, fmt.Errorf("marshal workflow %d config: %w", w.ID, err)
		}
		args = append(args, string(data))
	}
	args = append(args, w.UpdatedAt)

	n, err := repository.ExecAffected(ctx, r.db, upsertQuery, args...)
	if err != nil {
		return false, fmt.Errorf("update workflow %d: %w", w.ID, err)
	}

	applied := n > 0
	if applied {
		r.logger.Info("workflow cached", "workflow_id", w.ID, "updated_at", w.UpdatedAt)
	} else {
		r.logger.Info("stale workflow update skipped", "workflow_id", w.ID, "updated_at", w.UpdatedAt)
	}
	return applied, nil
}
