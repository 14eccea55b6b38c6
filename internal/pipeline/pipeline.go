// Package pipeline runs a classification through extraction, reduction, and
// rule evaluation for one workflow.
//
// The pipeline holds no locks. Concurrent workers handling the same subject
// converge through natural-key upserts, and reductions are recomputed from the
// full extract history on every call, so a lost race heals on the next event.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/caesar/internal/classifications"
	"github.com/JaimeStill/caesar/internal/extractors"
	"github.com/JaimeStill/caesar/internal/extracts"
	"github.com/JaimeStill/caesar/internal/reducers"
	"github.com/JaimeStill/caesar/internal/reductions"
	"github.com/JaimeStill/caesar/internal/rules"
	"github.com/JaimeStill/caesar/internal/workflows"
	"github.com/JaimeStill/caesar/pkg/retry"
)

// ExtractStore persists extracts by natural key.
type ExtractStore interface {
	Exists(ctx context.Context, workflowID, subjectID int64) (bool, error)
	Upsert(ctx context.Context, e extracts.Extract) (*extracts.Extract, error)
	ListBySubject(ctx context.Context, workflowID, subjectID int64) ([]extracts.Extract, error)
}

// ReductionStore persists reductions by natural key.
type ReductionStore interface {
	Upsert(ctx context.Context, r reductions.Reduction) (*reductions.Reduction, error)
	ListBySubject(ctx context.Context, workflowID, subjectID int64) ([]reductions.Reduction, error)
}

// Backfiller requests the full classification history of a newly seen subject.
// Receivers must tolerate duplicate requests.
type Backfiller interface {
	Backfill(ctx context.Context, subjectID, workflowID int64) error
}

// Deps are the collaborators shared by every Pipeline.
// Retry.Attempts and Retry.Backoff bound conflict retries; the pipeline
// supplies the conflict predicate. Metrics may be nil.
type Deps struct {
	Extracts   ExtractStore
	Reductions ReductionStore
	Backfill   Backfiller
	Dispatcher rules.Dispatcher
	Retry      retry.Policy
	Logger     *slog.Logger
	Metrics    *Metrics
}

// Pipeline processes classifications for one workflow configuration.
type Pipeline struct {
	workflowID int64
	extractors []extractors.Entry
	reducers   []reducers.Entry
	rules      *rules.Engine
	deps       Deps
	logger     *slog.Logger
}

// New builds the workflow's strategies and rules.
func New(w *workflows.Workflow, deps Deps) (*Pipeline, error) {
	ex, err := w.Extractors()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", workflows.ErrInvalidConfig, err)
	}
	red, err := w.Reducers()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", workflows.ErrInvalidConfig, err)
	}
	engine, err := w.Rules()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", workflows.ErrInvalidConfig, err)
	}

	return &Pipeline{
		workflowID: w.ID,
		extractors: ex,
		reducers:   red,
		rules:      engine,
		deps:       deps,
		logger:     deps.Logger.With("workflow_id", w.ID),
	}, nil
}

// Process extracts, reduces, and checks rules for c. Stages are not rolled
// back on failure; the caller is expected to redeliver.
func (p *Pipeline) Process(ctx context.Context, c classifications.Classification) error {
	err := p.process(ctx, c)
	p.deps.Metrics.recordResult(err)
	return err
}

func (p *Pipeline) process(ctx context.Context, c classifications.Classification) error {
	if c.WorkflowID != p.workflowID {
		return fmt.Errorf("classification %d belongs to workflow %d, pipeline serves %d",
			c.ID, c.WorkflowID, p.workflowID)
	}

	if _, err := p.Extract(ctx, c); err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if _, err := p.Reduce(ctx, c.WorkflowID, c.SubjectID); err != nil {
		return fmt.Errorf("reduce: %w", err)
	}
	if err := p.CheckRules(ctx, c.WorkflowID, c.SubjectID); err != nil {
		return fmt.Errorf("check rules: %w", err)
	}
	return nil
}

// Extract runs every extractor in configuration order and upserts the result.
//
// When the subject has no extracts yet, a backfill is requested before any
// extract is written. A failed request leaves the subject unseen, so a
// redelivered classification asks again.
func (p *Pipeline) Extract(ctx context.Context, c classifications.Classification) ([]extracts.Extract, error) {
	defer p.deps.Metrics.observeStage("extract", time.Now())

	known, err := p.deps.Extracts.Exists(ctx, c.WorkflowID, c.SubjectID)
	if err != nil {
		return nil, err
	}

	if !known && len(p.extractors) > 0 {
		if err := p.deps.Backfill.Backfill(ctx, c.SubjectID, c.WorkflowID); err != nil {
			return nil, fmt.Errorf("backfill subject %d: %w", c.SubjectID, err)
		}
		p.deps.Metrics.recordBackfill()
		p.logger.Info("backfill requested", "subject_id", c.SubjectID)
	}

	saved := make([]extracts.Extract, 0, len(p.extractors))
	for _, entry := range p.extractors {
		data, err := entry.Extractor.Process(c)
		if err != nil {
			return saved, fmt.Errorf("extractor %q: %w", entry.Key, err)
		}

		e := extracts.Extract{
			WorkflowID:       c.WorkflowID,
			SubjectID:        c.SubjectID,
			ClassificationID: c.ID,
			ExtractorKey:     entry.Key,
			UserID:           c.UserID,
			ClassificationAt: c.CreatedAt,
			Data:             data,
		}

		result, err := retry.Do(ctx, p.policy("extract", entry.Key, extracts.ErrDuplicate), func(ctx context.Context) (*extracts.Extract, error) {
			return p.deps.Extracts.Upsert(ctx, e)
		})
		if err != nil {
			return saved, fmt.Errorf("save extract %q: %w", entry.Key, err)
		}
		saved = append(saved, *result)
	}

	return saved, nil
}

// Reduce recomputes every reducer over the subject's full extract history,
// most recent classification first.
func (p *Pipeline) Reduce(ctx context.Context, workflowID, subjectID int64) ([]reductions.Reduction, error) {
	defer p.deps.Metrics.observeStage("reduce", time.Now())

	if len(p.reducers) == 0 {
		return nil, nil
	}

	history, err := p.deps.Extracts.ListBySubject(ctx, workflowID, subjectID)
	if err != nil {
		return nil, err
	}

	saved := make([]reductions.Reduction, 0, len(p.reducers))
	for _, entry := range p.reducers {
		data, err := entry.Reduce(history)
		if err != nil {
			return saved, err
		}

		r := reductions.Reduction{
			WorkflowID: workflowID,
			SubjectID:  subjectID,
			ReducerKey: entry.Key,
			Data:       data,
		}

		result, err := retry.Do(ctx, p.policy("reduce", entry.Key, reductions.ErrDuplicate), func(ctx context.Context) (*reductions.Reduction, error) {
			return p.deps.Reductions.Upsert(ctx, r)
		})
		if err != nil {
			return saved, fmt.Errorf("save reduction %q: %w", entry.Key, err)
		}
		saved = append(saved, *result)
	}

	return saved, nil
}

// CheckRules evaluates every rule against the subject's current reductions
// and dispatches the actions of each rule that holds.
func (p *Pipeline) CheckRules(ctx context.Context, workflowID, subjectID int64) error {
	if p.rules.Len() == 0 {
		return nil
	}
	defer p.deps.Metrics.observeStage("rules", time.Now())

	current, err := p.deps.Reductions.ListBySubject(ctx, workflowID, subjectID)
	if err != nil {
		return err
	}

	dispatcher := rules.DispatcherFunc(func(ctx context.Context, workflowID, subjectID int64, a rules.Action) error {
		if err := p.deps.Dispatcher.Dispatch(ctx, workflowID, subjectID, a); err != nil {
			return err
		}
		p.deps.Metrics.recordAction(a.Name)
		p.logger.Info("action dispatched", "subject_id", subjectID, "action", a.Name)
		return nil
	})

	_, err = p.rules.Process(ctx, workflowID, subjectID, rules.NewBindings(current), dispatcher)
	return err
}

func (p *Pipeline) policy(stage, key string, conflict error) retry.Policy {
	pol := p.deps.Retry
	pol.Retryable = func(err error) bool { return errors.Is(err, conflict) }
	pol.OnRetry = func(attempt int, err error) {
		p.deps.Metrics.recordRetry(stage)
		p.logger.Warn("write conflict, retrying",
			"stage", stage,
			"key", key,
			"attempt", attempt,
			"backoff", pol.Backoff,
			"error", err,
		)
	}
	return pol
}
