package pipeline_test

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/caesar/internal/extracts"
	"github.com/JaimeStill/caesar/internal/reductions"
	"github.com/JaimeStill/caesar/internal/rules"
	"github.com/JaimeStill/caesar/internal/workflows"
)

type extractKey struct {
	workflowID, subjectID, classificationID int64
	extractorKey                            string
}

// memExtracts upserts by natural key. conflicts makes the next n upserts fail
// the way a lost unique-constraint race does.
type memExtracts struct {
	mu        sync.Mutex
	rows      map[extractKey]extracts.Extract
	conflicts int
	upserts   int
}

func newMemExtracts() *memExtracts {
	return &memExtracts{rows: map[extractKey]extracts.Extract{}}
}

func (m *memExtracts) Exists(_ context.Context, workflowID, subjectID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.rows {
		if k.workflowID == workflowID && k.subjectID == subjectID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memExtracts) Upsert(_ context.Context, e extracts.Extract) (*extracts.Extract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.upserts++
	if m.conflicts > 0 {
		m.conflicts--
		return nil, errors.Join(extracts.ErrDuplicate, errors.New("SQLSTATE 23505"))
	}

	k := extractKey{e.WorkflowID, e.SubjectID, e.ClassificationID, e.ExtractorKey}
	if cur, ok := m.rows[k]; ok {
		e.ID = cur.ID
	} else {
		e.ID = uuid.New()
	}
	m.rows[k] = e
	return &e, nil
}

func (m *memExtracts) ListBySubject(_ context.Context, workflowID, subjectID int64) ([]extracts.Extract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]extracts.Extract, 0)
	for _, e := range m.rows {
		if e.WorkflowID == workflowID && e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b extracts.Extract) int {
		return cmp.Or(
			b.ClassificationAt.Compare(a.ClassificationAt),
			cmp.Compare(b.ClassificationID, a.ClassificationID),
			cmp.Compare(a.ExtractorKey, b.ExtractorKey),
		)
	})
	return out, nil
}

func (m *memExtracts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type reductionKey struct {
	workflowID, subjectID int64
	reducerKey            string
}

type memReductions struct {
	mu        sync.Mutex
	rows      map[reductionKey]reductions.Reduction
	conflicts int
}

func newMemReductions() *memReductions {
	return &memReductions{rows: map[reductionKey]reductions.Reduction{}}
}

func (m *memReductions) Upsert(_ context.Context, r reductions.Reduction) (*reductions.Reduction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conflicts > 0 {
		m.conflicts--
		return nil, reductions.ErrDuplicate
	}

	k := reductionKey{r.WorkflowID, r.SubjectID, r.ReducerKey}
	if cur, ok := m.rows[k]; ok {
		r.ID = cur.ID
	} else {
		r.ID = uuid.New()
	}
	m.rows[k] = r
	return &r, nil
}

func (m *memReductions) ListBySubject(_ context.Context, workflowID, subjectID int64) ([]reductions.Reduction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]reductions.Reduction, 0)
	for _, k := range slices.SortedFunc(maps.Keys(m.rows), func(a, b reductionKey) int {
		return cmp.Compare(a.reducerKey, b.reducerKey)
	}) {
		if k.workflowID == workflowID && k.subjectID == subjectID {
			out = append(out, m.rows[k])
		}
	}
	return out, nil
}

func (m *memReductions) get(workflowID, subjectID int64, key string) (reductions.Reduction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[reductionKey{workflowID, subjectID, key}]
	return r, ok
}

type backfill struct {
	subjectID, workflowID int64
}

type memBackfill struct {
	mu       sync.Mutex
	requests []backfill
	err      error
}

func (m *memBackfill) Backfill(_ context.Context, subjectID, workflowID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.requests = append(m.requests, backfill{subjectID, workflowID})
	return nil
}

type dispatched struct {
	subjectID int64
	action    rules.Action
}

type memDispatcher struct {
	mu      sync.Mutex
	actions []dispatched
}

func (m *memDispatcher) Dispatch(_ context.Context, _, subjectID int64, a rules.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, dispatched{subjectID, a})
	return nil
}

func (m *memDispatcher) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.actions))
	for i, d := range m.actions {
		out[i] = d.action.Name
	}
	return out
}

type memWorkflows map[int64]*workflows.Workflow

func (m memWorkflows) Find(_ context.Context, id int64) (*workflows.Workflow, error) {
	w, ok := m[id]
	if !ok {
		return nil, workflows.ErrNotFound
	}
	return w, nil
}
