package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/caesar/internal/classifications"
	"github.com/JaimeStill/caesar/internal/extracts"
	"github.com/JaimeStill/caesar/internal/pipeline"
	"github.com/JaimeStill/caesar/internal/workflows"
	"github.com/JaimeStill/caesar/pkg/retry"
)

const workflowConfig = `{
	"config": {
		"extractors": {
			"s": {"type": "survey", "task_key": "T0"},
			"q": {"type": "question", "task_key": "T1"}
		},
		"reducers": {
			"s": {"type": "survey"},
			"q": {"type": "stats", "filters": {"repeated_classifications": "keep_first"}},
			"c": {"type": "count"}
		},
		"rules": [
			{"if": ["gte", ["lookup", "s-VHCL"], ["const", 2]], "then": [{"action": "retire_subject", "reason": "consensus"}]},
			{"if": ["gte", ["lookup", "c-classifications"], ["const", 1]], "then": [{"action": "add_to_collection", "collection": 5}]},
			{"if": ["eq", ["lookup", "s-BBN"], ["const", 99]], "then": [{"action": "never"}]}
		]
	},
	"updated_at": "2026-03-01T00:00:00Z"
}`

type harness struct {
	extracts   *memExtracts
	reductions *memReductions
	backfill   *memBackfill
	dispatcher *memDispatcher
	deps       pipeline.Deps
	workflow   *workflows.Workflow
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	var cmd workflows.CacheCommand
	if err := json.Unmarshal([]byte(workflowConfig), &cmd); err != nil {
		t.Fatalf("unmarshal config: %v", err)
	}
	cmd.ID = 1
	w := cmd.Workflow(time.Now())

	h := &harness{
		extracts:   newMemExtracts(),
		reductions: newMemReductions(),
		backfill:   &memBackfill{},
		dispatcher: &memDispatcher{},
		workflow:   &w,
	}
	h.deps = pipeline.Deps{
		Extracts:   h.extracts,
		Reductions: h.reductions,
		Backfill:   h.backfill,
		Dispatcher: h.dispatcher,
		Retry:      retry.Policy{Attempts: 2, Backoff: time.Millisecond},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h
}

func (h *harness) pipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(h.workflow, h.deps)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func classification(id, subjectID int64, userID *int64, at time.Time, species ...string) classifications.Classification {
	choices := make([]any, len(species))
	for i, s := range species {
		choices[i] = map[string]any{"choice": s}
	}
	return classifications.Classification{
		ID:         id,
		WorkflowID: 1,
		SubjectID:  subjectID,
		UserID:     userID,
		CreatedAt:  at,
		Payload: map[string]any{"annotations": []any{
			map[string]any{"task": "T0", "value": choices},
			map[string]any{"task": "T1", "value": "yes"},
		}},
	}
}

func user(id int64) *int64 { return &id }

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestProcessRunsAllStages(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	ctx := context.Background()

	if err := p.Process(ctx, classification(1, 10, user(1), t0, "VHCL")); err != nil {
		t.Fatalf("process 1: %v", err)
	}
	if err := p.Process(ctx, classification(2, 10, user(2), t0.Add(time.Minute), "VHCL", "BBN")); err != nil {
		t.Fatalf("process 2: %v", err)
	}

	if got := h.extracts.count(); got != 4 {
		t.Errorf("extracts: got %d, want 4", got)
	}

	s, _ := h.reductions.get(1, 10, "s")
	if want := map[string]any{"VHCL": 2, "BBN": 1}; !reflect.DeepEqual(s.Data, want) {
		t.Errorf("survey reduction: got %v, want %v", s.Data, want)
	}

	q, _ := h.reductions.get(1, 10, "q")
	if q.Data["yes"] != 2.0 {
		t.Errorf("stats reduction: got %v", q.Data)
	}

	want := []string{"add_to_collection", "retire_subject", "add_to_collection"}
	if got := h.dispatcher.names(); !slices.Equal(got, want) {
		t.Errorf("actions: got %v, want %v", got, want)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	ctx := context.Background()
	c := classification(7, 10, user(1), t0, "RCCN")

	first, err := p.Extract(ctx, c)
	if err != nil {
		t.Fatalf("first extract: %v", err)
	}
	second, err := p.Extract(ctx, c)
	if err != nil {
		t.Fatalf("second extract: %v", err)
	}

	if h.extracts.count() != 2 {
		t.Errorf("extracts: got %d, want one per extractor", h.extracts.count())
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("extract %s: row replaced instead of updated", first[i].ExtractorKey)
		}
	}

	if len(h.backfill.requests) != 1 {
		t.Errorf("backfills: got %d, want 1 (second call sees a known subject)", len(h.backfill.requests))
	}
}

func TestExtractOrderAndBackfill(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)

	saved, err := p.Extract(context.Background(), classification(1, 42, nil, t0, "BBN"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	keys := make([]string, len(saved))
	for i, e := range saved {
		keys[i] = e.ExtractorKey
	}
	if !slices.Equal(keys, []string{"s", "q"}) {
		t.Errorf("extractor order: got %v, want [s q]", keys)
	}
	if saved[0].UserID != nil || !saved[0].ClassificationAt.Equal(t0) {
		t.Errorf("copied attributes: got %+v", saved[0])
	}

	if want := []backfill{{subjectID: 42, workflowID: 1}}; !slices.Equal(h.backfill.requests, want) {
		t.Errorf("backfill: got %v, want %v", h.backfill.requests, want)
	}
}

func TestExtractRetriesConflict(t *testing.T) {
	h := newHarness(t)
	h.extracts.conflicts = 1
	p := h.pipeline(t)

	saved, err := p.Extract(context.Background(), classification(1, 10, user(1), t0, "BBN"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(saved) != 2 {
		t.Errorf("saved: got %d, want 2", len(saved))
	}
	if h.extracts.upserts != 3 {
		t.Errorf("upserts: got %d, want 3 (one retried)", h.extracts.upserts)
	}
}

func TestExtractConflictExhausted(t *testing.T) {
	h := newHarness(t)
	h.extracts.conflicts = 2
	p := h.pipeline(t)

	err := p.Process(context.Background(), classification(1, 10, user(1), t0, "BBN"))
	if !errors.Is(err, retry.ErrExhausted) {
		t.Errorf("err: got %v, want ErrExhausted", err)
	}
	if !errors.Is(err, extracts.ErrDuplicate) {
		t.Errorf("err should wrap ErrDuplicate: %v", err)
	}
	if len(h.dispatcher.actions) != 0 {
		t.Error("later stages should not run after a fatal extract")
	}
}

func TestReduceRetriesConflict(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	ctx := context.Background()

	if _, err := p.Extract(ctx, classification(1, 10, user(1), t0, "BBN")); err != nil {
		t.Fatalf("extract: %v", err)
	}

	h.reductions.conflicts = 1
	saved, err := p.Reduce(ctx, 1, 10)
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if len(saved) != 3 {
		t.Errorf("reductions: got %d, want 3", len(saved))
	}
}

func TestReduceAppliesRepeatedness(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	ctx := context.Background()

	// user 1 classifies twice; the "q" reducer keeps only their first group
	// in history order, which is most recent first.
	for i, c := range []classifications.Classification{
		classification(1, 10, user(1), t0, "BBN"),
		classification(2, 10, user(2), t0.Add(time.Minute), "BBN"),
		classification(3, 10, user(1), t0.Add(2*time.Minute), "BBN"),
	} {
		if err := p.Process(ctx, c); err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
	}

	q, _ := h.reductions.get(1, 10, "q")
	if q.Data["yes"] != 2.0 {
		t.Errorf("keep_first stats: got %v, want yes=2", q.Data)
	}

	s, _ := h.reductions.get(1, 10, "s")
	if s.Data["BBN"] != 3 {
		t.Errorf("keep_all survey: got %v, want BBN=3", s.Data)
	}
}

func TestConcurrentSameSubject(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			c := classification(int64(i+1), 10, user(int64(i%3)), t0.Add(time.Duration(i)*time.Second), "VHCL")
			if err := p.Process(ctx, c); err != nil {
				t.Errorf("process %d: %v", i, err)
			}
		})
	}
	wg.Wait()

	// A final pass sees the complete history regardless of interleaving.
	if _, err := p.Reduce(ctx, 1, 10); err != nil {
		t.Fatalf("reduce: %v", err)
	}

	s, _ := h.reductions.get(1, 10, "s")
	if s.Data["VHCL"] != 10 {
		t.Errorf("survey reduction: got %v, want VHCL=10", s.Data)
	}
	if h.extracts.count() != 20 {
		t.Errorf("extracts: got %d, want 20", h.extracts.count())
	}
}

func TestCheckRulesWithoutRules(t *testing.T) {
	h := newHarness(t)
	h.workflow.RulesConfig = nil
	p := h.pipeline(t)

	if err := p.Process(context.Background(), classification(1, 10, user(1), t0, "VHCL", "VHCL")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(h.dispatcher.actions) != 0 {
		t.Errorf("actions: got %v, want none", h.dispatcher.names())
	}
}

func TestProcessRejectsForeignWorkflow(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)

	c := classification(1, 10, user(1), t0, "VHCL")
	c.WorkflowID = 2
	if err := p.Process(context.Background(), c); err == nil {
		t.Error("expected error for classification of another workflow")
	}
}

func TestBackfillFailureIsRetriedOnRedelivery(t *testing.T) {
	h := newHarness(t)
	h.backfill.err = errors.New("broker down")
	p := h.pipeline(t)

	if err := p.Process(context.Background(), classification(1, 10, user(1), t0, "VHCL")); err == nil {
		t.Fatal("expected backfill failure to surface")
	}
	if h.extracts.count() != 0 {
		t.Fatalf("extracts: got %d, want none before the signal is sent", h.extracts.count())
	}

	h.backfill.err = nil
	if err := p.Process(context.Background(), classification(1, 10, user(1), t0, "VHCL")); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(h.backfill.requests) != 1 {
		t.Errorf("backfills: got %d, want 1", len(h.backfill.requests))
	}
}

func TestNoBackfillWithoutExtractors(t *testing.T) {
	h := newHarness(t)
	h.workflow.ExtractorsConfig = nil
	p := h.pipeline(t)

	if err := p.Process(context.Background(), classification(1, 10, user(1), t0, "VHCL")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(h.backfill.requests) != 0 {
		t.Errorf("backfills: got %d, want 0", len(h.backfill.requests))
	}
}
