package extractors_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/JaimeStill/caesar/internal/classifications"
	"github.com/JaimeStill/caesar/internal/extractors"
	"github.com/JaimeStill/caesar/pkg/registry"
)

func classification(annotations ...any) classifications.Classification {
	return classifications.Classification{
		ID:         1,
		WorkflowID: 1,
		SubjectID:  10,
		CreatedAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Payload:    map[string]any{"annotations": annotations},
	}
}

func annotation(task string, value any) map[string]any {
	return map[string]any{"task": task, "value": value}
}

func TestBuildPreservesOrder(t *testing.T) {
	defs := registry.Definitions{
		{Key: "s", Config: map[string]any{"type": "survey", "task_key": "T0"}},
		{Key: "q", Config: map[string]any{"type": "question", "task_key": "T1"}},
		{Key: "b", Config: map[string]any{"type": "blank"}},
	}

	entries, err := extractors.Build(defs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("entries: got %d, want 3", len(entries))
	}
	for i, want := range []string{"s", "q", "b"} {
		if entries[i].Key != want {
			t.Errorf("entries[%d].Key: got %s, want %s", i, entries[i].Key, want)
		}
	}
	if _, ok := entries[0].Extractor.(*extractors.Survey); !ok {
		t.Errorf("entries[0]: got %T, want *Survey", entries[0].Extractor)
	}
}

func TestBuildUnknownType(t *testing.T) {
	_, err := extractors.Build(registry.Definitions{
		{Key: "x", Config: map[string]any{"type": "telepathy"}},
	})
	if !errors.Is(err, extractors.ErrUnknownType) {
		t.Errorf("err: got %v, want ErrUnknownType", err)
	}
	if !errors.Is(err, registry.ErrUnknownTag) {
		t.Errorf("err should wrap registry.ErrUnknownTag: %v", err)
	}
}

func TestSurvey(t *testing.T) {
	ex, _ := extractors.NewSurvey(map[string]any{"task_key": "T0"})

	tests := []struct {
		name string
		c    classifications.Classification
		want []any
	}{
		{
			name: "choices in order",
			c: classification(annotation("T0", []any{
				map[string]any{"choice": "RCCN", "answers": map[string]any{}},
				map[string]any{"choice": "BBN"},
			})),
			want: []any{"RCCN", "BBN"},
		},
		{
			name: "task missing",
			c:    classification(annotation("T1", 1.0)),
			want: []any{},
		},
		{
			name: "malformed entries skipped",
			c:    classification(annotation("T0", []any{"RCCN", map[string]any{"choice": "NTHNGHR"}})),
			want: []any{"NTHNGHR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ex.Process(tt.c)
			if err != nil {
				t.Fatalf("process: %v", err)
			}
			if !reflect.DeepEqual(got["choices"], tt.want) {
				t.Errorf("choices: got %v, want %v", got["choices"], tt.want)
			}
		})
	}
}

func TestQuestion(t *testing.T) {
	ex, _ := extractors.NewQuestion(map[string]any{"task_key": "T1"})

	got, err := ex.Process(classification(annotation("T1", 2.0)))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{"2": 1}) {
		t.Errorf("single: got %v", got)
	}

	got, err = ex.Process(classification(annotation("T1", []any{"yes", true})))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{"yes": 1, "true": 1}) {
		t.Errorf("multiple: got %v", got)
	}

	if _, err := ex.Process(classification(annotation("T1", map[string]any{"x": 1}))); err == nil {
		t.Error("expected error for object answer")
	}
}

func TestBlank(t *testing.T) {
	ex, _ := extractors.NewBlank(nil)

	got, _ := ex.Process(classification(annotation("T0", []any{}), annotation("T1", nil)))
	if got["blank"] != true {
		t.Errorf("empty annotations: got %v, want blank", got)
	}

	got, _ = ex.Process(classification(annotation("T0", []any{}), annotation("T1", 0.0)))
	if got["blank"] != false {
		t.Errorf("answered: got %v, want not blank", got)
	}
}
