package extracts_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/caesar/internal/extracts"
)

type mockLister struct {
	listFn func(ctx context.Context, workflowID, subjectID int64) ([]extracts.Extract, error)
}

func (m *mockLister) ListBySubject(ctx context.Context, workflowID, subjectID int64) ([]extracts.Extract, error) {
	return m.listFn(ctx, workflowID, subjectID)
}

func setupMux(h *extracts.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func newHandler(l *mockLister) *extracts.Handler {
	return extracts.NewHandler(l, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandlerList(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	var gotWorkflow, gotSubject int64

	l := &mockLister{
		listFn: func(_ context.Context, workflowID, subjectID int64) ([]extracts.Extract, error) {
			gotWorkflow, gotSubject = workflowID, subjectID
			return []extracts.Extract{{
				ID:               uuid.New(),
				WorkflowID:       workflowID,
				SubjectID:        subjectID,
				ClassificationID: 3,
				ExtractorKey:     "s",
				ClassificationAt: now,
				Data:             map[string]any{"choices": []any{"RCCN"}},
			}}, nil
		},
	}

	mux := setupMux(newHandler(l))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/workflows/7/subjects/42/extracts", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotWorkflow != 7 || gotSubject != 42 {
		t.Errorf("path values: got (%d, %d), want (7, 42)", gotWorkflow, gotSubject)
	}

	var items []extracts.Extract
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].ExtractorKey != "s" {
		t.Errorf("items: got %+v", items)
	}
}

func TestHandlerListErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{"invalid workflow id", "/workflows/abc/subjects/1/extracts", nil, http.StatusBadRequest},
		{"invalid subject id", "/workflows/1/subjects/abc/extracts", nil, http.StatusBadRequest},
		{"store failure", "/workflows/1/subjects/2/extracts", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &mockLister{
				listFn: func(context.Context, int64, int64) ([]extracts.Extract, error) {
					return nil, tt.err
				},
			}
			mux := setupMux(newHandler(l))

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", extracts.ErrNotFound, http.StatusNotFound},
		{"duplicate", errors.Join(extracts.ErrDuplicate, errors.New("23505")), http.StatusConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extracts.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
