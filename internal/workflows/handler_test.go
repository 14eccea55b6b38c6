package workflows_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/caesar/internal/workflows"
)

// mockSystem applies the same freshness rule as the SQL upsert.
type mockSystem struct {
	cached map[int64]workflows.Workflow
}

func (m *mockSystem) Handler() *workflows.Handler {
	return workflows.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (m *mockSystem) Find(_ context.Context, id int64) (*workflows.Workflow, error) {
	w, ok := m.cached[id]
	if !ok {
		return nil, workflows.ErrNotFound
	}
	return &w, nil
}

func (m *mockSystem) UpdateCache(_ context.Context, cmd workflows.CacheCommand) (bool, error) {
	w := cmd.Workflow(time.Now())
	if err := w.Validate(); err != nil {
		return false, err
	}
	if cur, ok := m.cached[w.ID]; ok && !cur.UpdatedAt.Before(w.UpdatedAt) {
		return false, nil
	}
	m.cached[w.ID] = w
	return true, nil
}

func setupMux(sys *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	group := sys.Handler().Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func put(mux *http.ServeMux, id, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("PUT", "/workflows/"+id, strings.NewReader(body)))
	return rec
}

func TestHandlerUpdateAndFind(t *testing.T) {
	sys := &mockSystem{cached: map[int64]workflows.Workflow{}}
	mux := setupMux(sys)

	rec := put(mux, "1", configuredBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("put: status %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		ID      int64 `json:"id"`
		Applied bool  `json:"applied"`
	}
	json.NewDecoder(rec.Body).Decode(&result)
	if !result.Applied || result.ID != 1 {
		t.Errorf("result: got %+v", result)
	}

	stale := fmt.Sprintf(`{"config": {}, "updated_at": %q}`, "2026-02-01T00:00:00Z")
	rec = put(mux, "1", stale)
	json.NewDecoder(rec.Body).Decode(&result)
	if result.Applied {
		t.Error("stale update reported as applied")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/workflows/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}

	var w workflows.Workflow
	if err := json.NewDecoder(rec.Body).Decode(&w); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(w.ExtractorsConfig) != 1 || len(w.RulesConfig) != 1 {
		t.Errorf("workflow: got %+v", w)
	}
}

func TestHandlerErrors(t *testing.T) {
	sys := &mockSystem{cached: map[int64]workflows.Workflow{}}
	mux := setupMux(sys)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"find missing", "GET", "/workflows/9", "", http.StatusNotFound},
		{"find bad id", "GET", "/workflows/abc", "", http.StatusBadRequest},
		{"put bad json", "PUT", "/workflows/1", `{"config":`, http.StatusBadRequest},
		{"put bad definitions", "PUT", "/workflows/1", `{"config": {"extractors": "survey"}}`, http.StatusBadRequest},
		{"put unknown operator", "PUT", "/workflows/1", `{"config": {"rules": [{"if": ["median"], "then": []}]}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
