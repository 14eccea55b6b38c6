package extracts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/caesar/pkg/handlers"
	"github.com/JaimeStill/caesar/pkg/routes"
)

// Lister is the read side of System used by Handler.
type Lister interface {
	ListBySubject(ctx context.Context, workflowID, subjectID int64) ([]Extract, error)
}

// Handler provides read-only HTTP endpoints over a subject's extract history.
type Handler struct {
	store  Lister
	logger *slog.Logger
}

// NewHandler creates a Handler over store.
func NewHandler(store Lister, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger.With("handler", "extracts"),
	}
}

// Routes returns the route group definition for extract endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/workflows/{workflowId}/subjects/{subjectId}",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/extracts", Handler: h.List},
		},
	}
}

// List returns the subject's extracts ordered by classification time, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	workflowID, subjectID, err := SubjectPath(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	items, err := h.store.ListBySubject(r.Context(), workflowID, subjectID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// SubjectPath parses the {workflowId} and {subjectId} path values.
func SubjectPath(r *http.Request) (workflowID, subjectID int64, err error) {
	workflowID, err = strconv.ParseInt(r.PathValue("workflowId"), 10, 64)
	if err != nil {
		return 0, 0, errors.New("invalid workflow id")
	}
	subjectID, err = strconv.ParseInt(r.PathValue("subjectId"), 10, 64)
	if err != nil {
		return 0, 0, errors.New("invalid subject id")
	}
	return workflowID, subjectID, nil
}
