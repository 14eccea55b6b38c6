package reductions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/caesar/internal/extracts"
	"github.com/JaimeStill/caesar/pkg/handlers"
	"github.com/JaimeStill/caesar/pkg/routes"
)

// Lister is the read side of System used by Handler.
type Lister interface {
	ListBySubject(ctx context.Context, workflowID, subjectID int64) ([]Reduction, error)
}

// Handler exposes a subject's current reductions over HTTP.
type Handler struct {
	store  Lister
	logger *slog.Logger
}

func NewHandler(store Lister, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger.With("handler", "reductions"),
	}
}

// Routes returns the route group definition for reduction endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/workflows/{workflowId}/subjects/{subjectId}",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/reductions", Handler: h.List},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	workflowID, subjectID, err := extracts.SubjectPath(r)
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
