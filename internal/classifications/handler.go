package classifications

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/caesar/pkg/handlers"
	"github.com/JaimeStill/caesar/pkg/routes"
)

// Processor runs one classification through the aggregation pipeline.
type Processor interface {
	Process(ctx context.Context, c Classification) error
}

// Handler provides the synchronous HTTP ingestion endpoint.
type Handler struct {
	processor Processor
	logger    *slog.Logger
	maxBody   int64
}

// NewHandler creates a Handler that reads at most maxBody bytes per request.
func NewHandler(processor Processor, logger *slog.Logger, maxBody int64) *Handler {
	return &Handler{
		processor: processor,
		logger:    logger.With("handler", "classifications"),
		maxBody:   maxBody,
	}
}

// Routes returns the route group definition for classification endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/classifications",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Process},
		},
	}
}

// Process decodes a classification body and runs extraction, reduction, and rule checks.
// Returns 202 once every stage has completed.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	c, err := Decode(body)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if err := h.processor.Process(r.Context(), c); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, map[string]any{
		"id":          c.ID,
		"workflow_id": c.WorkflowID,
		"subject_id":  c.SubjectID,
	})
}
