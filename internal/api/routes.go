package api

import (
	"net/http"

	"github.com/JaimeStill/caesar/internal/classifications"
	"github.com/JaimeStill/caesar/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	patterns := routes.Register(
		mux,
		domain.Workflows.Handler().Routes(),
		domain.Extracts.Handler().Routes(),
		domain.Reductions.Handler().Routes(),
		classifications.NewHandler(domain.Pipeline, runtime.Logger, runtime.MaxBody).Routes(),
	)
	runtime.Logger.Debug("routes registered", "patterns", patterns)
}
