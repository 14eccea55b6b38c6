package main

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/caesar/internal/api"
	"github.com/JaimeStill/caesar/internal/config"
	"github.com/JaimeStill/caesar/internal/events"
	"github.com/JaimeStill/caesar/internal/infrastructure"
)

// Modules holds the assembled API surfaces: the HTTP handler and, when
// messaging is enabled, the JetStream consumer feeding the same pipeline.
type Modules struct {
	API      http.Handler
	Consumer *events.Consumer
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) *Modules {
	runtime := api.NewRuntime(cfg, infra)
	domain := api.NewDomain(runtime)

	m := &Modules{API: api.NewHandler(runtime, domain)}

	if infra.Messaging != nil {
		m.Consumer = events.NewConsumer(
			infra.Messaging.JetStream(),
			infra.Messaging.Config(),
			domain.Pipeline,
			runtime.Logger,
		)
	}

	return m
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config, modules *Modules) *http.ServeMux {
	router := http.NewServeMux()

	router.Handle(cfg.API.BasePath+"/", http.StripPrefix(cfg.API.BasePath, modules.API))
	router.Handle("GET "+cfg.API.MetricsPath, promhttp.Handler())

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})

	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})

	return router
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
