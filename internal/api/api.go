// Package api assembles the HTTP API with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/caesar/pkg/middleware"
)

// NewHandler builds the API handler with all domain routes and middleware.
// Routes are registered relative to the API base path; the caller strips it.
func NewHandler(runtime *Runtime, domain *Domain) http.Handler {
	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	mw := middleware.New()
	mw.Use(middleware.Logger(runtime.Logger))
	mw.Use(middleware.Metrics())

	return mw.Apply(mux)
}
