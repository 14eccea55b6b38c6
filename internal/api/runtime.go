package api

import (
	"github.com/JaimeStill/caesar/internal/config"
	"github.com/JaimeStill/caesar/internal/events"
	"github.com/JaimeStill/caesar/internal/infrastructure"
	"github.com/JaimeStill/caesar/internal/pipeline"
	"github.com/JaimeStill/caesar/internal/rules"
	"github.com/JaimeStill/caesar/pkg/retry"
)

// Runtime extends Infrastructure with the collaborators the pipeline needs
// beyond storage. Backfill and Dispatcher publish to NATS when messaging is
// enabled and fall back to the log otherwise.
type Runtime struct {
	*infrastructure.Infrastructure
	Backfill   pipeline.Backfiller
	Dispatcher rules.Dispatcher
	Retry      retry.Policy
	Metrics    *pipeline.Metrics
	MaxBody    int64
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	logger := infra.Logger.With("module", "api")

	rt := &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Messaging: infra.Messaging,
		},
		Retry:   cfg.Pipeline.RetryPolicy(),
		Metrics: pipeline.NewMetrics(),
		MaxBody: cfg.API.MaxBodyBytes,
	}

	if infra.Messaging != nil {
		js := infra.Messaging.JetStream()
		mcfg := infra.Messaging.Config()
		rt.Backfill = events.NewBackfill(js, mcfg.Subject(events.BackfillToken), logger)
		rt.Dispatcher = events.NewActionDispatcher(js, mcfg.SubjectPrefix, logger)
	} else {
		rt.Backfill = events.NewLogBackfill(logger)
		rt.Dispatcher = events.NewLogDispatcher(logger)
	}

	return rt
}
