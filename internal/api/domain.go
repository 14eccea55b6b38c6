package api

import (
	"github.com/JaimeStill/caesar/internal/extracts"
	"github.com/JaimeStill/caesar/internal/pipeline"
	"github.com/JaimeStill/caesar/internal/reductions"
	"github.com/JaimeStill/caesar/internal/workflows"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Workflows  workflows.System
	Extracts   extracts.System
	Reductions reductions.System
	Pipeline   *pipeline.Service
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	workflowsSystem := workflows.New(db, runtime.Logger)
	extractsSystem := extracts.New(db, runtime.Logger)
	reductionsSystem := reductions.New(db, runtime.Logger)

	service := pipeline.NewService(workflowsSystem, pipeline.Deps{
		Extracts:   extractsSystem,
		Reductions: reductionsSystem,
		Backfill:   runtime.Backfill,
		Dispatcher: runtime.Dispatcher,
		Retry:      runtime.Retry,
		Logger:     runtime.Logger.With("system", "pipeline"),
		Metrics:    runtime.Metrics,
	})

	return &Domain{
		Workflows:  workflowsSystem,
		Extracts:   extractsSystem,
		Reductions: reductionsSystem,
		Pipeline:   service,
	}
}
