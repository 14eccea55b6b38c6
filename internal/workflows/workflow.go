// Package workflows caches each workflow's extractor, reducer, and rule
// configuration. Updates are last-writer-wins by updated_at, so configuration
// delivered out of order never regresses a newer one.
package workflows

import (
	"fmt"
	"time"

	"github.com/JaimeStill/caesar/internal/extractors"
	"github.com/JaimeStill/caesar/internal/reducers"
	"github.com/JaimeStill/caesar/internal/rules"
	"github.com/JaimeStill/caesar/pkg/registry"
)

// Workflow is the cached configuration of one workflow.
type Workflow struct {
	ID               int64                `json:"id"`
	ExtractorsConfig registry.Definitions `json:"extractors_config"`
	ReducersConfig   registry.Definitions `json:"reducers_config"`
	RulesConfig      rules.Definitions    `json:"rules_config"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// Extractors builds the configured extractors in configuration order.
func (w *Workflow) Extractors() ([]extractors.Entry, error) {
	return extractors.Build(w.ExtractorsConfig)
}

// Reducers builds the configured reducers in configuration order.
func (w *Workflow) Reducers() ([]reducers.Entry, error) {
	return reducers.Build(w.ReducersConfig)
}

// Rules builds the workflow's rule engine.
func (w *Workflow) Rules() (*rules.Engine, error) {
	return rules.NewEngine(w.RulesConfig)
}

// Validate builds every strategy and rule so configuration errors surface at load.
func (w *Workflow) Validate() error {
	if w.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidConfig)
	}
	if _, err := w.Extractors(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := w.Reducers(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := w.Rules(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Config is the nested configuration carried by a cache update.
type Config struct {
	Extractors registry.Definitions `json:"extractors"`
	Reducers   registry.Definitions `json:"reducers"`
	Rules      rules.Definitions    `json:"rules"`
}

// CacheCommand is an incoming workflow configuration.
// A nil Config clears every section. A nil UpdatedAt is stamped with the
// time the command is applied.
type CacheCommand struct {
	ID        int64      `json:"id"`
	Config    *Config    `json:"config"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Workflow normalizes the command into the record to cache.
// Absent sections collapse to empty lists.
func (c CacheCommand) Workflow(now time.Time) Workflow {
	w := Workflow{
		ID:               c.ID,
		ExtractorsConfig: registry.Definitions{},
		ReducersConfig:   registry.Definitions{},
		RulesConfig:      rules.Definitions{},
		UpdatedAt:        now,
	}

	if c.Config != nil {
		if c.Config.Extractors != nil {
			w.ExtractorsConfig = c.Config.Extractors
		}
		if c.Config.Reducers != nil {
			w.ReducersConfig = c.Config.Reducers
		}
		if c.Config.Rules != nil {
			w.RulesConfig = c.Config.Rules
		}
	}

	if c.UpdatedAt != nil {
		w.UpdatedAt = *c.UpdatedAt
	}
	w.UpdatedAt = w.UpdatedAt.UTC().Truncate(time.Microsecond)

	return w
}
