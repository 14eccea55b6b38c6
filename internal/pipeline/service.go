package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/JaimeStill/caesar/internal/classifications"
	"github.com/JaimeStill/caesar/internal/workflows"
)

// WorkflowSource reads cached workflow configuration.
type WorkflowSource interface {
	Find(ctx context.Context, id int64) (*workflows.Workflow, error)
}

// Service processes classifications against the latest cached configuration
// of their workflow. Configuration is re-read for every classification.
type Service struct {
	workflows WorkflowSource
	deps      Deps
}

// NewService creates a Service over the workflow cache and shared dependencies.
func NewService(src WorkflowSource, deps Deps) *Service {
	return &Service{workflows: src, deps: deps}
}

// Process loads the classification's workflow, builds its pipeline, and runs it.
// An uncached workflow yields classifications.ErrUnknownWorkflow.
func (s *Service) Process(ctx context.Context, c classifications.Classification) error {
	if err := c.Validate(); err != nil {
		return err
	}

	w, err := s.workflows.Find(ctx, c.WorkflowID)
	if errors.Is(err, workflows.ErrNotFound) {
		return fmt.Errorf("%w: %d", classifications.ErrUnknownWorkflow, c.WorkflowID)
	}
	if err != nil {
		return fmt.Errorf("load workflow %d: %w", c.WorkflowID, err)
	}

	p, err := New(w, s.deps)
	if err != nil {
		return err
	}
	return p.Process(ctx, c)
}
