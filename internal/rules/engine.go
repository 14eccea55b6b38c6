// Package rules evaluates configured conditions against a subject's
// reductions and dispatches the actions of every rule that holds.
package rules

import (
	"context"
	"errors"
	"fmt"
)

// Dispatcher performs an action for a subject.
type Dispatcher interface {
	Dispatch(ctx context.Context, workflowID, subjectID int64, action Action) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, workflowID, subjectID int64, action Action) error

func (f DispatcherFunc) Dispatch(ctx context.Context, workflowID, subjectID int64, action Action) error {
	return f(ctx, workflowID, subjectID, action)
}

// Engine holds a workflow's parsed rules.
type Engine struct {
	rules []Rule
}

// NewEngine parses defs. Any unknown operator or malformed rule fails the whole set.
func NewEngine(defs Definitions) (*Engine, error) {
	rules := make([]Rule, 0, len(defs))
	for i, def := range defs {
		r, err := build(def)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, r)
	}
	return &Engine{rules: rules}, nil
}

// Len returns the number of rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

// Rules returns the parsed rules in configuration order.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Process evaluates every rule in order and dispatches all actions of each
// matching rule. A failed dispatch does not stop later actions; failures are
// joined into the returned error. Returns the number of actions dispatched.
func (e *Engine) Process(
	ctx context.Context,
	workflowID, subjectID int64,
	b Bindings,
	d Dispatcher,
) (int, error) {
	var errs []error
	dispatched := 0

	for i, r := range e.rules {
		if !r.Matches(b) {
			continue
		}

		for _, action := range r.Actions {
			if err := d.Dispatch(ctx, workflowID, subjectID, action); err != nil {
				errs = append(errs, fmt.Errorf("rule %d action %s: %w", i, action.Name, err))
				continue
			}
			dispatched++
		}
	}

	return dispatched, errors.Join(errs...)
}
