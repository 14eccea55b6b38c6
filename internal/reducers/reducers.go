// Package reducers aggregates a subject's extract history into one opaque
// fact per configured reducer. Every reducer accepts a "filters" option:
//
//	{"repeated_classifications": "keep_first", "from": 0, "to": 10}
//
// repeated_classifications selects the de-duplication policy applied to the
// history. from and to select a half-open window over the filtered history.
package reducers

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/caesar/internal/extracts"
	"github.com/JaimeStill/caesar/internal/filters"
	"github.com/JaimeStill/caesar/pkg/registry"
)

var (
	ErrUnknownType   = errors.New("unknown reducer type")
	ErrInvalidConfig = errors.New("invalid reducer config")
)

// Reducer computes an aggregate over an ordered extract sequence.
// Implementations must be deterministic and must not retain the input.
type Reducer interface {
	Process(items []extracts.Extract) (map[string]any, error)
}

// Constructor builds a Reducer from its definition config.
type Constructor func(config map[string]any) (Reducer, error)

// Entry is a built reducer bound to its key and filter options.
type Entry struct {
	Key          string
	Type         string
	Reducer      Reducer
	Repeatedness filters.Repeatedness
	Window       Window
}

// Reduce de-duplicates items, narrows them to the window, and runs the strategy.
func (e Entry) Reduce(items []extracts.Extract) (map[string]any, error) {
	filtered := e.Window.Apply(e.Repeatedness.Filter(items))

	data, err := e.Reducer.Process(filtered)
	if err != nil {
		return nil, fmt.Errorf("reducer %q: %w", e.Key, err)
	}
	return data, nil
}

var constructors = registry.New[Constructor]("reducer")

func init() {
	Register("stats", NewStats)
	Register("survey", NewSurvey)
	Register("simple_survey", NewSurvey)
	Register("count", NewCount)
}

// Register binds a reducer type tag to its constructor.
func Register(tag string, c Constructor) {
	constructors.Register(tag, c)
}

// Types lists the registered reducer type tags.
func Types() []string {
	return constructors.Tags()
}

// Build constructs reducers for defs, preserving definition order.
// Filter options are validated here so a bad policy is rejected at load.
func Build(defs registry.Definitions) ([]Entry, error) {
	entries := make([]Entry, 0, len(defs))

	for _, def := range defs {
		construct, err := constructors.Lookup(def.Type())
		if err != nil {
			return nil, fmt.Errorf("reducer %q: %w: %w", def.Key, ErrUnknownType, err)
		}

		rep, window, err := parseFilters(def.Config["filters"])
		if err != nil {
			return nil, fmt.Errorf("reducer %q: %w", def.Key, err)
		}

		r, err := construct(def.Config)
		if err != nil {
			return nil, fmt.Errorf("reducer %q: %w", def.Key, err)
		}

		entries = append(entries, Entry{
			Key:          def.Key,
			Type:         def.Type(),
			Reducer:      r,
			Repeatedness: rep,
			Window:       window,
		})
	}

	return entries, nil
}

func parseFilters(raw any) (filters.Repeatedness, Window, error) {
	var rep filters.Repeatedness
	var window Window

	if raw == nil {
		rep.Policy = filters.KeepAll
		return rep, window, nil
	}

	opts, ok := raw.(map[string]any)
	if !ok {
		return rep, window, fmt.Errorf("%w: filters must be an object", ErrInvalidConfig)
	}

	rep.Policy = filters.KeepAll
	if v, ok := opts["repeated_classifications"]; ok {
		policy, ok := v.(string)
		if !ok {
			return rep, window, fmt.Errorf("%w: %v", filters.ErrUnknownPolicy, v)
		}
		p, err := filters.ParsePolicy(policy)
		if err != nil {
			return rep, window, err
		}
		rep.Policy = p
	}

	window, err := parseWindow(opts)
	return rep, window, err
}
