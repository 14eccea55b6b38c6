// Package extractors turns one classification into one opaque fact per
// configured extractor. Strategies are built from keyed definitions through a
// type-tag registry.
package extractors

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/caesar/internal/classifications"
	"github.com/JaimeStill/caesar/pkg/registry"
)

// ErrUnknownType is returned when a definition names an unregistered extractor type.
var ErrUnknownType = errors.New("unknown extractor type")

// Extractor derives a fact from a single classification.
// Implementations must be deterministic for a given classification.
type Extractor interface {
	Process(c classifications.Classification) (map[string]any, error)
}

// Constructor builds an Extractor from its definition config.
type Constructor func(config map[string]any) (Extractor, error)

// Entry is a built extractor bound to its configuration key.
type Entry struct {
	Key       string
	Type      string
	Extractor Extractor
}

var constructors = registry.New[Constructor]("extractor")

func init() {
	Register("survey", NewSurvey)
	Register("question", NewQuestion)
	Register("blank", NewBlank)
}

// Register binds an extractor type tag to its constructor.
func Register(tag string, c Constructor) {
	constructors.Register(tag, c)
}

// Types lists the registered extractor type tags.
func Types() []string {
	return constructors.Tags()
}

// Build constructs extractors for defs, preserving definition order.
func Build(defs registry.Definitions) ([]Entry, error) {
	entries := make([]Entry, 0, len(defs))

	for _, def := range defs {
		construct, err := constructors.Lookup(def.Type())
		if err != nil {
			return nil, fmt.Errorf("extractor %q: %w: %w", def.Key, ErrUnknownType, err)
		}

		ex, err := construct(def.Config)
		if err != nil {
			return nil, fmt.Errorf("extractor %q: %w", def.Key, err)
		}

		entries = append(entries, Entry{Key: def.Key, Type: def.Type(), Extractor: ex})
	}

	return entries, nil
}

func taskKey(config map[string]any) string {
	if key, ok := config["task_key"].(string); ok && key != "" {
		return key
	}
	return "T0"
}
