package rules

import (
	"strings"

	"github.com/JaimeStill/caesar/internal/reductions"
)

// Bindings resolves lookup keys at evaluation time.
// Lookup returns nil for keys that do not resolve.
type Bindings interface {
	Lookup(key string) any
}

// ReductionBindings is a read-only view over one subject's reductions.
//
// A key equal to a reducer key yields that reduction's whole data. A key of
// the form "<reducer_key>-<field>" yields data[field], choosing the longest
// reducer key that prefixes it.
type ReductionBindings struct {
	data map[string]map[string]any
}

// NewBindings indexes items by reducer key.
func NewBindings(items []reductions.Reduction) *ReductionBindings {
	data := make(map[string]map[string]any, len(items))
	for _, r := range items {
		data[r.ReducerKey] = r.Data
	}
	return &ReductionBindings{data: data}
}

func (b *ReductionBindings) Lookup(key string) any {
	if d, ok := b.data[key]; ok {
		return d
	}

	for i := strings.LastIndex(key, "-"); i > 0; i = strings.LastIndex(key[:i], "-") {
		d, ok := b.data[key[:i]]
		if !ok {
			continue
		}
		if v, ok := d[key[i+1:]]; ok {
			return v
		}
		return nil
	}

	return nil
}
