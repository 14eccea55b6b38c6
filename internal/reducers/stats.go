package reducers

import (
	"encoding/json"

	"github.com/JaimeStill/caesar/internal/extracts"
)

// Stats totals every numeric field across the extracts' data.
// true counts as 1; other non-numeric values are ignored.
type Stats struct{}

func NewStats(map[string]any) (Reducer, error) {
	return Stats{}, nil
}

func (Stats) Process(items []extracts.Extract) (map[string]any, error) {
	totals := map[string]any{}

	for _, e := range items {
		for key, value := range e.Data {
			n, ok := numeric(value)
			if !ok {
				continue
			}
			sum, _ := totals[key].(float64)
			totals[key] = sum + n
		}
	}

	return totals, nil
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
