package reducers

import (
	"fmt"

	"github.com/JaimeStill/caesar/internal/extracts"
)

// Window selects items[From:To] from an ordered history.
// A nil To means the end of the history. Bounds past the end are clamped.
type Window struct {
	From int
	To   *int
}

// Apply returns the windowed sub-slice of items.
func (w Window) Apply(items []extracts.Extract) []extracts.Extract {
	from := min(max(w.From, 0), len(items))
	to := len(items)
	if w.To != nil {
		to = min(max(*w.To, from), len(items))
	}
	return items[from:to]
}

func parseWindow(opts map[string]any) (Window, error) {
	var w Window

	if raw, ok := opts["from"]; ok {
		from, err := index("from", raw)
		if err != nil {
			return w, err
		}
		w.From = from
	}

	if raw, ok := opts["to"]; ok {
		to, err := index("to", raw)
		if err != nil {
			return w, err
		}
		w.To = &to
	}

	if w.To != nil && *w.To < w.From {
		return w, fmt.Errorf("%w: to (%d) before from (%d)", ErrInvalidConfig, *w.To, w.From)
	}
	return w, nil
}

func index(name string, raw any) (int, error) {
	var n int
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidConfig, name)
		}
		n = int(v)
	case int:
		n = v
	case int64:
		n = int(v)
	default:
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidConfig, name)
	}

	if n < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
	}
	return n, nil
}
