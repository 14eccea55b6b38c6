package reducers

import (
	"fmt"

	"github.com/JaimeStill/caesar/internal/extracts"
)

// Survey counts how often each choice appears in the extracts' "choices" lists.
// A choice repeated within one extract counts every time.
type Survey struct{}

func NewSurvey(map[string]any) (Reducer, error) {
	return Survey{}, nil
}

func (Survey) Process(items []extracts.Extract) (map[string]any, error) {
	counts := map[string]any{}

	for _, e := range items {
		for _, choice := range choices(e.Data["choices"]) {
			n, _ := counts[choice].(int)
			counts[choice] = n + 1
		}
	}

	return counts, nil
}

func choices(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, c := range v {
			if c != nil {
				out = append(out, fmt.Sprint(c))
			}
		}
		return out
	default:
		return nil
	}
}
