package extractors

import "github.com/JaimeStill/caesar/internal/classifications"

// Blank flags classifications in which no task received a value.
type Blank struct{}

func NewBlank(map[string]any) (Extractor, error) {
	return Blank{}, nil
}

func (Blank) Process(c classifications.Classification) (map[string]any, error) {
	for _, a := range c.Annotations() {
		if !empty(a.Value) {
			return map[string]any{"blank": false}, nil
		}
	}
	return map[string]any{"blank": true}, nil
}

func empty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
