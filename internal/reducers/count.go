package reducers

import "github.com/JaimeStill/caesar/internal/extracts"

// Count reports how many classifications and extracts survived filtering.
type Count struct{}

func NewCount(map[string]any) (Reducer, error) {
	return Count{}, nil
}

func (Count) Process(items []extracts.Extract) (map[string]any, error) {
	seen := make(map[int64]struct{})
	for _, e := range items {
		seen[e.ClassificationID] = struct{}{}
	}

	return map[string]any{
		"classifications": len(seen),
		"extracts":        len(items),
	}, nil
}
