package extractors

import (
	"fmt"

	"github.com/JaimeStill/caesar/internal/classifications"
)

// Question records the answer(s) given to a single or multiple choice task.
// Each answer becomes a key with value 1 so a stats reducer can total them.
type Question struct {
	TaskKey string
}

func NewQuestion(config map[string]any) (Extractor, error) {
	return &Question{TaskKey: taskKey(config)}, nil
}

func (q *Question) Process(c classifications.Classification) (map[string]any, error) {
	out := map[string]any{}

	a, ok := c.Annotation(q.TaskKey)
	if !ok || a.Value == nil {
		return out, nil
	}

	answers, ok := a.Value.([]any)
	if !ok {
		answers = []any{a.Value}
	}

	for _, answer := range answers {
		switch answer.(type) {
		case string, float64, bool:
			out[fmt.Sprint(answer)] = 1
		default:
			return nil, fmt.Errorf("task %s: unsupported answer %T", q.TaskKey, answer)
		}
	}

	return out, nil
}
