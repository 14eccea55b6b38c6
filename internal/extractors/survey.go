package extractors

import "github.com/JaimeStill/caesar/internal/classifications"

// Survey collects the species choices made on a survey task.
type Survey struct {
	TaskKey string
}

func NewSurvey(config map[string]any) (Extractor, error) {
	return &Survey{TaskKey: taskKey(config)}, nil
}

// Process returns {"choices": [...]} in annotation order.
func (s *Survey) Process(c classifications.Classification) (map[string]any, error) {
	choices := make([]any, 0)

	a, ok := c.Annotation(s.TaskKey)
	if !ok {
		return map[string]any{"choices": choices}, nil
	}

	values, _ := a.Value.([]any)
	for _, v := range values {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if choice, ok := m["choice"]; ok {
			choices = append(choices, choice)
		}
	}

	return map[string]any{"choices": choices}, nil
}
