package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Definition is the configured form of a rule:
//
//	{"if": ["gte", ["lookup", "s-VHCL"], ["const", 1]],
//	 "then": [{"action": "retire_subject", "reason": "flagged"}]}
type Definition struct {
	If   any              `json:"if"`
	Then []map[string]any `json:"then"`
}

// Definitions is the ordered rule list of a workflow.
type Definitions []Definition

// MarshalJSON encodes nil as an empty array.
func (d Definitions) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Definition(d))
}

func (d *Definitions) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Definitions{}
		return nil
	}
	var list []Definition
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRule, err)
	}
	*d = list
	return nil
}

// Action is a side effect requested by a matching rule.
type Action struct {
	Name   string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// Rule pairs a condition with the actions fired when it holds.
type Rule struct {
	Condition Expression
	Actions   []Action
}

// Matches reports whether the condition evaluates to boolean true.
func (r Rule) Matches(b Bindings) bool {
	matched, ok := r.Condition.Eval(b).(bool)
	return ok && matched
}

func build(def Definition) (Rule, error) {
	cond, err := Parse(def.If)
	if err != nil {
		return Rule{}, err
	}

	actions := make([]Action, 0, len(def.Then))
	for i, raw := range def.Then {
		name, ok := raw["action"].(string)
		if !ok || name == "" {
			return Rule{}, fmt.Errorf("%w: action %d has no name", ErrMalformedRule, i)
		}

		params := make(map[string]any, len(raw)-1)
		for k, v := range raw {
			if k != "action" {
				params[k] = v
			}
		}
		actions = append(actions, Action{Name: name, Params: params})
	}

	return Rule{Condition: cond, Actions: actions}, nil
}
