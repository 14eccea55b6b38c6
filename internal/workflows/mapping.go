package workflows

import (
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/caesar/pkg/query"
	"github.com/JaimeStill/caesar/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "workflows", "w").
	Project("id", "ID").
	Project("extractors_config", "ExtractorsConfig").
	Project("reducers_config", "ReducersConfig").
	Project("rules_config", "RulesConfig").
	Project("updated_at", "UpdatedAt")

func scanWorkflow(s repository.Scanner) (Workflow, error) {
	var w Workflow
	var extractorsRaw, reducersRaw, rulesRaw []byte

	if err := s.Scan(&w.ID, &extractorsRaw, &reducersRaw, &rulesRaw, &w.UpdatedAt); err != nil {
		return w, err
	}

	if err := json.Unmarshal(extractorsRaw, &w.ExtractorsConfig); err != nil {
		return w, fmt.Errorf("unmarshal extractors_config: %w", err)
	}
	if err := json.Unmarshal(reducersRaw, &w.ReducersConfig); err != nil {
		return w, fmt.Errorf("unmarshal reducers_config: %w", err)
	}
	if err := json.Unmarshal(rulesRaw, &w.RulesConfig); err != nil {
		return w, fmt.Errorf("unmarshal rules_config: %w", err)
	}

	return w, nil
}
