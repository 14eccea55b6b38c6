package reductions

import (
	"github.com/JaimeStill/caesar/pkg/query"
	"github.com/JaimeStill/caesar/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "reductions", "r").
	Project("id", "ID").
	Project("workflow_id", "WorkflowID").
	Project("subject_id", "SubjectID").
	Project("reducer_key", "ReducerKey").
	Project("data", "Data").
	Project("updated_at", "UpdatedAt")

var keySort = query.SortField{Field: "ReducerKey"}

func scanReduction(s repository.Scanner) (Reduction, error) {
	var r Reduction
	var dataRaw []byte

	err := s.Scan(&r.ID, &r.WorkflowID, &r.SubjectID, &r.ReducerKey, &dataRaw, &r.UpdatedAt)
	if err != nil {
		return r, err
	}

	r.Data, err = repository.UnmarshalJSONB(dataRaw)
	return r, err
}
