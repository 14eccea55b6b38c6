package extracts

import (
	"github.com/JaimeStill/caesar/pkg/query"
	"github.com/JaimeStill/caesar/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "extracts", "e").
	Project("id", "ID").
	Project("workflow_id", "WorkflowID").
	Project("subject_id", "SubjectID").
	Project("classification_id", "ClassificationID").
	Project("extractor_key", "ExtractorKey").
	Project("user_id", "UserID").
	Project("classification_at", "ClassificationAt").
	Project("data", "Data").
	Project("updated_at", "UpdatedAt")

// Most recent classification first; ties keep one classification's extracts contiguous.
var historySort = []query.SortField{
	{Field: "ClassificationAt", Descending: true},
	{Field: "ClassificationID", Descending: true},
	{Field: "ExtractorKey"},
}

func scanExtract(s repository.Scanner) (Extract, error) {
	var e Extract
	var dataRaw []byte

	err := s.Scan(
		&e.ID,
		&e.WorkflowID,
		&e.SubjectID,
		&e.ClassificationID,
		&e.ExtractorKey,
		&e.UserID,
		&e.ClassificationAt,
		&dataRaw,
		&e.UpdatedAt,
	)
	if err != nil {
		return e, err
	}

	e.Data, err = repository.UnmarshalJSONB(dataRaw)
	return e, err
}
