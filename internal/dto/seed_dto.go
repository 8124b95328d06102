package dto

// SeedPayload bundles catalog content for bulk import.
type SeedPayload struct {
	Courses   []CourseUpsertRequest      `json:"courses" validate:"dive"`
	Questions []MCQQuestionCreateRequest `json:"questions" validate:"dive"`
	Tasks     []TaskCreateRequest        `json:"tasks" validate:"dive"`
}

// SeedResult reports how many rows each import touched.
type SeedResult struct {
	Courses   int64 `json:"courses"`
	Questions int64 `json:"questions"`
	Tasks     int64 `json:"tasks"`
}
