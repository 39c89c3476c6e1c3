package models

// Action values reported by extraction and load operations
const (
	ActionExtracted        = "extracted"
	ActionSkipped          = "skipped"
	ActionFailed           = "failed"
	ActionCreated          = "created"
	ActionUpdated          = "updated"
	ActionSkippedDuplicate = "skipped_duplicate"
)

// Skip reasons reported alongside ActionSkipped
const (
	ReasonMappingExists     = "field_mapping_already_exists"
	ReasonNoQuestions       = "no_questions_provided"
	ReasonDuplicateDownload = "latest_two_file_hash_equal"
)

// ExtractionResult reports the outcome of a single survey responses download
type ExtractionResult struct {
	Success      bool   `json:"success"`
	FilePath     string `json:"file_path,omitempty"`
	FileName     string `json:"file_name,omitempty"`
	RecordsCount int    `json:"records_count"`
	Error        string `json:"error,omitempty"`
}

// DefinitionsResult reports the outcome of a single survey definitions fetch
type DefinitionsResult struct {
	Success        bool                `json:"success"`
	Action         string              `json:"action,omitempty"`
	Reason         string              `json:"reason,omitempty"`
	SurveyName     string              `json:"survey_name,omitempty"`
	Questions      map[string]Question `json:"-"`
	QuestionsCount int                 `json:"questions_count"`
	Error          string              `json:"error,omitempty"`
}

// ExtractionSummary aggregates per-survey extraction results
type ExtractionSummary struct {
	TotalSurveys          int                          `json:"total_surveys"`
	SuccessfulExtractions int                          `json:"successful_extractions"`
	FailedExtractions     int                          `json:"failed_extractions"`
	Details               map[string]*ExtractionResult `json:"details"`
	SurveyIDs             []string                     `json:"survey_ids"`
}

// DefinitionsSummary aggregates per-survey definitions results
type DefinitionsSummary struct {
	TotalSurveys          int                           `json:"total_surveys"`
	SuccessfulExtractions int                           `json:"successful_extractions"`
	ExtractedCount        int                           `json:"extracted_count"`
	SkippedCount          int                           `json:"skipped_count"`
	FailedExtractions     int                           `json:"failed_extractions"`
	Details               map[string]*DefinitionsResult `json:"details"`
	SurveyIDs             []string                      `json:"survey_ids"`
}

// MappingsLoadResult reports the outcome of loading survey mappings
type MappingsLoadResult struct {
	Success        bool   `json:"success"`
	Action         string `json:"action,omitempty"`
	Reason         string `json:"reason,omitempty"`
	MappingsCount  int    `json:"mappings_count"`
	KeyFieldsCount int    `json:"key_fields_count"`
	Error          string `json:"error,omitempty"`
}

// ResponsesLoadResult reports the outcome of transforming and loading the
// responses of one survey
type ResponsesLoadResult struct {
	Success           bool   `json:"success"`
	Action            string `json:"action,omitempty"`
	Reason            string `json:"reason,omitempty"`
	TransformedCount  int    `json:"transformed_count"`
	TotalRecordsInCSV int    `json:"total_records_in_csv"`
	DeletedCount      int    `json:"deleted_count"`
	InsertedCount     int    `json:"inserted_count"`
	FileHash          string `json:"hash,omitempty"`
	Error             string `json:"error,omitempty"`
}

// TransformResult combines the mappings and responses outcome for one survey
type TransformResult struct {
	Mappings       *MappingsLoadResult  `json:"mappings"`
	Responses      *ResponsesLoadResult `json:"responses"`
	OverallSuccess bool                 `json:"overall_success"`
}

// TransformSummary aggregates per-survey transform-and-load results
type TransformSummary struct {
	TotalSurveys         int                         `json:"total_surveys"`
	SuccessfulTransforms int                         `json:"successful_transforms"`
	FailedTransforms     int                         `json:"failed_transforms"`
	Details              map[string]*TransformResult `json:"details"`
	SurveyIDs            []string                    `json:"survey_ids"`
}

// PipelineResult carries both phases of a full extract + transform-and-load run
type PipelineResult struct {
	ExtractPhase   *ExtractionSummary `json:"extract_phase"`
	TransformPhase *TransformSummary  `json:"transform_phase"`
	OverallSuccess bool               `json:"overall_success"`
}

// StatusReport is the payload of GET /api/status
type StatusReport struct {
	SurveysInfo       SurveysInfo     `json:"surveys_info"`
	RecentExtractions []ExtractionLog `json:"recent_extractions"`
	DataCenter        string          `json:"data_center"`
	DataDir           string          `json:"data_dir"`
	AppVersion        string          `json:"app_version"`
}

// SurveysInfo summarizes the surveys table for status reporting
type SurveysInfo struct {
	TotalSurveys int      `json:"total_surveys"`
	SurveyIDs    []string `json:"survey_ids"`
}
