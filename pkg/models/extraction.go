package models

import "time"

// ExtractionLog records a completed responses download in the
// survey_responses_extraction_log table. SurveyID is the Qualtrics survey ID,
// not the internal UUID.
type ExtractionLog struct {
	ID          int64     `json:"id,omitempty"`
	SurveyID    string    `json:"survey_id"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	FileHash    string    `json:"file_hash"`
	ExtractedAt time.Time `json:"extracted_at"`
}
