package models

import (
	"time"

	"github.com/google/uuid"
)

// SurveyResponse represents one transformed survey response row destined for
// the survey_responses table. ResponseData keeps the selected CSV columns as
// a flat map serialized to JSONB.
type SurveyResponse struct {
	SurveyID    uuid.UUID         `json:"survey_id"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	PeriodYear  *int              `json:"period_year,omitempty"`
	PeriodMonth *int              `json:"period_month,omitempty"`
	Data        map[string]string `json:"response_data"`
}

// ResponseRow is a raw transformed CSV row before load-time date handling
type ResponseRow map[string]string

// EndDateField is the CSV column carrying the submission timestamp
const EndDateField = "EndDate"
