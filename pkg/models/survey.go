package models

import "github.com/google/uuid"

// Survey represents a Qualtrics survey registered in the database
type Survey struct {
	ID                uuid.UUID     `json:"id"`
	QualtricsSurveyID string        `json:"qualtrics_survey_id"`
	OrganisationID    string        `json:"organisation_id,omitempty"`
	Name              string        `json:"name,omitempty"`
	ServiceType       string        `json:"service_type,omitempty"`
	Status            string        `json:"status"`
	FieldMapping      FieldMappings `json:"field_mapping,omitempty"`
}

// SurveyStatus values stored in the surveys table
const (
	SurveyStatusActive   = "active"
	SurveyStatusInactive = "inactive"
)

// FieldMappings holds the transformed survey definition: the survey name,
// single-valued key fields (ServiceType) and per-question recode-to-display
// mappings keyed by DataExportTag.
type FieldMappings struct {
	SurveyName string                       `json:"survey_name"`
	KeyFields  map[string]string            `json:"key_fields"`
	Mappings   map[string]map[string]string `json:"mappings"`
}

// IsEmpty reports whether no mappings or key fields were extracted
func (f FieldMappings) IsEmpty() bool {
	return len(f.KeyFields) == 0 && len(f.Mappings) == 0
}
