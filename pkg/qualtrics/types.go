package qualtrics

import (
	"encoding/json"

	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/models"
)

// Export status values reported by the export-responses endpoint
const (
	ExportStatusComplete   = "complete"
	ExportStatusFailed     = "failed"
	ExportStatusError      = "error"
	ExportStatusInProgress = "inProgress"
)

// ExportProgress is the result payload of the export progress endpoint
type ExportProgress struct {
	Status          string  `json:"status"`
	PercentComplete float64 `json:"percentComplete"`
	FileID          string  `json:"fileId"`
}

// IsComplete reports whether the export finished successfully
func (p *ExportProgress) IsComplete() bool {
	return p.Status == ExportStatusComplete
}

// IsFailed reports whether the export finished in a failed state
func (p *ExportProgress) IsFailed() bool {
	return p.Status == ExportStatusFailed || p.Status == ExportStatusError
}

// SurveyDefinition is the subset of the survey-definitions payload the
// transform stage consumes
type SurveyDefinition struct {
	SurveyName string                     `json:"SurveyName"`
	Questions  map[string]models.Question `json:"Questions"`
}

type startExportRequest struct {
	Format string `json:"format"`
}

type startExportResult struct {
	ProgressID string `json:"progressId"`
}

// envelope is the common Qualtrics v3 response wrapper
type envelope struct {
	Result json.RawMessage `json:"result"`
	Meta   meta            `json:"meta"`
}

type meta struct {
	HTTPStatus string `json:"httpStatus"`
	RequestID  string `json:"requestId"`
}
