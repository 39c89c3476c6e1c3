package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrInvalidBody     = errors.New("invalid request body")
	ErrInvalidSurveyID = errors.New("invalid survey ID")
)

// maxSurveyIDLength bounds the Qualtrics survey identifier; real IDs look
// like SV_ followed by a short alphanumeric tail
const maxSurveyIDLength = 64

const maxBodyBytes = 1 << 20

// pipelineRequest is the shared body of the pipeline endpoints
type pipelineRequest struct {
	SurveyIDs           []string `json:"survey_ids"`
	OrganisationID      string   `json:"organisation_id"`
	ForceMappingsUpdate bool     `json:"force_mappings_update"`
}

// decodePipelineRequest parses the optional JSON body of a pipeline endpoint.
// An empty body means "all active surveys".
func decodePipelineRequest(r *http.Request) (*pipelineRequest, error) {
	req := &pipelineRequest{}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, ErrInvalidBody
	}
	defer r.Body.Close()

	if len(strings.TrimSpace(string(body))) == 0 {
		return req, nil
	}

	if err := json.Unmarshal(body, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	if err := validateSurveyIDs(req.SurveyIDs); err != nil {
		return nil, err
	}

	return req, nil
}

// validateSurveyIDs rejects blank or implausibly long identifiers
func validateSurveyIDs(surveyIDs []string) error {
	for _, id := range surveyIDs {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			return fmt.Errorf("%w: empty survey ID", ErrInvalidSurveyID)
		}
		if len(trimmed) > maxSurveyIDLength {
			return fmt.Errorf("%w: %q", ErrInvalidSurveyID, trimmed[:maxSurveyIDLength])
		}
	}
	return nil
}
