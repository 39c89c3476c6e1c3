package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	apperrors "github.com/Luciangogogo/qualtrics-data-processor2026/pkg/errors"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/models"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/repository"
)

// endDateLayouts are the timestamp shapes seen in Qualtrics CSV exports
var endDateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadService persists transformed mappings and responses into PostgreSQL
type LoadService struct {
	repo     repository.Repository
	location *time.Location
}

func NewLoadService(repo repository.Repository, location *time.Location) *LoadService {
	return &LoadService{
		repo:     repo,
		location: location,
	}
}

// LoadSurveyMappings writes field mappings, survey name and service type for
// one survey. Existing mappings are kept unless force is set.
func (s *LoadService) LoadSurveyMappings(ctx context.Context, surveyID string, mappings models.FieldMappings, force bool) *models.MappingsLoadResult {
	log.WithField("survey_id", surveyID).Info("Loading mappings")

	surveyUUID, err := s.repo.GetSurveyUUID(ctx, surveyID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return &models.MappingsLoadResult{
				Success: false,
				Action:  models.ActionSkipped,
				Error:   fmt.Sprintf("survey with qualtrics_survey_id %s not found in database", surveyID),
			}
		}
		return &models.MappingsLoadResult{Success: false, Action: models.ActionFailed, Error: err.Error()}
	}

	if !force {
		exists, err := s.repo.HasMappings(ctx, surveyUUID)
		if err != nil {
			return &models.MappingsLoadResult{Success: false, Action: models.ActionFailed, Error: err.Error()}
		}
		if exists {
			log.WithField("survey_id", surveyID).Info("Survey already has mappings, skipping update")
			return &models.MappingsLoadResult{
				Success:        true,
				Action:         models.ActionSkipped,
				Reason:         "mappings_already_exist",
				MappingsCount:  len(mappings.Mappings),
				KeyFieldsCount: len(mappings.KeyFields),
			}
		}
	}

	if err := s.repo.UpdateSurveyMappings(ctx, surveyUUID, mappings); err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Error("Failed to update mappings in database")
		return &models.MappingsLoadResult{Success: false, Action: models.ActionFailed, Error: err.Error()}
	}

	action := models.ActionCreated
	if force {
		action = models.ActionUpdated
	}

	log.WithFields(log.Fields{
		"survey_id":    surveyID,
		"service_type": mappings.KeyFields[serviceTypeTag],
		"mappings":     len(mappings.Mappings),
	}).Info("Updated survey mappings, name, and service type")

	return &models.MappingsLoadResult{
		Success:        true,
		Action:         action,
		MappingsCount:  len(mappings.Mappings),
		KeyFieldsCount: len(mappings.KeyFields),
	}
}

// LoadSurveyResponses replaces the stored responses of one survey with the
// transformed rows.
func (s *LoadService) LoadSurveyResponses(ctx context.Context, surveyID string, rows []models.ResponseRow) *models.ResponsesLoadResult {
	log.WithField("survey_id", surveyID).Info("Loading responses")

	surveyUUID, err := s.repo.GetSurveyUUID(ctx, surveyID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return &models.ResponsesLoadResult{
				Success: false,
				Error:   fmt.Sprintf("survey with qualtrics_survey_id %s not found in database", surveyID),
			}
		}
		return &models.ResponsesLoadResult{Success: false, Error: err.Error()}
	}

	deleted, err := s.repo.DeleteResponses(ctx, surveyUUID)
	if err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Error("Failed to clear survey responses")
		return &models.ResponsesLoadResult{Success: false, Error: err.Error()}
	}
	log.WithFields(log.Fields{
		"survey_id": surveyID,
		"deleted":   deleted,
	}).Info("Deleted existing responses")

	responses := make([]*models.SurveyResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, s.buildResponse(surveyUUID, row))
	}

	inserted, err := s.repo.InsertResponses(ctx, responses)
	if err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Error("Failed to insert survey responses")
		return &models.ResponsesLoadResult{Success: false, Error: err.Error()}
	}

	log.WithFields(log.Fields{
		"survey_id": surveyID,
		"inserted":  inserted,
	}).Info("Successfully inserted responses")

	return &models.ResponsesLoadResult{
		Success:       true,
		DeletedCount:  int(deleted),
		InsertedCount: inserted,
	}
}

// CheckSurveyMappingsExist reports whether a survey already carries mappings
func (s *LoadService) CheckSurveyMappingsExist(ctx context.Context, surveyID string) (bool, error) {
	surveyUUID, err := s.repo.GetSurveyUUID(ctx, surveyID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return s.repo.HasMappings(ctx, surveyUUID)
}

// buildResponse derives submitted_at and the reporting period from a row's
// EndDate. Unparseable dates leave the fields null rather than dropping the row.
func (s *LoadService) buildResponse(surveyUUID uuid.UUID, row models.ResponseRow) *models.SurveyResponse {
	response := &models.SurveyResponse{
		SurveyID: surveyUUID,
		Data:     row,
	}

	endDate := strings.TrimSpace(row[models.EndDateField])
	if endDate == "" {
		return response
	}

	submittedAt, err := parseEndDate(endDate)
	if err != nil {
		log.WithError(err).WithField("end_date", endDate).Warn("Failed to parse EndDate")
		return response
	}

	local := submittedAt.In(s.location)
	year, month := local.Year(), int(local.Month())

	response.SubmittedAt = &submittedAt
	response.PeriodYear = &year
	response.PeriodMonth = &month
	return response
}

// parseEndDate parses a Qualtrics EndDate value. Values without an explicit
// offset are taken as UTC, matching the export format.
func parseEndDate(value string) (time.Time, error) {
	// Some exports append a fractional part after a comma
	if idx := strings.Index(value, ","); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}

	for _, layout := range endDateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized EndDate format %q", value)
}
