package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Luciangogogo/qualtrics-data-processor2026/internal/fileutil"
	apperrors "github.com/Luciangogogo/qualtrics-data-processor2026/pkg/errors"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/models"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/repository"
)

// serviceTypeTag gets special handling: its first choice names the service
// the survey covers and is stored as a key field, not a mapping.
const serviceTypeTag = "ServiceType"

var (
	// keyFields are the response columns copied into response_data
	keyFields = []string{"Facility", "Satisfaction", "EndDate", "NPS", "NPS_NPS_GROUP", "Gender", "ParticipantType"}

	// keyFieldPrefixes select additional response columns by prefix
	keyFieldPrefixes = []string{"Ab_"}

	// mappingTags are the DataExportTags eligible for recode mappings
	mappingTags = []string{serviceTypeTag, "Facility", "Satisfaction", "Gender", "ParticipantType"}

	// mappingPrefixes select additional mapping-eligible tags by prefix
	mappingPrefixes = []string{"Ab_"}
)

// qualtricsMetadataRows is the number of non-response rows after the header
// in a Qualtrics CSV export (question text row and ImportId row).
const qualtricsMetadataRows = 2

// TransformService turns raw survey definitions and CSV exports into the
// shapes the load stage persists.
type TransformService struct {
	repo    repository.Repository
	extract *ExtractService
	load    *LoadService
	dataDir string
}

func NewTransformService(repo repository.Repository, extract *ExtractService, load *LoadService, dataDir string) *TransformService {
	return &TransformService{
		repo:    repo,
		extract: extract,
		load:    load,
		dataDir: dataDir,
	}
}

// TransformAndLoadAll processes mappings and responses for every active survey
func (s *TransformService) TransformAndLoadAll(ctx context.Context, organisationID string, forceMappings bool) (*models.TransformSummary, error) {
	surveyIDs, err := s.repo.ListActiveSurveyIDs(ctx, organisationID)
	if err != nil {
		return nil, fmt.Errorf("listing surveys: %w", err)
	}
	if len(surveyIDs) == 0 {
		return nil, apperrors.ErrNoSurveys
	}
	return s.TransformSpecificSurveys(ctx, surveyIDs, forceMappings), nil
}

// TransformSpecificSurveys processes mappings then responses per survey,
// aggregating per-survey outcomes. The responses stage runs even when the
// mappings stage fails, since the CSV transform does not depend on mappings.
func (s *TransformService) TransformSpecificSurveys(ctx context.Context, surveyIDs []string, forceMappings bool) *models.TransformSummary {
	summary := &models.TransformSummary{
		TotalSurveys: len(surveyIDs),
		Details:      make(map[string]*models.TransformResult, len(surveyIDs)),
		SurveyIDs:    surveyIDs,
	}

	log.WithField("count", len(surveyIDs)).Info("Starting transform and load")

	for _, surveyID := range surveyIDs {
		mappings := s.processSurveyMappings(ctx, surveyID, forceMappings)
		responses := s.processSurveyResponses(ctx, surveyID)

		result := &models.TransformResult{
			Mappings:       mappings,
			Responses:      responses,
			OverallSuccess: mappings.Success && responses.Success,
		}
		summary.Details[surveyID] = result
		if result.OverallSuccess {
			summary.SuccessfulTransforms++
		}
	}
	summary.FailedTransforms = summary.TotalSurveys - summary.SuccessfulTransforms

	log.WithFields(log.Fields{
		"successful": summary.SuccessfulTransforms,
		"total":      summary.TotalSurveys,
	}).Info("Transform and load completed")

	return summary
}

// TransformSurveyMappings converts a survey definition into field mappings.
// Surveys without questions yield an empty, skippable result.
func (s *TransformService) TransformSurveyMappings(surveyID, surveyName string, questions map[string]models.Question) (models.FieldMappings, bool) {
	if len(questions) == 0 {
		log.WithField("survey_id", surveyID).Info("No questions provided, skipping mappings transform")
		return models.FieldMappings{
			SurveyName: surveyName,
			KeyFields:  map[string]string{},
			Mappings:   map[string]map[string]string{},
		}, true
	}

	log.WithField("survey_id", surveyID).Info("Transforming mappings")

	mappings := extractMappingsFromQuestions(questions)
	mappings.SurveyName = surveyName
	return mappings, false
}

// responsesTransform is the outcome of transforming one survey's latest CSV
type responsesTransform struct {
	Rows             []models.ResponseRow
	TotalRecords     int
	SkippedDuplicate bool
	Hash             string
}

// TransformSurveyResponses reads the newest export CSV for a survey and
// selects the key-field columns. When the two most recent downloads carry the
// same hash the transform is skipped.
func (s *TransformService) TransformSurveyResponses(ctx context.Context, surveyID string) (*responsesTransform, error) {
	isDup, hash := s.isLatestDuplicateDownload(ctx, surveyID)
	if isDup {
		log.WithField("survey_id", surveyID).Info("Latest download hash equals previous one, skipping transform and load")
		return &responsesTransform{SkippedDuplicate: true, Hash: hash}, nil
	}

	log.WithField("survey_id", surveyID).Info("Transforming responses")

	csvPath, err := fileutil.FindLatestCSV(s.dataDir, surveyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFileNotFound, err)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		return nil, fmt.Errorf("reading csv file %s: %w", csvPath, err)
	}

	rows, total, err := transformResponsesData(data)
	if err != nil {
		return nil, fmt.Errorf("transforming responses: %w", err)
	}

	return &responsesTransform{Rows: rows, TotalRecords: total}, nil
}

// processSurveyMappings loads mappings for one survey, extracting the survey
// definition first when the mapping is missing or a force update is requested.
func (s *TransformService) processSurveyMappings(ctx context.Context, surveyID string, force bool) *models.MappingsLoadResult {
	if !force {
		exists, err := s.load.CheckSurveyMappingsExist(ctx, surveyID)
		if err != nil {
			log.WithError(err).WithField("survey_id", surveyID).Error("Failed to check mappings")
			return &models.MappingsLoadResult{Success: false, Error: err.Error()}
		}
		if exists {
			log.WithField("survey_id", surveyID).Info("Mappings already exist, skipping")
			return &models.MappingsLoadResult{
				Success: true,
				Action:  models.ActionSkipped,
				Reason:  "mappings_already_exist",
			}
		}
	}

	log.WithField("survey_id", surveyID).Info("Need to extract questions for mappings")

	definitions := s.extract.ExtractSurveyDefinitions(ctx, surveyID)
	if !definitions.Success {
		return &models.MappingsLoadResult{
			Success: false,
			Error:   fmt.Sprintf("failed to extract questions: %s", definitions.Error),
		}
	}
	if definitions.Action == models.ActionSkipped {
		return &models.MappingsLoadResult{
			Success: true,
			Action:  models.ActionSkipped,
			Reason:  "questions_already_exist",
		}
	}

	mappings, _ := s.TransformSurveyMappings(surveyID, definitions.SurveyName, definitions.Questions)
	return s.load.LoadSurveyMappings(ctx, surveyID, mappings, force)
}

// processSurveyResponses transforms and loads the responses of one survey
func (s *TransformService) processSurveyResponses(ctx context.Context, surveyID string) *models.ResponsesLoadResult {
	transform, err := s.TransformSurveyResponses(ctx, surveyID)
	if err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Error("Failed to transform responses")
		return &models.ResponsesLoadResult{Success: false, Error: err.Error()}
	}

	if transform.SkippedDuplicate {
		return &models.ResponsesLoadResult{
			Success:  true,
			Action:   models.ActionSkippedDuplicate,
			Reason:   models.ReasonDuplicateDownload,
			FileHash: transform.Hash,
		}
	}

	result := s.load.LoadSurveyResponses(ctx, surveyID, transform.Rows)
	result.TransformedCount = len(transform.Rows)
	result.TotalRecordsInCSV = transform.TotalRecords
	return result
}

// isLatestDuplicateDownload compares the two most recent extraction hashes.
// Lookup failures fall through to a normal transform.
func (s *TransformService) isLatestDuplicateDownload(ctx context.Context, surveyID string) (bool, string) {
	hashes, err := s.repo.LastTwoExtractionHashes(ctx, surveyID)
	if err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Warn("Failed to check duplicate download, proceeding with transform")
		return false, ""
	}
	if len(hashes) < 2 {
		return false, ""
	}
	if hashes[0] != "" && hashes[0] == hashes[1] {
		return true, hashes[0]
	}
	return false, ""
}

// extractMappingsFromQuestions builds recode-to-display mappings for the
// eligible DataExportTags. ServiceType contributes a single key field value
// instead of a mapping.
func extractMappingsFromQuestions(questions map[string]models.Question) models.FieldMappings {
	mappings := models.FieldMappings{
		KeyFields: make(map[string]string),
		Mappings:  make(map[string]map[string]string),
	}

	for _, question := range questions {
		tag := question.DataExportTag
		if tag == "" || !isMappingEligible(tag) {
			continue
		}

		if len(question.Choices) == 0 {
			log.WithField("tag", tag).Debug("No choices found")
			continue
		}

		if tag == serviceTypeTag {
			mappings.KeyFields[tag] = serviceTypeName(question)
			log.WithField("service_type", mappings.KeyFields[tag]).Info("Extracted service type")
			continue
		}

		inner := make(map[string]string, len(question.Choices))
		for choiceKey, choice := range question.Choices {
			key := question.RecodeValue(choiceKey)
			if key == "" {
				key = choiceKey
			}
			inner[key] = choice.Display
		}
		if len(inner) == 0 {
			log.WithField("tag", tag).Warn("No mappings created")
			continue
		}
		mappings.Mappings[tag] = inner
	}

	return mappings
}

// serviceTypeName picks the display value of choice "1", falling back to the
// first non-empty display.
func serviceTypeName(question models.Question) string {
	if choice, ok := question.Choices["1"]; ok && choice.Display != "" {
		return choice.Display
	}
	for _, choice := range question.Choices {
		if choice.Display != "" {
			return choice.Display
		}
	}
	return ""
}

func isMappingEligible(tag string) bool {
	for _, allowed := range mappingTags {
		if tag == allowed {
			return true
		}
	}
	return hasAnyPrefix(tag, mappingPrefixes)
}

func isKeyColumn(name string) bool {
	for _, field := range keyFields {
		if name == field {
			return true
		}
	}
	return hasAnyPrefix(name, keyFieldPrefixes)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// transformResponsesData selects the key-field columns of a Qualtrics CSV
// export and drops the two metadata rows that follow the header. It returns
// the transformed rows and the total number of data rows in the file.
func transformResponsesData(data []byte) ([]models.ResponseRow, int, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading csv header: %w", err)
	}

	selected := make(map[int]string)
	for idx, name := range header {
		if isKeyColumn(name) {
			selected[idx] = name
		}
	}

	var rows []models.ResponseRow
	total := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, total, fmt.Errorf("reading csv row: %w", err)
		}
		total++
		if total <= qualtricsMetadataRows {
			continue
		}

		row := make(models.ResponseRow, len(selected))
		for idx, name := range selected {
			if idx < len(record) {
				row[name] = record[idx]
			}
		}
		rows = append(rows, row)
	}

	return rows, total, nil
}
