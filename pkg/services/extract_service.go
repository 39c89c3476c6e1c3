package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Luciangogogo/qualtrics-data-processor2026/internal/fileutil"
	apperrors "github.com/Luciangogogo/qualtrics-data-processor2026/pkg/errors"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/models"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/qualtrics"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/repository"
)

// ExtractService downloads survey responses and definitions from Qualtrics
type ExtractService struct {
	repo         repository.Repository
	client       *qualtrics.Client
	dataDir      string
	pollMax      time.Duration
	pollInterval time.Duration
}

func NewExtractService(repo repository.Repository, client *qualtrics.Client, dataDir string, pollMax, pollInterval time.Duration) *ExtractService {
	return &ExtractService{
		repo:         repo,
		client:       client,
		dataDir:      dataDir,
		pollMax:      pollMax,
		pollInterval: pollInterval,
	}
}

// ExtractSurveyResponses runs the full export for one survey and saves the
// CSV into the data directory. The download is recorded in the extraction log.
func (s *ExtractService) ExtractSurveyResponses(ctx context.Context, surveyID string) *models.ExtractionResult {
	fileName := fileutil.GenerateFilename(surveyID)
	filePath := filepath.Join(s.dataDir, fileName)

	log.WithField("survey_id", surveyID).Info("Starting survey responses extraction")

	content, err := s.executeFullExport(ctx, surveyID)
	if err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Error("Failed to extract survey responses")
		return &models.ExtractionResult{
			Success: false,
			Error:   fmt.Sprintf("failed to extract survey responses: %v", err),
		}
	}

	csvData, err := extractFirstCSV(content)
	if err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Error("Failed to unpack export archive")
		return &models.ExtractionResult{
			Success: false,
			Error:   fmt.Sprintf("failed to extract survey responses: %v", err),
		}
	}

	if err := os.WriteFile(filePath, csvData, 0644); err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Error("Failed to save export file")
		return &models.ExtractionResult{
			Success: false,
			Error:   fmt.Sprintf("failed to save export file: %v", err),
		}
	}
	log.WithFields(log.Fields{
		"survey_id": surveyID,
		"file":      filePath,
	}).Info("Survey responses data saved")

	records, err := countCSVRecords(csvData)
	if err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Warn("Failed to count records in export")
	}

	s.logExtractionResult(ctx, surveyID, fileName, filePath)

	return &models.ExtractionResult{
		Success:      true,
		FilePath:     filePath,
		FileName:     fileName,
		RecordsCount: records,
	}
}

// ExtractSurveyDefinitions fetches the survey name and questions, skipping
// surveys whose field mapping is already populated.
func (s *ExtractService) ExtractSurveyDefinitions(ctx context.Context, surveyID string) *models.DefinitionsResult {
	exists, err := s.repo.HasFieldMapping(ctx, surveyID)
	if err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Error("Failed to check field mapping")
		return &models.DefinitionsResult{
			Success: false,
			Action:  models.ActionFailed,
			Error:   fmt.Sprintf("failed to check field mapping: %v", err),
		}
	}
	if exists {
		log.WithField("survey_id", surveyID).Info("Survey definitions already exist, skipping extraction")
		return &models.DefinitionsResult{
			Success: true,
			Action:  models.ActionSkipped,
			Reason:  models.ReasonMappingExists,
		}
	}

	log.WithField("survey_id", surveyID).Info("Field mapping is empty, extracting survey definitions")

	definition, err := s.client.GetSurveyDefinition(ctx, surveyID)
	if err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Error("Failed to extract survey definitions")
		return &models.DefinitionsResult{
			Success: false,
			Action:  models.ActionFailed,
			Error:   fmt.Sprintf("failed to extract survey definitions: %v", err),
		}
	}

	log.WithFields(log.Fields{
		"survey_id":   surveyID,
		"survey_name": definition.SurveyName,
		"questions":   len(definition.Questions),
	}).Info("Successfully extracted survey definitions")

	return &models.DefinitionsResult{
		Success:        true,
		Action:         models.ActionExtracted,
		SurveyName:     definition.SurveyName,
		Questions:      definition.Questions,
		QuestionsCount: len(definition.Questions),
	}
}

// ExtractAllSurveys extracts responses for every active survey, optionally
// scoped to one organisation.
func (s *ExtractService) ExtractAllSurveys(ctx context.Context, organisationID string) (*models.ExtractionSummary, error) {
	surveyIDs, err := s.repo.ListActiveSurveyIDs(ctx, organisationID)
	if err != nil {
		return nil, fmt.Errorf("listing surveys: %w", err)
	}
	if len(surveyIDs) == 0 {
		return nil, apperrors.ErrNoSurveys
	}
	return s.ExtractSpecificSurveys(ctx, surveyIDs), nil
}

// ExtractSpecificSurveys extracts responses for the given surveys one by one
func (s *ExtractService) ExtractSpecificSurveys(ctx context.Context, surveyIDs []string) *models.ExtractionSummary {
	summary := &models.ExtractionSummary{
		TotalSurveys: len(surveyIDs),
		Details:      make(map[string]*models.ExtractionResult, len(surveyIDs)),
		SurveyIDs:    surveyIDs,
	}

	log.WithField("count", len(surveyIDs)).Info("Starting responses extraction")

	for _, surveyID := range surveyIDs {
		result := s.ExtractSurveyResponses(ctx, surveyID)
		summary.Details[surveyID] = result
		if result.Success {
			summary.SuccessfulExtractions++
		}
	}
	summary.FailedExtractions = summary.TotalSurveys - summary.SuccessfulExtractions

	log.WithFields(log.Fields{
		"successful": summary.SuccessfulExtractions,
		"total":      summary.TotalSurveys,
	}).Info("Responses extraction completed")

	return summary
}

// ExtractAllSurveysDefinitions extracts definitions for every active survey
func (s *ExtractService) ExtractAllSurveysDefinitions(ctx context.Context, organisationID string) (*models.DefinitionsSummary, error) {
	surveyIDs, err := s.repo.ListActiveSurveyIDs(ctx, organisationID)
	if err != nil {
		return nil, fmt.Errorf("listing surveys: %w", err)
	}
	if len(surveyIDs) == 0 {
		return nil, apperrors.ErrNoSurveys
	}
	return s.ExtractSpecificSurveysDefinitions(ctx, surveyIDs), nil
}

// ExtractSpecificSurveysDefinitions extracts definitions for the given surveys
func (s *ExtractService) ExtractSpecificSurveysDefinitions(ctx context.Context, surveyIDs []string) *models.DefinitionsSummary {
	summary := &models.DefinitionsSummary{
		TotalSurveys: len(surveyIDs),
		Details:      make(map[string]*models.DefinitionsResult, len(surveyIDs)),
		SurveyIDs:    surveyIDs,
	}

	log.WithField("count", len(surveyIDs)).Info("Starting definitions extraction")

	for _, surveyID := range surveyIDs {
		result := s.ExtractSurveyDefinitions(ctx, surveyID)
		summary.Details[surveyID] = result
		if result.Success {
			summary.SuccessfulExtractions++
		}
		switch result.Action {
		case models.ActionExtracted:
			summary.ExtractedCount++
		case models.ActionSkipped:
			summary.SkippedCount++
		}
	}
	summary.FailedExtractions = summary.TotalSurveys - summary.SuccessfulExtractions

	log.WithFields(log.Fields{
		"successful": summary.SuccessfulExtractions,
		"extracted":  summary.ExtractedCount,
		"skipped":    summary.SkippedCount,
		"total":      summary.TotalSurveys,
	}).Info("Definitions extraction completed")

	return summary
}

// executeFullExport runs start -> poll -> download for one survey
func (s *ExtractService) executeFullExport(ctx context.Context, surveyID string) ([]byte, error) {
	progressID, err := s.client.StartExport(ctx, surveyID, "csv")
	if err != nil {
		return nil, fmt.Errorf("starting export: %w", err)
	}
	log.WithFields(log.Fields{
		"survey_id":   surveyID,
		"progress_id": progressID,
	}).Info("Export started")

	fileID, err := s.waitForExportCompletion(ctx, surveyID, progressID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"survey_id": surveyID,
		"file_id":   fileID,
	}).Info("Export completed, downloading file")

	content, err := s.client.DownloadExport(ctx, surveyID, fileID)
	if err != nil {
		return nil, fmt.Errorf("downloading export: %w", err)
	}
	return content, nil
}

// waitForExportCompletion polls the export progress until it completes,
// fails, or the poll budget runs out.
func (s *ExtractService) waitForExportCompletion(ctx context.Context, surveyID, progressID string) (string, error) {
	for waited := time.Duration(0); waited < s.pollMax; waited += s.pollInterval {
		progress, err := s.client.GetExportProgress(ctx, surveyID, progressID)
		if err != nil {
			return "", fmt.Errorf("checking export status: %w", err)
		}

		if progress.IsComplete() {
			return progress.FileID, nil
		}
		if progress.IsFailed() {
			return "", fmt.Errorf("%w: status %s", apperrors.ErrExportFailed, progress.Status)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}

	return "", fmt.Errorf("%w: after %s", apperrors.ErrExportTimeout, s.pollMax)
}

// logExtractionResult records a successful download in the extraction log.
// Failures here are logged but never fail the extraction itself.
func (s *ExtractService) logExtractionResult(ctx context.Context, surveyID, fileName, filePath string) {
	size, err := fileutil.FileSize(filePath)
	if err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Warn("File does not exist, skipping log")
		return
	}
	hash, err := fileutil.FileHash(filePath)
	if err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Warn("Failed to hash export file, skipping log")
		return
	}

	id, err := s.repo.InsertExtractionLog(ctx, &models.ExtractionLog{
		SurveyID:    surveyID,
		FileName:    fileName,
		FileSize:    size,
		FileHash:    hash,
		ExtractedAt: time.Now().UTC(),
	})
	if err != nil {
		log.WithError(err).WithField("survey_id", surveyID).Error("Failed to log extraction result")
		return
	}
	log.WithFields(log.Fields{
		"survey_id": surveyID,
		"log_id":    id,
	}).Info("Responses extraction success log recorded")
}

// extractFirstCSV pulls the first CSV file out of a Qualtrics export archive
func extractFirstCSV(archive []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("opening export archive: %w", err)
	}
	if len(reader.File) == 0 {
		return nil, fmt.Errorf("export archive is empty")
	}

	file := reader.File[0]
	for _, f := range reader.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			file = f
			break
		}
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s in archive: %w", file.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s from archive: %w", file.Name, err)
	}
	return data, nil
}

// countCSVRecords counts data rows in a CSV export (header excluded)
func countCSVRecords(data []byte) (int, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	count := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("reading csv: %w", err)
		}
		count++
	}
	if count > 0 {
		count-- // header row
	}
	return count, nil
}
