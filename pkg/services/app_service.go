package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/config"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/models"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/repository"
)

// AppService coordinates the extract, transform and load services and backs
// the HTTP handlers.
type AppService struct {
	repo       repository.Repository
	extract    *ExtractService
	transform  *TransformService
	load       *LoadService
	dataCenter string
	dataDir    string
}

func NewAppService(
	repo repository.Repository,
	extract *ExtractService,
	transform *TransformService,
	load *LoadService,
	dataCenter string,
	dataDir string,
) *AppService {
	return &AppService{
		repo:       repo,
		extract:    extract,
		transform:  transform,
		load:       load,
		dataCenter: dataCenter,
		dataDir:    dataDir,
	}
}

// ExtractData extracts responses for the given surveys, or for all active
// surveys (optionally scoped to one organisation) when no IDs are given.
func (s *AppService) ExtractData(ctx context.Context, surveyIDs []string, organisationID string) (*models.ExtractionSummary, error) {
	if len(surveyIDs) > 0 {
		return s.extract.ExtractSpecificSurveys(ctx, surveyIDs), nil
	}
	return s.extract.ExtractAllSurveys(ctx, organisationID)
}

// ExtractDefinitions extracts survey definitions analogously to ExtractData
func (s *AppService) ExtractDefinitions(ctx context.Context, surveyIDs []string, organisationID string) (*models.DefinitionsSummary, error) {
	if len(surveyIDs) > 0 {
		return s.extract.ExtractSpecificSurveysDefinitions(ctx, surveyIDs), nil
	}
	return s.extract.ExtractAllSurveysDefinitions(ctx, organisationID)
}

// TransformAndLoad transforms and loads the given surveys, or all active ones
func (s *AppService) TransformAndLoad(ctx context.Context, surveyIDs []string, organisationID string, forceMappings bool) (*models.TransformSummary, error) {
	if len(surveyIDs) > 0 {
		return s.transform.TransformSpecificSurveys(ctx, surveyIDs, forceMappings), nil
	}
	return s.transform.TransformAndLoadAll(ctx, organisationID, forceMappings)
}

// RunFullPipeline runs the extract phase followed by the transform-and-load
// phase. The transform phase is skipped when extraction fails outright.
func (s *AppService) RunFullPipeline(ctx context.Context, surveyIDs []string, organisationID string, forceMappings bool) (*models.PipelineResult, error) {
	result := &models.PipelineResult{}
	startTime := time.Now()

	log.Info("Starting extract phase")
	extractSummary, err := s.ExtractData(ctx, surveyIDs, organisationID)
	if err != nil {
		return result, fmt.Errorf("extract phase failed: %w", err)
	}
	result.ExtractPhase = extractSummary

	log.Info("Starting transform and load phase")
	transformSummary, err := s.TransformAndLoad(ctx, surveyIDs, organisationID, forceMappings)
	if err != nil {
		return result, fmt.Errorf("transform and load phase failed: %w", err)
	}
	result.TransformPhase = transformSummary
	result.OverallSuccess = true

	log.WithField("duration", time.Since(startTime)).Info("Full pipeline completed")
	return result, nil
}

// GetStatus assembles the status report for the REST API. Partial database
// failures degrade the report instead of failing it.
func (s *AppService) GetStatus(ctx context.Context) *models.StatusReport {
	report := &models.StatusReport{
		DataCenter: s.dataCenter,
		DataDir:    s.dataDir,
		AppVersion: config.AppVersion,
	}

	total, err := s.repo.CountSurveys(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch surveys count")
	} else {
		report.SurveysInfo.TotalSurveys = total
	}

	ids, err := s.repo.ListSurveyIDs(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch survey ids")
	} else {
		report.SurveysInfo.SurveyIDs = ids
	}

	recent, err := s.repo.RecentExtractions(ctx, 10)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch recent extractions")
	} else {
		report.RecentExtractions = recent
	}

	return report
}

// HealthCheck verifies database connectivity
func (s *AppService) HealthCheck(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Close releases the underlying repository
func (s *AppService) Close() error {
	if err := s.repo.Close(); err != nil {
		return fmt.Errorf("closing repository: %w", err)
	}
	return nil
}
