package services

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Luciangogogo/qualtrics-data-processor2026/internal/fileutil"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/models"
	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/qualtrics"
)

// fakeRepository backs service tests without a database
type fakeRepository struct {
	surveyUUID   uuid.UUID
	hasMappings  bool
	hasFieldMap  bool
	hashes       []string
	insertedRows int
}

func (f *fakeRepository) ListActiveSurveyIDs(context.Context, string) ([]string, error) {
	return nil, nil
}

func (f *fakeRepository) GetSurveyUUID(context.Context, string) (uuid.UUID, error) {
	return f.surveyUUID, nil
}

func (f *fakeRepository) HasFieldMapping(context.Context, string) (bool, error) {
	return f.hasFieldMap, nil
}

func (f *fakeRepository) HasMappings(context.Context, uuid.UUID) (bool, error) {
	return f.hasMappings, nil
}

func (f *fakeRepository) UpdateSurveyMappings(context.Context, uuid.UUID, models.FieldMappings) error {
	return nil
}

func (f *fakeRepository) DeleteResponses(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) InsertResponses(_ context.Context, responses []*models.SurveyResponse) (int, error) {
	f.insertedRows += len(responses)
	return len(responses), nil
}

func (f *fakeRepository) InsertExtractionLog(context.Context, *models.ExtractionLog) (int64, error) {
	return 1, nil
}

func (f *fakeRepository) LastTwoExtractionHashes(context.Context, string) ([]string, error) {
	return f.hashes, nil
}

func (f *fakeRepository) RecentExtractions(context.Context, int) ([]models.ExtractionLog, error) {
	return nil, nil
}

func (f *fakeRepository) CountSurveys(context.Context) (int, error) { return 0, nil }

func (f *fakeRepository) ListSurveyIDs(context.Context) ([]string, error) { return nil, nil }

func (f *fakeRepository) Ping(context.Context) error { return nil }

func (f *fakeRepository) Close() error { return nil }

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// failingQualtricsClient returns a client whose every request gets a 500
func failingQualtricsClient(t *testing.T) *qualtrics.Client {
	t.Helper()

	client, err := qualtrics.NewClient(&qualtrics.Config{
		APIToken:   "token",
		DataCenter: "dc1",
		Client: &http.Client{
			Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusInternalServerError,
					Header:     make(http.Header),
					Body:       io.NopCloser(strings.NewReader("")),
					Request:    r,
				}, nil
			}),
		},
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestExtractMappingsFromQuestions(t *testing.T) {
	questions := map[string]models.Question{
		"QID1": {
			DataExportTag: "Gender",
			Choices: map[string]models.Choice{
				"1": {Display: "Female"},
				"2": {Display: "Male"},
			},
			RecodeValues: map[string]interface{}{
				"1": float64(10),
				"2": float64(20),
			},
		},
		"QID2": {
			DataExportTag: "ServiceType",
			Choices: map[string]models.Choice{
				"1": {Display: "Inpatient"},
				"2": {Display: "Outpatient"},
			},
		},
		"QID3": {
			DataExportTag: "Ab_Cleanliness",
			Choices: map[string]models.Choice{
				"1": {Display: "Poor"},
				"2": {Display: "Good"},
			},
		},
		"QID4": {
			// Not an eligible tag, must be ignored
			DataExportTag: "Comments",
			Choices: map[string]models.Choice{
				"1": {Display: "Anything"},
			},
		},
		"QID5": {
			// Eligible but without choices, must be ignored
			DataExportTag: "Satisfaction",
		},
		"QID6": {
			// No export tag at all
			Choices: map[string]models.Choice{"1": {Display: "X"}},
		},
	}

	mappings := extractMappingsFromQuestions(questions)

	if got := mappings.KeyFields["ServiceType"]; got != "Inpatient" {
		t.Errorf("ServiceType = %q, want Inpatient", got)
	}
	if _, ok := mappings.Mappings["ServiceType"]; ok {
		t.Error("ServiceType must not produce a mapping")
	}

	gender := mappings.Mappings["Gender"]
	if gender == nil {
		t.Fatal("Gender mapping missing")
	}
	if gender["10"] != "Female" || gender["20"] != "Male" {
		t.Errorf("Gender mapping = %v, want recode keys 10/20", gender)
	}

	// Without recode values the choice key is the mapping key
	ab := mappings.Mappings["Ab_Cleanliness"]
	if ab == nil {
		t.Fatal("Ab_Cleanliness mapping missing")
	}
	if ab["1"] != "Poor" || ab["2"] != "Good" {
		t.Errorf("Ab_Cleanliness mapping = %v", ab)
	}

	if _, ok := mappings.Mappings["Comments"]; ok {
		t.Error("Comments must be ignored")
	}
	if _, ok := mappings.Mappings["Satisfaction"]; ok {
		t.Error("Satisfaction without choices must be ignored")
	}
}

func TestServiceTypeName_Fallback(t *testing.T) {
	question := models.Question{
		DataExportTag: "ServiceType",
		Choices: map[string]models.Choice{
			"7": {Display: "Community Care"},
		},
	}
	if got := serviceTypeName(question); got != "Community Care" {
		t.Errorf("serviceTypeName() = %q, want Community Care", got)
	}
}

func TestTransformSurveyMappings_NoQuestions(t *testing.T) {
	s := &TransformService{}

	mappings, skipped := s.TransformSurveyMappings("SV_abc", "Patient Survey", nil)
	if !skipped {
		t.Error("expected skip for empty questions")
	}
	if mappings.SurveyName != "Patient Survey" {
		t.Errorf("SurveyName = %q", mappings.SurveyName)
	}
	if !mappings.IsEmpty() {
		t.Error("expected empty mappings")
	}
}

func TestTransformSpecificSurveys_ResponsesRunWhenMappingsFail(t *testing.T) {
	surveyID := "SV_abc123"
	dataDir := t.TempDir()

	csvData := strings.Join([]string{
		"EndDate,Facility",
		"End Date,Facility",
		`"{""ImportId"":""endDate""}","{""ImportId"":""f""}"`,
		"2024-01-01 10:00:00,3",
	}, "\n")
	fileName := fileutil.GenerateFilenameAt(surveyID, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := os.WriteFile(filepath.Join(dataDir, fileName), []byte(csvData), 0644); err != nil {
		t.Fatalf("writing csv: %v", err)
	}

	repo := &fakeRepository{
		surveyUUID: uuid.New(),
		hashes:     []string{"aaa"},
	}
	extract := NewExtractService(repo, failingQualtricsClient(t), dataDir, time.Second, time.Millisecond)
	load := NewLoadService(repo, time.UTC)
	transform := NewTransformService(repo, extract, load, dataDir)

	summary := transform.TransformSpecificSurveys(context.Background(), []string{surveyID}, false)

	result := summary.Details[surveyID]
	if result == nil {
		t.Fatal("no result for survey")
	}
	if result.Mappings.Success {
		t.Error("mappings stage should fail when the definition fetch fails")
	}
	if !result.Responses.Success {
		t.Fatalf("responses stage must still run, got error %q", result.Responses.Error)
	}
	if result.Responses.InsertedCount != 1 || repo.insertedRows != 1 {
		t.Errorf("inserted = %d (repo %d), want 1", result.Responses.InsertedCount, repo.insertedRows)
	}
	if result.OverallSuccess {
		t.Error("overall_success must be false when mappings failed")
	}
	if summary.SuccessfulTransforms != 0 {
		t.Errorf("successful_transforms = %d, want 0", summary.SuccessfulTransforms)
	}
}

func TestTransformResponsesData(t *testing.T) {
	csvData := strings.Join([]string{
		"StartDate,EndDate,Facility,Gender,Ab_Cleanliness,Comments",
		`"Start Date","End Date","Facility","Gender","Cleanliness","Comments"`,
		`"{""ImportId"":""startDate""}","{""ImportId"":""endDate""}","{""ImportId"":""f""}","{""ImportId"":""g""}","{""ImportId"":""a""}","{""ImportId"":""c""}"`,
		"2024-01-01 10:00:00,2024-01-01 10:05:00,3,1,4,great visit",
		"2024-01-02 11:00:00,2024-01-02 11:09:00,2,2,5,",
	}, "\n")

	rows, total, err := transformResponsesData([]byte(csvData))
	if err != nil {
		t.Fatalf("transformResponsesData() error = %v", err)
	}

	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	first := rows[0]
	if first["EndDate"] != "2024-01-01 10:05:00" {
		t.Errorf("EndDate = %q", first["EndDate"])
	}
	if first["Facility"] != "3" || first["Gender"] != "1" {
		t.Errorf("row = %v", first)
	}
	if first["Ab_Cleanliness"] != "4" {
		t.Errorf("Ab_Cleanliness = %q", first["Ab_Cleanliness"])
	}
	if _, ok := first["Comments"]; ok {
		t.Error("Comments column must not be selected")
	}
	if _, ok := first["StartDate"]; ok {
		t.Error("StartDate column must not be selected")
	}
}

func TestTransformResponsesData_OnlyMetadataRows(t *testing.T) {
	csvData := strings.Join([]string{
		"EndDate,Facility",
		"End Date,Facility",
		`"{""ImportId"":""endDate""}","{""ImportId"":""f""}"`,
	}, "\n")

	rows, total, err := transformResponsesData([]byte(csvData))
	if err != nil {
		t.Fatalf("transformResponsesData() error = %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}

func TestTransformResponsesData_Empty(t *testing.T) {
	rows, total, err := transformResponsesData(nil)
	if err != nil {
		t.Fatalf("transformResponsesData() error = %v", err)
	}
	if total != 0 || len(rows) != 0 {
		t.Errorf("total = %d rows = %d, want 0/0", total, len(rows))
	}
}

func TestIsKeyColumn(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"EndDate", true},
		{"Facility", true},
		{"NPS_NPS_GROUP", true},
		{"Ab_Anything", true},
		{"StartDate", false},
		{"ResponseId", false},
		{"ab_lowercase", false},
	}
	for _, tt := range tests {
		if got := isKeyColumn(tt.name); got != tt.want {
			t.Errorf("isKeyColumn(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
