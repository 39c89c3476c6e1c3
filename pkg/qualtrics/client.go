// Package qualtrics implements a minimal client for the Qualtrics v3 API,
// covering response exports and survey definitions.
package qualtrics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/Luciangogogo/qualtrics-data-processor2026/pkg/errors"
)

const defaultTimeout = 30 * time.Second

// ErrAPITokenNotSet is returned when a client is created without a token
var ErrAPITokenNotSet = errors.New("qualtrics API token not set")

// ErrDataCenterNotSet is returned when a client is created without a data center
var ErrDataCenterNotSet = errors.New("qualtrics data center not set")

// Config configures a Client
type Config struct {
	APIToken   string
	DataCenter string
	Client     *http.Client
}

// Client calls the Qualtrics v3 API of one data center
type Client struct {
	apiToken   string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Client for the configured data center
func NewClient(config *Config) (*Client, error) {
	if config.APIToken == "" {
		return nil, ErrAPITokenNotSet
	}
	if config.DataCenter == "" {
		return nil, ErrDataCenterNotSet
	}

	httpClient := config.Client
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultTimeout,
		}
	}

	return &Client{
		apiToken:   config.APIToken,
		httpClient: httpClient,
		baseURL:    fmt.Sprintf("https://%s.qualtrics.com/API/v3", config.DataCenter),
	}, nil
}

// BaseURL returns the resolved API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("X-API-TOKEN", c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	return resp, nil
}

func (c *Client) doJSONRequest(ctx context.Context, method, endpoint string, body io.Reader, result interface{}) error {
	resp, err := c.doRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: unexpected status code %d from %s", apperrors.ErrExternalService, resp.StatusCode, endpoint)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if result != nil {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return fmt.Errorf("decoding result: %w", err)
		}
	}

	return nil
}

// StartExport launches a responses export for a survey and returns the
// progress ID used to poll for completion.
func (c *Client) StartExport(ctx context.Context, surveyID, format string) (string, error) {
	if format == "" {
		format = "csv"
	}

	payload, err := json.Marshal(startExportRequest{Format: format})
	if err != nil {
		return "", fmt.Errorf("encoding export request: %w", err)
	}

	var result startExportResult
	endpoint := fmt.Sprintf("/surveys/%s/export-responses/", surveyID)
	if err := c.doJSONRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload), &result); err != nil {
		return "", fmt.Errorf("starting export for survey %s: %w", surveyID, err)
	}

	if result.ProgressID == "" {
		return "", fmt.Errorf("%w: export response missing progressId", apperrors.ErrExternalService)
	}
	return result.ProgressID, nil
}

// GetExportProgress fetches the state of a running export
func (c *Client) GetExportProgress(ctx context.Context, surveyID, progressID string) (*ExportProgress, error) {
	var result ExportProgress
	endpoint := fmt.Sprintf("/surveys/%s/export-responses/%s", surveyID, progressID)
	if err := c.doJSONRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, fmt.Errorf("checking export status for survey %s: %w", surveyID, err)
	}
	return &result, nil
}

// DownloadExport downloads the finished export archive (a zip of one CSV)
func (c *Client) DownloadExport(ctx context.Context, surveyID, fileID string) ([]byte, error) {
	endpoint := fmt.Sprintf("/surveys/%s/export-responses/%s/file", surveyID, fileID)
	resp, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("downloading export file for survey %s: %w", surveyID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d downloading export file", apperrors.ErrExternalService, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading export file: %w", err)
	}
	return content, nil
}

// GetSurveyDefinition fetches the survey name and questions of a survey
func (c *Client) GetSurveyDefinition(ctx context.Context, surveyID string) (*SurveyDefinition, error) {
	var result SurveyDefinition
	endpoint := fmt.Sprintf("/survey-definitions/%s", surveyID)
	if err := c.doJSONRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, fmt.Errorf("getting survey definition for %s: %w", surveyID, err)
	}
	return &result, nil
}

// TestConnection verifies the API token against the whoami endpoint
func (c *Client) TestConnection(ctx context.Context) error {
	if err := c.doJSONRequest(ctx, http.MethodGet, "/whoami", nil, nil); err != nil {
		return fmt.Errorf("qualtrics connection test failed: %w", err)
	}
	return nil
}
