package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"careerarc/internal/config"
	"careerarc/internal/logging"
	"careerarc/internal/logging/types"
	"careerarc/pkg/models"
	"careerarc/pkg/utils"
)

// maxStatusBody bounds how much of a status response is read
const maxStatusBody = 1 << 20

// HTTPExtractionClient talks to a remote CV extraction service:
// POST {base}/cv with a multipart "file" field returns {"taskId"}, and
// GET {base}/cv/status/{taskId} returns the task status.
type HTTPExtractionClient struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       types.Logger
}

type submitResponse struct {
	TaskID    string `json:"taskId"`
	TaskIDAlt string `json:"task_id"`
}

type statusResponse struct {
	Status               string                   `json:"status"`
	ExtractedDataSummary *models.ExtractedSummary `json:"extractedDataSummary"`
	Error                *string                  `json:"error"`
}

// NewHTTPExtractionClient creates a client for the configured extraction service
func NewHTTPExtractionClient(cfg *config.Config) (*HTTPExtractionClient, error) {
	base := strings.TrimRight(cfg.Imports.ExtractionURL, "/")
	if base == "" {
		return nil, fmt.Errorf("extraction service URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid extraction service URL: %w", err)
	}

	timeout := cfg.Imports.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// requests per minute, with a burst of one tenth of that
	limit := rate.Inf
	burst := 1
	if cfg.Imports.RateLimit > 0 {
		limit = rate.Limit(float64(cfg.Imports.RateLimit) / 60.0)
		burst = cfg.Imports.RateLimit/10 + 1
	}

	return &HTTPExtractionClient{
		baseURL:      base,
		serviceToken: cfg.Imports.ExtractionToken,
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(limit, burst),
		logger:       logging.GetGlobalLogger(),
	}, nil
}

// Submit uploads the file and returns the task ID issued by the service
func (c *HTTPExtractionClient) Submit(ctx context.Context, upload Upload) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(upload.Filename)))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cv", body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuth(req, upload.AuthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("extraction service rejected upload: %s: %s", resp.Status, truncate(string(data), 200))
	}

	var sr submitResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	taskID := sr.TaskID
	if taskID == "" {
		taskID = sr.TaskIDAlt
	}

	c.logger.Debug("CV uploaded to extraction service", map[string]interface{}{
		"task_id":  taskID,
		"filename": upload.Filename,
		"size":     len(upload.Data),
	})
	return taskID, nil
}

// Status fetches the current status of a task with the uploader's
// credential. Transport failures and non-2xx responses are returned as
// errors; a reported "failed" status is not.
func (c *HTTPExtractionClient) Status(ctx context.Context, taskID, authToken string) (StatusReport, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return StatusReport{}, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/cv/status/%s", c.baseURL, url.PathEscape(taskID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return StatusReport{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.setAuth(req, authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return StatusReport{}, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		return StatusReport{}, fmt.Errorf("failed to read status response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return StatusReport{}, fmt.Errorf("status request returned %s", resp.Status)
	}

	var sr statusResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return StatusReport{}, fmt.Errorf("failed to decode status response: %w", err)
	}

	return StatusReport{
		Status:  ParseRemoteStatus(sr.Status),
		Summary: sr.ExtractedDataSummary,
		Error:   sr.Error,
	}, nil
}

// ParseRemoteStatus maps the service's status strings onto ImportStatus.
// Unrecognised values map to an invalid status, which the tracker ignores.
func ParseRemoteStatus(s string) models.ImportStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "queued", "accepted":
		return models.ImportStatusPending
	case "processing", "in_progress", "running":
		return models.ImportStatusProcessing
	case "completed", "complete", "success", "done":
		return models.ImportStatusCompleted
	case "completed_with_errors", "partial":
		return models.ImportStatusCompletedWithErrors
	case "failed", "failure", "error":
		return models.ImportStatusFailed
	default:
		return models.ImportStatus(s)
	}
}

// setAuth sends the user's token, falling back to the service credential
func (c *HTTPExtractionClient) setAuth(req *http.Request, token string) {
	token = utils.GetStringOrDefault(token, c.serviceToken)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
