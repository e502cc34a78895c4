// Package enrichment provides the HTTP client for the external
// enrichment service. All job types share one submit/poll/result/delete
// surface.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/grocerly/v1/internal/domain/enrichment"
	"github.com/grocerly/v1/internal/ports/outbound"
	"github.com/grocerly/v1/pkg/errors"
)

// Client implements the enrichment service boundary over HTTP
type Client struct {
	client *resty.Client
	logger *zap.Logger
}

// NewClient creates a new enrichment client
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) outbound.EnrichmentService {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	}

	return &Client{
		client: client,
		logger: logger.Named("enrichment-client"),
	}
}

// SubmitJob submits a payload for asynchronous processing and returns
// the remote job ID.
func (c *Client) SubmitJob(ctx context.Context, t enrichment.JobType, payload interface{}) (string, error) {
	req := map[string]interface{}{
		"type":    string(t),
		"payload": payload,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/v1/jobs")

	if err != nil {
		return "", errors.NewExternalServiceError("submit job", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return "", errors.NewExternalServiceError("submit job",
			fmt.Errorf("enrichment service returned %d: %s", resp.StatusCode(), resp.String()))
	}

	var result struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", errors.NewExternalServiceError("submit job",
			fmt.Errorf("failed to parse submit response: %w", err))
	}
	if result.JobID == "" {
		return "", errors.NewExternalServiceError("submit job",
			fmt.Errorf("submit response carried no job id"))
	}

	c.logger.Debug("Job submitted",
		zap.String("job_type", string(t)),
		zap.String("job_id", result.JobID),
	)
	return result.JobID, nil
}

// JobState returns the remote lifecycle state of a job
func (c *Client) JobState(ctx context.Context, jobID string) (enrichment.RemoteState, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/v1/jobs/%s", jobID))

	if err != nil {
		return "", errors.NewExternalServiceError("poll job", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		// The remote purged the record; indistinguishable from failure
		// for the caller.
		return enrichment.RemoteFailed, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return "", errors.NewExternalServiceError("poll job",
			fmt.Errorf("enrichment service returned %d: %s", resp.StatusCode(), resp.String()))
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", errors.NewExternalServiceError("poll job",
			fmt.Errorf("failed to parse status response: %w", err))
	}

	return enrichment.RemoteState(result.Status), nil
}

// FetchResult retrieves a completed job's result payload
func (c *Client) FetchResult(ctx context.Context, jobID string) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/v1/jobs/%s/result", jobID))

	if err != nil {
		return nil, errors.NewExternalServiceError("fetch job result", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.NewExternalServiceError("fetch job result",
			fmt.Errorf("enrichment service returned %d: %s", resp.StatusCode(), resp.String()))
	}

	var result struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, errors.NewExternalServiceError("fetch job result",
			fmt.Errorf("failed to parse result envelope: %w", err))
	}

	return result.Result, nil
}

// DeleteJob removes the remote job record
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/v1/jobs/%s", jobID))

	if err != nil {
		return errors.NewExternalServiceError("delete job", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent &&
		resp.StatusCode() != http.StatusNotFound {
		return errors.NewExternalServiceError("delete job",
			fmt.Errorf("enrichment service returned %d", resp.StatusCode()))
	}
	return nil
}
