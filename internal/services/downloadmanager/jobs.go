package downloadmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amaumene/reelarr/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// ErrRejected is returned when the manager refuses a job (4xx)
var ErrRejected = errors.New("download manager rejected job")

// EnqueueResponse represents the response from submitting a job
type EnqueueResponse struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
	JobID   string `json:"jobId"`
}

// Enqueue submits a job. Transport failures and 5xx responses are retried with
// exponential backoff; 4xx responses fail immediately.
func (c *Client) Enqueue(ctx context.Context, job models.DownloadJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newBackOff(), c.maxRetries),
		ctx,
	)

	attempt := 0
	operation := func() error {
		attempt++
		return c.submit(ctx, payload)
	}
	notify := func(err error, wait time.Duration) {
		c.logger.WithFields(logrus.Fields{
			"job_id":  job.JobID,
			"attempt": attempt,
			"wait":    wait,
		}).WithError(err).Warn("Job submission failed, retrying")
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"job_id":     job.JobID,
		"content_id": job.ContentID,
		"resolution": job.ResolutionP,
	}).Info("Submitted download job")
	return nil
}

func (c *Client) submit(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	case resp.StatusCode >= 400:
		return backoff.Permanent(fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, string(bodyBytes)))
	}

	c.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"body":        string(bodyBytes),
	}).Debug("Download manager response")

	if len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	var result EnqueueResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		// Accepted status with a non-JSON body still counts as queued
		return nil
	}
	if !result.Success && result.Detail != "" {
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrRejected, result.Detail))
	}

	return nil
}

func newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}
