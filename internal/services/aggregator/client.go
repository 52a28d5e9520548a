package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/amaumene/reelarr/internal/config"
	"github.com/amaumene/reelarr/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxResponseSize = 8 * 1024 * 1024

var tracer = otel.Tracer("github.com/amaumene/reelarr/internal/services/aggregator")

// Client wraps direct calls to the provider aggregation endpoint
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new aggregation endpoint client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.AggregatorURL == "" {
		return nil, fmt.Errorf("aggregator URL is required")
	}
	if _, err := url.Parse(cfg.AggregatorURL); err != nil {
		return nil, fmt.Errorf("invalid aggregator URL: %w", err)
	}

	timeout := cfg.AggregatorTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: cfg.AggregatorURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// endpoint builds /download/movie/{id} or /download/tv/{id}/{season}/{episode}
func (c *Client) endpoint(ref models.ContentRef) string {
	if ref.IsEpisode() {
		return fmt.Sprintf("%s/download/tv/%s/%d/%d", c.baseURL,
			url.PathEscape(ref.ID), ref.Season, ref.Episode)
	}
	return fmt.Sprintf("%s/download/movie/%s", c.baseURL, url.PathEscape(ref.ID))
}

// Fetch issues one request for the content and decodes the variably nested response
func (c *Client) Fetch(ctx context.Context, ref models.ContentRef) (*Response, error) {
	ctx, span := tracer.Start(ctx, "aggregator.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("content_id", ref.ContentID()))

	finalURL := c.endpoint(ref)
	c.logger.WithFields(logrus.Fields{
		"url":        finalURL,
		"content_id": ref.ContentID(),
	}).Debug("Fetching sources from aggregation endpoint")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "reelarr/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("aggregation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"content_id":  ref.ContentID(),
		}).Debug("Aggregation endpoint returned non-OK status")
		err := fmt.Errorf("aggregation endpoint returned status %d", resp.StatusCode)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result, err := Decode(body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"content_id":       ref.ContentID(),
		"downloads":        len(result.Downloads),
		"captions":         len(result.Captions),
		"external_streams": len(result.ExternalStreams),
	}).Debug("Aggregation fetch completed")

	return result, nil
}

// flexString accepts a JSON string or number
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*f = flexString(n.String())
	return nil
}

// sizeLabel turns a bare byte count into a readable label, leaving labels untouched
func sizeLabel(value flexString) string {
	raw := string(value)
	bytes, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || bytes == 0 {
		return raw
	}
	return humanize.IBytes(bytes)
}
