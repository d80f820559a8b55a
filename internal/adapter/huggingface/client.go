// Package huggingface calls the hosted text-classification inference endpoint.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pscheid92/feedback-pulse/internal/adapter/metrics"
	"github.com/pscheid92/feedback-pulse/internal/domain"
)

const (
	serviceName = "huggingface"

	// cap on how much of an error body is kept for diagnostics
	maxErrorBody = 64 << 10
)

// Config selects the endpoint, credential and request schema for one deployment.
// InputKey is the single JSON field the endpoint reads text from ("inputs" or "text").
type Config struct {
	URL      string
	Token    string
	InputKey string
}

type Client struct {
	cfg     Config
	http    *http.Client
	metrics *metrics.UpstreamMetrics
}

func NewClient(cfg Config, httpClient *http.Client, m *metrics.UpstreamMetrics) *Client {
	if cfg.InputKey == "" {
		cfg.InputKey = "inputs"
	}
	return &Client{cfg: cfg, http: httpClient, metrics: m}
}

// Classify posts text to the endpoint and returns the JSON body untouched.
// A non-2xx status or non-JSON content type yields *domain.UpstreamError.
func (c *Client) Classify(ctx context.Context, text string) (json.RawMessage, error) {
	start := time.Now()
	body, outcome, err := c.classify(ctx, text)
	c.metrics.Observe(serviceName, outcome, time.Since(start))
	return body, err
}

func (c *Client) classify(ctx context.Context, text string) (json.RawMessage, string, error) {
	payload, err := json.Marshal(map[string]string{c.cfg.InputKey: text})
	if err != nil {
		return nil, metrics.OutcomeTransportError, fmt.Errorf("failed to marshal inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, metrics.OutcomeTransportError, fmt.Errorf("failed to create inference request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, metrics.OutcomeTransportError, fmt.Errorf("inference request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !strings.Contains(contentType, "application/json") {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, metrics.OutcomeUpstreamError, &domain.UpstreamError{
			Service:     serviceName,
			StatusCode:  resp.StatusCode,
			ContentType: contentType,
			Body:        string(raw),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, metrics.OutcomeTransportError, fmt.Errorf("failed to read inference response: %w", err)
	}
	if !json.Valid(raw) {
		return nil, metrics.OutcomeMalformed, &domain.MalformedResponseError{
			Service: serviceName,
			Reason:  "body is not valid JSON",
			Payload: raw,
		}
	}

	return raw, metrics.OutcomeSuccess, nil
}
