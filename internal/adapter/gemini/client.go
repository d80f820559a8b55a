// Package gemini calls the Gemini generateContent endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pscheid92/feedback-pulse/internal/adapter/metrics"
	"github.com/pscheid92/feedback-pulse/internal/domain"
)

const (
	serviceName  = "gemini"
	maxErrorBody = 64 << 10
)

type Config struct {
	BaseURL string
	Model   string
	APIKey  string
}

type Client struct {
	cfg     Config
	http    *http.Client
	metrics *metrics.UpstreamMetrics
}

func NewClient(cfg Config, httpClient *http.Client, m *metrics.UpstreamMetrics) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient, metrics: m}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate returns the concatenated text parts of the first candidate.
// An empty or absent candidate list yields domain.ErrNoCandidates.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, outcome, err := c.generate(ctx, prompt)
	c.metrics.Observe(serviceName, outcome, time.Since(start))
	return text, err
}

func (c *Client) generate(ctx context.Context, prompt string) (string, string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", metrics.OutcomeTransportError, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, url.PathEscape(c.cfg.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", metrics.OutcomeTransportError, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", metrics.OutcomeTransportError, fmt.Errorf("gemini api request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", metrics.OutcomeUpstreamError, &domain.UpstreamError{
			Service:     serviceName,
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        string(raw),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", metrics.OutcomeTransportError, fmt.Errorf("failed to read gemini response: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", metrics.OutcomeMalformed, &domain.MalformedResponseError{
			Service: serviceName,
			Reason:  "body is not a generateContent response",
			Payload: raw,
		}
	}

	if parsed.Error != nil {
		return "", metrics.OutcomeUpstreamError, &domain.UpstreamError{
			Service:     serviceName,
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        parsed.Error.Message,
		}
	}

	if len(parsed.Candidates) == 0 {
		return "", metrics.OutcomeNoCandidates, domain.ErrNoCandidates
	}

	// Parts may carry inlineData or functionCall instead of text; only text counts.
	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", metrics.OutcomeNoCandidates, domain.ErrNoCandidates
	}
	return sb.String(), metrics.OutcomeSuccess, nil
}
