// Package reddit reads a subreddit's hot listing and reshapes it into domain posts.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pscheid92/feedback-pulse/internal/adapter/metrics"
	"github.com/pscheid92/feedback-pulse/internal/domain"
)

const (
	serviceName  = "reddit"
	maxErrorBody = 64 << 10
)

type Config struct {
	BaseURL   string
	Subreddit string
	Limit     int
	UserAgent string
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

type listing struct {
	Data struct {
		Children []struct {
			Data child `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type child struct {
	Title     string   `json:"title"`
	Subreddit string   `json:"subreddit"`
	Permalink string   `json:"permalink"`
	Score     int      `json:"score"`
	Author    string   `json:"author"`
	Thumbnail string   `json:"thumbnail"`
	Preview   *preview `json:"preview"`
}

type preview struct {
	Images []previewImage `json:"images"`
}

type previewImage struct {
	Source struct {
		URL string `json:"url"`
	} `json:"source"`
}

// Posts fetches the configured hot listing.
func (c *Client) Posts(ctx context.Context) ([]domain.Post, error) {
	start := time.Now()
	posts, outcome, err := c.posts(ctx)
	c.metrics.Observe(serviceName, outcome, time.Since(start))
	return posts, err
}

func (c *Client) posts(ctx context.Context) ([]domain.Post, string, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.cfg.Limit))
	endpoint := fmt.Sprintf("%s/r/%s/hot.json?%s", c.cfg.BaseURL, url.PathEscape(c.cfg.Subreddit), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, metrics.OutcomeTransportError, fmt.Errorf("failed to create feed request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, metrics.OutcomeTransportError, fmt.Errorf("feed request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, metrics.OutcomeUpstreamError, &domain.UpstreamError{
			Service:     serviceName,
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        string(raw),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, metrics.OutcomeTransportError, fmt.Errorf("failed to read feed response: %w", err)
	}

	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, metrics.OutcomeMalformed, &domain.MalformedResponseError{
			Service: serviceName,
			Reason:  "body is not a listing",
			Payload: raw,
		}
	}

	posts := make([]domain.Post, 0, len(l.Data.Children))
	for _, ch := range l.Data.Children {
		posts = append(posts, c.toPost(ch.Data))
	}
	return posts, metrics.OutcomeSuccess, nil
}

func (c *Client) toPost(d child) domain.Post {
	return domain.Post{
		Title:     d.Title,
		Subreddit: d.Subreddit,
		URL:       c.cfg.BaseURL + d.Permalink,
		Score:     d.Score,
		Author:    d.Author,
		Thumbnail: thumbnailURL(d),
	}
}

// thumbnailURL prefers the direct thumbnail when it is an http(s) URL (reddit
// uses placeholders like "self" or "default"), then the first preview image,
// then "".
func thumbnailURL(d child) string {
	if strings.HasPrefix(d.Thumbnail, "http") {
		return d.Thumbnail
	}
	if d.Preview != nil && len(d.Preview.Images) > 0 {
		// preview URLs come HTML-escaped (&amp;)
		return html.UnescapeString(d.Preview.Images[0].Source.URL)
	}
	return ""
}
