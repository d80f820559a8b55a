package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pscheid92/feedback-pulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{BaseURL: srv.URL + "/", Model: "gemini-1.5-flash", APIKey: "g-key"}, &http.Client{Timeout: 5 * time.Second}, nil)
}

func TestGenerate_ConcatenatesFirstCandidateParts(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[
			{"content":{"parts":[{"text":"Try a "},{"text":"lighter frame."}]}},
			{"content":{"parts":[{"text":"ignored"}]}}
		]}`))
	})

	text, err := client.Generate(context.Background(), "How can I improve this bike?")
	require.NoError(t, err)

	assert.Equal(t, "Try a lighter frame.", text)
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "g-key", gotKey)
	require.Len(t, gotReq.Contents, 1)
	assert.Equal(t, "How can I improve this bike?", gotReq.Contents[0].Parts[0].Text)
}

func TestGenerate_NoCandidates(t *testing.T) {
	for name, body := range map[string]string{
		"empty list":         `{"candidates":[]}`,
		"absent":             `{}`,
		"no parts":           `{"candidates":[{"content":{"parts":[]}}]}`,
		"null content":       `{"candidates":[{}]}`,
		"inline data only":   `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"iVBORw0KGgo="}}]}}]}`,
		"function call only": `{"candidates":[{"content":{"parts":[{"functionCall":{"name":"lookup","args":{}}}]}}]}`,
		"empty text parts":   `{"candidates":[{"content":{"parts":[{"text":""},{"text":""}]}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			})

			text, err := client.Generate(context.Background(), "prompt")
			assert.ErrorIs(t, err, domain.ErrNoCandidates)
			assert.Empty(t, text)
		})
	}
}

func TestGenerate_SkipsNonTextParts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[
			{"inlineData":{"mimeType":"image/png","data":"iVBORw0KGgo="}},
			{"text":"Add a bell."}
		]}}]}`))
	})

	text, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Add a bell.", text)
}

func TestGenerate_NonSuccessStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	})

	_, err := client.Generate(context.Background(), "prompt")

	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusForbidden, upstreamErr.StatusCode)
	assert.Contains(t, upstreamErr.Body, "API key not valid")
}

func TestGenerate_ErrorObjectWithOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	})

	_, err := client.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.NotErrorIs(t, err, domain.ErrNoCandidates)
}

func TestGenerate_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}
