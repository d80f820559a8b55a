package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/feedback-pulse/internal/domain"
	"github.com/pscheid92/feedback-pulse/internal/sentiment"
)

// --- Mock implementations ---

type mockInference struct {
	classifyFn func(ctx context.Context, text string) (json.RawMessage, error)
}

func (m *mockInference) Classify(ctx context.Context, text string) (json.RawMessage, error) {
	if m.classifyFn != nil {
		return m.classifyFn(ctx, text)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockGenerative struct {
	generateFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockGenerative) Generate(ctx context.Context, prompt string) (string, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt)
	}
	return "", fmt.Errorf("not implemented")
}

type mockFeed struct {
	postsFn func(ctx context.Context) ([]domain.Post, error)
}

func (m *mockFeed) Posts(ctx context.Context) ([]domain.Post, error) {
	if m.postsFn != nil {
		return m.postsFn(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockFeedCache struct {
	getFn func(ctx context.Context) ([]domain.Post, bool, error)
	setFn func(ctx context.Context, posts []domain.Post, ttl time.Duration) error
}

func (m *mockFeedCache) Get(ctx context.Context) ([]domain.Post, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx)
	}
	return nil, false, nil
}

func (m *mockFeedCache) Set(ctx context.Context, posts []domain.Post, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, posts, ttl)
	}
	return nil
}

type mockFeedbackRepo struct {
	createFn func(ctx context.Context, f domain.Feedback) (*domain.Feedback, error)
	listFn   func(ctx context.Context) ([]domain.Feedback, error)
}

func (m *mockFeedbackRepo) Create(ctx context.Context, f domain.Feedback) (*domain.Feedback, error) {
	if m.createFn != nil {
		return m.createFn(ctx, f)
	}
	return &f, nil
}

func (m *mockFeedbackRepo) List(ctx context.Context) ([]domain.Feedback, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []domain.Feedback{}, nil
}

// --- AnalyzeText ---

func TestAnalyzeText_NestedBatch(t *testing.T) {
	svc := NewService(Deps{
		BatchShape: sentiment.BatchShapeNested,
		Inference: &mockInference{classifyFn: func(_ context.Context, text string) (json.RawMessage, error) {
			assert.Equal(t, "great product", text)
			return json.RawMessage(`[[{"label":"LABEL_2","score":0.9},{"label":"LABEL_1","score":0.07},{"label":"LABEL_0","score":0.03}]]`), nil
		}},
	})

	scores, err := svc.AnalyzeText(context.Background(), "great product")
	require.NoError(t, err)
	assert.Equal(t, domain.Scores{Positive: 0.9, Neutral: 0.07, Negative: 0.03}, scores)
}

func TestAnalyzeText_FlatBatch(t *testing.T) {
	svc := NewService(Deps{
		BatchShape: sentiment.BatchShapeFlat,
		Inference: &mockInference{classifyFn: func(context.Context, string) (json.RawMessage, error) {
			return json.RawMessage(`[{"label":"LABEL_0","score":0.7},{"label":"LABEL_1","score":0.2},{"label":"LABEL_2","score":0.1}]`), nil
		}},
	})

	scores, err := svc.AnalyzeText(context.Background(), "meh")
	require.NoError(t, err)
	assert.Equal(t, domain.Scores{Positive: 0.1, Neutral: 0.2, Negative: 0.7}, scores)
}

func TestAnalyzeText_MalformedPayload(t *testing.T) {
	svc := NewService(Deps{
		BatchShape: sentiment.BatchShapeFlat,
		Inference: &mockInference{classifyFn: func(context.Context, string) (json.RawMessage, error) {
			return json.RawMessage(`{"error":"model loading"}`), nil
		}},
	})

	_, err := svc.AnalyzeText(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestAnalyzeText_UpstreamErrorPassesThrough(t *testing.T) {
	upstream := &domain.UpstreamError{Service: "inference", StatusCode: 503, Body: "loading"}
	svc := NewService(Deps{
		Inference: &mockInference{classifyFn: func(context.Context, string) (json.RawMessage, error) {
			return nil, upstream
		}},
	})

	_, err := svc.AnalyzeText(context.Background(), "anything")
	var got *domain.UpstreamError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 503, got.StatusCode)
}

// --- Suggest ---

func TestSuggest(t *testing.T) {
	svc := NewService(Deps{
		Generative: &mockGenerative{generateFn: func(_ context.Context, prompt string) (string, error) {
			return "echo: " + prompt, nil
		}},
	})

	out, err := svc.Suggest(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", out)
}

func TestSuggest_NoCandidates(t *testing.T) {
	svc := NewService(Deps{
		Generative: &mockGenerative{generateFn: func(context.Context, string) (string, error) {
			return "", domain.ErrNoCandidates
		}},
	})

	_, err := svc.Suggest(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrNoCandidates)
}

// --- Posts ---

var samplePosts = []domain.Post{{Title: "one", Subreddit: "technology", URL: "https://www.reddit.com/r/technology/1"}}

func TestPosts_NoCacheFetchesSource(t *testing.T) {
	svc := NewService(Deps{
		Feed: &mockFeed{postsFn: func(context.Context) ([]domain.Post, error) { return samplePosts, nil }},
	})

	posts, err := svc.Posts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, samplePosts, posts)
}

func TestPosts_CacheHitSkipsSource(t *testing.T) {
	svc := NewService(Deps{
		Feed: &mockFeed{postsFn: func(context.Context) ([]domain.Post, error) {
			t.Fatal("feed source must not be called on a cache hit")
			return nil, nil
		}},
		FeedCache: &mockFeedCache{getFn: func(context.Context) ([]domain.Post, bool, error) {
			return samplePosts, true, nil
		}},
		FeedTTL: time.Minute,
	})

	posts, err := svc.Posts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, samplePosts, posts)
}

func TestPosts_CacheMissStoresResult(t *testing.T) {
	var stored []domain.Post
	var storedTTL time.Duration
	svc := NewService(Deps{
		Feed: &mockFeed{postsFn: func(context.Context) ([]domain.Post, error) { return samplePosts, nil }},
		FeedCache: &mockFeedCache{setFn: func(_ context.Context, posts []domain.Post, ttl time.Duration) error {
			stored, storedTTL = posts, ttl
			return nil
		}},
		FeedTTL: 30 * time.Second,
	})

	_, err := svc.Posts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, samplePosts, stored)
	assert.Equal(t, 30*time.Second, storedTTL)
}

func TestPosts_CacheErrorsFallThrough(t *testing.T) {
	svc := NewService(Deps{
		Feed: &mockFeed{postsFn: func(context.Context) ([]domain.Post, error) { return samplePosts, nil }},
		FeedCache: &mockFeedCache{
			getFn: func(context.Context) ([]domain.Post, bool, error) { return nil, false, errors.New("connection refused") },
			setFn: func(context.Context, []domain.Post, time.Duration) error { return errors.New("connection refused") },
		},
		FeedTTL: time.Minute,
	})

	posts, err := svc.Posts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, samplePosts, posts)
}

func TestPosts_SourceErrorNotCached(t *testing.T) {
	svc := NewService(Deps{
		Feed: &mockFeed{postsFn: func(context.Context) ([]domain.Post, error) {
			return nil, &domain.UpstreamError{Service: "reddit", StatusCode: 429}
		}},
		FeedCache: &mockFeedCache{setFn: func(context.Context, []domain.Post, time.Duration) error {
			t.Fatal("failed fetch must not be cached")
			return nil
		}},
		FeedTTL: time.Minute,
	})

	_, err := svc.Posts(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestPosts_ConcurrentMissesShareOneFetch(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	svc := NewService(Deps{
		Feed: &mockFeed{postsFn: func(context.Context) ([]domain.Post, error) {
			calls.Add(1)
			<-release
			return samplePosts, nil
		}},
	})

	const callers = 5
	var wg sync.WaitGroup
	started := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			posts, err := svc.Posts(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, samplePosts, posts)
		}()
	}
	for i := 0; i < callers; i++ {
		<-started
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestPosts_CancelledLeaderDoesNotFailFollowers(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	fetchCtxErr := make(chan error, 1)
	svc := NewService(Deps{
		Feed: &mockFeed{postsFn: func(ctx context.Context) ([]domain.Post, error) {
			calls.Add(1)
			close(entered)
			<-release
			fetchCtxErr <- ctx.Err()
			return samplePosts, nil
		}},
	})

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Posts(leaderCtx)
		leaderErr <- err
	}()
	<-entered

	type result struct {
		posts []domain.Post
		err   error
	}
	followerRes := make(chan result, 1)
	go func() {
		posts, err := svc.Posts(context.Background())
		followerRes <- result{posts, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(release)
	got := <-followerRes
	require.NoError(t, got.err)
	assert.Equal(t, samplePosts, got.posts)
	assert.NoError(t, <-fetchCtxErr)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPosts_CallerStopsWaitingOnOwnDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	svc := NewService(Deps{
		Feed: &mockFeed{postsFn: func(context.Context) ([]domain.Post, error) {
			<-release
			return samplePosts, nil
		}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Posts(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// --- Feedback ---

func TestSubmitFeedback_StampsIDAndTime(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	svc := NewService(Deps{Feedback: &mockFeedbackRepo{}, Clock: clock})

	created, err := svc.SubmitFeedback(context.Background(), FeedbackInput{Name: "  Desk Lamp ", Feedback: "bright", Rating: 4})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Desk Lamp", created.Name)
	assert.Equal(t, 4, created.Rating)
	assert.Equal(t, now, created.CreatedAt)
}

func TestSubmitFeedback_Validation(t *testing.T) {
	svc := NewService(Deps{Feedback: &mockFeedbackRepo{createFn: func(context.Context, domain.Feedback) (*domain.Feedback, error) {
		t.Fatal("invalid feedback must not be stored")
		return nil, nil
	}}})

	tests := []struct {
		name string
		in   FeedbackInput
	}{
		{"missing name", FeedbackInput{Feedback: "ok", Rating: 3}},
		{"blank feedback", FeedbackInput{Name: "Lamp", Feedback: "   ", Rating: 3}},
		{"rating too low", FeedbackInput{Name: "Lamp", Feedback: "ok", Rating: 0}},
		{"rating too high", FeedbackInput{Name: "Lamp", Feedback: "ok", Rating: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitFeedback(context.Background(), tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidFeedback)
		})
	}
}

func TestListFeedback(t *testing.T) {
	want := []domain.Feedback{{Name: "Lamp", Feedback: "ok", Rating: 3}}
	svc := NewService(Deps{Feedback: &mockFeedbackRepo{listFn: func(context.Context) ([]domain.Feedback, error) {
		return want, nil
	}}})

	got, err := svc.ListFeedback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
