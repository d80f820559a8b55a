package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/pscheid92/feedback-pulse/internal/adapter/metrics"
	"github.com/pscheid92/feedback-pulse/internal/domain"
	"github.com/pscheid92/feedback-pulse/internal/sentiment"
)

const feedFlightKey = "feed"

// Deps lists the collaborators of Service. FeedCache may be nil, which
// disables feed caching.
type Deps struct {
	Inference  domain.InferenceClient
	BatchShape sentiment.BatchShape
	Generative domain.GenerativeClient
	Feed       domain.FeedSource
	FeedCache  domain.FeedCache
	FeedTTL    time.Duration
	Feedback   domain.FeedbackRepository
	Clock      clockwork.Clock
	Metrics    *metrics.SentimentMetrics
}

// Service is the application layer, the only component that references
// multiple domain collaborators. Every operation makes at most one outbound call.
type Service struct {
	inference  domain.InferenceClient
	shape      sentiment.BatchShape
	generative domain.GenerativeClient
	feed       domain.FeedSource
	feedCache  domain.FeedCache
	feedTTL    time.Duration
	feedback   domain.FeedbackRepository
	clock      clockwork.Clock
	metrics    *metrics.SentimentMetrics
	feedGroup  singleflight.Group
}

func NewService(d Deps) *Service {
	clock := d.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		inference:  d.Inference,
		shape:      d.BatchShape,
		generative: d.Generative,
		feed:       d.Feed,
		feedCache:  d.FeedCache,
		feedTTL:    d.FeedTTL,
		feedback:   d.Feedback,
		clock:      clock,
		metrics:    d.Metrics,
	}
}

// AnalyzeText classifies text and reduces the inference payload to Scores.
func (s *Service) AnalyzeText(ctx context.Context, text string) (domain.Scores, error) {
	payload, err := s.inference.Classify(ctx, text)
	if err != nil {
		s.metrics.ObserveFailure()
		return domain.Scores{}, err
	}

	scores, err := sentiment.Decode(s.shape, payload)
	if err != nil {
		s.metrics.ObserveFailure()
		return domain.Scores{}, err
	}

	s.metrics.ObserveScores(scores)
	return scores, nil
}

// Suggest forwards a prompt to the generative service.
func (s *Service) Suggest(ctx context.Context, prompt string) (string, error) {
	return s.generative.Generate(ctx, prompt)
}

// Posts returns the reshaped feed, served from the cache when possible.
// Concurrent misses share a single upstream call. The shared fetch is detached
// from the caller that started it, so one caller going away does not fail the
// others; each caller still stops waiting when its own ctx is done.
func (s *Service) Posts(ctx context.Context) ([]domain.Post, error) {
	if posts, ok := s.cachedPosts(ctx); ok {
		return posts, nil
	}

	ch := s.feedGroup.DoChan(feedFlightKey, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		posts, err := s.feed.Posts(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.storePosts(fetchCtx, posts)
		return posts, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.DebugContext(ctx, "Feed fetch shared with concurrent request")
		}
		return res.Val.([]domain.Post), nil
	}
}

func (s *Service) cachedPosts(ctx context.Context) ([]domain.Post, bool) {
	if s.feedCache == nil {
		return nil, false
	}
	posts, ok, err := s.feedCache.Get(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Feed cache read failed, fetching from source", "error", err)
		return nil, false
	}
	return posts, ok
}

func (s *Service) storePosts(ctx context.Context, posts []domain.Post) {
	if s.feedCache == nil || s.feedTTL <= 0 {
		return
	}
	if err := s.feedCache.Set(ctx, posts, s.feedTTL); err != nil {
		slog.WarnContext(ctx, "Feed cache write failed", "error", err)
	}
}

// FeedbackInput is a feedback submission before an ID and timestamp are assigned.
type FeedbackInput struct {
	Name     string
	Feedback string
	Rating   int
}

func (in FeedbackInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidFeedback)
	case strings.TrimSpace(in.Feedback) == "":
		return fmt.Errorf("%w: feedback is required", domain.ErrInvalidFeedback)
	case in.Rating < domain.MinRating || in.Rating > domain.MaxRating:
		return fmt.Errorf("%w: rating must be between %d and %d", domain.ErrInvalidFeedback, domain.MinRating, domain.MaxRating)
	}
	return nil
}

// SubmitFeedback stamps and stores one feedback record.
func (s *Service) SubmitFeedback(ctx context.Context, in FeedbackInput) (*domain.Feedback, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	f := domain.Feedback{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(in.Name),
		Feedback:  strings.TrimSpace(in.Feedback),
		Rating:    in.Rating,
		CreatedAt: s.clock.Now().UTC().Truncate(time.Microsecond),
	}
	return s.feedback.Create(ctx, f)
}

// ListFeedback returns all stored feedback, oldest first.
func (s *Service) ListFeedback(ctx context.Context) ([]domain.Feedback, error) {
	return s.feedback.List(ctx)
}
