package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/feedback-pulse/internal/adapter/gemini"
	"github.com/pscheid92/feedback-pulse/internal/adapter/httpserver"
	"github.com/pscheid92/feedback-pulse/internal/adapter/huggingface"
	"github.com/pscheid92/feedback-pulse/internal/adapter/metrics"
	"github.com/pscheid92/feedback-pulse/internal/adapter/postgres"
	"github.com/pscheid92/feedback-pulse/internal/adapter/reddit"
	"github.com/pscheid92/feedback-pulse/internal/adapter/redis"
	"github.com/pscheid92/feedback-pulse/internal/app"
	"github.com/pscheid92/feedback-pulse/internal/domain"
	"github.com/pscheid92/feedback-pulse/internal/platform/config"
	"github.com/pscheid92/feedback-pulse/internal/platform/logging"
	"github.com/pscheid92/feedback-pulse/internal/platform/version"
	"github.com/pscheid92/feedback-pulse/internal/sentiment"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Version)

	reg := metrics.NewRegistry()
	upstreamMetrics := metrics.NewUpstreamMetrics(reg)

	pool, err := setupDB(ctx, cfg, metrics.NewPostgresMetrics(reg))
	if err != nil {
		return err
	}
	defer pool.Close()

	healthChecks := []httpserver.HealthCheck{{Name: "postgres", Check: postgres.HealthCheck(pool)}}

	var feedCache domain.FeedCache
	if cfg.RedisURL != "" {
		redisClient, err := setupRedis(ctx, cfg, metrics.NewRedisMetrics(reg))
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()

		feedCache = redis.NewFeedCache(redisClient, metrics.NewCacheMetrics(reg))
		healthChecks = append(healthChecks, httpserver.HealthCheck{Name: "redis", Check: redis.HealthCheck(redisClient), Optional: true})
	} else {
		slog.Info("REDIS_URL not set, feed cache disabled")
	}

	shape, err := sentiment.ParseBatchShape(cfg.InferenceBatchShape)
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}

	appSvc := app.NewService(app.Deps{
		Inference: huggingface.NewClient(huggingface.Config{
			URL:      cfg.InferenceURL,
			Token:    cfg.HuggingFaceAPIKey,
			InputKey: cfg.InferenceInputKey,
		}, httpClient, upstreamMetrics),
		BatchShape: shape,
		Generative: gemini.NewClient(gemini.Config{
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
			APIKey:  cfg.GeminiAPIKey,
		}, httpClient, upstreamMetrics),
		Feed: reddit.NewClient(reddit.Config{
			BaseURL:   cfg.RedditBaseURL,
			Subreddit: cfg.RedditSubreddit,
			Limit:     cfg.RedditLimit,
			UserAgent: cfg.RedditUserAgent,
		}, httpClient, upstreamMetrics),
		FeedCache: feedCache,
		FeedTTL:   cfg.FeedCacheTTL,
		Feedback:  postgres.NewFeedbackRepo(pool),
		Clock:     clockwork.NewRealClock(),
		Metrics:   metrics.NewSentimentMetrics(reg),
	})

	srv := httpserver.NewServer(cfg.Port, appSvc, httpserver.Options{
		Registry:     reg,
		HTTPMetrics:  metrics.NewHTTPMetrics(reg),
		HealthChecks: healthChecks,
	})

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil {
		return err
	}

	<-done
	slog.Info("Server stopped")
	return nil
}

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func setupDB(ctx context.Context, cfg *config.Config, m *metrics.PostgresMetrics) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, m)
	if err != nil {
		return nil, err
	}

	if _, err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func setupRedis(ctx context.Context, cfg *config.Config, m *metrics.RedisMetrics) (*goredis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL, m)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
