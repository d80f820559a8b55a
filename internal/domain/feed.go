package domain

import (
	"context"
	"time"
)

// Post is a reshaped entry of the social news feed.
type Post struct {
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
	URL       string `json:"url"`
	Score     int    `json:"score"`
	Author    string `json:"author"`
	Thumbnail string `json:"thumbnail"`
}

type FeedSource interface {
	Posts(ctx context.Context) ([]Post, error)
}

// FeedCache stores the last fetched post list. A miss returns (nil, false, nil).
type FeedCache interface {
	Get(ctx context.Context) ([]Post, bool, error)
	Set(ctx context.Context, posts []Post, ttl time.Duration) error
}
