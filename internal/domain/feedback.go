package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Feedback is a stored product review. Records are append-only.
type Feedback struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Feedback  string    `json:"feedback"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

type FeedbackRepository interface {
	Create(ctx context.Context, feedback Feedback) (*Feedback, error)
	List(ctx context.Context) ([]Feedback, error)
}
