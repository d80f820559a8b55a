package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/feedback-pulse/internal/domain"
)

type feedbackRow struct {
	ID        uuid.UUID
	Name      string
	Feedback  string
	Rating    int16
	CreatedAt time.Time
}

func (r feedbackRow) toDomain() *domain.Feedback {
	return &domain.Feedback{
		ID:        r.ID,
		Name:      r.Name,
		Feedback:  r.Feedback,
		Rating:    int(r.Rating),
		CreatedAt: r.CreatedAt.UTC(),
	}
}
