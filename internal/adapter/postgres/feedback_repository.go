package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/feedback-pulse/internal/domain"
)

// FeedbackRepo is an append-only store of product feedback.
type FeedbackRepo struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepo(pool *pgxpool.Pool) *FeedbackRepo {
	return &FeedbackRepo{pool: pool}
}

const insertFeedback = `
INSERT INTO feedback (id, name, feedback, rating, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, feedback, rating, created_at`

const listFeedback = `
SELECT id, name, feedback, rating, created_at
FROM feedback
ORDER BY created_at, id`

func (r *FeedbackRepo) Create(ctx context.Context, f domain.Feedback) (*domain.Feedback, error) {
	rows, err := r.pool.Query(ctx, insertFeedback, f.ID, f.Name, f.Feedback, f.Rating, f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert feedback: %w", err)
	}
	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[feedbackRow])
	if err != nil {
		return nil, fmt.Errorf("failed to insert feedback: %w", err)
	}
	return created.toDomain(), nil
}

func (r *FeedbackRepo) List(ctx context.Context) ([]domain.Feedback, error) {
	rows, err := r.pool.Query(ctx, listFeedback)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[feedbackRow])
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}

	out := make([]domain.Feedback, 0, len(records))
	for _, rec := range records {
		out = append(out, *rec.toDomain())
	}
	return out, nil
}
