package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/feedback-pulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedback(name string, rating int, at time.Time) domain.Feedback {
	return domain.Feedback{
		ID:        uuid.New(),
		Name:      name,
		Feedback:  "feedback for " + name,
		Rating:    rating,
		CreatedAt: at,
	}
}

func TestFeedbackRepo_CreateAndList(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewFeedbackRepo(pool)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	second := newFeedback("Trail Bike", 4, base.Add(time.Minute))
	first := newFeedback("Road Bike", 5, base)

	created, err := repo.Create(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, second, *created)

	_, err = repo.Create(ctx, first)
	require.NoError(t, err)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Road Bike", all[0].Name)
	assert.Equal(t, "Trail Bike", all[1].Name)
}

func TestFeedbackRepo_ListEmpty(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewFeedbackRepo(pool)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestFeedbackRepo_RejectsOutOfRangeRating(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewFeedbackRepo(pool)

	_, err := repo.Create(context.Background(), newFeedback("Broken", 9, time.Now().UTC()))
	assert.Error(t, err)
}

func TestFeedbackRepo_DuplicateIDFails(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewFeedbackRepo(pool)
	ctx := context.Background()

	f := newFeedback("Once", 3, time.Now().UTC().Truncate(time.Microsecond))
	_, err := repo.Create(ctx, f)
	require.NoError(t, err)

	_, err = repo.Create(ctx, f)
	assert.Error(t, err)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	pool := setupTestDB(t)

	result, err := Migrate(context.Background(), pool)
	require.NoError(t, err)
	assert.Equal(t, result.From, result.To)
	assert.Equal(t, int32(1), result.To)
}

func TestHealthCheck(t *testing.T) {
	pool := setupTestDB(t)
	assert.NoError(t, HealthCheck(pool)(context.Background()))
}
