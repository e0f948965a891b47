package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Likio3000/pomodoroAPP/internal/testutil"
	"github.com/Likio3000/pomodoroAPP/internal/user/entity"
	"github.com/Likio3000/pomodoroAPP/internal/user/repo"
)

func TestUserRepo_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	r := repo.NewUserRepo(db)
	ctx := context.Background()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	u := &entity.User{Email: "ada@example.com", Name: "Ada", PasswordHash: "hash", CreatedAt: created}
	id, err := r.Create(ctx, u)
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, int64(0), got.TotalPoints)
	assert.Nil(t, got.LastActiveDate)
	assert.True(t, created.Equal(got.CreatedAt))

	byEmail, err := r.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)

	_, err = r.Create(ctx, &entity.User{Email: "ada@example.com", Name: "Dup", PasswordHash: "x", CreatedAt: created})
	assert.ErrorIs(t, err, repo.ErrDuplicateEmail)
}

func TestUserRepo_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	r := repo.NewUserRepo(db)
	ctx := context.Background()

	_, err := r.GetByID(ctx, 77)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = r.GetForUpdate(ctx, 77)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = r.TotalPoints(ctx, 77)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	err = r.UpdateProgress(ctx, &entity.User{ID: 77})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestUserRepo_UpdateProgress(t *testing.T) {
	db := testutil.NewTestDB(t)
	r := repo.NewUserRepo(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	ts := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	u.TotalPoints = 515
	u.ConsecutiveSessions = 4
	u.DailyStreak = 2
	u.LastActiveDate = &day
	u.LastSessionTimestamp = &ts
	require.NoError(t, r.UpdateProgress(ctx, u))

	got, err := r.GetForUpdate(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(515), got.TotalPoints)
	assert.Equal(t, 4, got.ConsecutiveSessions)
	assert.Equal(t, 2, got.DailyStreak)
	require.NotNil(t, got.LastActiveDate)
	assert.True(t, day.Equal(*got.LastActiveDate))
	assert.True(t, ts.Equal(*got.LastSessionTimestamp))

	pts, err := r.TotalPoints(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(515), pts)
}

func TestUserRepo_TopByPoints(t *testing.T) {
	db := testutil.NewTestDB(t)
	r := repo.NewUserRepo(db)
	ctx := context.Background()

	empty, err := r.TopByPoints(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	low := testutil.CreateUser(t, db, testutil.WithPoints(10))
	high := testutil.CreateUser(t, db, testutil.WithPoints(900))
	mid := testutil.CreateUser(t, db, testutil.WithPoints(300))

	top, err := r.TopByPoints(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, high.ID, top[0].ID)
	assert.Equal(t, mid.ID, top[1].ID)
	assert.NotEqual(t, low.ID, top[1].ID)
}
