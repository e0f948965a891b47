package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Likio3000/pomodoroAPP/internal/user/entity"
	userrepo "github.com/Likio3000/pomodoroAPP/internal/user/repo"
	"github.com/Likio3000/pomodoroAPP/pkg/database"
)

var emailCounter atomic.Int64

// UserOption customizes a fixture user before it is stored.
type UserOption func(*entity.User)

func WithStreaks(consecutive, daily int) UserOption {
	return func(u *entity.User) {
		u.ConsecutiveSessions = consecutive
		u.DailyStreak = daily
	}
}

func WithLastActiveDate(d time.Time) UserOption {
	return func(u *entity.User) {
		u.LastActiveDate = &d
	}
}

func WithLastSession(ts time.Time) UserOption {
	return func(u *entity.User) {
		u.LastSessionTimestamp = &ts
	}
}

func WithPoints(p int64) UserOption {
	return func(u *entity.User) {
		u.TotalPoints = p
	}
}

// CreateUser inserts a user and applies opts to its progress columns.
func CreateUser(t *testing.T, db database.DBTX, opts ...UserOption) *entity.User {
	t.Helper()
	ctx := context.Background()
	n := emailCounter.Add(1)
	u := &entity.User{
		Email:        fmt.Sprintf("user%d@example.com", n),
		Name:         fmt.Sprintf("User %d", n),
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	repo := userrepo.NewUserRepo(db)
	_, err := repo.Create(ctx, u)
	require.NoError(t, err)
	for _, opt := range opts {
		opt(u)
	}
	if len(opts) > 0 {
		require.NoError(t, repo.UpdateProgress(ctx, u))
	}
	return u
}
