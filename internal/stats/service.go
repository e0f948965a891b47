// Package stats serves read-only views over the ledger and user totals.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	ledgerentity "github.com/Likio3000/pomodoroAPP/internal/ledger/entity"
	ledgerrepo "github.com/Likio3000/pomodoroAPP/internal/ledger/repo"
	"github.com/Likio3000/pomodoroAPP/internal/scoring"
	userentity "github.com/Likio3000/pomodoroAPP/internal/user/entity"
	userrepo "github.com/Likio3000/pomodoroAPP/internal/user/repo"
	"github.com/Likio3000/pomodoroAPP/pkg/database"
)

const (
	recentLimit      = 100
	leaderboardLimit = 10
)

// Dashboard is the per-user stats payload.
type Dashboard struct {
	TotalPoints         int64                          `json:"total_points"`
	ConsecutiveSessions int                            `json:"consecutive_sessions"`
	DailyStreak         int                            `json:"daily_streak"`
	AllTime             ledgerentity.Summary           `json:"all_time"`
	Today               ledgerentity.Summary           `json:"today"`
	Week                ledgerentity.Summary           `json:"week"`
	Recent              []ledgerentity.PomodoroSession `json:"recent"`
}

type Service struct {
	users    *userrepo.UserRepo
	sessions *ledgerrepo.SessionRepo
	clock    clockwork.Clock
}

func NewService(db database.DBTX, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{users: userrepo.NewUserRepo(db), sessions: ledgerrepo.NewSessionRepo(db), clock: clock}
}

// WeekStart returns midnight UTC of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	day := scoring.UTCDate(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Dashboard aggregates the user's ledger for all time, today and this week (UTC).
func (s *Service) Dashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	all, err := s.sessions.Summarize(ctx, userID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("summarize all time: %w", err)
	}
	today, err := s.sessions.Summarize(ctx, userID, scoring.UTCDate(now))
	if err != nil {
		return nil, fmt.Errorf("summarize today: %w", err)
	}
	week, err := s.sessions.Summarize(ctx, userID, WeekStart(now))
	if err != nil {
		return nil, fmt.Errorf("summarize week: %w", err)
	}
	recent, err := s.sessions.ListRecent(ctx, userID, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	return &Dashboard{
		TotalPoints:         u.TotalPoints,
		ConsecutiveSessions: u.ConsecutiveSessions,
		DailyStreak:         u.DailyStreak,
		AllTime:             all,
		Today:               today,
		Week:                week,
		Recent:              recent,
	}, nil
}

// Leaderboard returns the top users by points.
func (s *Service) Leaderboard(ctx context.Context) ([]userentity.LeaderboardEntry, error) {
	return s.users.TopByPoints(ctx, leaderboardLimit)
}
