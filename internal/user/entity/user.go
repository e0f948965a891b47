package entity

import (
	"time"

	"github.com/Likio3000/pomodoroAPP/internal/scoring"
)

// User is a row of the `users` table: identity plus gamification counters.
// TotalPoints only ever grows; streak fields change on work-phase completion.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	TotalPoints  int64     `db:"total_points" json:"total_points"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`

	scoring.Streaks
}

// LeaderboardEntry is the public projection used for ranking.
type LeaderboardEntry struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	TotalPoints int64  `db:"total_points" json:"total_points"`
}
