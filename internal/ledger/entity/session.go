package entity

import "time"

// PomodoroSession is one completed work phase. Rows are append-only.
type PomodoroSession struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	WorkDuration  int       `db:"work_duration" json:"work_duration"`
	BreakDuration int       `db:"break_duration" json:"break_duration"`
	PointsEarned  int64     `db:"points_earned" json:"points_earned"`
	Timestamp     time.Time `db:"timestamp" json:"timestamp"`
}

// Summary aggregates ledger rows over a time window.
type Summary struct {
	FocusMinutes int   `db:"focus_minutes" json:"focus_minutes"`
	BreakMinutes int   `db:"break_minutes" json:"break_minutes"`
	Sessions     int   `db:"sessions" json:"sessions"`
	Points       int64 `db:"points" json:"points"`
}
