package entity

import "time"

// Phase is the stage of an active timer.
type Phase string

const (
	PhaseWork  Phase = "work"
	PhaseBreak Phase = "break"
)

// Valid reports whether p is a phase the timer can be in.
func (p Phase) Valid() bool { return p == PhaseWork || p == PhaseBreak }

// ActiveTimerState is the single in-flight timer of a user, keyed by user id.
// EndTime is nullable only so that corrupt rows can be detected.
type ActiveTimerState struct {
	UserID               int64      `db:"user_id"`
	Phase                Phase      `db:"phase"`
	StartTime            time.Time  `db:"start_time"`
	EndTime              *time.Time `db:"end_time"`
	WorkDurationMinutes  int        `db:"work_duration_minutes"`
	BreakDurationMinutes int        `db:"break_duration_minutes"`
	CurrentMultiplier    float64    `db:"current_multiplier"`
	PauseStartedAt       *time.Time `db:"pause_started_at"`
}

// Paused reports whether a pause marker is set.
func (s *ActiveTimerState) Paused() bool { return s.PauseStartedAt != nil }

// PlannedMinutes returns the planned length of the current phase.
func (s *ActiveTimerState) PlannedMinutes() int {
	if s.Phase == PhaseBreak {
		return s.BreakDurationMinutes
	}
	return s.WorkDurationMinutes
}

// Begin moves the timer into phase p starting at now, ending after the
// planned duration of p, and clears any pause marker.
func (s *ActiveTimerState) Begin(p Phase, now time.Time, multiplier float64) {
	s.Phase = p
	s.StartTime = now
	end := now.Add(time.Duration(s.PlannedMinutes()) * time.Minute)
	s.EndTime = &end
	s.CurrentMultiplier = multiplier
	s.PauseStartedAt = nil
}
