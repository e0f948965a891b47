package scoring

import "time"

// DefaultConsistencyGap is the longest pause between two completed work
// phases that still continues the consecutive-session streak.
const DefaultConsistencyGap = 2 * time.Hour

// Streaks are the per-user counters the multiplier reads.
type Streaks struct {
	ConsecutiveSessions  int        `db:"consecutive_sessions" json:"consecutive_sessions"`
	DailyStreak          int        `db:"daily_streak" json:"daily_streak"`
	LastActiveDate       *time.Time `db:"last_active_date" json:"last_active_date,omitempty"`
	LastSessionTimestamp *time.Time `db:"last_session_timestamp" json:"last_session_timestamp,omitempty"`
}

// UTCDate truncates t to midnight of its UTC calendar day.
func UTCDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UpdateStreaks advances the daily and consecutive-session counters for a
// work phase completed at now. A gap of zero means DefaultConsistencyGap.
func UpdateStreaks(s *Streaks, now time.Time, gap time.Duration) {
	if gap <= 0 {
		gap = DefaultConsistencyGap
	}
	now = now.UTC()
	today := UTCDate(now)

	if s.LastActiveDate == nil || !UTCDate(*s.LastActiveDate).Equal(today) {
		if s.LastActiveDate != nil && UTCDate(*s.LastActiveDate).AddDate(0, 0, 1).Equal(today) {
			s.DailyStreak++
		} else {
			s.DailyStreak = 1
		}
		s.LastActiveDate = &today
	}

	if s.LastSessionTimestamp != nil && now.Sub(s.LastSessionTimestamp.UTC()) <= gap {
		s.ConsecutiveSessions++
	} else {
		s.ConsecutiveSessions = 1
	}
	s.LastSessionTimestamp = &now
}
