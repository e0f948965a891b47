package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(t time.Time) *time.Time { return &t }

func TestUpdateStreaks_FirstSession(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	var s Streaks
	UpdateStreaks(&s, now, 0)

	assert.Equal(t, 1, s.DailyStreak)
	assert.Equal(t, 1, s.ConsecutiveSessions)
	require.NotNil(t, s.LastActiveDate)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), *s.LastActiveDate)
	assert.Equal(t, now, *s.LastSessionTimestamp)
}

func TestUpdateStreaks_Daily(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name       string
		lastActive *time.Time
		streak     int
		want       int
	}{
		{"same day unchanged", ptr(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)), 4, 4},
		{"yesterday increments", ptr(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)), 4, 5},
		{"two days ago resets", ptr(time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)), 4, 1},
		{"future date resets", ptr(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)), 4, 1},
		{"never active", nil, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Streaks{DailyStreak: tt.streak, LastActiveDate: tt.lastActive}
			UpdateStreaks(&s, now, time.Hour)
			assert.Equal(t, tt.want, s.DailyStreak)
			assert.Equal(t, UTCDate(now), *s.LastActiveDate)
		})
	}
}

func TestUpdateStreaks_Consecutive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	gap := 2 * time.Hour
	tests := []struct {
		name string
		last time.Time
		want int
	}{
		{"within gap", now.Add(-30 * time.Minute), 3},
		{"exactly at gap", now.Add(-gap), 3},
		{"beyond gap", now.Add(-gap - time.Second), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Streaks{ConsecutiveSessions: 2, LastSessionTimestamp: ptr(tt.last)}
			UpdateStreaks(&s, now, gap)
			assert.Equal(t, tt.want, s.ConsecutiveSessions)
			assert.Equal(t, now, *s.LastSessionTimestamp)
		})
	}
}

func TestUpdateStreaks_MidnightCrossing(t *testing.T) {
	// the previous session was 20 minutes ago but on the previous UTC day
	now := time.Date(2026, 3, 10, 0, 10, 0, 0, time.UTC)
	s := Streaks{
		ConsecutiveSessions:  3,
		DailyStreak:          2,
		LastActiveDate:       ptr(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)),
		LastSessionTimestamp: ptr(now.Add(-20 * time.Minute)),
	}
	UpdateStreaks(&s, now, 0)
	assert.Equal(t, 3, s.DailyStreak)
	assert.Equal(t, 4, s.ConsecutiveSessions)
}

func TestUTCDate_NormalizesZone(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	local := time.Date(2026, 3, 10, 5, 0, 0, 0, loc) // 2026-03-09 20:00 UTC
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), UTCDate(local))
}
