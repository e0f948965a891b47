package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseValid(t *testing.T) {
	assert.True(t, PhaseWork.Valid())
	assert.True(t, PhaseBreak.Valid())
	for _, p := range []Phase{"", "nap", "Work"} {
		assert.False(t, p.Valid(), "%q", p)
	}
}

func TestBegin(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	paused := now.Add(-time.Minute)
	s := &ActiveTimerState{WorkDurationMinutes: 50, BreakDurationMinutes: 10, PauseStartedAt: &paused}

	s.Begin(PhaseBreak, now, 1.4)
	require.NotNil(t, s.EndTime)
	assert.True(t, now.Add(10*time.Minute).Equal(*s.EndTime))
	assert.Equal(t, 1.4, s.CurrentMultiplier)
	assert.False(t, s.Paused())

	s.Begin(PhaseWork, now, 1.2)
	assert.True(t, now.Add(50*time.Minute).Equal(*s.EndTime))
	assert.Equal(t, 50, s.PlannedMinutes())
}
