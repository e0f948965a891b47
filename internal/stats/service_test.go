package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Likio3000/pomodoroAPP/internal/auth"
	ledgerentity "github.com/Likio3000/pomodoroAPP/internal/ledger/entity"
	ledgerrepo "github.com/Likio3000/pomodoroAPP/internal/ledger/repo"
	"github.com/Likio3000/pomodoroAPP/internal/testutil"
	userrepo "github.com/Likio3000/pomodoroAPP/internal/user/repo"
)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},  // Wednesday
		{time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},    // Monday
		{time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)}, // Sunday
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeekStart(tt.in), tt.in.Weekday().String())
	}
}

func TestDashboard(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC) // Wednesday
	svc := NewService(db, clockwork.NewFakeClockAt(now))

	u := testutil.CreateUser(t, db, testutil.WithPoints(1178), testutil.WithStreaks(2, 3))
	sessions := ledgerrepo.NewSessionRepo(db)
	for _, s := range []ledgerentity.PomodoroSession{
		{WorkDuration: 25, BreakDuration: 5, PointsEarned: 250, Timestamp: now.AddDate(0, 0, -10)},
		{WorkDuration: 30, BreakDuration: 7, PointsEarned: 330, Timestamp: now.AddDate(0, 0, -1)},
		{WorkDuration: 46, BreakDuration: 10, PointsEarned: 598, Timestamp: now.Add(-time.Hour)},
	} {
		s.UserID = u.ID
		require.NoError(t, sessions.Append(ctx, &s))
	}

	d, err := svc.Dashboard(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1178), d.TotalPoints)
	assert.Equal(t, 2, d.ConsecutiveSessions)
	assert.Equal(t, 3, d.DailyStreak)
	assert.Equal(t, 3, d.AllTime.Sessions)
	assert.Equal(t, 101, d.AllTime.FocusMinutes)
	assert.Equal(t, 1, d.Today.Sessions)
	assert.Equal(t, int64(598), d.Today.Points)
	assert.Equal(t, 2, d.Week.Sessions)
	assert.Equal(t, 76, d.Week.FocusMinutes)
	require.Len(t, d.Recent, 3)
	assert.Equal(t, 46, d.Recent[0].WorkDuration)

	_, err = svc.Dashboard(ctx, 4040)
	assert.ErrorIs(t, err, userrepo.ErrNotFound)
}

func TestHandler_DashboardAndLeaderboard(t *testing.T) {
	db := testutil.NewTestDB(t)
	h := NewHandler(NewService(db, clockwork.NewFakeClock()), zaptest.NewLogger(t).Sugar())

	var ids []int64
	for i := 0; i < 12; i++ {
		ids = append(ids, testutil.CreateUser(t, db, testutil.WithPoints(int64(i*10))).ID)
	}

	rec := httptest.NewRecorder()
	h.Leaderboard(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var board struct {
		Leaders []struct {
			ID          int64 `json:"id"`
			TotalPoints int64 `json:"total_points"`
		} `json:"leaders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board.Leaders, 10)
	assert.Equal(t, ids[11], board.Leaders[0].ID)
	assert.Equal(t, int64(110), board.Leaders[0].TotalPoints)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec = httptest.NewRecorder()
	h.Dashboard(rec, req.WithContext(auth.WithUserID(req.Context(), ids[3])))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_points":30`)
	assert.Contains(t, rec.Body.String(), `"recent":[]`)

	rec = httptest.NewRecorder()
	h.Dashboard(rec, req.WithContext(auth.WithUserID(req.Context(), 999999)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.Dashboard(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
