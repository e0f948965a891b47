package repo

import (
	"context"
	"time"

	"github.com/Likio3000/pomodoroAPP/internal/ledger/entity"
	"github.com/Likio3000/pomodoroAPP/pkg/database"
	"github.com/Likio3000/pomodoroAPP/pkg/utilities"
)

// SessionRepo appends to and aggregates the pomodoro_sessions ledger.
type SessionRepo struct {
	db database.DBTX
}

func NewSessionRepo(db database.DBTX) *SessionRepo { return &SessionRepo{db: db} }

// EnsureTable creates the ledger table and its lookup index.
func (r *SessionRepo) EnsureTable(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS pomodoro_sessions (
  id BIGINT PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  work_duration INT NOT NULL,
  break_duration INT NOT NULL,
  points_earned BIGINT NOT NULL DEFAULT 0,
  timestamp TIMESTAMPTZ NOT NULL
)`
	if r.db.DriverName() == database.DriverSQLite {
		ddl = `
CREATE TABLE IF NOT EXISTS pomodoro_sessions (
  id INTEGER PRIMARY KEY,
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  work_duration INTEGER NOT NULL,
  break_duration INTEGER NOT NULL,
  points_earned INTEGER NOT NULL DEFAULT 0,
  timestamp DATETIME NOT NULL
)`
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_sessions_user_ts ON pomodoro_sessions(user_id, timestamp)`)
	return err
}

// Append inserts s, assigning its id when unset.
func (r *SessionRepo) Append(ctx context.Context, s *entity.PomodoroSession) error {
	if s.ID == 0 {
		s.ID = utilities.NextID()
	}
	q := r.db.Rebind(`INSERT INTO pomodoro_sessions (id, user_id, work_duration, break_duration, points_earned, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q, s.ID, s.UserID, s.WorkDuration, s.BreakDuration, s.PointsEarned, s.Timestamp.UTC())
	return err
}

// FocusMinutesSince sums logged work minutes with timestamp >= since.
func (r *SessionRepo) FocusMinutesSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var total int
	q := r.db.Rebind(`SELECT COALESCE(SUM(work_duration), 0) FROM pomodoro_sessions WHERE user_id = ? AND timestamp >= ?`)
	if err := r.db.GetContext(ctx, &total, q, userID, since.UTC()); err != nil {
		return 0, err
	}
	return total, nil
}

// Summarize aggregates the user's rows; a zero since covers all history.
func (r *SessionRepo) Summarize(ctx context.Context, userID int64, since time.Time) (entity.Summary, error) {
	q := `SELECT COALESCE(SUM(work_duration), 0) AS focus_minutes,
		COALESCE(SUM(break_duration), 0) AS break_minutes,
		COUNT(*) AS sessions,
		COALESCE(SUM(points_earned), 0) AS points
		FROM pomodoro_sessions WHERE user_id = ?`
	args := []any{userID}
	if !since.IsZero() {
		q += ` AND timestamp >= ?`
		args = append(args, since.UTC())
	}
	var s entity.Summary
	if err := r.db.GetContext(ctx, &s, r.db.Rebind(q), args...); err != nil {
		return entity.Summary{}, err
	}
	return s, nil
}

// ListRecent returns the newest rows first.
func (r *SessionRepo) ListRecent(ctx context.Context, userID int64, limit int) ([]entity.PomodoroSession, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []entity.PomodoroSession{}
	q := r.db.Rebind(`SELECT id, user_id, work_duration, break_duration, points_earned, timestamp
		FROM pomodoro_sessions WHERE user_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &out, q, userID, limit); err != nil {
		return nil, err
	}
	return out, nil
}
