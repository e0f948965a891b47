package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Likio3000/pomodoroAPP/internal/timer/entity"
	"github.com/Likio3000/pomodoroAPP/pkg/database"
)

// ErrNotFound is returned when the user has no active timer.
var ErrNotFound = errors.New("no active timer")

const stateColumns = `user_id, phase, start_time, end_time, work_duration_minutes,
	break_duration_minutes, current_multiplier, pause_started_at`

// StateRepo persists one active_timer_states row per user.
type StateRepo struct {
	db database.DBTX
}

func NewStateRepo(db database.DBTX) *StateRepo { return &StateRepo{db: db} }

// EnsureTable creates the active_timer_states table if not exists.
func (r *StateRepo) EnsureTable(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS active_timer_states (
  user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
  phase TEXT NOT NULL,
  start_time TIMESTAMPTZ NOT NULL,
  end_time TIMESTAMPTZ,
  work_duration_minutes INT NOT NULL CHECK (work_duration_minutes > 0),
  break_duration_minutes INT NOT NULL CHECK (break_duration_minutes > 0),
  current_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1.0,
  pause_started_at TIMESTAMPTZ
)`
	if r.db.DriverName() == database.DriverSQLite {
		ddl = `
CREATE TABLE IF NOT EXISTS active_timer_states (
  user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
  phase TEXT NOT NULL,
  start_time DATETIME NOT NULL,
  end_time DATETIME,
  work_duration_minutes INTEGER NOT NULL CHECK (work_duration_minutes > 0),
  break_duration_minutes INTEGER NOT NULL CHECK (break_duration_minutes > 0),
  current_multiplier REAL NOT NULL DEFAULT 1.0,
  pause_started_at DATETIME
)`
	}
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *StateRepo) get(ctx context.Context, userID int64, lock bool) (*entity.ActiveTimerState, error) {
	q := `SELECT ` + stateColumns + ` FROM active_timer_states WHERE user_id = ?`
	if lock {
		q += database.ForUpdate(r.db)
	}
	var s entity.ActiveTimerState
	if err := r.db.GetContext(ctx, &s, r.db.Rebind(q), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Get is an unlocked read.
func (r *StateRepo) Get(ctx context.Context, userID int64) (*entity.ActiveTimerState, error) {
	return r.get(ctx, userID, false)
}

// GetForUpdate reads the row and holds its lock until the transaction ends.
func (r *StateRepo) GetForUpdate(ctx context.Context, userID int64) (*entity.ActiveTimerState, error) {
	return r.get(ctx, userID, true)
}

// Upsert creates the row or overwrites every column of the existing one.
func (r *StateRepo) Upsert(ctx context.Context, s *entity.ActiveTimerState) error {
	q := r.db.Rebind(`INSERT INTO active_timer_states (` + stateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			phase = excluded.phase,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			work_duration_minutes = excluded.work_duration_minutes,
			break_duration_minutes = excluded.break_duration_minutes,
			current_multiplier = excluded.current_multiplier,
			pause_started_at = excluded.pause_started_at`)
	_, err := r.db.ExecContext(ctx, q, s.UserID, string(s.Phase), s.StartTime.UTC(), utcOrNil(s.EndTime),
		s.WorkDurationMinutes, s.BreakDurationMinutes, s.CurrentMultiplier, utcOrNil(s.PauseStartedAt))
	return err
}

// Delete removes the row and reports whether one existed.
func (r *StateRepo) Delete(ctx context.Context, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM active_timer_states WHERE user_id = ?`), userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
