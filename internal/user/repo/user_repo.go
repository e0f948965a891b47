package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Likio3000/pomodoroAPP/internal/user/entity"
	"github.com/Likio3000/pomodoroAPP/pkg/database"
)

var (
	// ErrNotFound is returned when no user row matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by Create when the email is already stored.
	ErrDuplicateEmail = errors.New("email already exists")
)

const userColumns = `id, email, name, password_hash, total_points, consecutive_sessions,
	daily_streak, last_active_date, last_session_timestamp, created_at`

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db database.DBTX
}

func NewUserRepo(db database.DBTX) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  total_points BIGINT NOT NULL DEFAULT 0,
  consecutive_sessions INT NOT NULL DEFAULT 0,
  daily_streak INT NOT NULL DEFAULT 0,
  last_active_date TIMESTAMPTZ,
  last_session_timestamp TIMESTAMPTZ,
  created_at TIMESTAMPTZ NOT NULL
)`
	if r.db.DriverName() == database.DriverSQLite {
		ddl = `
CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  total_points INTEGER NOT NULL DEFAULT 0,
  consecutive_sessions INTEGER NOT NULL DEFAULT 0,
  daily_streak INTEGER NOT NULL DEFAULT 0,
  last_active_date DATETIME,
  last_session_timestamp DATETIME,
  created_at DATETIME NOT NULL
)`
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_users_total_points ON users(total_points)`)
	return err
}

// Create inserts a new user with zeroed counters and returns its id.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) (int64, error) {
	q := r.db.Rebind(`INSERT INTO users (email, name, password_hash, total_points, consecutive_sessions, daily_streak, created_at)
		VALUES (?, ?, ?, 0, 0, 0, ?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, q, u.Email, u.Name, u.PasswordHash, u.CreatedAt.UTC()).Scan(&u.ID); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, err
	}
	return u.ID, nil
}

func (r *UserRepo) get(ctx context.Context, where string, arg any, lock bool) (*entity.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	if lock {
		q += database.ForUpdate(r.db)
	}
	var u entity.User
	if err := r.db.GetContext(ctx, &u, r.db.Rebind(q), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a full user row.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.get(ctx, "id = ?", id, false)
}

// GetByEmail fetches by (already normalized) email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.get(ctx, "email = ?", email, false)
}

// GetForUpdate fetches the user and holds a row lock until the surrounding
// transaction ends.
func (r *UserRepo) GetForUpdate(ctx context.Context, id int64) (*entity.User, error) {
	return r.get(ctx, "id = ?", id, true)
}

// TotalPoints returns only the point total.
func (r *UserRepo) TotalPoints(ctx context.Context, id int64) (int64, error) {
	var pts int64
	if err := r.db.GetContext(ctx, &pts, r.db.Rebind(`SELECT total_points FROM users WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return pts, nil
}

// UpdateProgress writes the point total and streak counters.
func (r *UserRepo) UpdateProgress(ctx context.Context, u *entity.User) error {
	q := r.db.Rebind(`UPDATE users SET total_points = ?, consecutive_sessions = ?, daily_streak = ?,
		last_active_date = ?, last_session_timestamp = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, u.TotalPoints, u.ConsecutiveSessions, u.DailyStreak,
		utcOrNil(u.LastActiveDate), utcOrNil(u.LastSessionTimestamp), u.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update progress for user %d: %w", u.ID, ErrNotFound)
	}
	return nil
}

// TopByPoints returns the highest scoring users.
func (r *UserRepo) TopByPoints(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	out := []entity.LeaderboardEntry{}
	q := r.db.Rebind(`SELECT id, name, total_points FROM users ORDER BY total_points DESC, id ASC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &out, q, limit); err != nil {
		return nil, err
	}
	return out, nil
}
