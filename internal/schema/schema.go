// Package schema creates the application tables in dependency order.
package schema

import (
	"context"
	"fmt"

	ledgerrepo "github.com/Likio3000/pomodoroAPP/internal/ledger/repo"
	staterepo "github.com/Likio3000/pomodoroAPP/internal/timer/repo"
	userrepo "github.com/Likio3000/pomodoroAPP/internal/user/repo"
	"github.com/Likio3000/pomodoroAPP/pkg/database"
)

// Ensure creates every table that does not exist yet. It is idempotent.
func Ensure(ctx context.Context, db database.DBTX) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", userrepo.NewUserRepo(db).EnsureTable},
		{"active_timer_states", staterepo.NewStateRepo(db).EnsureTable},
		{"pomodoro_sessions", ledgerrepo.NewSessionRepo(db).EnsureTable},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("ensure %s: %w", s.name, err)
		}
	}
	return nil
}
