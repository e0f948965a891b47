package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Likio3000/pomodoroAPP/internal/auth"
	"github.com/Likio3000/pomodoroAPP/internal/setting"
	"github.com/Likio3000/pomodoroAPP/internal/stats"
	"github.com/Likio3000/pomodoroAPP/internal/timer"
	"github.com/Likio3000/pomodoroAPP/internal/user"
)

// Pinger reports database reachability for the readiness probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps is everything RegisterRoutes mounts.
type Deps struct {
	Logger   *zap.SugaredLogger
	Tokens   *auth.TokenIssuer
	Timer    *timer.Handler
	Users    *user.Handler
	Stats    *stats.Handler
	Settings *setting.Handler
	DB       Pinger
	// Limiter throttles state-changing requests. Nil disables throttling.
	Limiter *RateLimiter
}

// RegisterRoutes mounts HTTP handlers on a standard library ServeMux and
// wraps them with request id, logging and security header middleware.
func RegisterRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()

	requireUser := auth.RequireUser(d.Tokens, d.Logger)
	throttle := func(h http.Handler) http.Handler { return h }
	if d.Limiter != nil {
		throttle = d.Limiter.Middleware()
	}
	protected := func(h http.HandlerFunc) http.Handler { return requireUser(h) }
	limited := func(h http.HandlerFunc) http.Handler { return requireUser(throttle(h)) }

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.PingContext(ctx); err != nil {
				d.Logger.Warnw("readiness ping failed", "err", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/config", d.Settings.Get)

	// auth
	mux.Handle("POST /api/auth/signup", throttle(http.HandlerFunc(d.Users.Signup)))
	mux.Handle("POST /api/auth/login", throttle(http.HandlerFunc(d.Users.Login)))
	mux.Handle("GET /api/me", protected(d.Users.Me))

	// timer
	mux.Handle("GET /api/timer/state", protected(d.Timer.State))
	mux.Handle("GET /api/timer/multiplier_rules", protected(d.Timer.MultiplierRules))
	mux.Handle("POST /api/timer/start", limited(d.Timer.Start))
	mux.Handle("POST /api/timer/complete_phase", limited(d.Timer.CompletePhase))
	mux.Handle("POST /api/timer/pause", limited(d.Timer.Pause))
	mux.Handle("POST /api/timer/resume", limited(d.Timer.Resume))
	mux.Handle("POST /api/timer/reset", limited(d.Timer.Reset))

	// read-only views
	mux.Handle("GET /api/stats", protected(d.Stats.Dashboard))
	mux.Handle("GET /api/leaderboard", protected(d.Stats.Leaderboard))

	return RequestIDMiddleware()(LoggingMiddleware(d.Logger)(SecurityHeadersMiddleware()(mux)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
