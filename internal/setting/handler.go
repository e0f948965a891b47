// Package setting serves the client-facing settings: feature flags and the
// default phase lengths a new timer should be offered with.
package setting

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Likio3000/pomodoroAPP/internal/config"
)

// ClientSettings is what an unauthenticated client may learn about the server.
type ClientSettings struct {
	ChatEnabled         bool    `json:"chat_enabled"`
	TTSEnabled          bool    `json:"tts_enabled"`
	DefaultWorkMinutes  int     `json:"default_work_minutes"`
	DefaultBreakMinutes int     `json:"default_break_minutes"`
	PointsPerMinute     float64 `json:"points_per_minute"`
}

// Handler contains dependencies for handling setting endpoints.
type Handler struct {
	settings ClientSettings
	logger   *zap.SugaredLogger
}

// NewHandler snapshots the public part of cfg.
func NewHandler(cfg config.Config, logger *zap.SugaredLogger) *Handler {
	s := ClientSettings{
		ChatEnabled:         cfg.ChatEnabled,
		TTSEnabled:          cfg.TTSEnabled,
		DefaultWorkMinutes:  cfg.DefaultWorkMinutes,
		DefaultBreakMinutes: cfg.DefaultBreakMinutes,
		PointsPerMinute:     cfg.PointsPerMinute,
	}
	// NaN does not encode as JSON
	if s.PointsPerMinute != s.PointsPerMinute {
		s.PointsPerMinute = 0
	}
	return &Handler{settings: s, logger: logger}
}

// Get writes the client settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.settings); err != nil {
		h.logger.Warnw("encode settings", "err", err)
	}
}
