package stats

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Likio3000/pomodoroAPP/internal/auth"
	userrepo "github.com/Likio3000/pomodoroAPP/internal/user/repo"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	d, err := h.svc.Dashboard(r.Context(), userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		h.logger.Errorw("dashboard query failed", "user_id", userID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load stats"})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Leaderboard(r.Context())
	if err != nil {
		h.logger.Errorw("leaderboard query failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load leaderboard"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaders": entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
