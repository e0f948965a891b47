package timer

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Likio3000/pomodoroAPP/internal/auth"
)

// Handler exposes the timer operations over HTTP. Every route expects
// auth.RequireUser to have run.
type Handler struct {
	svc      *Service
	logger   *zap.SugaredLogger
	validate *validator.Validate
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger, validate: validator.New()}
}

// StartRequest is the body of POST /api/timer/start.
type StartRequest struct {
	WorkMinutes  *int `json:"work_minutes" validate:"required,gt=0,lte=1440"`
	BreakMinutes *int `json:"break_minutes" validate:"required,gt=0,lte=1440"`
}

// CompletePhaseRequest is the body of POST /api/timer/complete_phase.
type CompletePhaseRequest struct {
	PhaseCompleted string `json:"phase_completed" validate:"required"`
}

type errorBody struct {
	Error            string `json:"error"`
	TotalPoints      *int64 `json:"total_points,omitempty"`
	RemainingSeconds *int64 `json:"remaining_seconds,omitempty"`
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	v, err := h.svc.State(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var req StartRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.Start(r.Context(), userID, *req.WorkMinutes, *req.BreakMinutes)
	if err != nil {
		h.writeError(w, r, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) CompletePhase(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var req CompletePhaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.CompletePhase(r.Context(), userID, req.PhaseCompleted)
	if err != nil {
		h.writeError(w, r, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := h.svc.Pause(r.Context(), userID); err != nil {
		h.writeError(w, r, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": StatusPauseRecorded})
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Resume(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	deleted, err := h.svc.Reset(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, userID, err)
		return
	}
	status := StatusNoStateToReset
	if deleted {
		status = StatusResetSuccess
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// MultiplierRules reports the bonus table and the rules met for the
// planned durations given in the query string.
func (h *Handler) MultiplierRules(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	work, err1 := queryInt(r, "work_minutes")
	brk, err2 := queryInt(r, "break_minutes")
	if err1 != nil || err2 != nil || work < 0 || brk < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "work_minutes and break_minutes must be non-negative integers"})
		return
	}
	v, err := h.svc.Rules(r.Context(), userID, work, brk)
	if err != nil {
		h.writeError(w, r, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required"})
	}
	return userID, ok
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Debugw("invalid timer payload", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid payload"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.logger.Debugw("timer payload failed validation", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid or missing fields"})
		return false
	}
	return true
}

// writeError maps the error taxonomy to status codes. The body carries the
// best-known point total, read fresh unless the error already has it.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, userID int64, err error) {
	body := errorBody{Error: err.Error()}
	var tooEarly *TooEarlyError
	if errors.As(err, &tooEarly) {
		pts := tooEarly.TotalPoints
		secs := tooEarly.RemainingSeconds()
		body.TotalPoints = &pts
		body.RemainingSeconds = &secs
		writeJSON(w, http.StatusBadRequest, body)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidPhase):
		status = http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
		body.Error = "no active timer found on server"
	case errors.Is(err, ErrUnknownUser):
		status = http.StatusNotFound
	case errors.Is(err, ErrInconsistent):
		body.Error = "inconsistent timer state found on server; it was cleared, please retry"
	case errors.Is(err, ErrPersistence):
		body.Error = "database error, please retry"
	default:
		h.logger.Errorw("unexpected timer error", "path", r.URL.Path, "user_id", userID, "err", err)
		body.Error = "an unexpected server error occurred"
	}
	if pts, pErr := h.svc.TotalPoints(r.Context(), userID); pErr == nil {
		body.TotalPoints = &pts
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
