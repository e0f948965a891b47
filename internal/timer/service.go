package timer

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	ledgerentity "github.com/Likio3000/pomodoroAPP/internal/ledger/entity"
	ledgerrepo "github.com/Likio3000/pomodoroAPP/internal/ledger/repo"
	"github.com/Likio3000/pomodoroAPP/internal/scoring"
	"github.com/Likio3000/pomodoroAPP/internal/timer/entity"
	staterepo "github.com/Likio3000/pomodoroAPP/internal/timer/repo"
	userentity "github.com/Likio3000/pomodoroAPP/internal/user/entity"
	userrepo "github.com/Likio3000/pomodoroAPP/internal/user/repo"
	"github.com/Likio3000/pomodoroAPP/pkg/database"
)

// DefaultGracePeriod is how early a completion signal may arrive.
const DefaultGracePeriod = 2 * time.Second

// Response statuses.
const (
	StatusTimerStarted        = "timer_started"
	StatusBreakStarted        = "break_started"
	StatusWorkStarted         = "work_started"
	StatusAcknowledgedNoState = "acknowledged_no_state"
	StatusPauseRecorded       = "pause_recorded"
	StatusResumeSuccess       = "resume_success"
	StatusResumeNoPauseFound  = "resume_no_pause_found"
	StatusResetSuccess        = "reset_success"
	StatusNoStateToReset      = "no_state_to_reset"
)

// Options configures a Service. Zero durations select the defaults.
type Options struct {
	Clock           clockwork.Clock
	PointsPerMinute float64
	GracePeriod     time.Duration
	ConsistencyGap  time.Duration
	MultiplierCap   float64
}

// PhaseResult is returned by Start and CompletePhase.
type PhaseResult struct {
	Status           string     `json:"status"`
	TotalPoints      int64      `json:"total_points"`
	PointsEarned     int64      `json:"points_earned,omitempty"`
	ActiveMultiplier float64    `json:"active_multiplier,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty"`
}

// ResumeResult is returned by Resume.
type ResumeResult struct {
	Status     string    `json:"status"`
	NewEndTime time.Time `json:"new_end_time"`
}

// StateView is the read model of the active timer.
type StateView struct {
	Active               bool       `json:"active"`
	Phase                string     `json:"phase,omitempty"`
	StartTime            *time.Time `json:"start_time,omitempty"`
	EndTime              *time.Time `json:"end_time,omitempty"`
	WorkDurationMinutes  int        `json:"work_duration_minutes,omitempty"`
	BreakDurationMinutes int        `json:"break_duration_minutes,omitempty"`
	CurrentMultiplier    float64    `json:"current_multiplier,omitempty"`
	PausedAt             *time.Time `json:"paused_at,omitempty"`
}

// RulesView describes the bonus table and which rules the user meets now.
type RulesView struct {
	Rules             []scoring.Rule `json:"rules"`
	ActiveRuleIDs     []string       `json:"active_rule_ids"`
	Multiplier        float64        `json:"multiplier"`
	TodayFocusMinutes int            `json:"today_focus_minutes"`
}

// Service drives the work/break state machine. Every mutating call runs as
// one transaction that locks the user row before the timer row.
type Service struct {
	db     database.DBTX
	uow    database.UnitOfWork
	clock  clockwork.Clock
	engine scoring.Engine
	logger *zap.SugaredLogger

	pointsPerMinute float64
	grace           time.Duration
	gap             time.Duration
}

func NewService(db database.DBTX, uow database.UnitOfWork, opts Options, logger *zap.SugaredLogger) *Service {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.GracePeriod == 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.ConsistencyGap == 0 {
		opts.ConsistencyGap = scoring.DefaultConsistencyGap
	}
	return &Service{
		db:              db,
		uow:             uow,
		clock:           opts.Clock,
		engine:          scoring.Engine{Cap: opts.MultiplierCap},
		logger:          logger,
		pointsPerMinute: opts.PointsPerMinute,
		grace:           opts.GracePeriod,
		gap:             opts.ConsistencyGap,
	}
}

func (s *Service) now() time.Time { return s.clock.Now().UTC() }

// validPointsPerMinute treats misconfiguration as zero instead of failing.
func (s *Service) validPointsPerMinute() float64 {
	ppm := s.pointsPerMinute
	if math.IsNaN(ppm) || math.IsInf(ppm, 0) || ppm < 0 {
		s.logger.Errorw("invalid points_per_minute, awarding 0", "points_per_minute", ppm)
		return 0
	}
	return ppm
}

func (s *Service) phasePoints(minutes int, multiplier float64) int64 {
	return int64(math.RoundToEven(float64(minutes) * s.validPointsPerMinute() * multiplier))
}

// multiplierFor reads today's ledger total inside q and evaluates the rules.
func (s *Service) multiplierFor(ctx context.Context, q database.DBTX, u *userentity.User, work, brk int, now time.Time) (float64, error) {
	focus, err := ledgerrepo.NewSessionRepo(q).FocusMinutesSince(ctx, u.ID, scoring.UTCDate(now))
	if err != nil {
		return 0, persistErr("read today's focus minutes", err)
	}
	return s.engine.Multiplier(scoring.NewInputs(u.Streaks, work, brk, focus)), nil
}

func lockUser(ctx context.Context, users *userrepo.UserRepo, userID int64) (*userentity.User, error) {
	u, err := users.GetForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, persistErr("lock user", err)
	}
	return u, nil
}

func lockState(ctx context.Context, states *staterepo.StateRepo, userID int64) (*entity.ActiveTimerState, error) {
	st, err := states.GetForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, staterepo.ErrNotFound) {
			return nil, nil
		}
		return nil, persistErr("lock timer state", err)
	}
	return st, nil
}

// Start creates or overwrites the user's timer with a new work phase and
// locks in the multiplier for it.
func (s *Service) Start(ctx context.Context, userID int64, workMinutes, breakMinutes int) (*PhaseResult, error) {
	if workMinutes <= 0 || breakMinutes <= 0 {
		return nil, ErrInvalidInput
	}
	now := s.now()
	var res *PhaseResult
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		users := userrepo.NewUserRepo(tx)
		states := staterepo.NewStateRepo(tx)

		u, err := lockUser(ctx, users, userID)
		if err != nil {
			return err
		}
		mult, err := s.multiplierFor(ctx, tx, u, workMinutes, breakMinutes, now)
		if err != nil {
			return err
		}
		existing, err := lockState(ctx, states, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			s.logger.Infow("restarting timer", "user_id", userID, "previous_phase", existing.Phase, "multiplier", mult)
		}
		st := &entity.ActiveTimerState{
			UserID:               userID,
			WorkDurationMinutes:  workMinutes,
			BreakDurationMinutes: breakMinutes,
		}
		st.Begin(entity.PhaseWork, now, mult)
		if err := states.Upsert(ctx, st); err != nil {
			return persistErr("save timer state", err)
		}
		res = &PhaseResult{
			Status:           StatusTimerStarted,
			TotalPoints:      u.TotalPoints,
			ActiveMultiplier: mult,
			EndTime:          st.EndTime,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("start", userID, err)
	}
	startMultiplier.Observe(res.ActiveMultiplier)
	s.logger.Debugw("timer started", "user_id", userID, "multiplier", res.ActiveMultiplier, "ends", res.EndTime)
	return res, nil
}

// CompletePhase finalizes the stored phase, awards its points and moves the
// timer to the next phase. reported is the phase the client believes ended;
// the stored phase wins when they disagree.
func (s *Service) CompletePhase(ctx context.Context, userID int64, reported string) (*PhaseResult, error) {
	if reported == "" {
		return nil, ErrInvalidInput
	}
	now := s.now()
	var (
		res     *PhaseResult
		outcome error
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		users := userrepo.NewUserRepo(tx)
		states := staterepo.NewStateRepo(tx)

		u, err := lockUser(ctx, users, userID)
		if err != nil {
			return err
		}
		st, err := lockState(ctx, states, userID)
		if err != nil {
			return err
		}
		if st == nil {
			s.logger.Warnw("phase completion without active timer", "user_id", userID, "reported", reported)
			res = &PhaseResult{Status: StatusAcknowledgedNoState, TotalPoints: u.TotalPoints}
			return nil
		}
		if st.EndTime == nil {
			s.logger.Errorw("timer state has no end time, clearing", "user_id", userID)
			if _, err := states.Delete(ctx, userID); err != nil {
				return persistErr("delete corrupt state", err)
			}
			outcome = ErrInconsistent
			return nil
		}

		end := st.EndTime.UTC()
		if now.Before(end.Add(-s.grace)) {
			tooEarly := &TooEarlyError{Remaining: end.Sub(now), TotalPoints: u.TotalPoints}
			s.logger.Warnw("phase completion too early", "user_id", userID, "remaining_s", tooEarly.RemainingSeconds())
			return tooEarly
		}

		if !st.Phase.Valid() {
			s.logger.Errorw("invalid stored phase, clearing", "user_id", userID, "phase", st.Phase)
			if _, err := states.Delete(ctx, userID); err != nil {
				return persistErr("delete invalid state", err)
			}
			outcome = ErrInvalidPhase
			return nil
		}
		if string(st.Phase) != reported {
			s.logger.Warnw("phase mismatch, using stored phase", "user_id", userID, "reported", reported, "stored", st.Phase)
		}

		if st.Phase == entity.PhaseBreak {
			res, err = s.completeBreak(ctx, tx, u, st, now)
			return err
		}
		res, err = s.completeWork(ctx, tx, u, st, now)
		return err
	})
	if err == nil {
		err = outcome
	}
	if err != nil {
		return nil, s.fail("complete_phase", userID, err)
	}
	if res.Status == StatusAcknowledgedNoState {
		rejections.WithLabelValues("no_state").Inc()
	}
	return res, nil
}

func (s *Service) completeWork(ctx context.Context, tx database.DBTX, u *userentity.User, st *entity.ActiveTimerState, now time.Time) (*PhaseResult, error) {
	points := s.phasePoints(st.WorkDurationMinutes, st.CurrentMultiplier)
	u.TotalPoints += points

	before := u.Streaks
	scoring.UpdateStreaks(&u.Streaks, now, s.gap)
	s.logger.Infow("work phase completed",
		"user_id", u.ID,
		"minutes", st.WorkDurationMinutes,
		"multiplier", st.CurrentMultiplier,
		"points", points,
		"total_points", u.TotalPoints,
		"daily_streak", before.DailyStreak, "daily_streak_now", u.DailyStreak,
		"consecutive", before.ConsecutiveSessions, "consecutive_now", u.ConsecutiveSessions,
	)
	if err := userrepo.NewUserRepo(tx).UpdateProgress(ctx, u); err != nil {
		return nil, persistErr("update user progress", err)
	}

	entry := &ledgerentity.PomodoroSession{
		UserID:        u.ID,
		WorkDuration:  st.WorkDurationMinutes,
		BreakDuration: st.BreakDurationMinutes,
		PointsEarned:  points,
		Timestamp:     st.StartTime.UTC(),
	}
	if err := ledgerrepo.NewSessionRepo(tx).Append(ctx, entry); err != nil {
		return nil, persistErr("append session", err)
	}

	// the break keeps the multiplier earned by this work phase
	st.Begin(entity.PhaseBreak, now, st.CurrentMultiplier)
	if err := staterepo.NewStateRepo(tx).Upsert(ctx, st); err != nil {
		return nil, persistErr("transition to break", err)
	}
	phaseCompletions.WithLabelValues(string(entity.PhaseWork)).Inc()
	pointsAwarded.WithLabelValues(string(entity.PhaseWork)).Add(float64(points))
	return &PhaseResult{
		Status:           StatusBreakStarted,
		TotalPoints:      u.TotalPoints,
		PointsEarned:     points,
		ActiveMultiplier: st.CurrentMultiplier,
		EndTime:          st.EndTime,
	}, nil
}

func (s *Service) completeBreak(ctx context.Context, tx database.DBTX, u *userentity.User, st *entity.ActiveTimerState, now time.Time) (*PhaseResult, error) {
	points := s.phasePoints(st.BreakDurationMinutes, st.CurrentMultiplier)
	u.TotalPoints += points
	s.logger.Infow("break phase completed",
		"user_id", u.ID,
		"minutes", st.BreakDurationMinutes,
		"multiplier", st.CurrentMultiplier,
		"points", points,
		"total_points", u.TotalPoints,
	)
	if err := userrepo.NewUserRepo(tx).UpdateProgress(ctx, u); err != nil {
		return nil, persistErr("update user points", err)
	}

	fresh, err := s.multiplierFor(ctx, tx, u, st.WorkDurationMinutes, st.BreakDurationMinutes, now)
	if err != nil {
		return nil, err
	}
	st.Begin(entity.PhaseWork, now, fresh)
	if err := staterepo.NewStateRepo(tx).Upsert(ctx, st); err != nil {
		return nil, persistErr("transition to work", err)
	}
	phaseCompletions.WithLabelValues(string(entity.PhaseBreak)).Inc()
	pointsAwarded.WithLabelValues(string(entity.PhaseBreak)).Add(float64(points))
	startMultiplier.Observe(fresh)
	return &PhaseResult{
		Status:           StatusWorkStarted,
		TotalPoints:      u.TotalPoints,
		PointsEarned:     points,
		ActiveMultiplier: fresh,
		EndTime:          st.EndTime,
	}, nil
}

// Pause records the pause start. The end time is left alone; a repeated
// pause keeps the first marker.
func (s *Service) Pause(ctx context.Context, userID int64) error {
	now := s.now()
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		states := staterepo.NewStateRepo(tx)
		st, err := lockState(ctx, states, userID)
		if err != nil {
			return err
		}
		if st == nil {
			return ErrNotFound
		}
		if st.Paused() {
			s.logger.Debugw("timer already paused", "user_id", userID, "paused_at", st.PauseStartedAt)
			return nil
		}
		st.PauseStartedAt = &now
		if err := states.Upsert(ctx, st); err != nil {
			return persistErr("record pause", err)
		}
		return nil
	})
	if err != nil {
		return s.fail("pause", userID, err)
	}
	s.logger.Debugw("timer paused", "user_id", userID)
	return nil
}

// Resume shifts the phase so the time left at pause starts counting again
// from now. Without a pause marker the current end time is returned as is.
func (s *Service) Resume(ctx context.Context, userID int64) (*ResumeResult, error) {
	now := s.now()
	var (
		res     *ResumeResult
		outcome error
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		states := staterepo.NewStateRepo(tx)
		st, err := lockState(ctx, states, userID)
		if err != nil {
			return err
		}
		if st == nil {
			return ErrNotFound
		}
		if st.EndTime == nil {
			s.logger.Errorw("timer state has no end time, clearing", "user_id", userID)
			if _, err := states.Delete(ctx, userID); err != nil {
				return persistErr("delete corrupt state", err)
			}
			outcome = ErrInconsistent
			return nil
		}
		if !st.Paused() {
			res = &ResumeResult{Status: StatusResumeNoPauseFound, NewEndTime: st.EndTime.UTC()}
			return nil
		}

		remaining := st.EndTime.UTC().Sub(st.PauseStartedAt.UTC())
		if remaining < 0 {
			remaining = 0
		}
		end := now.Add(remaining)
		st.StartTime = now
		st.EndTime = &end
		st.PauseStartedAt = nil
		if err := states.Upsert(ctx, st); err != nil {
			return persistErr("resume timer", err)
		}
		res = &ResumeResult{Status: StatusResumeSuccess, NewEndTime: end}
		return nil
	})
	if err == nil {
		err = outcome
	}
	if err != nil {
		return nil, s.fail("resume", userID, err)
	}
	s.logger.Debugw("timer resumed", "user_id", userID, "status", res.Status, "ends", res.NewEndTime)
	return res, nil
}

// Reset deletes the active timer. It reports false when there was none.
func (s *Service) Reset(ctx context.Context, userID int64) (bool, error) {
	var deleted bool
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		states := staterepo.NewStateRepo(tx)
		if _, err := lockState(ctx, states, userID); err != nil {
			return err
		}
		ok, err := states.Delete(ctx, userID)
		if err != nil {
			return persistErr("delete timer state", err)
		}
		deleted = ok
		return nil
	})
	if err != nil {
		return false, s.fail("reset", userID, err)
	}
	s.logger.Infow("timer reset", "user_id", userID, "had_state", deleted)
	return deleted, nil
}

// State returns the active timer without locking.
func (s *Service) State(ctx context.Context, userID int64) (*StateView, error) {
	st, err := staterepo.NewStateRepo(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, staterepo.ErrNotFound) {
			return &StateView{Active: false}, nil
		}
		return nil, persistErr("read timer state", err)
	}
	start := st.StartTime.UTC()
	v := &StateView{
		Active:               true,
		Phase:                string(st.Phase),
		StartTime:            &start,
		WorkDurationMinutes:  st.WorkDurationMinutes,
		BreakDurationMinutes: st.BreakDurationMinutes,
		CurrentMultiplier:    st.CurrentMultiplier,
	}
	if st.EndTime != nil {
		end := st.EndTime.UTC()
		v.EndTime = &end
	}
	if st.PauseStartedAt != nil {
		p := st.PauseStartedAt.UTC()
		v.PausedAt = &p
	}
	return v, nil
}

// TotalPoints reads the user's current total outside any transaction.
func (s *Service) TotalPoints(ctx context.Context, userID int64) (int64, error) {
	pts, err := userrepo.NewUserRepo(s.db).TotalPoints(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return 0, ErrUnknownUser
		}
		return 0, persistErr("read total points", err)
	}
	return pts, nil
}

// Rules evaluates the bonus table for the given planned durations.
func (s *Service) Rules(ctx context.Context, userID int64, workMinutes, breakMinutes int) (*RulesView, error) {
	u, err := userrepo.NewUserRepo(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, persistErr("read user", err)
	}
	focus, err := ledgerrepo.NewSessionRepo(s.db).FocusMinutesSince(ctx, userID, scoring.UTCDate(s.now()))
	if err != nil {
		return nil, persistErr("read today's focus minutes", err)
	}
	in := scoring.NewInputs(u.Streaks, workMinutes, breakMinutes, focus)
	return &RulesView{
		Rules:             scoring.Rules(),
		ActiveRuleIDs:     s.engine.ActiveRuleIDs(in),
		Multiplier:        s.engine.Multiplier(in),
		TodayFocusMinutes: focus,
	}, nil
}

// fail classifies err, counts it and logs storage problems.
func (s *Service) fail(op string, userID int64, err error) error {
	err = classify(err)
	switch {
	case errors.Is(err, ErrTooEarly):
		rejections.WithLabelValues("too_early").Inc()
	case errors.Is(err, ErrInconsistent):
		rejections.WithLabelValues("inconsistent").Inc()
	case errors.Is(err, ErrInvalidPhase):
		rejections.WithLabelValues("invalid_phase").Inc()
	case errors.Is(err, ErrPersistence):
		rejections.WithLabelValues("persistence").Inc()
		s.logger.Errorw("timer operation rolled back", "op", op, "user_id", userID, "err", err)
	}
	return err
}
