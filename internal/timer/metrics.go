package timer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// phaseCompletions counts completed phases.
	// Labels: phase (work, break)
	phaseCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pomodoro",
		Subsystem: "timer",
		Name:      "phase_completions_total",
		Help:      "Total completed timer phases",
	}, []string{"phase"})

	// pointsAwarded sums points granted on phase completion.
	// Labels: phase (work, break)
	pointsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pomodoro",
		Subsystem: "timer",
		Name:      "points_awarded_total",
		Help:      "Total points awarded on phase completion",
	}, []string{"phase"})

	// rejections counts timer operations that failed.
	// Labels: reason (too_early, no_state, inconsistent, invalid_phase, persistence)
	rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pomodoro",
		Subsystem: "timer",
		Name:      "rejections_total",
		Help:      "Total timer operations rejected or tolerated by reason",
	}, []string{"reason"})

	// startMultiplier tracks the multiplier locked in at work start.
	startMultiplier = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pomodoro",
		Subsystem: "timer",
		Name:      "start_multiplier",
		Help:      "Distribution of multipliers locked in when a work phase starts",
		Buckets:   []float64{1.0, 1.1, 1.2, 1.3, 1.5, 1.75, 2.0, 2.5, 3.0, 4.0},
	})
)
