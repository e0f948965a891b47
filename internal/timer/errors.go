package timer

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("no active timer")
	ErrUnknownUser  = errors.New("user not found")
	ErrTooEarly     = errors.New("timer not finished yet")
	ErrInconsistent = errors.New("inconsistent timer state")
	ErrInvalidPhase = errors.New("invalid phase")
	ErrPersistence  = errors.New("persistence failure")
)

// TooEarlyError rejects a completion signal that arrived before the phase
// end minus the grace period. Nothing was changed.
type TooEarlyError struct {
	Remaining   time.Duration
	TotalPoints int64
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("timer not finished yet: %ds remaining", e.RemainingSeconds())
}

func (e *TooEarlyError) Unwrap() error { return ErrTooEarly }

// RemainingSeconds is the remaining time rounded up to whole seconds.
func (e *TooEarlyError) RemainingSeconds() int64 {
	return int64(math.Ceil(e.Remaining.Seconds()))
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

// classify wraps anything that is not already part of the taxonomy
// (begin/commit failures from the unit of work) as a persistence failure.
func classify(err error) error {
	for _, known := range []error{ErrInvalidInput, ErrNotFound, ErrUnknownUser, ErrTooEarly, ErrInconsistent, ErrInvalidPhase, ErrPersistence} {
		if errors.Is(err, known) {
			return err
		}
	}
	return persistErr("transaction", err)
}
