package rpl

import "time"

// Clock abstracts monotonic time and timer creation so the connectivity
// manager, mobility detector, and Trickle scheduler can be driven
// deterministically under test instead of through real wall-clock timers.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is the minimal subset of time.Timer the core needs: arm once,
// stop before fire, drain on reset. Every scheduled timer in this package
// is cancellable before it fires, per the concurrency model's cancellation
// guarantee.
type Timer interface {
	C() <-chan time.Time
	Reset(d time.Duration) bool
	Stop() bool
}

// systemClock is the production Clock, backed by the real monotonic clock.
type systemClock struct{}

// NewSystemClock returns the production Clock used by cmd/mobirpld.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time { return monotonicNow() }

func (systemClock) NewTimer(d time.Duration) Timer {
	return &systemTimer{t: time.NewTimer(d)}
}

type systemTimer struct {
	t *time.Timer
}

func (s *systemTimer) C() <-chan time.Time { return s.t.C }

func (s *systemTimer) Reset(d time.Duration) bool {
	// stop-then-drain-then-reset: Reset on an already-fired, undrained
	// timer races with the fire, so we stop and drain first.
	active := s.t.Stop()
	if !active {
		select {
		case <-s.t.C:
		default:
		}
	}
	s.t.Reset(d)
	return active
}

func (s *systemTimer) Stop() bool {
	return s.t.Stop()
}

// stopTimer is the drainTimer helper used throughout the scheduler files:
// stop a timer and drain its channel if it already fired, so a later
// Reset never observes a stale tick.
func stopTimer(t Timer) {
	if t == nil {
		return
	}
	if !t.Stop() {
		select {
		case <-t.C():
		default:
		}
	}
}
