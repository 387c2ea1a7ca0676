package rpl

import (
	"time"
)

// DAOScheduler drives the downward-route refresh timer and its
// lifetime-refresh companion.
type DAOScheduler struct {
	Instance *Instance
	Host     Host
	Clock    Clock

	// Rand returns a uniform value in [0, 1); injected for deterministic
	// tests, matching TrickleScheduler's convention.
	Rand func() float64

	timer         Timer
	lifetimeTimer Timer
	armed         bool
}

// NewDAOScheduler constructs a scheduler over instance.
func NewDAOScheduler(instance *Instance, host Host, clock Clock, rand func() float64) *DAOScheduler {
	return &DAOScheduler{Instance: instance, Host: host, Clock: clock, Rand: rand}
}

// Timer exposes the DAO retransmission timer for the manager's run loop.
func (s *DAOScheduler) Timer() Timer { return s.timer }

// LifetimeTimer exposes the DAO lifetime-refresh timer.
func (s *DAOScheduler) LifetimeTimer() Timer { return s.lifetimeTimer }

// Schedule implements schedule_dao: a no-op in feather mode or while a
// DAO timer is already pending; otherwise arms the DAO timer at a
// latency-derived expiration and arms the lifetime-refresh timer.
func (s *DAOScheduler) Schedule(latency time.Duration) error {
	if s.Instance.Feather {
		return ErrFeatherMode
	}
	if s.armed {
		return nil
	}

	var expiration time.Duration
	if latency != 0 {
		expiration = latency/2 + time.Duration(s.Rand()*float64(latency))
	}

	s.armTimer(expiration)
	s.armed = true
	s.armLifetimeTimer()
	return nil
}

// ScheduleImmediately implements rpl_schedule_dao_immediately: Schedule
// with zero latency.
func (s *DAOScheduler) ScheduleImmediately() error {
	return s.Schedule(0)
}

func (s *DAOScheduler) armTimer(d time.Duration) {
	if s.timer == nil {
		s.timer = s.Clock.NewTimer(d)
		return
	}
	s.timer.Reset(d)
}

// armLifetimeTimer implements set_dao_lifetime_timer: schedules another
// DAO at half the route expiration time, when a finite lifetime/unit is
// configured.
func (s *DAOScheduler) armLifetimeTimer() {
	if s.Instance.Feather {
		return
	}
	if s.Instance.LifetimeUnit == 0xffff || s.Instance.DefaultLifetime == 0xff {
		return
	}
	expiration := time.Duration(s.Instance.DefaultLifetime) * time.Duration(s.Instance.LifetimeUnit) * time.Second / 2
	if s.lifetimeTimer == nil {
		s.lifetimeTimer = s.Clock.NewTimer(expiration)
		return
	}
	s.lifetimeTimer.Reset(expiration)
}

// HandleFire implements handle_dao_timer: emits a DAO to the DAG's
// preferred parent unless the link-local address is not yet ready, in
// which case it defers one second. preferred may be nil (no suitable DAO
// parent): then no DAO is emitted and the timer is disarmed.
func (s *DAOScheduler) HandleFire(preferred *Parent) {
	if !s.Host.LinkLocalReady() {
		s.armTimer(time.Second)
		return
	}

	if preferred != nil {
		s.Host.DAOOutput(preferred, s.Instance.DefaultLifetime)
	}

	stopTimer(s.timer)
	s.armed = false
}

// HandleLifetimeFire implements the lifetime-timer arm of handle_dao_timer
// (set_dao_lifetime_timer re-arm on expiry).
func (s *DAOScheduler) HandleLifetimeFire() {
	s.armLifetimeTimer()
}

// Cancel implements rpl_cancel_dao.
func (s *DAOScheduler) Cancel() {
	stopTimer(s.timer)
	stopTimer(s.lifetimeTimer)
	s.armed = false
}
