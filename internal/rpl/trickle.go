package rpl

import (
	"net/netip"
	"time"
)

// TrickleScheduler implements the classical doubling-interval Trickle
// algorithm for DIO transmission. A single reschedulable timer
// stands in for the reference's one ctimer, reused for both the
// randomized-fire callback and the residual-doubling callback, exactly
// as the C implementation reuses one ctimer for both.
type TrickleScheduler struct {
	Instance *Instance
	Host     Host
	Clock    Clock
	Trace    *TraceLogger
	Features FeatureGates

	// Rand returns a uniform value in [0, 1); injected so tests can
	// fix the jitter instead of depending on real randomness.
	Rand func() float64

	dioSendOK  bool
	resetNum   uint32
	postponing bool
	timer      Timer
}

// NewTrickleScheduler constructs a scheduler over instance, driven by
// clock and emitting through host.
func NewTrickleScheduler(instance *Instance, host Host, clock Clock, trace *TraceLogger, features FeatureGates, rand func() float64) *TrickleScheduler {
	return &TrickleScheduler{
		Instance: instance,
		Host:     host,
		Clock:    clock,
		Trace:    trace,
		Features: features,
		Rand:     rand,
	}
}

// Timer exposes the underlying Timer so the manager's run loop can
// select on its channel alongside other timers.
func (s *TrickleScheduler) Timer() Timer { return s.timer }

// newDIOInterval implements new_dio_interval: picks a random fire time in
// [I/2, I) for the current interval length I = 2^dio_intcurrent ms,
// arms dio_next_delay with the residual I-t, resets the redundancy
// counter, and sets dio_send. Returns the delay until the next callback.
func (s *TrickleScheduler) newDIOInterval() time.Duration {
	tr := &s.Instance.Trickle
	ms := uint64(1) << tr.IntCurrent
	full := time.Duration(ms) * time.Millisecond
	half := full / 2

	r := time.Duration(s.Rand() * float64(half))
	t := half + r
	if t > full {
		t = full
	}

	tr.NextDelay = int64(full - t)
	tr.Send = true
	if s.Features.CollectStats {
		tr.TotalIntervals++
		tr.TotalReceived += int(tr.Counter)
	}
	tr.Counter = 0

	return t
}

// Arm starts (or restarts from scratch) the Trickle cycle: computes a new
// interval and schedules the first callback.
func (s *TrickleScheduler) Arm() {
	d := s.newDIOInterval()
	s.schedule(d)
}

func (s *TrickleScheduler) schedule(d time.Duration) {
	if s.timer == nil {
		s.timer = s.Clock.NewTimer(d)
		return
	}
	s.timer.Reset(d)
}

// HandleFire implements handle_dio_timer. It must be invoked whenever
// Timer()'s channel delivers a value.
func (s *TrickleScheduler) HandleFire() {
	if !s.dioSendOK {
		if !s.Host.LinkLocalReady() {
			s.schedule(time.Second)
			return
		}
		s.dioSendOK = true
	}

	tr := &s.Instance.Trickle

	if tr.Send {
		if tr.Redundancy != 0 && tr.Counter < tr.Redundancy {
			if s.Features.CollectStats {
				tr.TotalSent++
			}
			s.Host.DIOOutput(s.Instance, netip.Addr{})
		}
		tr.Send = false
		s.schedule(time.Duration(tr.NextDelay))
		return
	}

	maxIntCurr := tr.IntMin + tr.IntDoubl
	if tr.IntCurrent < maxIntCurr {
		tr.IntCurrent++
	}
	d := s.newDIOInterval()
	s.schedule(d)
}

// Reset implements rpl_reset_dio_timer: drop back to the minimum
// interval unless RPL_LEAF_ONLY is set or the interval is already at the
// minimum.
func (s *TrickleScheduler) Reset() {
	s.resetNum++
	s.Trace.TraceDIOTimerReset(s.resetNum)

	if s.Features.LeafOnly {
		return
	}
	tr := &s.Instance.Trickle
	if tr.IntCurrent > tr.IntMin {
		tr.Counter = 0
		tr.IntCurrent = tr.IntMin
		d := s.newDIOInterval()
		s.schedule(d)
	}
}

// Stop cancels the underlying timer, if armed.
func (s *TrickleScheduler) Stop() {
	if s.timer != nil {
		stopTimer(s.timer)
	}
}
