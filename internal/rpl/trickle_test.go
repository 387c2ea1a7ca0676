package rpl_test

import (
	"testing"

	"github.com/hckim/mobirpl/internal/rpl"
)

func TestTrickleDoublingAndReset(t *testing.T) {
	t.Parallel()

	instance := rpl.NewInstance(256, 4, 2, 0)
	host := newRecordingHost()
	trace := rpl.NewTraceLogger(nil)
	features := rpl.DefaultFeatureGates()
	sched := rpl.NewTrickleScheduler(instance, host, fakeClock{}, trace, features, func() float64 { return 0 })

	sched.Arm()
	if instance.Trickle.IntCurrent != instance.Trickle.IntMin {
		t.Fatalf("int_current = %d, want IntMin on arm", instance.Trickle.IntCurrent)
	}

	// Redundancy is 0, so the "has fired within the interval" branch never
	// emits a DIO; HandleFire should still advance send->false then
	// schedule the residual delay.
	sched.HandleFire()
	if host.dioCount != 0 {
		t.Fatalf("dio count = %d, want 0 with redundancy=0", host.dioCount)
	}

	// Second fire (the residual-delay callback): no parent sends observed
	// this interval, so the interval doubles.
	sched.HandleFire()
	if instance.Trickle.IntCurrent != instance.Trickle.IntMin+1 {
		t.Fatalf("int_current = %d, want IntMin+1 after one doubling", instance.Trickle.IntCurrent)
	}

	maxIntCurr := instance.Trickle.IntMin + instance.Trickle.IntDoubl
	for instance.Trickle.IntCurrent < maxIntCurr {
		sched.HandleFire() // send=false branch
		sched.HandleFire() // residual branch
	}
	if instance.Trickle.IntCurrent != maxIntCurr {
		t.Fatalf("int_current = %d, want capped at %d", instance.Trickle.IntCurrent, maxIntCurr)
	}

	sched.Reset()
	if instance.Trickle.IntCurrent != instance.Trickle.IntMin {
		t.Fatalf("int_current = %d, want reset to IntMin", instance.Trickle.IntCurrent)
	}
}

func TestTrickleLeafOnlySuppressesReset(t *testing.T) {
	t.Parallel()

	instance := rpl.NewInstance(256, 4, 2, 0)
	instance.Trickle.IntCurrent = instance.Trickle.IntMin + 1
	host := newRecordingHost()
	trace := rpl.NewTraceLogger(nil)
	features := rpl.DefaultFeatureGates()
	features.LeafOnly = true
	sched := rpl.NewTrickleScheduler(instance, host, fakeClock{}, trace, features, func() float64 { return 0 })

	sched.Reset()
	if instance.Trickle.IntCurrent != instance.Trickle.IntMin+1 {
		t.Fatalf("int_current changed under RPL_LEAF_ONLY, want unchanged")
	}
}

func TestTrickleDeferredUntilLinkLocalReady(t *testing.T) {
	t.Parallel()

	instance := rpl.NewInstance(256, 4, 2, 1)
	host := newRecordingHost()
	host.linkLocalReady = false
	trace := rpl.NewTraceLogger(nil)
	features := rpl.DefaultFeatureGates()
	sched := rpl.NewTrickleScheduler(instance, host, fakeClock{}, trace, features, func() float64 { return 0 })

	sched.Arm()
	sched.HandleFire()
	if host.dioCount != 0 {
		t.Fatalf("dio count = %d, want 0 while link-local address is not ready", host.dioCount)
	}
}
