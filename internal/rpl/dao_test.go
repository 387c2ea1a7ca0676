package rpl_test

import (
	"testing"
	"time"

	"github.com/hckim/mobirpl/internal/rpl"
)

func TestDAOScheduleDeferredUntilLinkLocalReady(t *testing.T) {
	t.Parallel()

	instance := rpl.NewInstance(256, 4, 2, 0)
	instance.DefaultLifetime = 0xff // disables the lifetime-refresh timer
	instance.LifetimeUnit = 60
	host := newRecordingHost()
	host.linkLocalReady = false
	sched := rpl.NewDAOScheduler(instance, host, fakeClock{}, func() float64 { return 0.5 })

	if err := sched.ScheduleImmediately(); err != nil {
		t.Fatalf("ScheduleImmediately: %v", err)
	}

	addr := mustAddr(t, "fe80::5")
	preferred := rpl.NewParent(addr, 0)

	sched.HandleFire(preferred)
	if host.daoCount != 0 {
		t.Fatalf("dao count = %d, want 0 while link-local address is not ready", host.daoCount)
	}

	host.linkLocalReady = true
	sched.HandleFire(preferred)
	if host.daoCount != 1 {
		t.Fatalf("dao count = %d, want 1 once link-local address is ready", host.daoCount)
	}
	if host.lastDAOParent != preferred {
		t.Fatalf("dao emitted to wrong parent")
	}
}

func TestDAOScheduleSuppressedWhileArmed(t *testing.T) {
	t.Parallel()

	instance := rpl.NewInstance(256, 4, 2, 0)
	instance.DefaultLifetime = 0xff
	instance.LifetimeUnit = 60
	host := newRecordingHost()
	sched := rpl.NewDAOScheduler(instance, host, fakeClock{}, func() float64 { return 0.5 })

	if err := sched.Schedule(2 * time.Second); err != nil {
		t.Fatalf("first Schedule: %v", err)
	}
	if err := sched.Schedule(2 * time.Second); err != nil {
		t.Fatalf("second Schedule: %v", err)
	}

	addr := mustAddr(t, "fe80::6")
	p := rpl.NewParent(addr, 0)
	sched.HandleFire(p)
	if host.daoCount != 1 {
		t.Fatalf("dao count = %d, want exactly 1 despite two Schedule calls", host.daoCount)
	}

	if err := sched.Schedule(2 * time.Second); err != nil {
		t.Fatalf("third Schedule after fire: %v", err)
	}
	sched.HandleFire(p)
	if host.daoCount != 2 {
		t.Fatalf("dao count = %d, want 2 after re-arming post-fire", host.daoCount)
	}
}

func TestDAOFeatherModeRejectsSchedule(t *testing.T) {
	t.Parallel()

	instance := rpl.NewInstance(256, 4, 2, 0)
	instance.Feather = true
	host := newRecordingHost()
	sched := rpl.NewDAOScheduler(instance, host, fakeClock{}, func() float64 { return 0 })

	if err := sched.ScheduleImmediately(); err == nil {
		t.Fatalf("expected an error scheduling a DAO in feather mode")
	}
}
