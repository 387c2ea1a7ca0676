package rpl_test

import (
	"time"

	"github.com/hckim/mobirpl/internal/rpl"
)

// fakeClock never fires its timers on its own; tests drive schedulers by
// calling HandleFire directly. fakeTimer.last records the duration the
// scheduler most recently chose.
type fakeClock struct{}

func (fakeClock) Now() time.Time { return time.Time{} }

func (fakeClock) NewTimer(d time.Duration) rpl.Timer {
	return &fakeTimer{last: d, c: make(chan time.Time, 1)}
}

type fakeTimer struct {
	last    time.Duration
	stopped bool
	c       chan time.Time
}

func (t *fakeTimer) C() <-chan time.Time { return t.c }

func (t *fakeTimer) Reset(d time.Duration) bool {
	active := !t.stopped
	t.last = d
	t.stopped = false
	return active
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}
