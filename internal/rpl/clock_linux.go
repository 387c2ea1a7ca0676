//go:build linux

package rpl

import (
	"time"

	"golang.org/x/sys/unix"
)

// monotonicNow reads CLOCK_MONOTONIC directly via clock_gettime rather
// than going through time.Now()'s wall-clock-plus-monotonic-reading pair,
// so a concurrent wall-clock step (NTP slew, admin date -s) never
// perturbs the intervals the Trickle/DAO/connectivity timers measure.
func monotonicNow() time.Time {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return time.Now()
	}
	return time.Unix(int64(ts.Sec), int64(ts.Nsec))
}
