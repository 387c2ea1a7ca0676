//go:build !linux

package rpl

import "time"

// monotonicNow falls back to time.Now() on platforms without a direct
// clock_gettime binding.
func monotonicNow() time.Time { return time.Now() }
