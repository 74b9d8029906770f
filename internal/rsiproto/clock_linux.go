//go:build linux

package rsiproto

import (
	"time"

	"golang.org/x/sys/unix"
)

// platformMonotonicNow reads CLOCK_MONOTONIC directly, matching the
// original library's use of clock_gettime(CLOCK_MONOTONIC, ...) rather than
// time.Now(), which on Linux is itself backed by a vDSO monotonic read but
// carries wall-clock baggage (leap-second and NTP-step bookkeeping) this
// worker has no use for.
func platformMonotonicNow() time.Time {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return time.Now()
	}
	return time.Unix(ts.Sec, ts.Nsec)
}
