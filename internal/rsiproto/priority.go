package rsiproto

// PriorityConfig controls the optional real-time scheduling elevation the
// worker goroutine requests before entering its receive loop. It mirrors
// the original library's init_system_optimizations(): best-effort, and a
// failure to elevate priority or pin a CPU is logged, never fatal.
type PriorityConfig struct {
	// Enabled requests SCHED_FIFO elevation for the worker's OS thread.
	Enabled bool
	// Priority is the SCHED_FIFO priority level (platform range, typically
	// 1-99 on Linux).
	Priority int
	// PinCPU, if >= 0, pins the worker's OS thread to that CPU core.
	PinCPU int
}

// applyRealtimeScheduling elevates the calling goroutine's underlying OS
// thread to real-time scheduling per cfg. On Linux with cgo it locks the
// goroutine to its OS thread as a side effect (required for SCHED_FIFO to
// apply to the right thread); callers that request this must never release
// that thread back to the scheduler pool for unrelated work. On other
// builds it is a no-op and locks nothing.
func applyRealtimeScheduling(cfg PriorityConfig) error {
	return platformApplyRealtimeScheduling(cfg)
}
