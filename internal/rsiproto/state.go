package rsiproto

import "sync"

// minResponseSentinelMs seeds Statistics.MinResponseTimeMs before the first
// cycle completes, so that "min <= avg <= max" only becomes a meaningful
// invariant once at least one sample has landed; mirrors the original
// library seeding min_response_time_ms with a large sentinel at init.
const minResponseSentinelMs = 1e9

// SharedState is the one mutable object shared between the network worker
// and client goroutines: latest positions, the pending correction, and
// running statistics. Every accessor copies its argument or result by
// value under the lock; no field is ever handed out by reference.
type SharedState struct {
	mu sync.Mutex

	cartesian    CartesianPosition
	cartesianSet bool
	joints       JointPosition
	jointsSet    bool

	correction CartesianCorrection

	stats   Statistics
	latency latencyAccumulator
}

// NewSharedState returns a freshly zeroed state block, as produced by Init.
func NewSharedState() *SharedState {
	s := &SharedState{}
	s.stats.MinResponseTimeMs = minResponseSentinelMs
	return s
}

// RecordPositions applies a parsed frame's position data, advances the
// connection's last-packet timestamp, and returns the correction pending
// for this cycle's render step. justConnected is true exactly on the cycle
// that flips is_connected from false to true.
func (s *SharedState) RecordPositions(frame *ParsedFrame, nowUs uint64) (correction CartesianCorrection, justConnected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if frame.HasCartesian {
		s.cartesian = frame.Cartesian
		s.cartesian.TimestampUs = nowUs
		s.cartesianSet = true
	}
	if frame.HasJoints {
		s.joints = frame.Joints
		s.joints.TimestampUs = nowUs
		s.jointsSet = true
	}

	if !s.stats.IsConnected {
		s.stats.IsConnected = true
		justConnected = true
	}
	s.stats.LastPacketTimestampUs = nowUs

	return s.correction, justConnected
}

// BothPositionsParsed reports whether this cycle parsed both a cartesian
// and a joint position, the gate the worker uses to decide whether to
// invoke the data callback.
func (s *SharedState) BothPositionsParsed(frame *ParsedFrame) bool {
	return frame.HasCartesian && frame.HasJoints
}

// SetCorrection overwrites the pending correction. The stored value is
// sticky: it is not cleared after the worker consumes it. A caller wanting
// one-shot behaviour submits a zero-value correction after each commanded
// motion.
func (s *SharedState) SetCorrection(c CartesianCorrection) {
	s.mu.Lock()
	s.correction = c
	s.mu.Unlock()
}

// GetCartesian returns a copy of the latest parsed cartesian position and
// whether one has ever been parsed.
func (s *SharedState) GetCartesian() (CartesianPosition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartesian, s.cartesianSet
}

// GetJoints returns a copy of the latest parsed joint position and whether
// one has ever been parsed.
func (s *SharedState) GetJoints() (JointPosition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joints, s.jointsSet
}

// GetStatistics returns a copy of the current statistics snapshot.
func (s *SharedState) GetStatistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// RecordCycleStats folds one cycle's processing time and send outcome into
// the running statistics: the latency accumulator, the late-response
// counter (processing time beyond the 4ms cycle budget), and the
// packets-received/packets-sent counters.
func (s *SharedState) RecordCycleStats(processingMs float64, lateThresholdMs float64, sent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latency.observe(processingMs)
	s.stats.AvgResponseTimeMs = s.latency.mean
	s.stats.MinResponseTimeMs = s.latency.min
	s.stats.MaxResponseTimeMs = s.latency.max

	if processingMs > lateThresholdMs {
		s.stats.LateResponses++
	}

	s.stats.PacketsReceived++
	if sent {
		s.stats.PacketsSent++
	}
}

// CheckLiveness evaluates the liveness timeout against the last observed
// packet timestamp. It returns justLost=true exactly on the cycle that
// flips is_connected from true to false; timeoutMs<=0 disables the check
// entirely, matching the original library's convention.
func (s *SharedState) CheckLiveness(nowUs uint64, timeoutMs int) (justLost bool) {
	if timeoutMs <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stats.IsConnected {
		return false
	}
	thresholdUs := uint64(timeoutMs) * 1000
	if nowUs-s.stats.LastPacketTimestampUs <= thresholdUs {
		return false
	}

	s.stats.IsConnected = false
	s.stats.ConnectionLostCount++
	return true
}
