package rsiproto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSharedState_RecordPositions_ConnectionEstablishmentEdge(t *testing.T) {
	s := NewSharedState()

	frame := &ParsedFrame{HasCartesian: true, HasJoints: true, IPOC: 1}
	_, justConnected := s.RecordPositions(frame, 1000)
	require.True(t, justConnected, "first successful parse must flip is_connected")

	_, justConnected = s.RecordPositions(frame, 2000)
	require.False(t, justConnected, "already connected, no second transition")

	stats := s.GetStatistics()
	require.True(t, stats.IsConnected)
	require.Equal(t, uint64(2000), stats.LastPacketTimestampUs)
}

func TestSharedState_RecordPositions_MissingPositionLeavesOldData(t *testing.T) {
	s := NewSharedState()

	s.RecordPositions(&ParsedFrame{
		HasCartesian: true,
		Cartesian:    CartesianPosition{X: 1, Y: 2, Z: 3},
		HasJoints:    true,
	}, 100)

	s.RecordPositions(&ParsedFrame{HasCartesian: false, HasJoints: false}, 200)

	cart, ok := s.GetCartesian()
	require.True(t, ok)
	require.Equal(t, 1.0, cart.X)
}

func TestSharedState_SetCorrection_IsSticky(t *testing.T) {
	s := NewSharedState()
	s.SetCorrection(CartesianCorrection{X: 5})

	corr, _ := s.RecordPositions(&ParsedFrame{}, 1)
	require.Equal(t, 5.0, corr.X)

	corr, _ = s.RecordPositions(&ParsedFrame{}, 2)
	require.Equal(t, 5.0, corr.X, "correction is sticky until explicitly overwritten")
}

func TestSharedState_RecordCycleStats_MinAvgMaxOrdering(t *testing.T) {
	s := NewSharedState()

	s.RecordCycleStats(1.0, cycleBudgetMs, true)
	s.RecordCycleStats(5.0, cycleBudgetMs, true)
	s.RecordCycleStats(3.0, cycleBudgetMs, false)

	stats := s.GetStatistics()
	require.LessOrEqual(t, stats.MinResponseTimeMs, stats.AvgResponseTimeMs)
	require.LessOrEqual(t, stats.AvgResponseTimeMs, stats.MaxResponseTimeMs)
	require.Equal(t, 1.0, stats.MinResponseTimeMs)
	require.Equal(t, 5.0, stats.MaxResponseTimeMs)
	require.Equal(t, uint64(3), stats.PacketsReceived)
	require.Equal(t, uint64(2), stats.PacketsSent)
	require.Equal(t, uint64(1), stats.LateResponses, "only the 5ms cycle exceeds the 4ms budget")
}

func TestSharedState_CheckLiveness_TimeoutDisabled(t *testing.T) {
	s := NewSharedState()
	s.RecordPositions(&ParsedFrame{}, 0)

	require.False(t, s.CheckLiveness(1_000_000_000, 0))
}

func TestSharedState_CheckLiveness_FlipsOnTimeoutThenRecoversOnNextPacket(t *testing.T) {
	s := NewSharedState()
	s.RecordPositions(&ParsedFrame{}, 0)

	require.False(t, s.CheckLiveness(1000, 100)) // 1000us < 100ms threshold
	require.True(t, s.CheckLiveness(200_000, 100))
	require.False(t, s.GetStatistics().IsConnected)
	require.Equal(t, uint64(1), s.GetStatistics().ConnectionLostCount)

	_, justConnected := s.RecordPositions(&ParsedFrame{}, 200_001)
	require.True(t, justConnected, "next inbound packet must flip the flag back")
}
