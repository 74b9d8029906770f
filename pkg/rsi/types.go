package rsi

import "github.com/kuka-rsi/rsi-gateway/internal/rsiproto"

// These aliases re-export the wire-level data types at the public facade
// so callers need only ever import this package, never the internal codec
// package directly.
type (
	CartesianPosition   = rsiproto.CartesianPosition
	JointPosition       = rsiproto.JointPosition
	CartesianCorrection = rsiproto.CartesianCorrection
	Statistics          = rsiproto.Statistics

	// Clock is the time source Config.Clock accepts; clockwork.Clock
	// satisfies it.
	Clock = rsiproto.Clock
)
