package rsi

import (
	"net"

	"github.com/kuka-rsi/rsi-gateway/internal/rsiproto"
)

// defaultContext is the package-level singleton the free functions below
// operate on, mirroring the original C library's single static g_context:
// one machine owns one RSI session per robot, so a process-wide default is
// the common case. Callers with a genuine need for an independent session
// construct their own *Context via NewContext instead.
var defaultContext = NewContext()

// Init initializes the default session. See Context.Init.
func Init(cfg Config) Result { return defaultContext.Init(cfg) }

// SetCallbacks binds callbacks on the default session. See
// Context.SetCallbacks.
func SetCallbacks(data DataCallback, conn ConnectionCallback, userData any) Result {
	return defaultContext.SetCallbacks(data, conn, userData)
}

// Start starts the default session. See Context.Start.
func Start() Result { return defaultContext.Start() }

// Stop stops the default session. See Context.Stop.
func Stop() Result { return defaultContext.Stop() }

// Cleanup tears down the default session. See Context.Cleanup.
func Cleanup() Result { return defaultContext.Cleanup() }

// GetCartesianPosition reads from the default session. See
// Context.GetCartesianPosition.
func GetCartesianPosition() (rsiproto.CartesianPosition, Result) {
	return defaultContext.GetCartesianPosition()
}

// GetJointPosition reads from the default session. See
// Context.GetJointPosition.
func GetJointPosition() (rsiproto.JointPosition, Result) {
	return defaultContext.GetJointPosition()
}

// SetCartesianCorrection submits a correction to the default session. See
// Context.SetCartesianCorrection.
func SetCartesianCorrection(corr rsiproto.CartesianCorrection) Result {
	return defaultContext.SetCartesianCorrection(corr)
}

// GetStatistics reads from the default session. See Context.GetStatistics.
func GetStatistics() (rsiproto.Statistics, Result) {
	return defaultContext.GetStatistics()
}

// LocalAddr returns the default session's bound socket address.
func LocalAddr() (net.Addr, error) { return defaultContext.LocalAddr() }
