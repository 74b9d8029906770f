// Package rsi is the public control surface for an RSI session: lifecycle
// (Init/Start/Stop/Cleanup), callback registration, state accessors, and
// correction submission. It is a thin facade over internal/rsiproto, which
// does the wire-level work; this package's job is the state machine and
// the process-wide singleton the original C library exposed as a single
// static context.
package rsi

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/kuka-rsi/rsi-gateway/internal/metrics"
	"github.com/kuka-rsi/rsi-gateway/internal/rsiproto"
)

// DataCallback is invoked once per cycle in which both a cartesian and a
// joint position were parsed.
type DataCallback = rsiproto.DataCallback

// ConnectionCallback is invoked on every connected/disconnected transition.
type ConnectionCallback = rsiproto.ConnectionCallback

// metricsTickInterval is how often a Context with a non-nil
// Config.Registry refreshes its mirrored gauges. It runs on its own
// goroutine, entirely outside the worker's per-cycle lock.
const metricsTickInterval = 250 * time.Millisecond

// Context is one RSI session: the socket, the worker, the shared state,
// and the two lifecycle flags (initialized/running) the original library
// kept in its static g_context. Most callers never construct one directly;
// they use the package-level facade functions (Init, Start, ...), which
// operate on a single default Context. The type is exported so a test, or
// an unusual caller that genuinely needs an independent session, can
// construct its own instance instead of reaching for a global.
type Context struct {
	mu          sync.Mutex
	initialized bool
	running     bool

	cfg   Config
	state *rsiproto.SharedState

	socket rsiproto.Socket
	worker *rsiproto.Worker

	dataCB   DataCallback
	connCB   ConnectionCallback
	userData any

	metricsCollector *metrics.Collector
	metricsStop      chan struct{}
	metricsDone      chan struct{}
}

// NewContext returns an uninitialized Context.
func NewContext() *Context {
	return &Context{}
}

// Init transitions uninitialized -> initialized: it zeroes the session
// state, installs cfg (defaulting any zero-value fields), and seeds the
// statistics' min-response sentinel. It is an error to Init twice without
// an intervening Cleanup.
func (c *Context) Init(cfg Config) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return AlreadyRunning
	}

	c.cfg = withDefaults(cfg)
	c.state = rsiproto.NewSharedState()
	c.dataCB = nil
	c.connCB = nil
	c.userData = nil
	c.initialized = true
	c.running = false

	if c.cfg.Verbose {
		c.cfg.Logger.Debug("rsi: initialized", "local_ip", c.cfg.LocalIP, "local_port", c.cfg.LocalPort, "timeout_ms", c.cfg.TimeoutMs)
	}
	return Success
}

// SetCallbacks binds the data and connection callbacks plus an opaque
// userData value passed back on every invocation. It may only be called
// while initialized and not running.
func (c *Context) SetCallbacks(data DataCallback, conn ConnectionCallback, userData any) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return InitFailed
	}
	if c.running {
		return AlreadyRunning
	}

	c.dataCB = data
	c.connCB = conn
	c.userData = userData
	return Success
}

// Start transitions initialized -> running: it opens the UDP socket and
// launches the network worker goroutine.
func (c *Context) Start() Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return InitFailed
	}
	if c.running {
		return AlreadyRunning
	}

	addr := net.JoinHostPort(c.cfg.LocalIP, strconv.Itoa(int(c.cfg.LocalPort)))
	sock, err := rsiproto.NewSocket(rsiproto.DefaultSocketConfig(addr))
	if err != nil {
		c.cfg.Logger.Error("rsi: failed to open socket", "address", addr, "error", err)
		return SocketFailed
	}

	worker := rsiproto.NewWorker(rsiproto.WorkerConfig{
		Socket: sock,
		State:  c.state,
		Priority: rsiproto.PriorityConfig{
			Enabled:  true,
			Priority: 80,
			PinCPU:   -1,
		},
		Logger:            c.cfg.Logger,
		Clock:             c.cfg.Clock,
		LivenessTimeoutMs: c.cfg.TimeoutMs,
		Verbose:           c.cfg.Verbose,
		OnData:            c.dataCB,
		OnConnection:      c.wrapConnectionCallback(),
		UserData:          c.userData,
	})

	c.socket = sock
	c.worker = worker
	c.running = true

	go worker.Run()

	if c.cfg.Registry != nil {
		c.metricsCollector = metrics.New(c.cfg.Registry)
		c.metricsStop = make(chan struct{})
		c.metricsDone = make(chan struct{})
		go c.runMetricsTicker()
	}

	if c.cfg.Verbose {
		c.cfg.Logger.Debug("rsi: started", "address", sock.LocalAddr())
	}
	return Success
}

// wrapConnectionCallback adapts the user's ConnectionCallback with a
// verbose log line on every transition, matching the original library's
// "connection lost" console message under its verbose flag.
func (c *Context) wrapConnectionCallback() rsiproto.ConnectionCallback {
	return func(connected bool, userData any) {
		if c.cfg.Verbose {
			if connected {
				c.cfg.Logger.Debug("rsi: connection established")
			} else {
				c.cfg.Logger.Warn("rsi: connection lost")
			}
		}
		if c.connCB != nil {
			c.connCB(connected, userData)
		}
	}
}

func (c *Context) runMetricsTicker() {
	defer close(c.metricsDone)
	ticker := time.NewTicker(metricsTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.metricsStop:
			return
		case <-ticker.C:
			c.metricsCollector.Update(c.state.GetStatistics())
		}
	}
}

// Stop transitions running -> initialized: it signals the worker to shut
// down, joins it (with the 1-second budget rsiproto.Worker.Stop enforces),
// and closes the socket.
func (c *Context) Stop() Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return InitFailed
	}
	if !c.running {
		return NotRunning
	}

	c.worker.Stop()

	if c.metricsStop != nil {
		close(c.metricsStop)
		<-c.metricsDone
		c.metricsCollector = nil
		c.metricsStop = nil
		c.metricsDone = nil
	}

	c.worker = nil
	c.socket = nil
	c.running = false

	if c.cfg.Verbose {
		c.cfg.Logger.Debug("rsi: stopped")
	}
	return Success
}

// Cleanup transitions initialized -> uninitialized, releasing the session
// so a subsequent Init can start fresh. It is an error to Cleanup while
// running; Stop first.
func (c *Context) Cleanup() Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return InitFailed
	}
	if c.running {
		return AlreadyRunning
	}

	// Reset every field except mu itself: *c = Context{} would zero the
	// mutex out from under the lock this method is still holding, and the
	// deferred Unlock above would then panic on an already-unlocked lock.
	c.initialized = false
	c.cfg = Config{}
	c.state = nil
	c.socket = nil
	c.worker = nil
	c.dataCB = nil
	c.connCB = nil
	c.userData = nil
	c.metricsCollector = nil
	c.metricsStop = nil
	c.metricsDone = nil
	return Success
}

// GetCartesianPosition returns a copy of the latest parsed cartesian
// position. It is only valid while running.
func (c *Context) GetCartesianPosition() (rsiproto.CartesianPosition, Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return rsiproto.CartesianPosition{}, InitFailed
	}
	if !c.running {
		return rsiproto.CartesianPosition{}, NotRunning
	}
	pos, _ := c.state.GetCartesian()
	return pos, Success
}

// GetJointPosition returns a copy of the latest parsed joint position. It
// is only valid while running.
func (c *Context) GetJointPosition() (rsiproto.JointPosition, Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return rsiproto.JointPosition{}, InitFailed
	}
	if !c.running {
		return rsiproto.JointPosition{}, NotRunning
	}
	pos, _ := c.state.GetJoints()
	return pos, Success
}

// SetCartesianCorrection overwrites the pending correction, sticky until
// the next SetCartesianCorrection call. It is only valid while running.
func (c *Context) SetCartesianCorrection(corr rsiproto.CartesianCorrection) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return InitFailed
	}
	if !c.running {
		return NotRunning
	}
	c.state.SetCorrection(corr)
	return Success
}

// GetStatistics returns a copy of the current statistics snapshot. It is
// only valid while running.
func (c *Context) GetStatistics() (rsiproto.Statistics, Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return rsiproto.Statistics{}, InitFailed
	}
	if !c.running {
		return rsiproto.Statistics{}, NotRunning
	}
	return c.state.GetStatistics(), Success
}

// LocalAddr returns the bound socket's address, for callers (such as
// cmd/rsi-exporter or tests) that need to know an ephemerally-assigned
// port. It returns an error if the session is not running.
func (c *Context) LocalAddr() (net.Addr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, fmt.Errorf("rsi: %w", NotRunning)
	}
	return c.socket.LocalAddr(), nil
}
