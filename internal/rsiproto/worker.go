package rsiproto

import (
	"log/slog"
	"net"
	"runtime"
	"sync"
	"time"
)

// inboundBufferSize comfortably fits one RSI cycle's sensor frame; the wire
// protocol never exceeds a few KiB per datagram.
const inboundBufferSize = 4096

// cycleBudgetMs is the nominal RSI cycle window; a cycle whose processing
// time exceeds this increments Statistics.LateResponses.
const cycleBudgetMs = 4.0

// recvPollTimeoutMs bounds how long a single RecvFrom call blocks when no
// datagram arrives, which in turn bounds how promptly Stop takes effect and
// how often the liveness timeout gets re-evaluated even during silence.
const recvPollTimeoutMs = 20

// DataCallback is invoked once per cycle in which both a cartesian and a
// joint position were parsed, outside the shared-state lock, with
// by-value snapshots.
type DataCallback func(cartesian CartesianPosition, joints JointPosition, userData any)

// ConnectionCallback is invoked on every is_connected transition, in either
// direction.
type ConnectionCallback func(connected bool, userData any)

// WorkerConfig assembles everything the network worker needs to run one
// RSI session.
type WorkerConfig struct {
	Socket   Socket
	State    *SharedState
	Priority PriorityConfig
	Logger   *slog.Logger
	// Clock overrides the worker's cycle-timing source. Tests inject a
	// clockwork.FakeClock here; production leaves it nil and gets
	// DefaultClock's real CLOCK_MONOTONIC reading.
	Clock Clock

	LivenessTimeoutMs int

	// Verbose enables the diagnostics that would otherwise be too chatty
	// for a 250 Hz loop: the slow-cycle warning, plus a debug line when
	// scheduling elevation fails.
	Verbose bool

	OnData       DataCallback
	OnConnection ConnectionCallback
	UserData     any
}

// Worker owns the UDP socket for the lifetime of one Start/Stop cycle and
// drives the receive/parse/respond loop described for the network worker:
// a single elevated-priority task, no suspension points besides the
// bounded socket poll and the few-microsecond shared-state lock.
type Worker struct {
	cfg WorkerConfig

	shutdown chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

// NewWorker constructs a Worker ready to Run.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = DefaultClock
	}
	// A zero-value PriorityConfig means no elevation and no pinning;
	// PinCPU's zero value would otherwise read as "pin to core 0".
	if cfg.Priority == (PriorityConfig{}) {
		cfg.Priority.PinCPU = -1
	}
	return &Worker{
		cfg:      cfg,
		shutdown: make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Run executes the cycle loop until Stop is called. It is meant to run on
// its own goroutine; callers join it via Stop, never by waiting on Run
// directly.
func (w *Worker) Run() {
	defer close(w.stopped)

	if err := applyRealtimeScheduling(w.cfg.Priority); err != nil && w.cfg.Verbose {
		w.cfg.Logger.Debug("rsiproto: failed to elevate worker scheduling", "error", err)
	}

	recvBuf := make([]byte, inboundBufferSize)
	respBuf := make([]byte, ResponseBufferSize)

	for {
		select {
		case <-w.shutdown:
			return
		default:
		}

		w.runCycle(recvBuf, respBuf)
		runtime.Gosched()
	}
}

func (w *Worker) runCycle(recvBuf, respBuf []byte) {
	n, addr, ok, err := w.cfg.Socket.RecvFrom(recvBuf, recvPollTimeoutMs)
	if err != nil {
		w.cfg.Logger.Warn("rsiproto: recvfrom failed", "error", err)
	}
	if ok {
		start := w.cfg.Clock.Now()
		frame, perr := ParseFrame(recvBuf[:n])
		if perr == nil {
			w.processFrame(frame, addr, start, respBuf)
		}
		// A frame with no parseable IPOC is dropped silently: no reply,
		// no state update, no statistics increment.
	}

	w.checkLiveness()
}

func (w *Worker) processFrame(frame *ParsedFrame, addr net.Addr, start time.Time, respBuf []byte) {
	nowUs := uint64(start.UnixMicro())

	correction, justConnected := w.cfg.State.RecordPositions(frame, nowUs)
	if justConnected && w.cfg.OnConnection != nil {
		w.cfg.OnConnection(true, w.cfg.UserData)
	}

	nRendered, rerr := RenderCorrection(respBuf, correction, frame.IPOCRaw)

	if frame.HasCartesian && frame.HasJoints && w.cfg.OnData != nil {
		cart, _ := w.cfg.State.GetCartesian()
		joints, _ := w.cfg.State.GetJoints()
		w.cfg.OnData(cart, joints, w.cfg.UserData)
	}

	sent := false
	switch {
	case rerr != nil:
		w.cfg.Logger.Warn("rsiproto: render correction failed", "error", rerr)
	default:
		if _, serr := w.cfg.Socket.SendTo(respBuf[:nRendered], addr); serr != nil {
			w.cfg.Logger.Warn("rsiproto: sendto failed", "error", serr)
		} else {
			sent = true
		}
	}

	processingMs := elapsedMs(w.cfg.Clock, start)
	w.cfg.State.RecordCycleStats(processingMs, cycleBudgetMs, sent)

	if w.cfg.Verbose && processingMs > cycleBudgetMs {
		w.cfg.Logger.Warn("rsiproto: slow cycle", "processing_ms", processingMs, "budget_ms", cycleBudgetMs, "ipoc", frame.IPOC)
	}
}

func (w *Worker) checkLiveness() {
	nowUs := uint64(w.cfg.Clock.Now().UnixMicro())
	if w.cfg.State.CheckLiveness(nowUs, w.cfg.LivenessTimeoutMs) && w.cfg.OnConnection != nil {
		w.cfg.OnConnection(false, w.cfg.UserData)
	}
}

// Stop signals the cycle loop to exit, waits up to one second for it to do
// so, and then closes the socket. It is safe to call more than once; calls
// after the first are no-ops.
func (w *Worker) Stop() {
	w.once.Do(func() {
		close(w.shutdown)
		select {
		case <-w.stopped:
		case <-time.After(time.Second):
		}
		_ = w.cfg.Socket.Close()
	})
}
