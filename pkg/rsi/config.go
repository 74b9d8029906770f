package rsi

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kuka-rsi/rsi-gateway/internal/rsiproto"
)

// DefaultPort is the RSI protocol's conventional UDP port.
const DefaultPort uint16 = 59152

// Config is the exhaustive set of options accepted by Init. LocalIP,
// LocalPort, TimeoutMs and Verbose are the original C library's four
// config fields; Logger, Clock and Registry are the Go-native ambient
// additions described for the control surface.
type Config struct {
	// LocalIP is the address to bind the UDP socket to. "0.0.0.0" (the
	// zero value) binds to every interface.
	LocalIP string
	// LocalPort is the UDP port to listen on. 0 binds to an OS-assigned
	// ephemeral port, per UDP convention; use DefaultConfig() or
	// DefaultPort for the RSI-conventional 59152.
	LocalPort uint16
	// TimeoutMs is the liveness timeout. 0 disables connection-loss
	// detection entirely.
	TimeoutMs int
	// Verbose enables extra diagnostics: lifecycle and connection-established
	// lines at slog.Debug, a slog.Warn per slow cycle and per connection
	// loss, and a slog.Debug line when scheduling elevation fails.
	// Socket-option failures are not logged.
	Verbose bool

	// Logger receives all diagnostic output. Defaults to slog.Default().
	Logger *slog.Logger
	// Clock overrides the worker's monotonic time source. Tests inject a
	// clockwork.Clock here; production leaves it nil for the real
	// CLOCK_MONOTONIC reading.
	Clock Clock
	// Registry, if non-nil, causes Start to mirror Statistics into it on a
	// background ticker for the lifetime of the session. Left nil, no
	// metrics are registered.
	Registry prometheus.Registerer
}

// DefaultConfig returns the configuration Init installs when the caller
// passes a zero-value Config: listen on every interface on DefaultPort,
// liveness detection disabled, non-verbose.
func DefaultConfig() Config {
	return Config{
		LocalIP:   "0.0.0.0",
		LocalPort: DefaultPort,
		TimeoutMs: 0,
		Verbose:   false,
	}
}

// withDefaults fills in the zero-value fields of cfg the way Init's C
// counterpart falls back to its compiled-in defaults.
// A zero LocalPort is intentionally left alone rather than defaulted to
// DefaultPort: it already has a standard meaning to the UDP stack (bind to
// an OS-assigned ephemeral port), which tests rely on to avoid colliding
// on a fixed port. Production callers get DefaultPort by starting from
// DefaultConfig() rather than a bare zero-value Config.
func withDefaults(cfg Config) Config {
	if cfg.LocalIP == "" {
		cfg.LocalIP = "0.0.0.0"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = rsiproto.DefaultClock
	}
	return cfg
}
