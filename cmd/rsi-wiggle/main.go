// Command rsi-wiggle is a self-oscillating correction demo: it drives a
// small bounded back-and-forth motion on the X axis, translating the
// original library's app/wiggle.c pulse/zero cadence onto
// SetCartesianCorrection. Because the library itself treats the pending
// correction as sticky (see the Open Question resolutions in DESIGN.md), this demo
// is also the reference implementation of client-side one-shot behaviour:
// every pulse is followed by an explicit zero correction.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	flag "github.com/spf13/pflag"

	"github.com/kuka-rsi/rsi-gateway/pkg/rsi"
)

type config struct {
	LocalIP     string
	LocalPort   uint16
	AmplitudeMm float64
	PulseEvery  time.Duration
	PulseWidth  time.Duration
	Verbose     bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()
	log := newLogger(cfg.Verbose)

	res := rsi.Init(rsi.Config{
		LocalIP:   cfg.LocalIP,
		LocalPort: cfg.LocalPort,
		Verbose:   cfg.Verbose,
		Logger:    log,
	})
	if !res.OK() {
		return fmt.Errorf("rsi.Init: %w", res)
	}
	defer rsi.Cleanup()

	if res := rsi.Start(); !res.OK() {
		return fmt.Errorf("rsi.Start: %w", res)
	}
	defer rsi.Stop()

	log.Info("rsi-wiggle started", "amplitude_mm", cfg.AmplitudeMm, "pulse_every", cfg.PulseEvery)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ticker := time.NewTicker(cfg.PulseEvery)
	defer ticker.Stop()

	sign := 1.0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			pulse(log, cfg, sign)
			sign = -sign
		}
	}
}

// pulse submits a one-shot correction of cfg.AmplitudeMm*sign on X, holds
// it for cfg.PulseWidth, then zeros it out: the client-side pattern
// app/wiggle.c used to turn the library's sticky correction into a single
// bounded nudge per tick.
func pulse(log *slog.Logger, cfg config, sign float64) {
	if res := rsi.SetCartesianCorrection(rsi.CartesianCorrection{X: cfg.AmplitudeMm * sign}); !res.OK() {
		log.Warn("SetCartesianCorrection failed", "result", res)
		return
	}

	time.Sleep(cfg.PulseWidth)

	if res := rsi.SetCartesianCorrection(rsi.CartesianCorrection{}); !res.OK() {
		log.Warn("SetCartesianCorrection (zero) failed", "result", res)
		return
	}

	if pos, res := rsi.GetCartesianPosition(); res.OK() {
		log.Debug("wiggle pulse", "sign", sign, "x", pos.X, "ipoc", pos.IPOC)
	}
}

func parseFlags() config {
	cfg := config{}

	flag.StringVar(&cfg.LocalIP, "local-ip", "0.0.0.0", "Local address to listen on")
	flag.Uint16Var(&cfg.LocalPort, "local-port", rsi.DefaultPort, "UDP port to listen on")
	flag.Float64Var(&cfg.AmplitudeMm, "amplitude-mm", 2.0, "Correction amplitude, in millimetres")
	flag.DurationVar(&cfg.PulseEvery, "pulse-every", 500*time.Millisecond, "Time between pulses")
	flag.DurationVar(&cfg.PulseWidth, "pulse-width", 40*time.Millisecond, "How long each pulse stays nonzero before zeroing")
	flag.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose logging")

	flag.Parse()
	return cfg
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
}
