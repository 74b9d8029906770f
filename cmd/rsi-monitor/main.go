// Command rsi-monitor is a telemetry printer: it polls the RSI session's
// cartesian position, joint position, and statistics at a fixed interval
// and prints a single-line summary, the spirit of the original library's
// app/monitor.c demo translated onto the Go facade.
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
	LocalIP   string
	LocalPort uint16
	TimeoutMs int
	PollEvery time.Duration
	Verbose   bool
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
		TimeoutMs: cfg.TimeoutMs,
		Verbose:   cfg.Verbose,
		Logger:    log,
	})
	if !res.OK() {
		return fmt.Errorf("rsi.Init: %w", res)
	}
	defer rsi.Cleanup()

	res = rsi.SetCallbacks(nil, func(connected bool, _ any) {
		log.Info("connection state changed", "connected", connected)
	}, nil)
	if !res.OK() {
		return fmt.Errorf("rsi.SetCallbacks: %w", res)
	}

	if res := rsi.Start(); !res.OK() {
		return fmt.Errorf("rsi.Start: %w", res)
	}
	defer rsi.Stop()

	log.Info("rsi-monitor listening", "local_ip", cfg.LocalIP, "local_port", cfg.LocalPort)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ticker := time.NewTicker(cfg.PollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			printSummary(log)
		}
	}
}

func printSummary(log *slog.Logger) {
	cart, res := rsi.GetCartesianPosition()
	if !res.OK() {
		log.Warn("GetCartesianPosition failed", "result", res)
		return
	}
	joints, res := rsi.GetJointPosition()
	if !res.OK() {
		log.Warn("GetJointPosition failed", "result", res)
		return
	}
	stats, res := rsi.GetStatistics()
	if !res.OK() {
		log.Warn("GetStatistics failed", "result", res)
		return
	}

	fmt.Printf(
		"ipoc=%d pos=(%.3f,%.3f,%.3f,%.3f,%.3f,%.3f) axes=%.2f connected=%v recv=%d sent=%d late=%d avg_ms=%.3f\n",
		cart.IPOC, cart.X, cart.Y, cart.Z, cart.A, cart.B, cart.C,
		joints.Axis, stats.IsConnected, stats.PacketsReceived, stats.PacketsSent,
		stats.LateResponses, stats.AvgResponseTimeMs,
	)
}

func parseFlags() config {
	cfg := config{}

	flag.StringVar(&cfg.LocalIP, "local-ip", "0.0.0.0", "Local address to listen on")
	flag.Uint16Var(&cfg.LocalPort, "local-port", rsi.DefaultPort, "UDP port to listen on")
	flag.IntVar(&cfg.TimeoutMs, "timeout-ms", 1000, "Liveness timeout in milliseconds (0 disables)")
	flag.DurationVar(&cfg.PollEvery, "poll-interval", 250*time.Millisecond, "How often to print a summary")
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
