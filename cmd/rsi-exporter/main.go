// Command rsi-exporter runs an RSI session and exposes its Statistics as
// Prometheus metrics over /metrics: pflag/slog wiring, a promauto-backed
// registry, and graceful HTTP shutdown on signal.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/kuka-rsi/rsi-gateway/pkg/rsi"
)

type config struct {
	LocalIP     string
	LocalPort   uint16
	TimeoutMs   int
	MetricsAddr string
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

	registry := prometheus.NewRegistry()

	res := rsi.Init(rsi.Config{
		LocalIP:   cfg.LocalIP,
		LocalPort: cfg.LocalPort,
		TimeoutMs: cfg.TimeoutMs,
		Verbose:   cfg.Verbose,
		Logger:    log,
		Registry:  registry,
	})
	if !res.OK() {
		return fmt.Errorf("rsi.Init: %w", res)
	}
	defer rsi.Cleanup()

	if res := rsi.Start(); !res.OK() {
		return fmt.Errorf("rsi.Start: %w", res)
	}
	defer rsi.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		log.Info("rsi-exporter metrics listening", "address", cfg.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func parseFlags() config {
	cfg := config{}

	flag.StringVar(&cfg.LocalIP, "local-ip", "0.0.0.0", "Local address to listen on for RSI traffic")
	flag.Uint16Var(&cfg.LocalPort, "local-port", rsi.DefaultPort, "UDP port to listen on for RSI traffic")
	flag.IntVar(&cfg.TimeoutMs, "timeout-ms", 1000, "Liveness timeout in milliseconds (0 disables)")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", ":9152", "Address to serve /metrics on")
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
