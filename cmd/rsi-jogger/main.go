// Command rsi-jogger reads line-oriented jog commands from stdin and
// issues one-shot corrections, translating the intent of the original
// library's app/jogger.c without its raw-terminal termios/conio polling
// (explicitly excluded from this repo's scope): a line here is a full
// command, not a single keystroke.
//
// Commands: "+x", "-x", "+y", "-y", "+z", "-z", "+a", "-a", "+b", "-b",
// "+c", "-c", "stop", "quit".
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	flag "github.com/spf13/pflag"

	"github.com/kuka-rsi/rsi-gateway/pkg/rsi"
)

type config struct {
	LocalIP   string
	LocalPort uint16
	StepMm    float64
	StepDeg   float64
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

	log.Info("rsi-jogger ready", "step_mm", cfg.StepMm, "step_deg", cfg.StepDeg)
	fmt.Println("commands: +x -x +y -y +z -z +a -a +b -b +c -c stop quit")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lines := make(chan string)
	go readLines(lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if jogLine(log, cfg, line) {
				return nil
			}
		}
	}
}

func readLines(out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out <- strings.TrimSpace(scanner.Text())
	}
}

// jogLine applies one jog command as a one-shot correction and reports
// whether the caller should quit.
func jogLine(log *slog.Logger, cfg config, line string) (quit bool) {
	var corr rsi.CartesianCorrection
	switch line {
	case "":
		return false
	case "quit", "exit":
		return true
	case "stop":
		// zero correction, falls through to SetCartesianCorrection below
	case "+x":
		corr.X = cfg.StepMm
	case "-x":
		corr.X = -cfg.StepMm
	case "+y":
		corr.Y = cfg.StepMm
	case "-y":
		corr.Y = -cfg.StepMm
	case "+z":
		corr.Z = cfg.StepMm
	case "-z":
		corr.Z = -cfg.StepMm
	case "+a":
		corr.A = cfg.StepDeg
	case "-a":
		corr.A = -cfg.StepDeg
	case "+b":
		corr.B = cfg.StepDeg
	case "-b":
		corr.B = -cfg.StepDeg
	case "+c":
		corr.C = cfg.StepDeg
	case "-c":
		corr.C = -cfg.StepDeg
	default:
		log.Warn("unrecognized jog command", "line", line)
		return false
	}

	if res := rsi.SetCartesianCorrection(corr); !res.OK() {
		log.Warn("SetCartesianCorrection failed", "result", res)
		return false
	}

	// One-shot: the library treats the correction as sticky, so this demo
	// re-zeroes it 20 ms later (five 4 ms RSI cycles), once the robot has
	// had a chance to apply the nudge.
	go func(applied rsi.CartesianCorrection) {
		time.Sleep(20 * time.Millisecond)
		if res := rsi.SetCartesianCorrection(rsi.CartesianCorrection{}); !res.OK() {
			log.Warn("SetCartesianCorrection (zero) failed", "result", res)
		}
	}(corr)

	return false
}

func parseFlags() config {
	cfg := config{}

	flag.StringVar(&cfg.LocalIP, "local-ip", "0.0.0.0", "Local address to listen on")
	flag.Uint16Var(&cfg.LocalPort, "local-port", rsi.DefaultPort, "UDP port to listen on")
	flag.Float64Var(&cfg.StepMm, "step-mm", 1.0, "Translation step, in millimetres")
	flag.Float64Var(&cfg.StepDeg, "step-deg", 1.0, "Rotation step, in degrees")
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
