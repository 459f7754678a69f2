package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dewdrop/dewdrop/agent/internal/config"
	"github.com/dewdrop/dewdrop/agent/internal/outdoor"
	"github.com/dewdrop/dewdrop/agent/internal/pipeline"
	"github.com/dewdrop/dewdrop/agent/internal/report"
	"github.com/dewdrop/dewdrop/agent/internal/transport"
	"github.com/dewdrop/dewdrop/pkg/logging"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "dewdrop.yaml", "path to config file (optional)")
	envFile := flag.String("env-file", ".env", "dotenv file merged into the environment (optional)")
	logFormat := flag.String("log-format", logging.FormatJSON, "log format: json|text")
	logLevel := flag.String("log-level", "info", "log level: debug|info|warn|error")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [serial|network]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() > 1 {
		flag.Usage()
		return exitUsage
	}

	logger, err := logging.New(os.Stdout, *logFormat, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	slog.SetDefault(logger.With("run_id", uuid.NewString()))

	cfg, err := config.Load(config.Options{
		Path:    *configPath,
		EnvFile: *envFile,
		Mode:    flag.Arg(0),
	})
	if err != nil {
		slog.Error("failed to load config", "err", err)
		return exitUsage
	}

	rep, err := report.New(cfg.Report)
	if err != nil {
		slog.Error("failed to build reporter", "err", err)
		return exitUsage
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	slog.Info("dewdrop starting", "mode", cfg.Device.Mode)

	ch, err := transport.New(ctx, cfg.Device)
	if err != nil {
		slog.Error("failed to open device channel", "err", err)
		return exitFailure
	}
	defer func() {
		if err := ch.Close(); err != nil {
			slog.Warn("failed to close device channel", "err", err)
		}
	}()

	out, err := pipeline.New(ch, outdoor.New(cfg.Outdoor), rep).Run(ctx)
	if out != nil {
		logSummary(out)
	}
	if err != nil {
		slog.Error("run failed", "err", err, "elapsed", time.Since(start))
		return exitFailure
	}

	slog.Info("dewdrop run complete", "elapsed", time.Since(start))
	return exitOK
}

func logSummary(out *pipeline.Outcome) {
	f := out.Feed
	slog.Info("summary",
		"device_id", f.DeviceID,
		"indoor_temperature", f.IndoorTemperature,
		"indoor_humidity", f.IndoorHumidity,
		"indoor_dewpoint", f.IndoorDewpoint,
		"outdoor_dewpoint", f.OutdoorDewpoint,
		"dewpoint_delta", f.DewpointDelta,
		"keep_windows", f.KeepWindows,
		"humidity_alert", f.HumidityAlert,
		"light_on", out.Result.LEDOn(),
		"actuated", out.Actuated,
	)
}
