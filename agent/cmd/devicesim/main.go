// Command devicesim serves a simulated dewdrop sensor board over HTTP for
// bench-testing the probe in network mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"github.com/dewdrop/dewdrop/pkg/devicesim"
	"github.com/dewdrop/dewdrop/pkg/logging"
)

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	id := flag.Uint64("id", 1, "device id")
	temperature := flag.Float64("temperature", 21.5, "reported temperature (°C)")
	humidity := flag.Float64("humidity", 55, "reported relative humidity (%)")
	warmup := flag.Int("warmup", 0, "data requests answered with the sentinel before readings")
	failures := flag.Int("failures", 0, "requests answered with 503 before serving")
	led := flag.Bool("led", false, "initial warning light state")
	logFormat := flag.String("log-format", logging.FormatText, "log format: json|text")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger, err := logging.New(os.Stderr, *logFormat, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	dev := devicesim.New(*id, *temperature, *humidity,
		devicesim.WithWarmup(*warmup),
		devicesim.WithFailures(*failures),
		devicesim.WithLED(*led),
	)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           handlers.LoggingHandler(os.Stdout, dev.Router()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		slog.Info("devicesim listening", "addr", *addr, "reading", dev.Line())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("devicesim server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	slog.Info("devicesim stopped", "commands", dev.Commands(), "led", dev.LED())
}
