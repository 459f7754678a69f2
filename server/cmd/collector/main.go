// Command collector receives dewdrop sensor feeds, serves the cached NWS
// outdoor dewpoint to probes and delivers window and humidity alerts.
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
	"github.com/gorilla/mux"

	"github.com/dewdrop/dewdrop/pkg/logging"
	"github.com/dewdrop/dewdrop/server/internal/alerts"
	"github.com/dewdrop/dewdrop/server/internal/api"
	"github.com/dewdrop/dewdrop/server/internal/config"
	"github.com/dewdrop/dewdrop/server/internal/receiver"
	"github.com/dewdrop/dewdrop/server/internal/store"
	"github.com/dewdrop/dewdrop/server/internal/weather"
	"github.com/dewdrop/dewdrop/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "collector.yaml", "path to config file")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the config")
	logFormat := flag.String("log-format", logging.FormatJSON, "log format: json|text")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger, err := logging.New(os.Stdout, *logFormat, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	slog.Info("dewdrop-collector starting", "config", *configPath)

	if err := config.LoadEnvFile(*envFile); err != nil {
		slog.Error("failed to load env file", "err", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"feed_ttl", cfg.Server.Feed.TTL,
		"office", cfg.Server.Weather.Office,
		"grid_x", cfg.Server.Weather.GridX,
		"grid_y", cfg.Server.Weather.GridY,
		"alert_rules", len(cfg.Server.Alerts.Rules),
		"webhooks", len(cfg.Server.Alerts.Webhooks),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Latest feed per device with background TTL eviction.
	st := store.New(cfg.Server.Feed.TTL)
	go st.Run(ctx)

	// Outdoor dewpoint cache, refreshed from the NWS gridpoint.
	wc := cfg.Server.Weather
	dewpoint := weather.NewCache(weather.NewClient(wc), wc.Refresh, wc.Retry)
	go dewpoint.Run(ctx)

	alertEngine := alerts.New(cfg.Server.Alerts)

	apiHandler := api.New(st, alertEngine, dewpoint)

	// WebSocket hub pushes the snapshot to dashboards every 5 seconds.
	hub := ws.New(apiHandler, 5*time.Second)
	go hub.Run(ctx)

	r := mux.NewRouter()
	r.Handle("/sensor-feed", receiver.New(st, alertEngine)).Methods(http.MethodPost)
	r.Handle("/ws/stream", hub)
	r.PathPrefix("/").Handler(apiHandler)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stdout, r)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("dewdrop-collector shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	alertEngine.Wait()
}
