package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mszylkowski/reactionsbackend/cliparse"
	"github.com/mszylkowski/reactionsbackend/events"
	"github.com/mszylkowski/reactionsbackend/hub"
	"github.com/mszylkowski/reactionsbackend/router"
	"github.com/mszylkowski/reactionsbackend/store"
)

const shutdownTimeout = 5 * time.Second

func main() {
	var err error

	// .env values never override variables already set
	if err = cliparse.LoadEnv(); err != nil {
		slog.Error("Error loading env file", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open poll store
	pollStore, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("poll store setup failed", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer pollStore.Close()

	// Connect vote event publisher
	publisher, err := events.Connect(cfg.AMQPURL, cfg.AMQPQueue)
	if err != nil {
		slog.Error("vote event publisher setup failed", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	// Start live update hub
	liveHub := hub.New()
	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		liveHub.Run(hubCtx)
		close(hubDone)
	}()

	// Create server
	server := http.Server{
		Handler: router.NewRouter(router.Deps{
			Store:     pollStore,
			Hub:       liveHub,
			Publisher: publisher,
			Config:    cfg,
		}),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "store", cfg.StoreBackend)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed")
	}

	// Shutdown does not wait for hijacked websocket connections
	stopHub()
	<-hubDone
}

func newLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if format == cliparse.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
