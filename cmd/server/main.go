// papertrade is a mock trading platform: an append-only transaction
// ledger with derived portfolio valuation, driven by a synthetic market
// data feed.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stavrod/papertrade/internal/config"
	"github.com/stavrod/papertrade/internal/di"
	"github.com/stavrod/papertrade/internal/modules/marketdata"
	"github.com/stavrod/papertrade/internal/scheduler"
	"github.com/stavrod/papertrade/internal/server"
	"github.com/stavrod/papertrade/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Dur("tick_interval", cfg.TickInterval).
		Msg("Starting papertrade")

	container, err := di.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer container.Close()

	holderID, err := container.Bootstrap()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap demo holder")
	}
	log.Info().Str("holder_id", holderID).Msg("Demo holder ready")

	sched := scheduler.New(log)
	if err := sched.AddInterval(cfg.TickInterval, marketdata.NewTickJob(container.Feed)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register market tick job")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
	}

	// Teardown order: stop producing ticks, drain HTTP, close the feed
	// and its subscriber channels, then the container closes the
	// databases.
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("papertrade stopped")
}
