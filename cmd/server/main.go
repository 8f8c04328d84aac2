package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/court-booking-engine/internal/app"
	"github.com/nekogravitycat/court-booking-engine/internal/config"
	"github.com/nekogravitycat/court-booking-engine/internal/db"
	"github.com/nekogravitycat/court-booking-engine/internal/notify"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	app.SetupLogger(cfg.IsProduction, cfg.LogLevel)

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate db")
	}

	// Notifications go to RabbitMQ when configured, otherwise to the log.
	var notifier notify.Notifier = notify.NewLogNotifier(log.Logger)
	if cfg.RabbitURL != "" {
		publisher, err := notify.NewPublisher(cfg.RabbitURL, cfg.BookingExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
		defer publisher.Close()
		notifier = publisher
		log.Info().Str("exchange", cfg.BookingExchange).Msg("publishing booking events to rabbitmq")
	}

	container := app.NewContainer(app.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		DBPool:             pool,
		JWTSecret:          cfg.JWTSecret,
		JWTTTL:             cfg.JWTAccessTokenTTL,
		Notifier:           notifier,
		Location:           cfg.Location,
		PendingWindow:      cfg.PendingWindow,
		CleanupTimeout:     cfg.CleanupTimeout,
		SweepInterval:      cfg.SweepInterval,
		CancellationCutoff: cfg.CancellationCutoff,
		AutoComplete:       cfg.AutoComplete,
	})

	// Pending-window monitor
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		container.Monitor.Run(ctx)
	}()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	wg.Wait()

	log.Info().Msg("server exited gracefully")
}
