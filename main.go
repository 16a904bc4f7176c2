package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/shuttlereg/internal/config"
	"github.com/mauv0809/shuttlereg/internal/database"
	"github.com/mauv0809/shuttlereg/internal/eligibility"
	server "github.com/mauv0809/shuttlereg/internal/http"
	"github.com/mauv0809/shuttlereg/internal/metrics"
	"github.com/mauv0809/shuttlereg/internal/notifier/slack"
	"github.com/mauv0809/shuttlereg/internal/payment"
	"github.com/mauv0809/shuttlereg/internal/pubsub"
	"github.com/mauv0809/shuttlereg/internal/receipt"
	"github.com/mauv0809/shuttlereg/internal/registration"
	"github.com/mauv0809/shuttlereg/internal/storage"
	"github.com/mauv0809/shuttlereg/internal/tournament"
	"github.com/mauv0809/shuttlereg/internal/user"
)

const tournamentCacheSize = 256

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()

	tournamentStore := tournament.New(db)
	lookup := tournament.NewCachedLookup(tournamentStore, tournamentCacheSize, cfg.TournamentTTL)
	userStore := user.New(db)

	var regOpts []registration.Option
	r2 := storage.R2Config(cfg.R2)
	if r2.Enabled() {
		uploader, err := storage.NewR2Uploader(context.Background(), r2)
		if err != nil {
			log.Fatalf("Failed to initialize receipt storage: %s", err)
		}
		regOpts = append(regOpts, registration.WithReceiptRenderer(receipt.New(uploader, lookup)))
	} else {
		log.Warn("R2 storage not configured; receipts are disabled")
	}
	registrationStore := registration.New(db, regOpts...)

	payments, err := payment.NewProvider(cfg.Payment.Provider, cfg.Payment.Secret, cfg.BaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize payment provider: %s", err)
	}
	notifier := slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)
	pubsub := pubsub.New(cfg.ProjectID)
	defer pubsub.Close()

	s := server.NewServer(
		cfg,
		tournamentStore,
		lookup,
		registrationStore,
		userStore,
		eligibility.New(),
		payments,
		notifier,
		metricsSvc,
		metricsHandler,
		pubsub,
	)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Info("Server started", "port", cfg.Port, "payments", payments.Name())
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		// Create a context with a timeout for the shutdown.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Attempt to gracefully shut down the server.
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}

		// Receipts are generated after the payment response was sent.
		if err := s.Drain(ctx); err != nil {
			log.Error("Receipts still pending at shutdown", "error", err)
		} else {
			log.Info("Pending receipts stored")
		}
	}

	log.Info("Server process shutting down")
}
