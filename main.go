package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/skillswap/internal/cascade"
	"github.com/mauv0809/skillswap/internal/config"
	"github.com/mauv0809/skillswap/internal/database"
	"github.com/mauv0809/skillswap/internal/directory"
	server "github.com/mauv0809/skillswap/internal/http"
	"github.com/mauv0809/skillswap/internal/inngest"
	"github.com/mauv0809/skillswap/internal/matchmaking"
	"github.com/mauv0809/skillswap/internal/metrics"
	"github.com/mauv0809/skillswap/internal/notifier"
	"github.com/mauv0809/skillswap/internal/notifier/slack"
	"github.com/mauv0809/skillswap/internal/pubsub"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	ctx := context.Background()

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

	redisClient, err := directory.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %s", err)
	}
	defer redisClient.Close()
	names := directory.New(redisClient)

	pubsubClient, err := pubsub.New(ctx, cfg.ProjectID)
	if err != nil {
		log.Fatalf("Failed to initialize pubsub: %s", err)
	}
	defer pubsubClient.Close()

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()

	channels := []notifier.Channel{
		{Name: "pubsub", Notifier: notifier.NewPublisher(pubsubClient)},
	}
	if cfg.Slack.Enabled() {
		channels = append(channels, notifier.Channel{
			Name:     "slack",
			Notifier: slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, false),
		})
	} else {
		log.Info("Slack is not configured, skipping the activity channel")
	}

	store := matchmaking.NewStore(db)
	engine := matchmaking.NewEngine(store, notifier.NewFanout(metricsSvc, channels...), names, metricsSvc, matchmaking.Settings{
		MaxRounds:        cfg.Negotiation.MaxRounds,
		InactivityWindow: cfg.Negotiation.InactivityWindow,
	})
	lifecycle := matchmaking.NewLifecycle(store, metricsSvc)
	cascadeHandler := cascade.New(store, metricsSvc, names)

	var inngestClient inngest.InngestClient
	if cfg.Inngest.Enabled() {
		inngestProvider, err := inngest.NewClient(cfg.Inngest)
		if err != nil {
			log.Fatalf("Failed to initialize inngest: %s", err)
		}
		inngestClient, err = inngest.New(inngestProvider, engine, cascadeHandler, cfg.Inngest.SweepCron)
		if err != nil {
			log.Fatalf("Failed to register inngest functions: %s", err)
		}
	} else {
		log.Info("Inngest is not configured, the sweep runs via POST /sweep only")
	}

	s := server.NewServer(
		engine,
		lifecycle,
		cascadeHandler,
		metricsHandler,
		pubsubClient,
		inngestClient,
		cfg.Auth.JWTSecret,
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
		log.Info("Server started", "port", cfg.Port)
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
	}

	log.Info("Server process shutting down")
}
