package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wealthpulse/signals/internal/config"
	"github.com/wealthpulse/signals/internal/database"
	"github.com/wealthpulse/signals/internal/metrics"
	"github.com/wealthpulse/signals/internal/modules/snapshot"
	"github.com/wealthpulse/signals/internal/scheduler"
	"github.com/wealthpulse/signals/internal/server"
	"github.com/wealthpulse/signals/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting WealthPulse signals engine")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(snapshot.InitSchema); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Sector proxy mapping (optional)
	sectorMap, err := config.LoadSectorMap(cfg.SectorMapPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load sector map")
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	engineMetrics := metrics.New(registry)

	// Pipeline wiring
	repo := snapshot.NewRepository(db.Conn(), log)
	provider := snapshot.NewSQLiteProvider(db.Conn(), cfg.LookbackDays)
	runner := snapshot.NewRunner(provider, repo, engineMetrics, snapshot.RunnerParams{
		MarketTicker:            cfg.MarketTicker,
		SectorProxies:           sectorMap.Proxies,
		SectorProxyByTicker:     sectorMap.Tickers,
		FreshDays:               cfg.FreshDays,
		InsiderMinValue:         cfg.InsiderMinValue,
		TopN:                    cfg.TopN,
		BuyThreshold:            cfg.BuyThreshold,
		AvoidThreshold:          cfg.AvoidThreshold,
		PicksPerSegment:         cfg.PicksPerSegment,
		SocialEnabled:           cfg.SocialEnabled,
		SocialVelocityThreshold: cfg.SocialVelocityThreshold,
		SocialMinMentions:       cfg.SocialMinMentions,
	}, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	snapshotJob := scheduler.NewSnapshotJob(runner, log)
	if err := sched.AddJob(cfg.SnapshotCron, snapshotJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot job")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:        cfg.Port,
		Log:         log,
		Repo:        repo,
		Registry:    registry,
		Scheduler:   sched,
		SnapshotJob: snapshotJob,
		DevMode:     cfg.DevMode,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
