package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dseeker/dividend-seeker/internal/clients/yahoo"
	"github.com/dseeker/dividend-seeker/internal/config"
	"github.com/dseeker/dividend-seeker/internal/database"
	"github.com/dseeker/dividend-seeker/internal/modules/analysis"
	"github.com/dseeker/dividend-seeker/internal/modules/markets"
	"github.com/dseeker/dividend-seeker/internal/modules/scan"
	"github.com/dseeker/dividend-seeker/internal/modules/stocks"
	"github.com/dseeker/dividend-seeker/internal/scheduler"
	"github.com/dseeker/dividend-seeker/internal/server"
	"github.com/dseeker/dividend-seeker/pkg/logger"
)

func main() {
	// Load configuration first so the logger honours LOG_LEVEL
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Dividend Seeker")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Wire modules
	quotes := yahoo.NewClient(log)
	repo := stocks.NewRepository(db.Conn(), cfg, log)
	queries := stocks.NewQueryRepository(db.Conn(), cfg.MinYield, log)
	lists := markets.NewStore(cfg.DataDir, log)
	scanner := scan.NewService(quotes, repo, lists, cfg, log)

	analyzer := analysis.NewService(
		quotes,
		analysis.NewCache(cfg.DataDir, cfg.AnalysisCacheTTL),
		log,
	)

	handlers := stocks.NewHandlers(queries, analyzer, cfg.MinYield, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	scanJob := scan.NewJob(scanner, cfg.ScanMarkets, log)
	if err := sched.AddJob(cfg.ScanSchedule, scanJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register scan job")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DB:        db,
		Config:    cfg,
		Stocks:    handlers,
		Scheduler: sched,
		ScanJob:   scanJob,
		DevMode:   cfg.DevMode,
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
