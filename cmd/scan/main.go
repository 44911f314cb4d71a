package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dseeker/dividend-seeker/internal/clients/yahoo"
	"github.com/dseeker/dividend-seeker/internal/config"
	"github.com/dseeker/dividend-seeker/internal/database"
	"github.com/dseeker/dividend-seeker/internal/modules/markets"
	"github.com/dseeker/dividend-seeker/internal/modules/scan"
	"github.com/dseeker/dividend-seeker/internal/modules/stocks"
	"github.com/dseeker/dividend-seeker/pkg/logger"
)

func main() {
	updateMarkets := flag.Bool("update-markets", false, "refresh market constituent lists before scanning")
	syncFile := flag.String("sync-file", "", "skip scanning and sync an existing candidates JSON file")
	scanDate := flag.String("date", time.Now().Format("2006-01-02"), "scan date (YYYY-MM-DD)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [market ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Markets: %s\n\nFlags:\n", strings.Join(markets.Names(), ", "))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	repo := stocks.NewRepository(db.Conn(), cfg, log)
	lists := markets.NewStore(cfg.DataDir, log)
	scanner := scan.NewService(yahoo.NewClient(log), repo, lists, cfg, log)

	if *syncFile != "" {
		result, err := scanner.SyncFromFile(*syncFile, *scanDate)
		if err != nil {
			log.Fatal().Err(err).Str("file", *syncFile).Msg("Sync failed")
		}
		log.Info().
			Int("synced", result.Synced).
			Int("failed", len(result.Failed)).
			Msg("Sync complete")
		return
	}

	if *updateMarkets {
		if err := lists.RefreshAll(markets.NewFetcher(log)); err != nil {
			log.Warn().Err(err).Msg("Some market lists failed to refresh")
		}
	}

	marketNames := flag.Args()
	if len(marketNames) == 0 {
		marketNames = cfg.ScanMarkets
	}

	result, err := scanner.Run(marketNames, *scanDate)
	if err != nil {
		log.Fatal().Err(err).Msg("Scan failed")
	}

	log.Info().
		Str("date", result.ScanDate).
		Int("scanned", result.Scanned).
		Int("candidates", result.Candidates).
		Int("synced", result.Synced).
		Int("failed", len(result.Failed)).
		Msg("Scan complete")
}
