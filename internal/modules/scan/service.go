package scan

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dseeker/dividend-seeker/internal/config"
	"github.com/dseeker/dividend-seeker/internal/modules/markets"
	"github.com/dseeker/dividend-seeker/internal/modules/stocks"
)

// QuoteSource fetches one ticker's quote as a feed record. Implemented by
// the yahoo client.
type QuoteSource interface {
	Candidate(ticker string) (map[string]any, error)
}

// Result summarizes one scan run.
type Result struct {
	ScanDate   string               `json:"scan_date"`
	Scanned    int                  `json:"scanned"`
	Candidates int                  `json:"candidates"`
	Synced     int                  `json:"synced"`
	Failed     []stocks.RecordError `json:"failed,omitempty"`
}

// Service scans markets for high-yield candidates and syncs them into the
// store. Fetches fan out over a bounded worker pool; everything else is
// sequential.
type Service struct {
	source   QuoteSource
	repo     *stocks.Repository
	lists    *markets.Store
	dataDir  string
	minYield float64
	workers  int
	log      zerolog.Logger
}

// NewService creates a scanner.
func NewService(source QuoteSource, repo *stocks.Repository, lists *markets.Store, cfg *config.Config, log zerolog.Logger) *Service {
	return &Service{
		source:   source,
		repo:     repo,
		lists:    lists,
		dataDir:  cfg.DataDir,
		minYield: cfg.MinYield,
		workers:  cfg.ScanWorkers,
		log:      log.With().Str("service", "scan").Logger(),
	}
}

// Run scans the given markets for scanDate, writes the per-market result
// files and the combined MAIN_LIST document, and syncs all candidates into
// the store. A market whose ticker list fails to load is skipped; the run
// still produces partial output.
func (s *Service) Run(marketNames []string, scanDate string) (*Result, error) {
	result := &Result{ScanDate: scanDate}
	var all []map[string]any

	for _, market := range marketNames {
		tickers, err := s.lists.Load(market)
		if err != nil {
			s.log.Warn().Err(err).Str("market", market).Msg("Failed to load market tickers")
			continue
		}

		s.log.Info().Str("market", market).Int("tickers", len(tickers)).Msg("Scanning market")

		candidates := s.scanTickers(market, tickers)
		result.Scanned += len(tickers)

		if len(candidates) > 0 {
			path := filepath.Join(s.dataDir, "dividends", fmt.Sprintf("%s_%s.json", scanDate, market))
			if err := SaveDocument(path, &Document{
				Market:          market,
				ScanDate:        scanDate,
				ScannedAt:       time.Now().Format(time.RFC3339),
				MinYield:        s.minYield,
				TotalCandidates: len(candidates),
				Candidates:      candidates,
			}); err != nil {
				s.log.Warn().Err(err).Str("market", market).Msg("Failed to save market results")
			}
			all = append(all, candidates...)
		}
	}

	sortByYield(all)
	result.Candidates = len(all)

	mainList := filepath.Join(s.dataDir, "candidates", MainListName)
	if err := SaveDocument(mainList, &Document{
		ScanDate:        scanDate,
		ScannedAt:       time.Now().Format(time.RFC3339),
		MinYield:        s.minYield,
		TotalCandidates: len(all),
		Stocks:          all,
	}); err != nil {
		return nil, fmt.Errorf("failed to save main list: %w", err)
	}

	sync := s.repo.Sync(all, scanDate, MainListName)
	result.Synced = sync.Synced
	result.Failed = sync.Failed

	s.log.Info().
		Str("scan_date", scanDate).
		Int("scanned", result.Scanned).
		Int("candidates", result.Candidates).
		Int("synced", result.Synced).
		Msg("Scan run complete")

	return result, nil
}

// scanTickers fetches quotes for a market's tickers over the worker pool and
// keeps those at or above the yield threshold. Completion order is not
// meaningful; the caller re-sorts.
func (s *Service) scanTickers(market string, tickers []string) []map[string]any {
	jobs := make(chan string)
	results := make(chan map[string]any)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				record, err := s.source.Candidate(ticker)
				if err != nil {
					// Failed fetches are skipped, the scan continues.
					s.log.Debug().Err(err).Str("ticker", ticker).Msg("Fetch failed, skipping")
					continue
				}

				if yield, ok := record["dividend_yield"].(float64); !ok || yield < s.minYield {
					continue
				}

				record["market"] = market
				results <- record
			}
		}()
	}

	go func() {
		for _, ticker := range tickers {
			jobs <- ticker
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var candidates []map[string]any
	for record := range results {
		candidates = append(candidates, record)
	}

	sortByYield(candidates)
	return candidates
}

func sortByYield(records []map[string]any) {
	sort.Slice(records, func(i, j int) bool {
		return yieldOf(records[i]) > yieldOf(records[j])
	})
}

func yieldOf(record map[string]any) float64 {
	if y, ok := record["dividend_yield"].(float64); ok {
		return y
	}
	return 0
}

// SyncFromFile syncs a previously written candidates document into the
// store, accepting both the flat and the tiered document shapes.
func (s *Service) SyncFromFile(path, scanDate string) (stocks.SyncResult, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return stocks.SyncResult{}, err
	}

	if scanDate == "" {
		scanDate = doc.ScanDate
	}
	if scanDate == "" {
		scanDate = time.Now().Format("2006-01-02")
	}

	return s.repo.Sync(doc.All(), scanDate, filepath.Base(path)), nil
}
