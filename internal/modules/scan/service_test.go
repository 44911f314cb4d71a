package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dseeker/dividend-seeker/internal/config"
	"github.com/dseeker/dividend-seeker/internal/database"
	"github.com/dseeker/dividend-seeker/internal/modules/markets"
	"github.com/dseeker/dividend-seeker/internal/modules/stocks"
)

// stubSource serves canned quotes and counts concurrent fetches.
type stubSource struct {
	mu         sync.Mutex
	quotes     map[string]map[string]any
	inFlight   int
	maxInUse   int
	fetchCount int
}

func (s *stubSource) Candidate(ticker string) (map[string]any, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInUse {
		s.maxInUse = s.inFlight
	}
	s.fetchCount++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	quote, ok := s.quotes[ticker]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", ticker)
	}

	// Copies keep workers from sharing the stub's map.
	record := make(map[string]any, len(quote))
	for k, v := range quote {
		record[k] = v
	}
	record["ticker"] = ticker
	return record, nil
}

func quote(yield float64) map[string]any {
	return map[string]any{"price": 10.0, "dividend_yield": yield}
}

func newTestService(t *testing.T, source QuoteSource, workers int) (*Service, *markets.Store, string) {
	t.Helper()

	dataDir := t.TempDir()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		DataDir:             dataDir,
		MinYield:            5.0,
		MaxPayoutRatio:      100.0,
		ScanWorkers:         workers,
		SnapshotMergePolicy: config.MergeOverwrite,
	}

	repo := stocks.NewRepository(db.Conn(), cfg, zerolog.Nop())
	lists := markets.NewStore(dataDir, zerolog.Nop())

	return NewService(source, repo, lists, cfg, zerolog.Nop()), lists, dataDir
}

func TestRun_FiltersByYieldAndSyncs(t *testing.T) {
	source := &stubSource{quotes: map[string]map[string]any{
		"HIGH1": quote(8.0),
		"HIGH2": quote(6.0),
		"LOW":   quote(2.0),
		"EDGE":  quote(5.0),
	}}
	svc, lists, dataDir := newTestService(t, source, 3)

	require.NoError(t, lists.Save("testmkt", []string{"HIGH1", "HIGH2", "LOW", "EDGE", "MISSING"}, ""))

	result, err := svc.Run([]string{"testmkt"}, "2025-06-01")
	require.NoError(t, err)

	assert.Equal(t, 5, result.Scanned)
	// The threshold is inclusive; failed fetches are skipped silently.
	assert.Equal(t, 3, result.Candidates)
	assert.Equal(t, 3, result.Synced)
	assert.Empty(t, result.Failed)

	// Per-market document plus the combined main list.
	marketDoc, err := LoadDocument(filepath.Join(dataDir, "dividends", "2025-06-01_testmkt.json"))
	require.NoError(t, err)
	assert.Len(t, marketDoc.Candidates, 3)
	assert.Equal(t, "testmkt", marketDoc.Market)

	mainDoc, err := LoadDocument(filepath.Join(dataDir, "candidates", MainListName))
	require.NoError(t, err)
	require.Len(t, mainDoc.Stocks, 3)

	// Sorted by yield descending, tagged with the market.
	assert.Equal(t, "HIGH1", mainDoc.Stocks[0]["ticker"])
	assert.Equal(t, "HIGH2", mainDoc.Stocks[1]["ticker"])
	assert.Equal(t, "EDGE", mainDoc.Stocks[2]["ticker"])
	assert.Equal(t, "testmkt", mainDoc.Stocks[0]["market"])
}

func TestRun_SkipsUnknownMarket(t *testing.T) {
	source := &stubSource{quotes: map[string]map[string]any{"AAA": quote(8.0)}}
	svc, lists, _ := newTestService(t, source, 2)

	require.NoError(t, lists.Save("known", []string{"AAA"}, ""))

	result, err := svc.Run([]string{"missing_market", "known"}, "2025-06-01")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Candidates)
}

func TestScanTickers_BoundedConcurrency(t *testing.T) {
	quotes := make(map[string]map[string]any)
	tickers := make([]string, 50)
	for i := range tickers {
		tickers[i] = fmt.Sprintf("T%02d", i)
		quotes[tickers[i]] = quote(6.0)
	}

	source := &stubSource{quotes: quotes}
	svc, _, _ := newTestService(t, source, 4)

	candidates := svc.scanTickers("mkt", tickers)

	assert.Len(t, candidates, 50)
	assert.Equal(t, 50, source.fetchCount)
	assert.LessOrEqual(t, source.maxInUse, 4)
}

func TestSyncFromFile_FlatShape(t *testing.T) {
	svc, _, dataDir := newTestService(t, &stubSource{}, 1)

	path := filepath.Join(dataDir, "candidates.json")
	require.NoError(t, SaveDocument(path, &Document{
		ScanDate: "2025-06-01",
		Stocks: []map[string]any{
			{"ticker": "AAA", "price": 10.0, "dividend_yield": 6.0},
		},
	}))

	result, err := svc.SyncFromFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
}

func TestSyncFromFile_TieredShape(t *testing.T) {
	svc, _, dataDir := newTestService(t, &stubSource{}, 1)

	path := filepath.Join(dataDir, "tiered.json")
	require.NoError(t, SaveDocument(path, &Document{
		ScanDate: "2025-06-01",
		Tier1:    []map[string]any{{"ticker": "AAA", "dividend_yield": 8.0}},
		Tier2:    []map[string]any{{"ticker": "BBB", "dividend_yield": 6.0}},
		Tier3:    []map[string]any{{"ticker": "CCC", "dividend_yield": 9.0, "sustainable": false}},
	}))

	result, err := svc.SyncFromFile(path, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Synced)
	assert.Empty(t, result.Failed)
}

func TestSyncFromFile_MissingFile(t *testing.T) {
	svc, _, _ := newTestService(t, &stubSource{}, 1)

	_, err := svc.SyncFromFile(filepath.Join(t.TempDir(), "nope.json"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
