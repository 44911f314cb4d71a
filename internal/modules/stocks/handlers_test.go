package stocks

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	report any
	cached bool
	err    error
}

func (s *stubAnalyzer) Analyze(ticker string) (any, bool, error) {
	return s.report, s.cached, s.err
}

func newTestServer(t *testing.T, analyzer Analyzer) (*httptest.Server, *Repository) {
	queries, repo := newTestQueries(t)
	handlers := NewHandlers(queries, analyzer, 5.0, zerolog.Nop())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		handlers.Routes(r)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv, repo
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))

	return resp.StatusCode
}

func TestHandleStats_EmptyStore(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var stats Stats
	code := getJSON(t, srv.URL+"/api/stats", &stats)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, stats.TotalStocks)
	assert.Equal(t, 0.0, stats.AvgYield)
	assert.Nil(t, stats.LastScan)
}

func TestHandleStocks_DefaultMinYield(t *testing.T) {
	srv, repo := newTestServer(t, nil)

	seedSnapshot(t, repo, "HIGH", "2025-06-01", 8.0, nil, nil)
	seedSnapshot(t, repo, "LOW", "2025-06-01", 2.0, nil, nil)

	var views []StockView
	code := getJSON(t, srv.URL+"/api/stocks", &views)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, views, 1)
	assert.Equal(t, "HIGH", views[0].Ticker)
}

func TestHandleStocks_QueryParams(t *testing.T) {
	srv, repo := newTestServer(t, nil)

	seedSnapshot(t, repo, "AAA", "2025-06-01", 3.0, nil, nil)
	seedSnapshot(t, repo, "BBB", "2025-06-01", 6.0, nil, nil)

	var views []StockView
	code := getJSON(t, srv.URL+"/api/stocks?min_yield=1&sort=yield&limit=1", &views)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, views, 1)
	assert.Equal(t, "BBB", views[0].Ticker)
}

func TestHandleStockDetail_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var body map[string]string
	code := getJSON(t, srv.URL+"/api/stock/NOPE", &body)

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Stock not found", body["error"])
}

func TestHandleStockDetail(t *testing.T) {
	srv, repo := newTestServer(t, nil)

	seedSnapshot(t, repo, "AAA", "2025-06-01", 6.0, nil, nil)

	var detail TickerDetail
	code := getJSON(t, srv.URL+"/api/stock/AAA", &detail)

	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, detail.Current)
	assert.Equal(t, "AAA", detail.Current.Ticker)
	assert.Len(t, detail.History, 1)
}

func TestHandleStockFull_WithAnalyzer(t *testing.T) {
	analyzer := &stubAnalyzer{report: map[string]any{"summary": "stub"}, cached: true}
	srv, repo := newTestServer(t, analyzer)

	seedSnapshot(t, repo, "AAA", "2025-06-01", 6.0, nil, nil)

	var body map[string]any
	code := getJSON(t, srv.URL+"/api/stock/AAA/full", &body)

	assert.Equal(t, http.StatusOK, code)
	assert.NotNil(t, body["stock"])
	assert.Equal(t, true, body["cached"])
	analysis, ok := body["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "stub", analysis["summary"])
}

func TestHandleStockFull_AnalyzerFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: fmt.Errorf("feed unavailable")}
	srv, repo := newTestServer(t, analyzer)

	seedSnapshot(t, repo, "AAA", "2025-06-01", 6.0, nil, nil)

	var body map[string]any
	code := getJSON(t, srv.URL+"/api/stock/AAA/full", &body)

	// Stock data still comes back when the analysis fails.
	assert.Equal(t, http.StatusOK, code)
	assert.NotNil(t, body["stock"])
	analysis, ok := body["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "feed unavailable", analysis["error"])
	assert.Equal(t, "AAA", analysis["ticker"])
}

func TestHandleMarkets(t *testing.T) {
	srv, repo := newTestServer(t, nil)

	require.NoError(t, repo.UpsertStock(Stock{Ticker: "M1", Market: "milan"}))
	seedSnapshot(t, repo, "M1", "2025-06-01", 6.0, nil, nil)

	var breakdown []MarketStats
	code := getJSON(t, srv.URL+"/api/markets", &breakdown)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, breakdown, 1)
	assert.Equal(t, "milan", breakdown[0].Market)
}

func TestHandleTopN(t *testing.T) {
	srv, repo := newTestServer(t, nil)

	seedSnapshot(t, repo, "AAA", "2025-06-01", 6.0, nil, nil)
	seedSnapshot(t, repo, "BBB", "2025-06-01", 9.0, nil, nil)

	var views []StockView
	code := getJSON(t, srv.URL+"/api/top/1", &views)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, views, 1)
	assert.Equal(t, "BBB", views[0].Ticker)
}

func TestHandleTopN_InvalidCount(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	for _, n := range []string{"0", "-3", "abc"} {
		var body map[string]string
		code := getJSON(t, srv.URL+"/api/top/"+n, &body)

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid count", body["error"])
	}
}

func TestHandleTopScores(t *testing.T) {
	srv, repo := newTestServer(t, nil)

	seedSnapshot(t, repo, "AAA", "2025-06-01", 6.0, score(4), score(5))
	seedSnapshot(t, repo, "BBB", "2025-06-01", 9.0, nil, nil)

	var views []StockView
	code := getJSON(t, srv.URL+"/api/top-scores?min_yield=0", &views)

	assert.Equal(t, http.StatusOK, code)
	require.Len(t, views, 1)
	assert.Equal(t, "AAA", views[0].Ticker)
	require.NotNil(t, views[0].TotalScore)
	assert.Equal(t, 9.0, *views[0].TotalScore)
}
