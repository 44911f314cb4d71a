package stocks

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Analyzer produces (and caches) a per-ticker analysis document. Implemented
// by the analysis module.
type Analyzer interface {
	Analyze(ticker string) (analysis any, cached bool, err error)
}

// Handlers contains HTTP handlers for the stock read API.
type Handlers struct {
	queries         *QueryRepository
	analyzer        Analyzer
	defaultMinYield float64
	log             zerolog.Logger
}

// NewHandlers creates the stock API handlers. analyzer may be nil, in which
// case the /full endpoint reports the analysis as unavailable.
func NewHandlers(queries *QueryRepository, analyzer Analyzer, defaultMinYield float64, log zerolog.Logger) *Handlers {
	return &Handlers{
		queries:         queries,
		analyzer:        analyzer,
		defaultMinYield: defaultMinYield,
		log:             log.With().Str("handler", "stocks").Logger(),
	}
}

// Routes mounts the stock API routes.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/stats", h.HandleStats)
	r.Get("/stocks", h.HandleStocks)
	r.Get("/top-scores", h.HandleTopScores)
	r.Get("/stock/{ticker}", h.HandleStockDetail)
	r.Get("/stock/{ticker}/full", h.HandleStockFull)
	r.Get("/markets", h.HandleMarkets)
	r.Get("/top/{n}", h.HandleTopN)
}

// HandleStats returns dashboard stats.
// GET /api/stats
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queries.Stats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build stats")
		h.writeError(w, http.StatusInternalServerError, "Failed to build stats")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// HandleStocks returns the filtered, sorted latest-snapshot list.
// GET /api/stocks?min_yield&market&sustainable&min_div_score&min_cap_score&asset_type&stocks_only&sort&limit
func (h *Handlers) HandleStocks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := Filter{
		MinYield:    queryFloat(q.Get("min_yield"), h.defaultMinYield),
		Market:      q.Get("market"),
		Sustainable: q.Get("sustainable") == "true",
		MinDivScore: queryFloat(q.Get("min_div_score"), 0),
		MinCapScore: queryFloat(q.Get("min_cap_score"), 0),
		AssetType:   q.Get("asset_type"),
		StocksOnly:  q.Get("stocks_only") == "true",
		SortBy:      q.Get("sort"),
		Limit:       queryInt(q.Get("limit"), DefaultLimit),
	}

	views, err := h.queries.LatestSnapshots(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query stocks")
		h.writeError(w, http.StatusInternalServerError, "Failed to query stocks")
		return
	}

	h.writeJSON(w, http.StatusOK, views)
}

// HandleTopScores returns tickers ranked by combined score.
// GET /api/top-scores?limit&min_yield
func (h *Handlers) HandleTopScores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	views, err := h.queries.TopByCombinedScore(
		queryInt(q.Get("limit"), 20),
		queryFloat(q.Get("min_yield"), h.defaultMinYield),
	)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query top scores")
		h.writeError(w, http.StatusInternalServerError, "Failed to query top scores")
		return
	}

	h.writeJSON(w, http.StatusOK, views)
}

// HandleStockDetail returns the per-ticker detail view.
// GET /api/stock/{ticker}
func (h *Handlers) HandleStockDetail(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	detail, err := h.queries.TickerDetail(ticker)
	if errors.Is(err, ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Stock not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to query stock detail")
		h.writeError(w, http.StatusInternalServerError, "Failed to query stock detail")
		return
	}

	h.writeJSON(w, http.StatusOK, detail)
}

// HandleStockFull returns stock data plus a cached-or-fresh analysis.
// GET /api/stock/{ticker}/full
func (h *Handlers) HandleStockFull(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	detail, err := h.queries.TickerDetail(ticker)
	if errors.Is(err, ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Stock not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to query stock detail")
		h.writeError(w, http.StatusInternalServerError, "Failed to query stock detail")
		return
	}

	response := map[string]any{
		"stock":    detail.Current,
		"analysis": nil,
		"cached":   false,
	}

	if h.analyzer != nil {
		analysis, cached, err := h.analyzer.Analyze(ticker)
		if err != nil {
			// A failed analysis still returns the stock data.
			h.log.Warn().Err(err).Str("ticker", ticker).Msg("Analysis failed")
			response["analysis"] = map[string]string{"error": err.Error(), "ticker": ticker}
		} else {
			response["analysis"] = analysis
			response["cached"] = cached
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleMarkets returns the market breakdown.
// GET /api/markets
func (h *Handlers) HandleMarkets(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.queries.MarketBreakdown()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query markets")
		h.writeError(w, http.StatusInternalServerError, "Failed to query markets")
		return
	}

	h.writeJSON(w, http.StatusOK, breakdown)
}

// HandleTopN returns the top n tickers by yield.
// GET /api/top/{n}
func (h *Handlers) HandleTopN(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		h.writeError(w, http.StatusBadRequest, "Invalid count")
		return
	}

	views, err := h.queries.TopByYield(n)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query top stocks")
		h.writeError(w, http.StatusInternalServerError, "Failed to query top stocks")
		return
	}

	h.writeJSON(w, http.StatusOK, views)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func queryFloat(raw string, defaultValue float64) float64 {
	if raw == "" {
		return defaultValue
	}
	if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
		return parsed
	}
	return defaultValue
}

func queryInt(raw string, defaultValue int) int {
	if raw == "" {
		return defaultValue
	}
	if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}
