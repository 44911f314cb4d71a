package analysis

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dseeker/dividend-seeker/internal/clients/yahoo"
	"github.com/dseeker/dividend-seeker/pkg/formulas"
)

// Report is a single ticker's price and dividend analysis.
type Report struct {
	Ticker     string `json:"ticker"`
	AnalyzedAt string `json:"analyzed_at"`

	Price          float64  `json:"price"`
	Change1M       *float64 `json:"change_1m"`
	Change3M       *float64 `json:"change_3m"`
	Change6M       *float64 `json:"change_6m"`
	Change12M      *float64 `json:"change_12m"`
	High52W        float64  `json:"52w_high"`
	Low52W         float64  `json:"52w_low"`
	DistFromHigh   *float64 `json:"dist_from_high"`
	MaxDrawdown12M *float64 `json:"max_drawdown_12m"`
	RSI14          *float64 `json:"rsi_14"`

	DividendCount    int                     `json:"dividend_count"`
	DividendTotal12M float64                 `json:"dividend_total_12m"`
	RecentDividends  []yahoo.DividendPayment `json:"recent_dividends"`

	Summary string `json:"summary"`
}

// PriceSource provides the market data a report is built from.
type PriceSource interface {
	GetHistoricalPrices(symbol, period string) ([]yahoo.HistoricalPrice, error)
	GetDividendHistory(symbol, period string) ([]yahoo.DividendPayment, error)
}

// Service builds ticker analysis reports, caching results on disk.
type Service struct {
	source PriceSource
	cache  *Cache
	log    zerolog.Logger
}

// NewService creates the analysis service.
func NewService(source PriceSource, cache *Cache, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		cache:  cache,
		log:    log.With().Str("service", "analysis").Logger(),
	}
}

// Analyze returns a ticker's analysis report, serving a cached copy when one
// is still fresh. The bool reports whether the result came from cache.
func (s *Service) Analyze(ticker string) (any, bool, error) {
	if report, ok := s.cache.Get(ticker); ok {
		return report, true, nil
	}

	report, err := s.build(ticker)
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.Put(report); err != nil {
		// Caching is best effort, the report is still valid.
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache analysis")
	}

	return report, false, nil
}

func (s *Service) build(ticker string) (*Report, error) {
	prices, err := s.source.GetHistoricalPrices(ticker, "1y")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history for %s: %w", ticker, err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("no price history for %s", ticker)
	}

	closes := make([]float64, len(prices))
	for i, p := range prices {
		closes[i] = p.Close
	}

	current := closes[len(closes)-1]
	high, low := closes[0], closes[0]
	for _, c := range closes {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}

	report := &Report{
		Ticker:         ticker,
		AnalyzedAt:     time.Now().UTC().Format(time.RFC3339),
		Price:          current,
		Change1M:       formulas.TrailingChange(closes, formulas.TradingDays1M),
		Change3M:       formulas.TrailingChange(closes, formulas.TradingDays3M),
		Change6M:       formulas.TrailingChange(closes, formulas.TradingDays6M),
		Change12M:      formulas.TrailingChange(closes, formulas.TradingDays12M),
		High52W:        high,
		Low52W:         low,
		MaxDrawdown12M: formulas.MaxDrawdown(closes),
		RSI14:          formulas.RSI(closes, 14),
	}

	if high > 0 {
		dist := formulas.DiscountFromHigh(high, current)
		report.DistFromHigh = &dist
	}

	dividends, err := s.source.GetDividendHistory(ticker, "1y")
	if err != nil {
		// Price analysis is still useful without dividend events.
		s.log.Debug().Err(err).Str("ticker", ticker).Msg("No dividend history")
	} else {
		report.DividendCount = len(dividends)
		for _, d := range dividends {
			report.DividendTotal12M += d.Amount
		}
		if len(dividends) > 4 {
			dividends = dividends[len(dividends)-4:]
		}
		report.RecentDividends = dividends
	}

	report.Summary = summarize(report)

	return report, nil
}

// summarize renders a short human readable verdict.
func summarize(r *Report) string {
	trend := "flat"
	if r.Change3M != nil {
		switch {
		case *r.Change3M > 5:
			trend = "rising"
		case *r.Change3M < -5:
			trend = "falling"
		}
	}

	s := fmt.Sprintf("%s is %s over the last quarter", r.Ticker, trend)
	if r.DistFromHigh != nil {
		s += fmt.Sprintf(", trading %.1f%% below its 52-week high", *r.DistFromHigh)
	}
	if r.RSI14 != nil {
		switch {
		case *r.RSI14 < 30:
			s += " and looks oversold (RSI below 30)"
		case *r.RSI14 > 70:
			s += " and looks overbought (RSI above 70)"
		}
	}
	if r.DividendCount > 0 {
		s += fmt.Sprintf(". Paid %d dividends totaling %.2f in the last year.", r.DividendCount, r.DividendTotal12M)
	} else {
		s += "."
	}

	return s
}
