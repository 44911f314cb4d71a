package analysis

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dseeker/dividend-seeker/internal/clients/yahoo"
)

type stubPrices struct {
	prices     []yahoo.HistoricalPrice
	dividends  []yahoo.DividendPayment
	priceErr   error
	divErr     error
	priceCalls int
}

func (s *stubPrices) GetHistoricalPrices(symbol, period string) ([]yahoo.HistoricalPrice, error) {
	s.priceCalls++
	return s.prices, s.priceErr
}

func (s *stubPrices) GetDividendHistory(symbol, period string) ([]yahoo.DividendPayment, error) {
	return s.dividends, s.divErr
}

func yearOfPrices(closes ...float64) []yahoo.HistoricalPrice {
	prices := make([]yahoo.HistoricalPrice, len(closes))
	for i, c := range closes {
		prices[i] = yahoo.HistoricalPrice{
			Date:  time.Now().AddDate(0, 0, i-len(closes)),
			Close: c,
		}
	}
	return prices
}

func flatYear(value float64) []yahoo.HistoricalPrice {
	closes := make([]float64, 260)
	for i := range closes {
		closes[i] = value
	}
	return yearOfPrices(closes...)
}

func TestAnalyze_BuildsReport(t *testing.T) {
	source := &stubPrices{
		prices: flatYear(100),
		dividends: []yahoo.DividendPayment{
			{Date: time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), Amount: 0.5},
			{Date: time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC), Amount: 0.5},
		},
	}
	svc := NewService(source, NewCache(t.TempDir(), 24), zerolog.Nop())

	result, cached, err := svc.Analyze("AAA")
	require.NoError(t, err)
	assert.False(t, cached)

	report, ok := result.(*Report)
	require.True(t, ok)
	assert.Equal(t, "AAA", report.Ticker)
	assert.Equal(t, 100.0, report.Price)
	assert.Equal(t, 100.0, report.High52W)
	assert.Equal(t, 2, report.DividendCount)
	assert.Equal(t, 1.0, report.DividendTotal12M)
	assert.NotEmpty(t, report.Summary)

	// Flat prices mean zero trailing change.
	require.NotNil(t, report.Change1M)
	assert.Equal(t, 0.0, *report.Change1M)
}

func TestAnalyze_SecondCallHitsCache(t *testing.T) {
	source := &stubPrices{prices: flatYear(100)}
	svc := NewService(source, NewCache(t.TempDir(), 24), zerolog.Nop())

	_, cached, err := svc.Analyze("AAA")
	require.NoError(t, err)
	assert.False(t, cached)

	_, cached, err = svc.Analyze("AAA")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, source.priceCalls)
}

func TestAnalyze_PriceFetchFails(t *testing.T) {
	source := &stubPrices{priceErr: fmt.Errorf("feed down")}
	svc := NewService(source, NewCache(t.TempDir(), 24), zerolog.Nop())

	_, _, err := svc.Analyze("AAA")
	assert.Error(t, err)
}

func TestAnalyze_NoPriceHistory(t *testing.T) {
	source := &stubPrices{}
	svc := NewService(source, NewCache(t.TempDir(), 24), zerolog.Nop())

	_, _, err := svc.Analyze("AAA")
	assert.Error(t, err)
}

func TestAnalyze_DividendFetchFailureIsNotFatal(t *testing.T) {
	source := &stubPrices{
		prices: flatYear(100),
		divErr: fmt.Errorf("no dividend data"),
	}
	svc := NewService(source, NewCache(t.TempDir(), 24), zerolog.Nop())

	result, _, err := svc.Analyze("AAA")
	require.NoError(t, err)

	report := result.(*Report)
	assert.Equal(t, 0, report.DividendCount)
}

func TestAnalyze_RecentDividendsCapped(t *testing.T) {
	dividends := make([]yahoo.DividendPayment, 8)
	for i := range dividends {
		dividends[i] = yahoo.DividendPayment{
			Date:   time.Date(2025, time.Month(i+1), 15, 0, 0, 0, 0, time.UTC),
			Amount: 0.25,
		}
	}

	source := &stubPrices{prices: flatYear(100), dividends: dividends}
	svc := NewService(source, NewCache(t.TempDir(), 24), zerolog.Nop())

	result, _, err := svc.Analyze("AAA")
	require.NoError(t, err)

	report := result.(*Report)
	assert.Equal(t, 8, report.DividendCount)
	assert.Equal(t, 2.0, report.DividendTotal12M)
	// Only the four most recent payments are echoed back.
	require.Len(t, report.RecentDividends, 4)
	assert.Equal(t, time.August, report.RecentDividends[3].Date.Month())
}

func TestSummarize_Verdicts(t *testing.T) {
	change := func(f float64) *float64 { return &f }

	falling := &Report{Ticker: "AAA", Change3M: change(-10)}
	assert.Contains(t, summarize(falling), "falling")

	rising := &Report{Ticker: "AAA", Change3M: change(12)}
	assert.Contains(t, summarize(rising), "rising")

	oversold := &Report{Ticker: "AAA", RSI14: change(25)}
	assert.Contains(t, summarize(oversold), "oversold")
}
