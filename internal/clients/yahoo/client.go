package yahoo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Client is a Yahoo Finance API client. It is the service's quote and
// history source; everything downstream consumes its output as plain feed
// records and never talks to the network itself.
type Client struct {
	client *http.Client
	log    zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// quoteFields are the fields requested from the quote endpoint.
const quoteFields = "symbol,shortName,longName,sector,industry,currency," +
	"currentPrice,regularMarketPrice,dividendYield,dividendRate,payoutRatio," +
	"trailingPE,marketCap,fiftyTwoWeekHigh,fiftyTwoWeekLow,exDividendDate," +
	"beta,quoteType"

// quoteTypeMap converts Yahoo quote types to our asset types.
var quoteTypeMap = map[string]string{
	"EQUITY":     "stock",
	"ETF":        "etf",
	"MUTUALFUND": "cef",
}

// Candidate fetches a quote and shapes it into a canonical feed record.
//
/// Unit boundary: Yahoo returns dividendYield already in whole percent
// (5.77 = 5.77%) but payoutRatio as a 0-1 fraction, so payout is scaled
// by 100 here and nowhere else.
func (c *Client) Candidate(ticker string) (map[string]any, error) {
	info, err := c.getQuoteInfo(ticker)
	if err != nil {
		return nil, err
	}

	price := getFloat64OrZero(info, "currentPrice")
	if price == 0 {
		price = getFloat64OrZero(info, "regularMarketPrice")
	}

	high := getFloat64OrZero(info, "fiftyTwoWeekHigh")

	record := map[string]any{
		"ticker":         ticker,
		"name":           getString(info, "shortName", getString(info, "longName", ticker)),
		"sector":         getString(info, "sector", ""),
		"industry":       getString(info, "industry", ""),
		"currency":       getString(info, "currency", "USD"),
		"asset_type":     assetType(info),
		"price":          price,
		"dividend_yield": getFloat64OrZero(info, "dividendYield"),
		"dividend_rate":  getFloat64OrZero(info, "dividendRate"),
		"market_cap":     getFloat64OrZero(info, "marketCap"),
		"52w_high":       high,
		"52w_low":        getFloat64OrZero(info, "fiftyTwoWeekLow"),
	}

	if payout := getFloat64(info, "payoutRatio"); payout != nil {
		record["payout_ratio"] = *payout * 100
	}
	if pe := getFloat64(info, "trailingPE"); pe != nil {
		record["pe_ratio"] = *pe
	}
	if beta := getFloat64(info, "beta"); beta != nil {
		record["beta"] = *beta
	}
	if high > 0 && price > 0 {
		record["discount_from_high"] = ((high - price) / high) * 100
	}
	if exDiv := getInt64(info, "exDividendDate"); exDiv != nil {
		record["ex_dividend_date"] = time.Unix(*exDiv, 0).UTC().Format("2006-01-02")
	}

	return record, nil
}

func assetType(info map[string]any) string {
	if mapped, ok := quoteTypeMap[getString(info, "quoteType", "")]; ok {
		return mapped
	}
	return "stock"
}

// yahooQuoteResponse represents the response from the quote API
type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []map[string]any `json:"result"`
		Error  any              `json:"error"`
	} `json:"quoteResponse"`
}

// getQuoteInfo fetches quote information from Yahoo Finance API
func (c *Client) getQuoteInfo(symbol string) (map[string]any, error) {
	baseURL := "https://query1.finance.yahoo.com/v7/finance/quote"

	params := url.Values{}
	params.Add("symbols", symbol)
	params.Add("fields", quoteFields)

	body, err := c.get(baseURL + "?" + params.Encode())
	if err != nil {
		return nil, err
	}

	var result yahooQuoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.QuoteResponse.Error)
	}

	if len(result.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote data returned for symbol %s", symbol)
	}

	return result.QuoteResponse.Result[0], nil
}

// chartResponse models the chart API, including dividend events.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Events     struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// GetHistoricalPrices fetches daily OHLCV data from the chart API.
// Supported periods: 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max.
func (c *Client) GetHistoricalPrices(symbol, period string) ([]HistoricalPrice, error) {
	result, err := c.getChart(symbol, period)
	if err != nil {
		return nil, err
	}

	if len(result.Chart.Result) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return []HistoricalPrice{}, nil
	}

	chartData := result.Chart.Result[0]
	timestamps := chartData.Timestamp
	if len(chartData.Indicators.Quote) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No quote data in response")
		return []HistoricalPrice{}, nil
	}

	quote := chartData.Indicators.Quote[0]

	var adjCloseData []float64
	if len(chartData.Indicators.AdjClose) > 0 {
		adjCloseData = chartData.Indicators.AdjClose[0].AdjClose
	}

	var prices []HistoricalPrice
	for i := range timestamps {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}

		// Yahoo sometimes returns null values
		if quote.Open[i] == 0 && quote.High[i] == 0 && quote.Low[i] == 0 && quote.Close[i] == 0 {
			continue
		}

		adjClose := quote.Close[i]
		if i < len(adjCloseData) && adjCloseData[i] != 0 {
			adjClose = adjCloseData[i]
		}

		volume := int64(0)
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}

		prices = append(prices, HistoricalPrice{
			Date:     time.Unix(timestamps[i], 0),
			Open:     quote.Open[i],
			High:     quote.High[i],
			Low:      quote.Low[i],
			Close:    quote.Close[i],
			Volume:   volume,
			AdjClose: adjClose,
		})
	}

	return prices, nil
}

// GetDividendHistory fetches historical dividend payouts over the period,
// oldest first.
func (c *Client) GetDividendHistory(symbol, period string) ([]DividendPayment, error) {
	result, err := c.getChart(symbol, period)
	if err != nil {
		return nil, err
	}

	if len(result.Chart.Result) == 0 {
		return []DividendPayment{}, nil
	}

	payments := []DividendPayment{}
	for _, div := range result.Chart.Result[0].Events.Dividends {
		payments = append(payments, DividendPayment{
			Date:   time.Unix(div.Date, 0),
			Amount: div.Amount,
		})
	}

	sort.Slice(payments, func(i, j int) bool {
		return payments[i].Date.Before(payments[j].Date)
	})

	return payments, nil
}

func (c *Client) getChart(symbol, period string) (*chartResponse, error) {
	baseURL := "https://query1.finance.yahoo.com/v8/finance/chart/" + url.QueryEscape(symbol)

	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", period)
	params.Add("events", "div")

	body, err := c.get(baseURL + "?" + params.Encode())
	if err != nil {
		return nil, err
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.Chart.Error)
	}

	return &result, nil
}

func (c *Client) get(reqURL string) ([]byte, error) {
	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// Helper functions to safely extract values from map

func getFloat64(m map[string]any, key string) *float64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			return &v
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		}
	}
	return nil
}

func getFloat64OrZero(m map[string]any, key string) float64 {
	if val := getFloat64(m, key); val != nil {
		return *val
	}
	return 0
}

func getInt64(m map[string]any, key string) *int64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			i := int64(v)
			return &i
		case int:
			i := int64(v)
			return &i
		case int64:
			return &v
		}
	}
	return nil
}

func getString(m map[string]any, key string, defaultVal string) string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok && s != "" {
			return s
		}
	}
	return defaultVal
}
