package stocks

// Stock is the reference entity, one row per ticker symbol. Ticker is the
// sole identity and may carry an exchange suffix (".DE", ".PA", ".MI", ...).
type Stock struct {
	Ticker     string `json:"ticker"`
	Name       string `json:"name,omitempty"`
	Sector     string `json:"sector,omitempty"`
	Industry   string `json:"industry,omitempty"`
	Currency   string `json:"currency,omitempty"`
	Market     string `json:"market,omitempty"` // originating index, first non-null write wins
	AssetType  string `json:"asset_type"`       // stock, etf, reit, mreit, bdc, cef
	Accessible bool   `json:"accessible"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// Snapshot is one day's measured fundamentals and price for one ticker,
// keyed by (ticker, scan_date). Percentage fields are whole percent
// (5.77 means 5.77%). Nil score fields mean "not yet scored".
type Snapshot struct {
	Ticker         string   `json:"ticker"`
	ScanDate       string   `json:"scan_date"`
	Price          float64  `json:"price"`
	DividendYield  float64  `json:"dividend_yield"`
	DividendRate   float64  `json:"dividend_rate"`
	PayoutRatio    *float64 `json:"payout_ratio,omitempty"`
	PERatio        *float64 `json:"pe_ratio,omitempty"`
	MarketCap      float64  `json:"market_cap"`
	Week52High     float64  `json:"52w_high"`
	Week52Low      float64  `json:"52w_low"`
	Change1M       *float64 `json:"change_1m,omitempty"`
	Change3M       *float64 `json:"change_3m,omitempty"`
	Change6M       *float64 `json:"change_6m,omitempty"`
	Change12M      *float64 `json:"change_12m,omitempty"`
	DistFromHigh   *float64 `json:"dist_from_high,omitempty"`
	MaxDrawdown12M *float64 `json:"max_drawdown_12m,omitempty"`
	Beta           *float64 `json:"beta,omitempty"`
	DividendScore  *float64 `json:"dividend_score,omitempty"`
	CapitalScore   *float64 `json:"capital_score,omitempty"`
	Sustainable    bool     `json:"sustainable"`
}

// DividendEvent is one ex-dividend date for one ticker.
type DividendEvent struct {
	Ticker   string   `json:"ticker"`
	ExDate   string   `json:"ex_date"`
	Amount   *float64 `json:"amount,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

// ScanRun is one append-only row per scan invocation. Multiple runs per day
// are legal and all retained.
type ScanRun struct {
	RunID           string `json:"run_id"`
	ScanDate        string `json:"scan_date"`
	TotalScanned    int    `json:"total_scanned"`
	CandidatesFound int    `json:"candidates_found"`
	Source          string `json:"source,omitempty"`
}

// Record is a canonical feed record produced by the normalizer: the stock's
// descriptive fields, the day's snapshot, and an optional ex-dividend date.
type Record struct {
	Stock          Stock
	Snapshot       Snapshot
	ExDividendDate string // ISO date, empty when unknown
}

// StockView is a stock joined with its latest snapshot, the shape the read
// API returns.
type StockView struct {
	Ticker         string   `json:"ticker"`
	Name           string   `json:"name,omitempty"`
	Sector         string   `json:"sector,omitempty"`
	Industry       string   `json:"industry,omitempty"`
	Currency       string   `json:"currency,omitempty"`
	Market         string   `json:"market,omitempty"`
	AssetType      string   `json:"asset_type"`
	ScanDate       string   `json:"scan_date"`
	Price          float64  `json:"price"`
	DividendYield  float64  `json:"dividend_yield"`
	DividendRate   float64  `json:"dividend_rate"`
	PayoutRatio    *float64 `json:"payout_ratio,omitempty"`
	PERatio        *float64 `json:"pe_ratio,omitempty"`
	MarketCap      float64  `json:"market_cap"`
	Week52High     float64  `json:"52w_high"`
	Week52Low      float64  `json:"52w_low"`
	Change6M       *float64 `json:"change_6m,omitempty"`
	Change12M      *float64 `json:"change_12m,omitempty"`
	DistFromHigh   *float64 `json:"dist_from_high,omitempty"`
	Beta           *float64 `json:"beta,omitempty"`
	DividendScore  *float64 `json:"dividend_score,omitempty"`
	CapitalScore   *float64 `json:"capital_score,omitempty"`
	TotalScore     *float64 `json:"total_score,omitempty"` // set by combined-score ranking
	Sustainable    bool     `json:"sustainable"`
}

// MarketStats is one row of the market breakdown.
type MarketStats struct {
	Market   string  `json:"market"`
	Count    int     `json:"count"`
	AvgYield float64 `json:"avg_yield"`
}

// Stats is the dashboard stats payload.
type Stats struct {
	TotalStocks int     `json:"total_stocks"`
	AvgYield    float64 `json:"avg_yield"`
	MaxYield    float64 `json:"max_yield"`
	MinYield    float64 `json:"min_yield"`
	Tier1Count  int     `json:"tier1_count"`
	LastScan    *string `json:"last_scan"`
}

// TickerDetail is the per-ticker detail payload: latest snapshot joined with
// descriptive fields, recent snapshot history (newest first) and recent
// dividend events (newest first).
type TickerDetail struct {
	Current   *StockView      `json:"current"`
	History   []Snapshot      `json:"history"`
	Dividends []DividendEvent `json:"dividends"`
}
