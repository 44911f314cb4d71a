package stocks

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/dseeker/dividend-seeker/pkg/formulas"
)

// ErrNotFound is returned by TickerDetail for tickers the store has never
// seen.
var ErrNotFound = errors.New("stock not found")

// DefaultLimit caps list queries when the caller supplies none.
const DefaultLimit = 100

// Filter narrows and orders the latest-snapshot view.
type Filter struct {
	MinYield    float64
	Market      string // substring match, case-insensitive
	Sustainable bool   // sustainable rows only
	MinDivScore float64
	MinCapScore float64
	AssetType   string // exact match when set
	StocksOnly  bool   // exclude etf and cef
	SortBy      string // yield, score, dividend_score, capital_score
	Limit       int
}

// QueryRepository serves read-only views over the store. It never mutates.
type QueryRepository struct {
	db       *sql.DB
	log      zerolog.Logger
	minYield float64 // tier-1 yield threshold for Stats
}

// NewQueryRepository creates a new query layer over the given database.
func NewQueryRepository(db *sql.DB, minYield float64, log zerolog.Logger) *QueryRepository {
	return &QueryRepository{
		db:       db,
		log:      log.With().Str("repo", "stock_queries").Logger(),
		minYield: minYield,
	}
}

// latestJoin selects each ticker's snapshot with the maximum scan_date,
// joined with the stock's descriptive fields.
const latestJoin = `
	FROM snapshots sn
	JOIN stocks st ON st.ticker = sn.ticker
	WHERE sn.scan_date = (SELECT MAX(scan_date) FROM snapshots WHERE ticker = sn.ticker)
`

const viewColumns = `
	SELECT st.ticker, st.name, st.sector, st.industry, st.currency, st.market,
	       st.asset_type, sn.scan_date, sn.price, sn.dividend_yield,
	       sn.dividend_rate, sn.payout_ratio, sn.pe_ratio, sn.market_cap,
	       sn.week_52_high, sn.week_52_low, sn.change_6m, sn.change_12m,
	       sn.dist_from_high, sn.beta, sn.dividend_score, sn.capital_score,
	       sn.sustainable
`

// LatestSnapshots returns at most one row per ticker: the snapshot with the
// maximum scan_date, filtered and sorted per the Filter. Score-based sorts
// tie-break on yield descending.
func (q *QueryRepository) LatestSnapshots(f Filter) ([]StockView, error) {
	query := viewColumns + latestJoin
	var args []any

	query += " AND sn.dividend_yield >= ?"
	args = append(args, f.MinYield)

	if f.Market != "" {
		query += " AND LOWER(COALESCE(st.market, '')) LIKE ?"
		args = append(args, "%"+strings.ToLower(f.Market)+"%")
	}
	if f.Sustainable {
		query += " AND sn.sustainable = 1"
	}
	if f.MinDivScore > 0 {
		query += " AND COALESCE(sn.dividend_score, 0) >= ?"
		args = append(args, f.MinDivScore)
	}
	if f.MinCapScore > 0 {
		query += " AND COALESCE(sn.capital_score, 0) >= ?"
		args = append(args, f.MinCapScore)
	}
	if f.AssetType != "" {
		query += " AND st.asset_type = ?"
		args = append(args, f.AssetType)
	}
	if f.StocksOnly {
		query += " AND st.asset_type NOT IN ('etf', 'cef')"
	}

	query += " ORDER BY " + orderClause(f.SortBy)

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	query += " LIMIT ?"
	args = append(args, limit)

	return q.queryViews(query, args...)
}

func orderClause(sortBy string) string {
	switch sortBy {
	case "score":
		return "(COALESCE(sn.dividend_score, 0) + COALESCE(sn.capital_score, 0)) DESC, sn.dividend_yield DESC"
	case "dividend_score":
		return "COALESCE(sn.dividend_score, 0) DESC, sn.dividend_yield DESC"
	case "capital_score":
		return "COALESCE(sn.capital_score, 0) DESC, sn.dividend_yield DESC"
	default:
		return "sn.dividend_yield DESC"
	}
}

// TopByCombinedScore ranks tickers where both scores are present and
// non-zero by their sum, tie-breaking on yield descending.
func (q *QueryRepository) TopByCombinedScore(limit int, minYield float64) ([]StockView, error) {
	if limit <= 0 {
		limit = 20
	}

	query := viewColumns + latestJoin + `
		AND sn.dividend_yield >= ?
		AND COALESCE(sn.dividend_score, 0) != 0
		AND COALESCE(sn.capital_score, 0) != 0
		ORDER BY (sn.dividend_score + sn.capital_score) DESC, sn.dividend_yield DESC
		LIMIT ?
	`

	views, err := q.queryViews(query, minYield, limit)
	if err != nil {
		return nil, err
	}

	for i := range views {
		total := *views[i].DividendScore + *views[i].CapitalScore
		views[i].TotalScore = &total
	}

	return views, nil
}

// TopByYield returns the n highest-yielding tickers (latest snapshot each).
func (q *QueryRepository) TopByYield(n int) ([]StockView, error) {
	return q.LatestSnapshots(Filter{SortBy: "yield", Limit: n})
}

// TickerDetail returns the latest snapshot joined with descriptive fields,
// up to the last 30 historical snapshots and up to the last 10 dividend
// events, newest first. Unknown tickers yield ErrNotFound.
func (q *QueryRepository) TickerDetail(ticker string) (*TickerDetail, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	var exists int
	err := q.db.QueryRow(`SELECT COUNT(*) FROM stocks WHERE ticker = ?`, ticker).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up stock %s: %w", ticker, err)
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	detail := &TickerDetail{
		History:   []Snapshot{},
		Dividends: []DividendEvent{},
	}

	views, err := q.queryViews(viewColumns+latestJoin+" AND sn.ticker = ?", ticker)
	if err != nil {
		return nil, err
	}
	if len(views) > 0 {
		detail.Current = &views[0]
	}

	history, err := q.history(ticker, 30)
	if err != nil {
		return nil, err
	}
	detail.History = history

	dividends, err := q.dividends(ticker, 10)
	if err != nil {
		return nil, err
	}
	detail.Dividends = dividends

	return detail, nil
}

// MarketBreakdown groups latest-snapshot rows by market, with count and mean
// yield per market, ordered by count descending.
func (q *QueryRepository) MarketBreakdown() ([]MarketStats, error) {
	query := `
		SELECT COALESCE(st.market, 'Unknown') AS market,
		       COUNT(*) AS count,
		       AVG(sn.dividend_yield) AS avg_yield
	` + latestJoin + `
		GROUP BY COALESCE(st.market, 'Unknown')
		ORDER BY count DESC
	`

	rows, err := q.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query market breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := []MarketStats{}
	for rows.Next() {
		var m MarketStats
		var avg sql.NullFloat64
		if err := rows.Scan(&m.Market, &m.Count, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan market row: %w", err)
		}
		m.AvgYield = round2(avg.Float64)
		breakdown = append(breakdown, m)
	}

	return breakdown, rows.Err()
}

// Stats builds the dashboard stats payload. An empty store produces
// zero-valued stats, never an error.
func (q *QueryRepository) Stats() (*Stats, error) {
	rows, err := q.db.Query(`
		SELECT sn.dividend_yield, sn.sustainable
	` + latestJoin)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var yields []float64
	tier1 := 0
	for rows.Next() {
		var y float64
		var sustainable int
		if err := rows.Scan(&y, &sustainable); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		yields = append(yields, y)
		if sustainable != 0 && y >= q.minYield {
			tier1++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalStocks: len(yields),
		Tier1Count:  tier1,
	}
	if len(yields) > 0 {
		stats.AvgYield = round2(formulas.Mean(yields))
		stats.MaxYield = round2(floats.Max(yields))
		stats.MinYield = round2(floats.Min(yields))
	}

	var lastScan sql.NullString
	err = q.db.QueryRow(`
		SELECT MAX(scan_date) FROM (
			SELECT scan_date FROM scans
			UNION ALL
			SELECT scan_date FROM snapshots
		)
	`).Scan(&lastScan)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query last scan: %w", err)
	}
	if lastScan.Valid {
		stats.LastScan = &lastScan.String
	}

	return stats, nil
}

func (q *QueryRepository) history(ticker string, limit int) ([]Snapshot, error) {
	query := `
		SELECT ticker, scan_date, price, dividend_yield, dividend_rate,
		       payout_ratio, pe_ratio, market_cap, week_52_high, week_52_low,
		       change_1m, change_3m, change_6m, change_12m, dist_from_high,
		       max_drawdown_12m, beta, dividend_score, capital_score, sustainable
		FROM snapshots
		WHERE ticker = ?
		ORDER BY scan_date DESC
		LIMIT ?
	`

	rows, err := q.db.Query(query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", ticker, err)
	}
	defer rows.Close()

	history := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		history = append(history, snap)
	}

	return history, rows.Err()
}

func (q *QueryRepository) dividends(ticker string, limit int) ([]DividendEvent, error) {
	rows, err := q.db.Query(`
		SELECT ticker, ex_date, amount, currency
		FROM dividends
		WHERE ticker = ?
		ORDER BY ex_date DESC
		LIMIT ?
	`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividends for %s: %w", ticker, err)
	}
	defer rows.Close()

	events := []DividendEvent{}
	for rows.Next() {
		var ev DividendEvent
		var amount sql.NullFloat64
		var currency sql.NullString
		if err := rows.Scan(&ev.Ticker, &ev.ExDate, &amount, &currency); err != nil {
			return nil, fmt.Errorf("failed to scan dividend: %w", err)
		}
		if amount.Valid {
			ev.Amount = &amount.Float64
		}
		ev.Currency = currency.String
		events = append(events, ev)
	}

	return events, rows.Err()
}

func (q *QueryRepository) queryViews(query string, args ...any) ([]StockView, error) {
	rows, err := q.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock views: %w", err)
	}
	defer rows.Close()

	views := []StockView{}
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock view: %w", err)
		}
		views = append(views, view)
	}

	return views, rows.Err()
}

// scanView scans a joined stock + snapshot row. Absent columns from older
// data shapes arrive as NULL and degrade to zero values.
func scanView(rows *sql.Rows) (StockView, error) {
	var v StockView
	var name, sector, industry, currency, market, assetType sql.NullString
	var price, yield, rate, marketCap, high, low sql.NullFloat64
	var payout, pe, change6m, change12m, dist, beta, divScore, capScore sql.NullFloat64
	var sustainable sql.NullInt64

	err := rows.Scan(
		&v.Ticker, &name, &sector, &industry, &currency, &market,
		&assetType, &v.ScanDate, &price, &yield,
		&rate, &payout, &pe, &marketCap,
		&high, &low, &change6m, &change12m,
		&dist, &beta, &divScore, &capScore,
		&sustainable,
	)
	if err != nil {
		return v, err
	}

	v.Name = name.String
	v.Sector = sector.String
	v.Industry = industry.String
	v.Currency = currency.String
	v.Market = market.String
	v.AssetType = assetType.String
	if v.AssetType == "" {
		v.AssetType = "stock"
	}
	v.Price = price.Float64
	v.DividendYield = yield.Float64
	v.DividendRate = rate.Float64
	v.PayoutRatio = floatPtr(payout)
	v.PERatio = floatPtr(pe)
	v.MarketCap = marketCap.Float64
	v.Week52High = high.Float64
	v.Week52Low = low.Float64
	v.Change6M = floatPtr(change6m)
	v.Change12M = floatPtr(change12m)
	v.DistFromHigh = floatPtr(dist)
	v.Beta = floatPtr(beta)
	v.DividendScore = floatPtr(divScore)
	v.CapitalScore = floatPtr(capScore)
	v.Sustainable = sustainable.Int64 != 0

	return v, nil
}

func scanSnapshot(rows *sql.Rows) (Snapshot, error) {
	var s Snapshot
	var price, yield, rate, marketCap, high, low sql.NullFloat64
	var payout, pe, c1m, c3m, c6m, c12m, dist, drawdown, beta, divScore, capScore sql.NullFloat64
	var sustainable sql.NullInt64

	err := rows.Scan(
		&s.Ticker, &s.ScanDate, &price, &yield, &rate,
		&payout, &pe, &marketCap, &high, &low,
		&c1m, &c3m, &c6m, &c12m, &dist,
		&drawdown, &beta, &divScore, &capScore, &sustainable,
	)
	if err != nil {
		return s, err
	}

	s.Price = price.Float64
	s.DividendYield = yield.Float64
	s.DividendRate = rate.Float64
	s.PayoutRatio = floatPtr(payout)
	s.PERatio = floatPtr(pe)
	s.MarketCap = marketCap.Float64
	s.Week52High = high.Float64
	s.Week52Low = low.Float64
	s.Change1M = floatPtr(c1m)
	s.Change3M = floatPtr(c3m)
	s.Change6M = floatPtr(c6m)
	s.Change12M = floatPtr(c12m)
	s.DistFromHigh = floatPtr(dist)
	s.MaxDrawdown12M = floatPtr(drawdown)
	s.Beta = floatPtr(beta)
	s.DividendScore = floatPtr(divScore)
	s.CapitalScore = floatPtr(capScore)
	s.Sustainable = sustainable.Int64 != 0

	return s, nil
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	val := f.Float64
	return &val
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
