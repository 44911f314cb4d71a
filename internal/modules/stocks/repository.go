package stocks

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dseeker/dividend-seeker/internal/config"
)

// Repository owns the persistent schema and performs idempotent merge-upserts
// of stocks, snapshots and dividend events. Every operation converges to the
// same end state when called repeatedly with the same final input.
type Repository struct {
	db          *sql.DB
	log         zerolog.Logger
	mergePolicy config.MergePolicy
	normalizer  *Normalizer
}

// NewRepository creates a new stock store.
func NewRepository(db *sql.DB, cfg *config.Config, log zerolog.Logger) *Repository {
	return &Repository{
		db:          db,
		log:         log.With().Str("repo", "stocks").Logger(),
		mergePolicy: cfg.SnapshotMergePolicy,
		normalizer:  NewNormalizer(cfg.MaxPayoutRatio),
	}
}

// UpsertStock creates the row if the ticker is unseen, otherwise updates
// every descriptive field except market, which keeps its first non-null
// value. updated_at is always refreshed.
func (r *Repository) UpsertStock(stock Stock) error {
	if stock.Ticker == "" {
		return fmt.Errorf("stock has no ticker")
	}

	query := `
		INSERT INTO stocks (ticker, name, sector, industry, currency, market, asset_type, accessible, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(ticker) DO UPDATE SET
			name = excluded.name,
			sector = excluded.sector,
			industry = excluded.industry,
			currency = excluded.currency,
			market = COALESCE(excluded.market, stocks.market),
			asset_type = excluded.asset_type,
			accessible = excluded.accessible,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.Exec(query,
		stock.Ticker,
		nullString(stock.Name),
		nullString(stock.Sector),
		nullString(stock.Industry),
		nullString(stock.Currency),
		nullString(stock.Market),
		defaultString(stock.AssetType, "stock"),
		boolToInt(stock.Accessible),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert stock %s: %w", stock.Ticker, err)
	}

	return nil
}

// UpsertSnapshot writes one snapshot keyed by (ticker, scan_date). The
// referenced stock row is created implicitly if missing. Conflict handling
// follows the configured merge policy: overwrite replaces every field,
// coalesce keeps existing values for fields the new write leaves null.
func (r *Repository) UpsertSnapshot(snap Snapshot) error {
	if snap.Ticker == "" {
		return fmt.Errorf("snapshot has no ticker")
	}
	if snap.ScanDate == "" {
		return fmt.Errorf("snapshot for %s has no scan date", snap.Ticker)
	}

	// Stock need not exist before a snapshot write.
	if _, err := r.db.Exec(
		`INSERT INTO stocks (ticker) VALUES (?) ON CONFLICT(ticker) DO NOTHING`,
		snap.Ticker,
	); err != nil {
		return fmt.Errorf("failed to ensure stock %s: %w", snap.Ticker, err)
	}

	query := `
		INSERT INTO snapshots (
			ticker, scan_date, price, dividend_yield, dividend_rate,
			payout_ratio, pe_ratio, market_cap, week_52_high, week_52_low,
			change_1m, change_3m, change_6m, change_12m, dist_from_high,
			max_drawdown_12m, beta, dividend_score, capital_score, sustainable
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, scan_date) DO UPDATE SET
	` + r.snapshotConflictClause()

	_, err := r.db.Exec(query,
		snap.Ticker,
		snap.ScanDate,
		snap.Price,
		snap.DividendYield,
		snap.DividendRate,
		nullFloat(snap.PayoutRatio),
		nullFloat(snap.PERatio),
		snap.MarketCap,
		snap.Week52High,
		snap.Week52Low,
		nullFloat(snap.Change1M),
		nullFloat(snap.Change3M),
		nullFloat(snap.Change6M),
		nullFloat(snap.Change12M),
		nullFloat(snap.DistFromHigh),
		nullFloat(snap.MaxDrawdown12M),
		nullFloat(snap.Beta),
		nullFloat(snap.DividendScore),
		nullFloat(snap.CapitalScore),
		boolToInt(snap.Sustainable),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot %s/%s: %w", snap.Ticker, snap.ScanDate, err)
	}

	return nil
}

var snapshotFields = []string{
	"price", "dividend_yield", "dividend_rate", "payout_ratio", "pe_ratio",
	"market_cap", "week_52_high", "week_52_low", "change_1m", "change_3m",
	"change_6m", "change_12m", "dist_from_high", "max_drawdown_12m", "beta",
	"dividend_score", "capital_score", "sustainable",
}

func (r *Repository) snapshotConflictClause() string {
	clause := ""
	for i, field := range snapshotFields {
		if i > 0 {
			clause += ",\n"
		}
		if r.mergePolicy == config.MergeCoalesce {
			clause += fmt.Sprintf("%s = COALESCE(excluded.%s, snapshots.%s)", field, field, field)
		} else {
			clause += fmt.Sprintf("%s = excluded.%s", field, field)
		}
	}
	return clause
}

// UpsertDividend records one ex-dividend event. An event with no ex-date
// carries no information and is silently dropped. On conflict, amount and
// currency are updated only when the new value is non-null: a known value is
// never regressed to unknown.
func (r *Repository) UpsertDividend(ticker, exDate string, amount *float64, currency string) error {
	if ticker == "" {
		return fmt.Errorf("dividend has no ticker")
	}
	if exDate == "" {
		return nil
	}

	query := `
		INSERT INTO dividends (ticker, ex_date, amount, currency)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ticker, ex_date) DO UPDATE SET
			amount = COALESCE(excluded.amount, dividends.amount),
			currency = COALESCE(excluded.currency, dividends.currency)
	`

	_, err := r.db.Exec(query, ticker, exDate, nullFloat(amount), nullString(currency))
	if err != nil {
		return fmt.Errorf("failed to upsert dividend %s/%s: %w", ticker, exDate, err)
	}

	return nil
}

// LogScan appends one scan-run row. Multiple runs per day are all retained.
func (r *Repository) LogScan(run ScanRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}

	_, err := r.db.Exec(
		`INSERT INTO scans (run_id, scan_date, total_scanned, candidates_found, source) VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.ScanDate, run.TotalScanned, run.CandidatesFound, nullString(run.Source),
	)
	if err != nil {
		return fmt.Errorf("failed to log scan: %w", err)
	}

	return nil
}

// RecordError reports a single feed record that could not be synced.
type RecordError struct {
	Ticker string `json:"ticker"`
	Err    string `json:"error"`
}

// SyncResult aggregates the outcome of one sync invocation.
type SyncResult struct {
	Synced int           `json:"synced"`
	Failed []RecordError `json:"failed,omitempty"`
}

// Sync normalizes and upserts a batch of feed records for one scan date.
// A failure on one record never aborts the rest; failures are collected and
// reported. The scan log write is best effort and never fails the sync.
func (r *Repository) Sync(records []map[string]any, scanDate, source string) SyncResult {
	var result SyncResult

	for _, raw := range records {
		rec, err := r.normalizer.Normalize(raw)
		if err != nil {
			result.Failed = append(result.Failed, RecordError{
				Ticker: stringValue(raw, "ticker"),
				Err:    err.Error(),
			})
			continue
		}

		if err := r.syncRecord(rec, scanDate); err != nil {
			r.log.Warn().Err(err).Str("ticker", rec.Stock.Ticker).Msg("Failed to sync record")
			result.Failed = append(result.Failed, RecordError{Ticker: rec.Stock.Ticker, Err: err.Error()})
			continue
		}

		result.Synced++
	}

	if err := r.LogScan(ScanRun{
		ScanDate:        scanDate,
		TotalScanned:    len(records),
		CandidatesFound: result.Synced,
		Source:          source,
	}); err != nil {
		r.log.Warn().Err(err).Msg("Failed to log scan run")
	}

	r.log.Info().
		Str("scan_date", scanDate).
		Int("synced", result.Synced).
		Int("failed", len(result.Failed)).
		Msg("Sync complete")

	return result
}

func (r *Repository) syncRecord(rec *Record, scanDate string) error {
	if err := r.UpsertStock(rec.Stock); err != nil {
		return err
	}

	snap := rec.Snapshot
	snap.ScanDate = scanDate
	if err := r.UpsertSnapshot(snap); err != nil {
		return err
	}

	// The dividend rate doubles as the per-share amount for the upcoming
	// ex-date, matching the feed's shape.
	var amount *float64
	if rec.Snapshot.DividendRate != 0 {
		amount = &rec.Snapshot.DividendRate
	}
	return r.UpsertDividend(rec.Stock.Ticker, rec.ExDividendDate, amount, rec.Stock.Currency)
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
