package database

// Schema defines the persistent tables. stocks is the reference entity,
// snapshots and dividends reference it by ticker, scans is an append-only
// run log.
const Schema = `
CREATE TABLE IF NOT EXISTS stocks (
    ticker TEXT PRIMARY KEY,
    name TEXT,
    sector TEXT,
    industry TEXT,
    currency TEXT,
    market TEXT,
    asset_type TEXT NOT NULL DEFAULT 'stock',
    accessible INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY,
    ticker TEXT NOT NULL,
    scan_date TEXT NOT NULL,
    price REAL,
    dividend_yield REAL,
    dividend_rate REAL,
    payout_ratio REAL,
    pe_ratio REAL,
    market_cap REAL,
    week_52_high REAL,
    week_52_low REAL,
    change_1m REAL,
    change_3m REAL,
    change_6m REAL,
    change_12m REAL,
    dist_from_high REAL,
    max_drawdown_12m REAL,
    beta REAL,
    dividend_score REAL,
    capital_score REAL,
    sustainable INTEGER NOT NULL DEFAULT 1,
    UNIQUE(ticker, scan_date)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_ticker ON snapshots(ticker);
CREATE INDEX IF NOT EXISTS idx_snapshots_date ON snapshots(scan_date);

CREATE TABLE IF NOT EXISTS dividends (
    id INTEGER PRIMARY KEY,
    ticker TEXT NOT NULL,
    ex_date TEXT NOT NULL,
    amount REAL,
    currency TEXT,
    UNIQUE(ticker, ex_date)
);

CREATE INDEX IF NOT EXISTS idx_dividends_ticker ON dividends(ticker);

CREATE TABLE IF NOT EXISTS scans (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL,
    scan_date TEXT NOT NULL,
    total_scanned INTEGER NOT NULL,
    candidates_found INTEGER NOT NULL,
    source TEXT,
    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
