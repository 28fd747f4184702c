package snapshot

import "database/sql"

// Schema holds both the engine outputs (runs, recommendations, segment
// assignments) and the evidence tables the provider reads. Evidence rows
// are written by the ingestion jobs; the engine only reads them.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshot_runs (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    as_of TEXT NOT NULL,
    params_json TEXT NOT NULL,
    digest TEXT,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshot_runs_kind_as_of ON snapshot_runs(kind, as_of);

CREATE TABLE IF NOT EXISTS snapshot_recommendations (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL,
    ticker TEXT NOT NULL,
    segment TEXT NOT NULL,
    action TEXT NOT NULL,
    direction TEXT NOT NULL,
    score INTEGER NOT NULL,
    confidence REAL NOT NULL,
    reasons_json TEXT NOT NULL,
    UNIQUE(run_id, ticker)
);

CREATE INDEX IF NOT EXISTS idx_snapshot_recs_run ON snapshot_recommendations(run_id);

CREATE TABLE IF NOT EXISTS segment_assignments (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL,
    segment TEXT NOT NULL,
    ticker TEXT NOT NULL,
    strength REAL NOT NULL,
    score INTEGER NOT NULL,
    action TEXT NOT NULL,
    confidence REAL NOT NULL,
    why TEXT NOT NULL,
    source_kind TEXT NOT NULL,
    UNIQUE(run_id, ticker)
);

CREATE INDEX IF NOT EXISTS idx_segment_assignments_run ON segment_assignments(run_id);

CREATE TABLE IF NOT EXISTS price_bars (
    ticker TEXT NOT NULL,
    date TEXT NOT NULL,
    close REAL NOT NULL,
    volume INTEGER,
    PRIMARY KEY (ticker, date)
);

CREATE TABLE IF NOT EXISTS insider_txs (
    id INTEGER PRIMARY KEY,
    ticker TEXT NOT NULL,
    code TEXT NOT NULL,
    is_derivative INTEGER NOT NULL DEFAULT 0,
    shares REAL,
    price REAL,
    value REAL,
    insider_name TEXT,
    insider_cik TEXT,
    is_10b5_1 INTEGER NOT NULL DEFAULT 0,
    event_date TEXT,
    filed_at TEXT,
    accession TEXT
);

CREATE INDEX IF NOT EXISTS idx_insider_txs_event ON insider_txs(event_date);

CREATE TABLE IF NOT EXISTS large_owner_filings (
    id INTEGER PRIMARY KEY,
    ticker TEXT NOT NULL,
    form_type TEXT NOT NULL,
    filer_name TEXT,
    filed_at TEXT,
    accession TEXT
);

CREATE INDEX IF NOT EXISTS idx_large_owner_filings_filed ON large_owner_filings(filed_at);

CREATE TABLE IF NOT EXISTS holdings (
    report_period TEXT NOT NULL,
    investor_id TEXT NOT NULL,
    cusip TEXT NOT NULL,
    value_usd INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_holdings_period ON holdings(report_period);

CREATE TABLE IF NOT EXISTS securities (
    cusip TEXT PRIMARY KEY,
    ticker TEXT,
    security_type TEXT,
    security_type2 TEXT,
    market_sector TEXT
);

CREATE TABLE IF NOT EXISTS social_mentions (
    id INTEGER PRIMARY KEY,
    ticker TEXT NOT NULL,
    bucket_start TEXT NOT NULL,
    mentions INTEGER NOT NULL,
    sentiment_hint REAL,
    source TEXT,
    bucket_minutes INTEGER NOT NULL DEFAULT 60
);

CREATE INDEX IF NOT EXISTS idx_social_mentions_bucket ON social_mentions(bucket_start);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
