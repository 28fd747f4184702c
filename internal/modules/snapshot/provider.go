package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wealthpulse/signals/internal/domain"
	"github.com/wealthpulse/signals/internal/modules/whales"
)

// DataProvider materializes one pass's evidence rows. The pipeline performs
// all I/O through this interface up front; the scoring stages are pure.
type DataProvider interface {
	Fetch(ctx context.Context, asOf time.Time) (*Dataset, error)
}

// SQLiteProvider reads evidence from the local ingestion tables.
type SQLiteProvider struct {
	db           *sql.DB
	lookbackDays int // filings/transactions window, wider than fresh_days is fine
}

// NewSQLiteProvider creates a provider over the ingestion tables.
// lookbackDays bounds how far back filings and transactions are read.
func NewSQLiteProvider(db *sql.DB, lookbackDays int) *SQLiteProvider {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &SQLiteProvider{db: db, lookbackDays: lookbackDays}
}

// Fetch loads prices, filings, transactions, social buckets and the latest
// 13F quarter pair as of the given time.
func (p *SQLiteProvider) Fetch(ctx context.Context, asOf time.Time) (*Dataset, error) {
	ds := &Dataset{
		Prices:     make(map[string]domain.PriceSeries),
		Securities: make(map[string]SecurityInfo),
	}
	asOfDate := asOf.UTC().Format("2006-01-02")
	windowStart := asOf.AddDate(0, 0, -p.lookbackDays).UTC().Format(time.RFC3339)

	if err := p.fetchPrices(ctx, ds, asOfDate); err != nil {
		return nil, err
	}
	if err := p.fetchFilings(ctx, ds, windowStart); err != nil {
		return nil, err
	}
	if err := p.fetchInsiderTxs(ctx, ds, windowStart); err != nil {
		return nil, err
	}
	if err := p.fetchSocial(ctx, ds, windowStart); err != nil {
		return nil, err
	}
	if err := p.fetchHoldings(ctx, ds, asOfDate); err != nil {
		return nil, err
	}
	return ds, nil
}

func (p *SQLiteProvider) fetchPrices(ctx context.Context, ds *Dataset, asOfDate string) error {
	rows, err := p.db.QueryContext(ctx,
		`SELECT ticker, date, close, volume FROM price_bars WHERE date <= ? ORDER BY ticker, date`, asOfDate)
	if err != nil {
		return fmt.Errorf("failed to query price bars: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ticker string
		var bar domain.PriceBar
		var volume sql.NullInt64
		if err := rows.Scan(&ticker, &bar.Date, &bar.Close, &volume); err != nil {
			return fmt.Errorf("failed to scan price bar: %w", err)
		}
		if volume.Valid {
			v := volume.Int64
			bar.Volume = &v
		}
		ds.Prices[ticker] = append(ds.Prices[ticker], bar)
	}
	return rows.Err()
}

func (p *SQLiteProvider) fetchFilings(ctx context.Context, ds *Dataset, windowStart string) error {
	rows, err := p.db.QueryContext(ctx,
		`SELECT ticker, form_type, COALESCE(filer_name, ''), filed_at, COALESCE(accession, '')
		 FROM large_owner_filings WHERE filed_at >= ?`, windowStart)
	if err != nil {
		return fmt.Errorf("failed to query filings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f domain.LargeOwnerFiling
		var filedAt sql.NullString
		if err := rows.Scan(&f.Ticker, &f.FormType, &f.FilerName, &filedAt, &f.Accession); err != nil {
			return fmt.Errorf("failed to scan filing: %w", err)
		}
		f.FiledAt = parseTimePtr(filedAt)
		ds.Filings = append(ds.Filings, f)
	}
	return rows.Err()
}

func (p *SQLiteProvider) fetchInsiderTxs(ctx context.Context, ds *Dataset, windowStart string) error {
	rows, err := p.db.QueryContext(ctx,
		`SELECT ticker, code, is_derivative, shares, price, value,
		        COALESCE(insider_name, ''), COALESCE(insider_cik, ''), is_10b5_1,
		        event_date, filed_at, COALESCE(accession, '')
		 FROM insider_txs WHERE event_date >= ?`, windowStart)
	if err != nil {
		return fmt.Errorf("failed to query insider transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tx domain.InsiderTx
		var derivative, scheduled int
		var shares, price, value sql.NullFloat64
		var eventDate, filedAt sql.NullString
		if err := rows.Scan(&tx.Ticker, &tx.Code, &derivative, &shares, &price, &value,
			&tx.InsiderName, &tx.InsiderCIK, &scheduled, &eventDate, &filedAt, &tx.Accession); err != nil {
			return fmt.Errorf("failed to scan insider transaction: %w", err)
		}
		tx.IsDerivative = derivative != 0
		tx.Is10b51 = scheduled != 0
		tx.Shares = nullFloatPtr(shares)
		tx.Price = nullFloatPtr(price)
		tx.Value = nullFloatPtr(value)
		tx.EventDate = parseTimePtr(eventDate)
		tx.FiledAt = parseTimePtr(filedAt)
		ds.InsiderTxs = append(ds.InsiderTxs, tx)
	}
	return rows.Err()
}

func (p *SQLiteProvider) fetchSocial(ctx context.Context, ds *Dataset, windowStart string) error {
	rows, err := p.db.QueryContext(ctx,
		`SELECT ticker, bucket_start, mentions, sentiment_hint, COALESCE(source, ''), bucket_minutes
		 FROM social_mentions WHERE bucket_start >= ?`, windowStart)
	if err != nil {
		return fmt.Errorf("failed to query social mentions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b domain.SocialBucket
		var bucketStart string
		var sentiment sql.NullFloat64
		if err := rows.Scan(&b.Ticker, &bucketStart, &b.Mentions, &sentiment, &b.Source, &b.BucketMinutes); err != nil {
			return fmt.Errorf("failed to scan social bucket: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, bucketStart)
		if err != nil {
			continue // malformed bucket rows are dropped, not fatal
		}
		b.BucketStart = ts
		b.SentimentHint = nullFloatPtr(sentiment)
		ds.SocialBuckets = append(ds.SocialBuckets, b)
	}
	return rows.Err()
}

func (p *SQLiteProvider) fetchHoldings(ctx context.Context, ds *Dataset, asOfDate string) error {
	var period sql.NullString
	err := p.db.QueryRowContext(ctx,
		`SELECT MAX(report_period) FROM holdings WHERE report_period <= ?`, asOfDate).Scan(&period)
	if err != nil {
		return fmt.Errorf("failed to resolve report period: %w", err)
	}
	if !period.Valid || period.String == "" {
		return nil
	}

	reportPeriod, err := time.Parse("2006-01-02", period.String)
	if err != nil {
		return fmt.Errorf("failed to parse report period %q: %w", period.String, err)
	}
	ds.ReportPeriod = reportPeriod

	if ds.CurrentHoldings, err = p.holdingsForPeriod(ctx, period.String); err != nil {
		return err
	}
	if prev := whales.PreviousQuarterEnd(reportPeriod); !prev.IsZero() {
		if ds.PreviousHoldings, err = p.holdingsForPeriod(ctx, prev.Format("2006-01-02")); err != nil {
			return err
		}
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT cusip, COALESCE(ticker, ''), COALESCE(security_type, ''), COALESCE(security_type2, ''), COALESCE(market_sector, '')
		 FROM securities`)
	if err != nil {
		return fmt.Errorf("failed to query securities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cusip string
		var info SecurityInfo
		if err := rows.Scan(&cusip, &info.Ticker, &info.SecurityType, &info.SecurityType2, &info.MarketSector); err != nil {
			return fmt.Errorf("failed to scan security: %w", err)
		}
		ds.Securities[cusip] = info
	}
	return rows.Err()
}

func (p *SQLiteProvider) holdingsForPeriod(ctx context.Context, period string) ([]domain.HoldingValue, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT investor_id, cusip, value_usd FROM holdings WHERE report_period = ?`, period)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings for %s: %w", period, err)
	}
	defer rows.Close()

	var out []domain.HoldingValue
	for rows.Next() {
		var h domain.HoldingValue
		if err := rows.Scan(&h.InvestorID, &h.CUSIP, &h.ValueUSD); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s.String); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", s.String); err == nil {
		return &t
	}
	return nil
}

func nullFloatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
