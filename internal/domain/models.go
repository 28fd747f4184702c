package domain

import "time"

// Action is the discrete recommendation for a ticker
type Action string

const (
	ActionBuy   Action = "buy"
	ActionAvoid Action = "avoid"
	ActionWatch Action = "watch"
)

// Direction is the net read of the evidence for a ticker
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

// Segment keys. One ticker maps to exactly one segment per scoring run.
type Segment string

const (
	SegmentInsider       Segment = "insider"
	SegmentActivist      Segment = "activist"
	SegmentInstitutional Segment = "institutional"
	SegmentMomentum      Segment = "momentum"
	SegmentRisk          Segment = "risk"
)

// PriceBar is one daily OHLC-less bar: close and optional volume.
// Dates are ISO-8601 calendar dates ("2024-03-28") and compare lexically.
type PriceBar struct {
	Date   string `json:"date"`
	Close  float64 `json:"close"`
	Volume *int64  `json:"volume,omitempty"`
}

// PriceSeries is an ascending-by-date bar sequence for one instrument,
// already truncated to date <= as-of by the provider. The engine never
// mutates it.
type PriceSeries []PriceBar

// Dates returns the date column.
func (s PriceSeries) Dates() []string {
	out := make([]string, len(s))
	for i, b := range s {
		out[i] = b.Date
	}
	return out
}

// Closes returns the close column.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Volumes returns the volume column; entries may be nil.
func (s PriceSeries) Volumes() []*int64 {
	out := make([]*int64, len(s))
	for i, b := range s {
		out[i] = b.Volume
	}
	return out
}

// InsiderTx is a normalized SEC Form 4 transaction row.
// Value, Shares and Price are nullable: many filings omit price, some omit
// the computed value. The aggregator estimates a value when it can and
// silently drops rows it cannot price.
type InsiderTx struct {
	Ticker       string     `json:"ticker"`
	Code         string     `json:"transaction_code"` // P, S, others discarded
	IsDerivative bool       `json:"is_derivative"`
	Shares       *float64   `json:"shares,omitempty"`
	Price        *float64   `json:"price,omitempty"`
	Value        *float64   `json:"transaction_value,omitempty"`
	InsiderName  string     `json:"insider_name,omitempty"`
	InsiderCIK   string     `json:"insider_cik,omitempty"`
	Is10b51      bool       `json:"is_10b5_1"`
	EventDate    *time.Time `json:"event_date,omitempty"`
	FiledAt      *time.Time `json:"filed_at,omitempty"`
	Accession    string     `json:"source_accession,omitempty"`
}

// LargeOwnerFiling is a normalized SC 13D/13G filing row.
type LargeOwnerFiling struct {
	Ticker    string     `json:"ticker"`
	FormType  string     `json:"form_type"`
	FilerName string     `json:"filer_name,omitempty"`
	FiledAt   *time.Time `json:"filed_at,omitempty"`
	Accession string     `json:"source_accession,omitempty"`
}

// HoldingValue is one manager/CUSIP position value from a 13F info table.
type HoldingValue struct {
	InvestorID string `json:"investor_id"`
	CUSIP      string `json:"cusip"`
	ValueUSD   int64  `json:"value_usd"`
}

// SocialBucket is one per-ticker mention-count bucket from the social
// listener. Buckets are produced upstream; the engine only reads them.
type SocialBucket struct {
	Ticker        string     `json:"ticker"`
	BucketStart   time.Time  `json:"bucket_start"`
	Mentions      int        `json:"mentions"`
	SentimentHint *float64   `json:"sentiment_hint,omitempty"`
	Source        string     `json:"source"`
	BucketMinutes int        `json:"bucket_minutes"`
}

// ScoreResult is the persisted output of one scoring path for one ticker.
// Reasons holds the scorer's typed audit tree; it must contain enough data
// to recompute Score and Confidence deterministically from the same inputs.
type ScoreResult struct {
	Ticker     string    `json:"ticker"`
	Segment    string    `json:"segment"` // human label, not the bucket key
	Action     Action    `json:"action"`
	Direction  Direction `json:"direction"`
	Score      int       `json:"score"`      // 0..100
	Confidence float64   `json:"confidence"` // scorer-dependent band
	Reasons    any       `json:"reasons"`
}

// SegmentAssignment maps a ticker to its single strongest segment for one run.
type SegmentAssignment struct {
	Ticker     string  `json:"ticker"`
	Segment    Segment `json:"segment"`
	Strength   float64 `json:"strength"`
	Score      int     `json:"score"`
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	Why        string  `json:"why"`
	SourceKind string  `json:"source_kind"` // fresh_signals | institutional_13f
}
