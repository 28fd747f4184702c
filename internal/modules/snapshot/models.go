package snapshot

import (
	"time"

	"github.com/wealthpulse/signals/internal/domain"
)

// Run kinds.
const (
	KindFreshSignals     = "fresh_signals"
	KindInstitutional13F = "institutional_13f"
)

// Run is one persisted scoring pass.
type Run struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	AsOf      time.Time `json:"as_of"`
	Params    string    `json:"params"` // JSON blob of the pass parameters
	Digest    string    `json:"digest,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredRecommendation is one recommendation row read back from storage.
// Reasons stays raw JSON; readers that need structure decode it themselves.
type StoredRecommendation struct {
	RunID      string           `json:"run_id"`
	Ticker     string           `json:"ticker"`
	Segment    string           `json:"segment"`
	Action     domain.Action    `json:"action"`
	Direction  domain.Direction `json:"direction"`
	Score      int              `json:"score"`
	Confidence float64          `json:"confidence"`
	Reasons    []byte           `json:"reasons"`
}

// SecurityInfo is CUSIP-level reference data used to resolve and filter
// 13F rows.
type SecurityInfo struct {
	Ticker        string
	SecurityType  string
	SecurityType2 string
	MarketSector  string
}

// Dataset is everything one pipeline pass reads, materialized up front.
// The core stages never touch storage.
type Dataset struct {
	Prices        map[string]domain.PriceSeries
	InsiderTxs    []domain.InsiderTx
	Filings       []domain.LargeOwnerFiling
	SocialBuckets []domain.SocialBucket

	// 13F quarter pair. ReportPeriod is zero when no holdings exist.
	ReportPeriod     time.Time
	CurrentHoldings  []domain.HoldingValue
	PreviousHoldings []domain.HoldingValue
	Securities       map[string]SecurityInfo
}
