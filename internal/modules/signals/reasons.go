package signals

import (
	"github.com/wealthpulse/signals/internal/modules/evidence"
	"github.com/wealthpulse/signals/internal/modules/regime"
	"github.com/wealthpulse/signals/internal/modules/trend"
)

// Component is one named, signed score contribution. The component list is
// part of the reasons payload, so the audit trail and the summed score can
// never drift apart.
type Component struct {
	Label string  `json:"label"`
	Delta float64 `json:"delta"`
}

// Adjustment is a paired score/confidence nudge from a contextual source
// (market regime, sector regime, social).
type Adjustment struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// SC13Reason summarizes large-owner filings in the window.
type SC13Reason struct {
	Count         int    `json:"count"`
	LatestFiledAt string `json:"latest_filed_at,omitempty"`
}

// InsiderReason summarizes qualifying Form 4 flow in the window.
type InsiderReason struct {
	BuyValue            float64 `json:"buy_value"`
	SellValue           float64 `json:"sell_value"`
	NetValue            float64 `json:"net_value"`
	BuyCount            int     `json:"buy_count"`
	SellCount           int     `json:"sell_count"`
	BuyValue10b5        float64 `json:"buy_value_10b5"`
	SellValue10b5       float64 `json:"sell_value_10b5"`
	BuyCount10b5        int     `json:"buy_count_10b5"`
	SellCount10b5       int     `json:"sell_count_10b5"`
	ClusterBuyInsiders  int     `json:"cluster_buy_insiders"`
	LatestEventDate     string  `json:"latest_event_date,omitempty"`
	EstimatedValueCount int     `json:"estimated_value_count"`
}

// QualityPolicy documents the fixed insider-evidence policy applied by the
// aggregator and scorer.
type QualityPolicy struct {
	CodesHighSignal    []string `json:"codes_high_signal"`
	CodesIgnored       []string `json:"codes_ignored"`
	PlannedTradeWeight float64  `json:"planned_trade_weight"`
	ClusterBuyRule     string   `json:"cluster_buy_rule"`
}

// TrendFlags are the recency-gated direction flags used by the scorer.
type TrendFlags struct {
	BullishRecent bool `json:"bullish_recent"`
	BearishRecent bool `json:"bearish_recent"`
}

// EvidenceEcho carries the top underlying rows for display.
type EvidenceEcho struct {
	SC13Filings []evidence.FilingDetail `json:"sc13_filings"`
	InsiderTxs  []evidence.TxDetail     `json:"insider_txs"`
}

// Reasons is the full audit trail for one fresh-signal result. It contains
// enough data to recompute score and confidence deterministically from the
// same inputs; removing a field is a breaking change for stored backtests,
// adding one is not.
type Reasons struct {
	Signal          string  `json:"signal"`
	AsOf            string  `json:"as_of"`
	FreshDays       int     `json:"fresh_days"`
	InsiderMinValue float64 `json:"insider_min_value"`

	SC13    SC13Reason    `json:"sc13"`
	Insider InsiderReason `json:"insider"`
	Policy  QualityPolicy `json:"insider_quality_policy"`

	Components []Component `json:"components"`

	Trend      *trend.Snapshot `json:"trend,omitempty"`
	TrendFlags TrendFlags      `json:"trend_flags"`

	Guardrail    GuardrailResult `json:"tech_guardrail"`
	ClusterBonus int             `json:"cluster_bonus"`

	Volume     *evidence.VolumeStats `json:"volume,omitempty"`
	Context13F *evidence.Context13F  `json:"context_13f,omitempty"`

	Market           *regime.Regime `json:"market,omitempty"`
	MarketAdjustment Adjustment     `json:"market_adjustment"`
	Sector           *regime.Regime `json:"sector,omitempty"`
	SectorAdjustment Adjustment     `json:"sector_adjustment"`

	Social           *evidence.SocialStats `json:"social,omitempty"`
	SocialAdjustment Adjustment            `json:"social_adjustment"`

	Divergence Divergence `json:"divergence"`

	Conviction int          `json:"conviction_1_10"`
	Evidence   EvidenceEcho `json:"evidence"`
}
