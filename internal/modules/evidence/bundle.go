package evidence

import (
	"github.com/wealthpulse/signals/internal/modules/regime"
	"github.com/wealthpulse/signals/internal/modules/trend"
)

// Bundle is the per-ticker evidence set handed to the signal scorer.
// Built fresh on every run; only its derived score result is persisted.
type Bundle struct {
	Ticker string

	SC13Count         int
	SC13LatestFiledAt string // ISO timestamp, empty when none

	InsiderBuyValue  float64
	InsiderSellValue float64
	InsiderBuyCount  int
	InsiderSellCount int

	// Scheduled (10b5-1) transactions, tracked separately and weighted
	// down by the scorer rather than discarded.
	InsiderBuyValue10b5  float64
	InsiderSellValue10b5 float64
	InsiderBuyCount10b5  int
	InsiderSellCount10b5 int

	// Distinct insiders behind qualifying discretionary purchases.
	ClusterBuyInsiders int

	InsiderLatestEventDate string
	EstimatedValueCount    int

	Trend              *trend.Snapshot
	TrendBullishRecent bool
	TrendBearishRecent bool

	Volume      *VolumeStats
	VolumeSpike bool

	Context13F *Context13F

	Market *regime.Regime
	Sector *regime.Regime

	Social *SocialStats

	// Evidence echoes surfaced in the reasons tree.
	SC13Filings []FilingDetail
	InsiderTxs  []TxDetail
}

// VolumeStats is the trailing-average volume comparison for the latest bar.
// All fields nil when fewer than window+1 volumes are known.
type VolumeStats struct {
	Avg20  *float64 `json:"avg20,omitempty"`
	Latest *float64 `json:"latest,omitempty"`
	Ratio  *float64 `json:"ratio,omitempty"`
	Spike  *bool    `json:"spike,omitempty"`
}

// SocialStats is the cashtag-velocity read for one ticker.
type SocialStats struct {
	Enabled           bool     `json:"enabled"`
	Source            string   `json:"source,omitempty"`
	LatestBucketStart string   `json:"latest_bucket_start,omitempty"`
	MentionsLatest    int      `json:"mentions_latest"`
	MentionsBaseline  *float64 `json:"mentions_baseline_7d,omitempty"`
	Velocity          *float64 `json:"velocity,omitempty"`
	Persistent        bool     `json:"persistent"`
	SentimentHint     *float64 `json:"sentiment_hint,omitempty"`
	VelocityThreshold float64  `json:"velocity_threshold"`
	MinMentions       int      `json:"min_mentions"`
}

// Context13F is the delayed institutional-holdings context attached to a
// bundle when the ticker resolves to a scored CUSIP.
type Context13F struct {
	AsOf                 string `json:"as_of,omitempty"`
	ReportPeriod         string `json:"report_period,omitempty"`
	PreviousPeriod       string `json:"previous_period,omitempty"`
	DeltaValueUSD        int64  `json:"delta_value_usd"`
	TotalValueUSD        int64  `json:"total_value_usd"`
	ManagerCount         int    `json:"manager_count"`
	ManagerIncreaseCount int    `json:"manager_increase_count"`
	ManagerDecreaseCount int    `json:"manager_decrease_count"`
}

// FilingDetail echoes one SC13 filing into the reasons tree.
type FilingDetail struct {
	Accession string `json:"accession,omitempty"`
	FormType  string `json:"form_type,omitempty"`
	FilerName string `json:"filer_name,omitempty"`
	FiledAt   string `json:"filed_at,omitempty"`
}

// TxDetail echoes one qualifying insider transaction into the reasons tree.
type TxDetail struct {
	Accession   string   `json:"accession,omitempty"`
	Code        string   `json:"code"`
	Value       float64  `json:"value"`
	Shares      *float64 `json:"shares,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Estimated   bool     `json:"estimated"`
	InsiderName string   `json:"insider_name,omitempty"`
	InsiderCIK  string   `json:"insider_cik,omitempty"`
	Is10b51     bool     `json:"is_10b5_1"`
	EventDate   string   `json:"event_date,omitempty"`
	FiledAt     string   `json:"filed_at,omitempty"`
}
