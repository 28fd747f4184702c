package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wealthpulse/signals/internal/domain"
	"github.com/wealthpulse/signals/internal/metrics"
	"github.com/wealthpulse/signals/internal/modules/evidence"
	"github.com/wealthpulse/signals/internal/modules/regime"
	"github.com/wealthpulse/signals/internal/modules/segments"
	"github.com/wealthpulse/signals/internal/modules/signals"
	"github.com/wealthpulse/signals/internal/modules/whales"
)

// artifactSchema versions the digest payload shape.
const artifactSchema = "wealthpulse.daily_snapshot.v1"

// RunnerParams are the full pipeline knobs for one pass.
type RunnerParams struct {
	MarketTicker            string            `json:"market_ticker"`
	SectorProxies           []string          `json:"sector_proxies,omitempty"`
	SectorProxyByTicker     map[string]string `json:"-"`
	FreshDays               int               `json:"fresh_days"`
	InsiderMinValue         float64           `json:"insider_min_value"`
	TopN                    int               `json:"top_n"`
	BuyThreshold            int               `json:"buy_threshold"`
	AvoidThreshold          int               `json:"avoid_threshold"`
	PicksPerSegment         int               `json:"picks_per_segment"`
	SocialEnabled           bool              `json:"social_enabled"`
	SocialVelocityThreshold float64           `json:"social_velocity_threshold"`
	SocialMinMentions       int               `json:"social_min_mentions"`
}

// RunSummary reports what one pipeline pass produced.
type RunSummary struct {
	FreshRunID    string `json:"fresh_run_id"`
	InstRunID     string `json:"inst_run_id,omitempty"`
	FreshCount    int    `json:"fresh_count"`
	InstCount     int    `json:"inst_count"`
	SegmentsCount int    `json:"segments_count"`
	Digest        string `json:"digest"`
}

// Runner executes the full evidence-to-recommendation pipeline for one
// as-of time: regimes, evidence bundles, fresh-signal scoring, 13F scoring,
// segment classification, persistence.
type Runner struct {
	provider DataProvider
	repo     *Repository
	metrics  *metrics.Metrics
	params   RunnerParams
	log      zerolog.Logger
}

// NewRunner wires a pipeline runner.
func NewRunner(provider DataProvider, repo *Repository, m *metrics.Metrics, params RunnerParams, log zerolog.Logger) *Runner {
	return &Runner{
		provider: provider,
		repo:     repo,
		metrics:  m,
		params:   params,
		log:      log.With().Str("component", "snapshot_runner").Logger(),
	}
}

// Run executes one pass. All I/O happens at the edges (fetch, persist); the
// stages in between are deterministic for a fixed dataset and as-of time.
func (r *Runner) Run(ctx context.Context, asOf time.Time) (*RunSummary, error) {
	start := time.Now()

	ds, err := r.provider.Fetch(ctx, asOf)
	if err != nil {
		r.metrics.ObserveRun(KindFreshSignals, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}

	market := regime.Compute(r.params.MarketTicker, ds.Prices[r.params.MarketTicker], asOf)
	sectors := regime.ComputeSectors(r.params.SectorProxies, ds.Prices, asOf)

	instRows, context13F, coverage := r.resolve13F(ds)
	instResults := whales.Score(instRows, coverage, r.params.TopN)

	bundles := evidence.Aggregate(evidence.Inputs{
		Filings:             ds.Filings,
		InsiderTxs:          ds.InsiderTxs,
		Prices:              ds.Prices,
		SocialBuckets:       ds.SocialBuckets,
		Context13F:          context13F,
		Market:              market,
		Sectors:             sectors,
		SectorProxyByTicker: r.params.SectorProxyByTicker,
	}, evidence.Params{
		AsOf:                    asOf,
		FreshDays:               r.params.FreshDays,
		InsiderMinValue:         r.params.InsiderMinValue,
		SocialEnabled:           r.params.SocialEnabled,
		SocialVelocityThreshold: r.params.SocialVelocityThreshold,
		SocialMinMentions:       r.params.SocialMinMentions,
	})

	freshResults := signals.ScoreAll(bundles, signals.Params{
		AsOf:            asOf,
		FreshDays:       r.params.FreshDays,
		InsiderMinValue: r.params.InsiderMinValue,
		TopN:            r.params.TopN,
		BuyThreshold:    r.params.BuyThreshold,
		AvoidThreshold:  r.params.AvoidThreshold,
	})

	board := segments.Classify(freshResults, instResults, asOf, r.params.PicksPerSegment)

	summary, err := r.persist(asOf, freshResults, instResults, board)
	if err != nil {
		r.metrics.ObserveRun(KindFreshSignals, "error", time.Since(start).Seconds())
		return nil, err
	}

	elapsed := time.Since(start).Seconds()
	r.metrics.ObserveRun(KindFreshSignals, "ok", elapsed)
	if summary.InstRunID != "" {
		r.metrics.ObserveRun(KindInstitutional13F, "ok", elapsed)
	}
	for _, res := range freshResults {
		r.metrics.ObserveResult(KindFreshSignals, string(res.Action), res.Score, res.Confidence)
	}
	for _, res := range instResults {
		r.metrics.ObserveResult(KindInstitutional13F, string(res.Action), res.Score, res.Confidence)
	}

	r.log.Info().
		Time("as_of", asOf).
		Int("fresh", summary.FreshCount).
		Int("institutional", summary.InstCount).
		Int("segments", summary.SegmentsCount).
		Str("digest", summary.Digest).
		Float64("seconds", elapsed).
		Msg("Snapshot pass complete")
	return summary, nil
}

// resolve13F maps CUSIP-level deltas to ticker-level scoring rows and
// per-ticker context. Coverage is the value share of current holdings that
// resolved to a ticker; nil when there are no holdings at all.
func (r *Runner) resolve13F(ds *Dataset) ([]whales.ScoredRow, map[string]*evidence.Context13F, *float64) {
	if len(ds.CurrentHoldings) == 0 && len(ds.PreviousHoldings) == 0 {
		return nil, nil, nil
	}

	deltas := whales.ComputeDeltas(ds.CurrentHoldings, ds.PreviousHoldings, nil)

	period := ""
	prevPeriod := ""
	if !ds.ReportPeriod.IsZero() {
		period = ds.ReportPeriod.Format("2006-01-02")
		if prev := whales.PreviousQuarterEnd(ds.ReportPeriod); !prev.IsZero() {
			prevPeriod = prev.Format("2006-01-02")
		}
	}

	rows := make([]whales.ScoredRow, 0, len(deltas))
	context13F := make(map[string]*evidence.Context13F)
	var totalValue, mappedValue int64
	for _, d := range deltas {
		info := ds.Securities[d.CUSIP]
		totalValue += d.TotalValueUSD
		if info.Ticker != "" {
			mappedValue += d.TotalValueUSD
		}

		rows = append(rows, whales.ScoredRow{
			Ticker:               info.Ticker,
			CUSIP:                d.CUSIP,
			DeltaValueUSD:        d.DeltaValueUSD,
			TotalValueUSD:        d.TotalValueUSD,
			ManagerCount:         d.ManagerCount,
			ManagerIncreaseCount: d.ManagerIncreaseCount,
			ManagerDecreaseCount: d.ManagerDecreaseCount,
			SecurityType:         info.SecurityType,
			SecurityType2:        info.SecurityType2,
			MarketSector:         info.MarketSector,
		})

		if info.Ticker != "" && context13F[info.Ticker] == nil {
			context13F[info.Ticker] = &evidence.Context13F{
				AsOf:                 period,
				ReportPeriod:         period,
				PreviousPeriod:       prevPeriod,
				DeltaValueUSD:        d.DeltaValueUSD,
				TotalValueUSD:        d.TotalValueUSD,
				ManagerCount:         d.ManagerCount,
				ManagerIncreaseCount: d.ManagerIncreaseCount,
				ManagerDecreaseCount: d.ManagerDecreaseCount,
			}
		}
	}

	var coverage *float64
	if totalValue > 0 {
		c := float64(mappedValue) / float64(totalValue)
		coverage = &c
	}
	return rows, context13F, coverage
}

func (r *Runner) persist(asOf time.Time, fresh []signals.Result, inst []whales.Result, board *segments.Board) (*RunSummary, error) {
	paramsJSON, err := json.Marshal(r.params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run params: %w", err)
	}

	freshRows := make([]domain.ScoreResult, 0, len(fresh))
	for _, res := range fresh {
		freshRows = append(freshRows, res.ScoreResult())
	}
	instRows := make([]domain.ScoreResult, 0, len(inst))
	for _, res := range inst {
		instRows = append(instRows, res.ScoreResult())
	}

	digest, err := Digest(map[string]any{
		"schema":            artifactSchema,
		"as_of":             asOf.UTC().Format(time.RFC3339),
		"fresh_signals":     freshRows,
		"institutional_13f": instRows,
		"segments":          board,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute digest: %w", err)
	}

	now := time.Now().UTC()
	summary := &RunSummary{
		FreshCount:    len(fresh),
		InstCount:     len(inst),
		SegmentsCount: len(board.Flatten()),
		Digest:        digest,
	}

	if len(instRows) > 0 {
		instRun := &Run{
			ID:        uuid.NewString(),
			Kind:      KindInstitutional13F,
			AsOf:      asOf,
			Params:    string(paramsJSON),
			Digest:    digest,
			CreatedAt: now,
		}
		if err := r.repo.InsertRun(instRun, instRows); err != nil {
			return nil, err
		}
		summary.InstRunID = instRun.ID
	}

	freshRun := &Run{
		ID:        uuid.NewString(),
		Kind:      KindFreshSignals,
		AsOf:      asOf,
		Params:    string(paramsJSON),
		Digest:    digest,
		CreatedAt: now,
	}
	if err := r.repo.InsertRun(freshRun, freshRows); err != nil {
		return nil, err
	}
	summary.FreshRunID = freshRun.ID

	if err := r.repo.InsertSegments(freshRun.ID, board.Flatten()); err != nil {
		return nil, err
	}
	return summary, nil
}
