package whales

import (
	"math"
	"sort"
	"strings"

	"github.com/wealthpulse/signals/internal/domain"
	"github.com/wealthpulse/signals/pkg/formulas"
)

// SegmentLabel is the human label carried on every 13F result.
const SegmentLabel = "Institutional Accumulation (13F)"

// sizeCeilingUSD is where the log-compressed position-size component
// saturates ($100B aggregate value).
const sizeCeilingUSD = 100_000_000_000.0

// ScoredRow is one 13F delta with the security metadata needed for the
// equity filter.
type ScoredRow struct {
	Ticker               string
	CUSIP                string
	DeltaValueUSD        int64
	TotalValueUSD        int64
	ManagerCount         int
	ManagerIncreaseCount int
	ManagerDecreaseCount int

	// OpenFIGI-style labels; any of them may be empty.
	SecurityType  string
	SecurityType2 string
	MarketSector  string
}

// Breadth is the manager increase/decrease split.
type Breadth struct {
	Increase int `json:"increase"`
	Decrease int `json:"decrease"`
	Total    int `json:"total"`
}

// MagnitudeBreakdown explains the rank-based magnitude component.
type MagnitudeBreakdown struct {
	Score     float64 `json:"score"`
	Component float64 `json:"component"`
	Rank      int     `json:"rank"`
	MaxRank   int     `json:"max_rank"`
}

// BreadthBreakdown explains the manager-breadth component.
type BreadthBreakdown struct {
	Score     float64 `json:"score"`
	Component float64 `json:"component"`
	Increase  int     `json:"increase"`
	Total     int     `json:"total"`
}

// SizeBreakdown explains the aggregate-size component.
type SizeBreakdown struct {
	Score         float64 `json:"score"`
	TotalValueUSD int64   `json:"total_value_usd"`
}

// PenaltyBreakdown explains the subtracted penalties.
type PenaltyBreakdown struct {
	Total               float64  `json:"total"`
	Coverage            float64  `json:"coverage"`
	SampleSize          float64  `json:"sample_size"`
	MappedCoverageRatio *float64 `json:"mapped_coverage_ratio"`
}

// ScoreBreakdown is the full component decomposition.
type ScoreBreakdown struct {
	Magnitude MagnitudeBreakdown `json:"magnitude"`
	Breadth   BreadthBreakdown   `json:"breadth"`
	Size      SizeBreakdown      `json:"size"`
	Penalty   PenaltyBreakdown   `json:"penalty"`
}

// Reasons is the audit trail for one 13F recommendation.
type Reasons struct {
	Signal        string         `json:"signal"`
	DeltaValueUSD int64          `json:"delta_value_usd"`
	TotalValueUSD int64          `json:"total_value_usd"`
	Breadth       Breadth        `json:"breadth"`
	RankAbsDelta  int            `json:"rank_abs_delta"`
	UniverseSize  int            `json:"universe_size"`
	Breakdown     ScoreBreakdown `json:"score_breakdown"`
}

// Result is one scored 13F accumulation idea.
type Result struct {
	Ticker     string
	Segment    string
	Action     domain.Action
	Direction  domain.Direction
	Score      int
	Confidence float64
	Reasons    *Reasons
}

// ScoreResult converts to the persisted generic form.
func (r Result) ScoreResult() domain.ScoreResult {
	return domain.ScoreResult{
		Ticker:     r.Ticker,
		Segment:    r.Segment,
		Action:     r.Action,
		Direction:  r.Direction,
		Score:      r.Score,
		Confidence: r.Confidence,
		Reasons:    r.Reasons,
	}
}

// isEquity is best-effort security-type filtering over OpenFIGI-style
// labels. Rows with no labels at all pass through; later corroborating
// signals are expected to weed out the noise.
func isEquity(r ScoredRow) bool {
	ms := strings.ToLower(strings.TrimSpace(r.MarketSector))
	st := strings.ToLower(strings.TrimSpace(r.SecurityType))
	st2 := strings.ToLower(strings.TrimSpace(r.SecurityType2))

	if ms != "" && ms != "equity" {
		return false
	}
	if strings.Contains(st, "etf") || strings.Contains(st2, "etf") {
		return false
	}
	if strings.Contains(st, "fund") || strings.Contains(st2, "fund") {
		return false
	}
	if strings.Contains(st2, "unit") {
		return false
	}

	if st2 != "" {
		if st2 == "equity" || st2 == "common stock" {
			return true
		}
		// Share-class variants ("class a" etc.) pass when the market
		// sector confirms equity.
		if ms == "equity" {
			return true
		}
	}
	return ms == "equity" || (ms == "" && st == "" && st2 == "")
}

// Score produces idea-generation picks from quarter-over-quarter 13F
// deltas. The source data is delayed by design, so action is always watch,
// direction is always bullish (only accumulation qualifies) and confidence
// is capped well below the fresh-signal range. coverageRatio is the share
// of 13F value mapped to tickers; nil when unknown. Emits at most one
// result per ticker: when several CUSIPs (share classes) resolve to the
// same ticker, the row with the largest |delta| represents it.
func Score(rows []ScoredRow, coverageRatio *float64, topN int) []Result {
	bestByTicker := make(map[string]ScoredRow, len(rows))
	for _, r := range rows {
		if r.Ticker == "" {
			continue
		}
		if r.DeltaValueUSD <= 0 {
			continue
		}
		if !isEquity(r) {
			continue
		}
		best, ok := bestByTicker[r.Ticker]
		if !ok {
			bestByTicker[r.Ticker] = r
			continue
		}
		ar, ab := absInt64(r.DeltaValueUSD), absInt64(best.DeltaValueUSD)
		if ar > ab || (ar == ab && r.CUSIP < best.CUSIP) {
			bestByTicker[r.Ticker] = r
		}
	}
	if len(bestByTicker) == 0 {
		return nil
	}

	filtered := make([]ScoredRow, 0, len(bestByTicker))
	for _, r := range bestByTicker {
		filtered = append(filtered, r)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Ticker < filtered[j].Ticker })

	byAbs := append([]ScoredRow(nil), filtered...)
	sort.Slice(byAbs, func(i, j int) bool {
		ai, aj := absInt64(byAbs[i].DeltaValueUSD), absInt64(byAbs[j].DeltaValueUSD)
		if ai != aj {
			return ai > aj
		}
		return byAbs[i].CUSIP < byAbs[j].CUSIP
	})
	absRank := make(map[string]int, len(byAbs))
	for i, r := range byAbs {
		absRank[r.Ticker] = i
	}
	n := len(byAbs)
	maxRank := n - 1
	if maxRank < 1 {
		maxRank = 1
	}
	maxAbsDelta := absInt64(byAbs[0].DeltaValueUSD)

	out := make([]Result, 0, len(filtered))
	for _, r := range filtered {
		rank := absRank[r.Ticker]
		magComponent := 1.0 - float64(rank)/float64(maxRank)
		magScore := 55.0 * magComponent

		breadth := 0.0
		if r.ManagerCount > 0 {
			breadth = float64(r.ManagerIncreaseCount) / float64(r.ManagerCount)
		}
		breadthScore := 25.0 * breadth

		total := r.TotalValueUSD
		if total < 0 {
			total = 0
		}
		sizeScore := 10.0 * formulas.Clamp(math.Log1p(float64(total))/math.Log1p(sizeCeilingUSD), 0, 1)

		coveragePen := 0.0
		if coverageRatio != nil {
			coveragePen = 10.0 * formulas.Clamp(0.20-*coverageRatio, 0, 0.20) / 0.20
		}
		samplePen := 0.0
		if r.ManagerCount < 3 {
			samplePen = 6.0
		}
		penalty := coveragePen + samplePen

		base := magScore + breadthScore + sizeScore - penalty
		score := int(math.Round(formulas.Clamp(base, 0, 100)))

		conf := 0.20
		conf += 0.15 * formulas.Clamp(math.Log1p(float64(r.ManagerCount))/math.Log1p(25), 0, 1)
		conf += 0.20 * formulas.Clamp(float64(absInt64(r.DeltaValueUSD))/float64(maxAbsDelta), 0, 1)
		if coverageRatio != nil {
			conf -= 0.15 * formulas.Clamp(0.10-*coverageRatio, 0, 0.10) / 0.10
		}
		conf = formulas.Clamp(conf, 0.05, 0.65)

		out = append(out, Result{
			Ticker:     r.Ticker,
			Segment:    SegmentLabel,
			Action:     domain.ActionWatch,
			Direction:  domain.DirectionBullish,
			Score:      score,
			Confidence: conf,
			Reasons: &Reasons{
				Signal:        "13F quarter-over-quarter delta (delayed)",
				DeltaValueUSD: r.DeltaValueUSD,
				TotalValueUSD: r.TotalValueUSD,
				Breadth: Breadth{
					Increase: r.ManagerIncreaseCount,
					Decrease: r.ManagerDecreaseCount,
					Total:    r.ManagerCount,
				},
				RankAbsDelta: rank + 1,
				UniverseSize: n,
				Breakdown: ScoreBreakdown{
					Magnitude: MagnitudeBreakdown{Score: magScore, Component: magComponent, Rank: rank + 1, MaxRank: maxRank + 1},
					Breadth:   BreadthBreakdown{Score: breadthScore, Component: breadth, Increase: r.ManagerIncreaseCount, Total: r.ManagerCount},
					Size:      SizeBreakdown{Score: sizeScore, TotalValueUSD: r.TotalValueUSD},
					Penalty: PenaltyBreakdown{
						Total:               penalty,
						Coverage:            coveragePen,
						SampleSize:          samplePen,
						MappedCoverageRatio: coverageRatio,
					},
				},
			},
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Ticker < out[j].Ticker
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
