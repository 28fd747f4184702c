package signals

import (
	"math"
	"sort"
	"time"

	"github.com/wealthpulse/signals/internal/domain"
	"github.com/wealthpulse/signals/internal/modules/evidence"
	"github.com/wealthpulse/signals/pkg/formulas"
)

// SegmentLabel is the human label carried on every fresh-signal result.
const SegmentLabel = "Fresh Whale Signals (SC13 + Insider + Trend)"

// netDollarCeiling is where the log-compressed insider net component
// saturates (~$100M).
const netDollarCeiling = 100_000_000.0

// scheduledTradeWeight discounts 10b5-1 flow: a pre-arranged trade is much
// weaker evidence of conviction than a discretionary one.
const scheduledTradeWeight = 0.20

// clusterBuyMinInsiders is the distinct-buyer count for the cluster bonus.
const clusterBuyMinInsiders = 3

// Params are the scoring-pass knobs.
type Params struct {
	AsOf            time.Time
	FreshDays       int
	InsiderMinValue float64
	TopN            int
	BuyThreshold    int
	AvoidThreshold  int
}

// DefaultParams mirror the production defaults.
func DefaultParams(asOf time.Time) Params {
	return Params{
		AsOf:            asOf,
		FreshDays:       7,
		InsiderMinValue: 100_000,
		TopN:            20,
		BuyThreshold:    75,
		AvoidThreshold:  35,
	}
}

// Result is one scored ticker with its full audit trail.
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

// ScoreAll scores every bundle and returns the rows ranked by score then
// confidence, truncated to TopN. Bundles arrive deduplicated by ticker, so
// one result per ticker is structural.
func ScoreAll(bundles []evidence.Bundle, p Params) []Result {
	out := make([]Result, 0, len(bundles))
	for i := range bundles {
		out = append(out, Score(&bundles[i], p))
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
	if p.TopN > 0 && len(out) > p.TopN {
		out = out[:p.TopN]
	}
	return out
}

// Score fuses one evidence bundle into a scored recommendation. Stages run
// in a fixed order: component sum -> guardrail -> cluster bonus ->
// divergence; order matters (the cluster bonus is applied after the
// guardrail so the chasing penalty cannot erode it).
func Score(b *evidence.Bundle, p Params) Result {
	components := []Component{{Label: "neutral_base", Delta: 50}}

	// SC13: the strongest single signal - event-driven, discloses intent.
	if b.SC13Count > 0 {
		components = append(components, Component{
			Label: "sc13",
			Delta: 45.0 + math.Min(15.0, 5.0*math.Min(float64(b.SC13Count), 3)),
		})
	}

	// Insider net flow, scheduled trades at reduced weight, log-compressed
	// magnitude so mega-cap trades cannot dominate by dollar size alone.
	net := (b.InsiderBuyValue - b.InsiderSellValue) +
		scheduledTradeWeight*(b.InsiderBuyValue10b5-b.InsiderSellValue10b5)
	netComponent := 25.0 * formulas.DollarMagnitude(net, netDollarCeiling)
	if net > 0 {
		components = append(components, Component{Label: "insider_net", Delta: +netComponent})
	} else if net < 0 {
		components = append(components, Component{Label: "insider_net", Delta: -netComponent})
	}

	// Trend: timing.
	if b.TrendBullishRecent {
		components = append(components, Component{Label: "trend", Delta: +10})
	} else if b.TrendBearishRecent {
		components = append(components, Component{Label: "trend", Delta: -10})
	}

	// Volume confirmation: only meaningful alongside a trend direction.
	if b.VolumeSpike && b.TrendBullishRecent {
		components = append(components, Component{Label: "volume_confirmation", Delta: +5})
	} else if b.VolumeSpike && b.TrendBearishRecent {
		components = append(components, Component{Label: "volume_confirmation", Delta: -5})
	}

	// 13F context: tiny, it is quarter-stale.
	if b.Context13F != nil {
		if b.Context13F.DeltaValueUSD > 0 {
			components = append(components, Component{Label: "context_13f", Delta: +5})
		} else if b.Context13F.DeltaValueUSD < 0 {
			components = append(components, Component{Label: "context_13f", Delta: -3})
		}
	}

	marketAdj := Adjustment{}
	if b.Market != nil {
		if b.Market.BearishRecent {
			marketAdj = Adjustment{Score: -2, Confidence: -0.05}
		} else if b.Market.BullishRecent {
			marketAdj = Adjustment{Score: +1, Confidence: +0.02}
		}
	}
	if marketAdj.Score != 0 {
		components = append(components, Component{Label: "market_regime", Delta: marketAdj.Score})
	}

	sectorAdj := Adjustment{}
	if b.Sector != nil {
		if b.Sector.BearishRecent {
			sectorAdj = Adjustment{Score: -1, Confidence: -0.02}
		} else if b.Sector.BullishRecent {
			sectorAdj = Adjustment{Score: +1, Confidence: +0.01}
		}
	}
	if sectorAdj.Score != 0 {
		components = append(components, Component{Label: "sector_regime", Delta: sectorAdj.Score})
	}

	socialAdj := socialAdjustment(b.Social)
	if socialAdj.Score != 0 {
		components = append(components, Component{Label: "social", Delta: socialAdj.Score})
	}

	var raw float64
	for _, c := range components {
		raw += c.Delta
	}
	score := int(math.Round(formulas.Clamp(raw, 0, 100)))

	guardrail := ApplyGuardrail(score, b.Trend)
	score = guardrail.ScoreAfter

	// Cluster discretionary buys are a higher-quality insider signal.
	clusterBonus := 0
	if b.ClusterBuyInsiders >= clusterBuyMinInsiders && b.InsiderBuyValue >= p.InsiderMinValue {
		clusterBonus = 5
		score = formulas.ClampInt(score+clusterBonus, 0, 100)
	}

	conviction := (score + 9) / 10

	// Direction. The bullish check runs first and the bearish check only
	// fills a still-neutral slot; mixed evidence is resolved by the
	// divergence stage, not here.
	direction := domain.DirectionNeutral
	if b.TrendBullishRecent || net > 0 {
		direction = domain.DirectionBullish
	}
	if (b.TrendBearishRecent || net < 0) && direction == domain.DirectionNeutral {
		direction = domain.DirectionBearish
	}

	insiderDir := domain.DirectionNeutral
	if net > 0 {
		insiderDir = domain.DirectionBullish
	} else if net < 0 {
		insiderDir = domain.DirectionBearish
	}
	trendDir := domain.DirectionNeutral
	if b.TrendBullishRecent {
		trendDir = domain.DirectionBullish
	} else if b.TrendBearishRecent {
		trendDir = domain.DirectionBearish
	}

	divergence := AnalyzeDivergence(insiderDir, trendDir, b.SC13Count)
	if divergence.ScoreAdjustment != 0 {
		score = formulas.ClampInt(score+divergence.ScoreAdjustment, 0, 100)
	}

	hasFreshEvent := b.SC13Count > 0 ||
		b.InsiderBuyValue >= p.InsiderMinValue ||
		b.InsiderSellValue >= p.InsiderMinValue ||
		b.InsiderBuyValue10b5 >= p.InsiderMinValue ||
		b.InsiderSellValue10b5 >= p.InsiderMinValue

	// BUY prefers discretionary evidence; scheduled-only setups cannot
	// upgrade to buy.
	strongInsiderBuy := b.InsiderBuyValue >= p.InsiderMinValue
	action := domain.ActionWatch
	switch {
	case score >= p.BuyThreshold && hasFreshEvent &&
		(b.TrendBullishRecent || net > 0) &&
		(b.SC13Count > 0 || strongInsiderBuy || b.TrendBullishRecent || net > 0):
		action = domain.ActionBuy
	case score <= p.AvoidThreshold && hasFreshEvent &&
		(b.TrendBearishRecent || (net < 0 && !b.TrendBullishRecent)):
		action = domain.ActionAvoid
	case divergence.Label == DivergenceBearish && score <= p.AvoidThreshold+5:
		// Escalate when insider flow strongly contradicts a bullish trend.
		action = domain.ActionAvoid
	}

	// Confidence measures signal reliability, not profit probability.
	conf := 0.25
	if b.SC13Count > 0 {
		conf += 0.25
	}
	if b.InsiderBuyValue >= p.InsiderMinValue {
		conf += 0.20
	} else if b.InsiderBuyValue10b5 >= p.InsiderMinValue {
		conf += 0.05
	}
	if b.InsiderSellValue >= p.InsiderMinValue {
		conf += 0.10
	} else if b.InsiderSellValue10b5 >= p.InsiderMinValue {
		conf += 0.02
	}
	if clusterBonus > 0 {
		conf += 0.15
	}
	if b.Trend != nil && (b.TrendBullishRecent || b.TrendBearishRecent) {
		conf += 0.15
	}
	if b.VolumeSpike {
		conf += 0.05
	}
	if b.Context13F != nil {
		conf += 0.05
	}
	conf += marketAdj.Confidence
	conf += sectorAdj.Confidence
	conf += socialAdj.Confidence
	conf += divergence.ConfidenceAdjustment
	conf = formulas.Clamp(conf, 0.10, 0.90)

	reasons := &Reasons{
		Signal:          "Fresh whale signals (SC13 + Form 4 + trend/volume)",
		AsOf:            p.AsOf.Format(time.RFC3339),
		FreshDays:       p.FreshDays,
		InsiderMinValue: p.InsiderMinValue,
		SC13: SC13Reason{
			Count:         b.SC13Count,
			LatestFiledAt: b.SC13LatestFiledAt,
		},
		Insider: InsiderReason{
			BuyValue:            b.InsiderBuyValue,
			SellValue:           b.InsiderSellValue,
			NetValue:            net,
			BuyCount:            b.InsiderBuyCount,
			SellCount:           b.InsiderSellCount,
			BuyValue10b5:        b.InsiderBuyValue10b5,
			SellValue10b5:       b.InsiderSellValue10b5,
			BuyCount10b5:        b.InsiderBuyCount10b5,
			SellCount10b5:       b.InsiderSellCount10b5,
			ClusterBuyInsiders:  b.ClusterBuyInsiders,
			LatestEventDate:     b.InsiderLatestEventDate,
			EstimatedValueCount: b.EstimatedValueCount,
		},
		Policy: QualityPolicy{
			CodesHighSignal:    []string{"P", "S"},
			CodesIgnored:       []string{"A", "M", "G"},
			PlannedTradeWeight: scheduledTradeWeight,
			ClusterBuyRule:     ">=3 distinct insiders with discretionary P in fresh window",
		},
		Components:   components,
		Trend:        b.Trend,
		TrendFlags:   TrendFlags{BullishRecent: b.TrendBullishRecent, BearishRecent: b.TrendBearishRecent},
		Guardrail:    guardrail,
		ClusterBonus: clusterBonus,
		Volume:       b.Volume,
		Context13F:   b.Context13F,
		Market:       b.Market,
		MarketAdjustment: marketAdj,
		Sector:           b.Sector,
		SectorAdjustment: sectorAdj,
		Social:           b.Social,
		SocialAdjustment: socialAdj,
		Divergence:       divergence,
		Conviction:       conviction,
		Evidence: EvidenceEcho{
			SC13Filings: b.SC13Filings,
			InsiderTxs:  b.InsiderTxs,
		},
	}

	return Result{
		Ticker:     b.Ticker,
		Segment:    SegmentLabel,
		Action:     action,
		Direction:  direction,
		Score:      score,
		Confidence: conf,
		Reasons:    reasons,
	}
}

// socialAdjustment converts the social read into score/confidence deltas.
// A persistent spike is worth +/-4; a one-window spike only +/-1 with a
// small confidence penalty (less-trusted signal). Sign follows the
// sentiment hint; absent or non-negative sentiment reads positive.
func socialAdjustment(s *evidence.SocialStats) Adjustment {
	if s == nil || !s.Enabled {
		return Adjustment{}
	}
	velocity := 0.0
	if s.Velocity != nil {
		velocity = *s.Velocity
	}
	if velocity < s.VelocityThreshold || s.MentionsLatest < s.MinMentions {
		return Adjustment{}
	}

	positive := s.SentimentHint == nil || *s.SentimentHint >= 0
	if s.Persistent {
		if positive {
			return Adjustment{Score: +4, Confidence: +0.04}
		}
		return Adjustment{Score: -4, Confidence: -0.04}
	}
	if positive {
		return Adjustment{Score: +1, Confidence: -0.01}
	}
	return Adjustment{Score: -1, Confidence: -0.01}
}
