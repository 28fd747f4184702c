package signals

import (
	"github.com/wealthpulse/signals/internal/domain"
)

// Divergence labels.
const (
	DivergenceNone        = "none"
	DivergenceAlignment   = "alignment"
	DivergenceBullish     = "bullish_divergence"
	DivergenceBearish     = "bearish_divergence"
	DivergenceSC13Trend   = "sc13_trend_conflict"
)

// Divergence classifies the relationship between insider-flow direction and
// price-trend direction, with the score/confidence correction it implies.
type Divergence struct {
	Label                string  `json:"label"`
	InsiderDirection     string  `json:"insider_direction"`
	TrendDirection       string  `json:"trend_direction"`
	ScoreAdjustment      int     `json:"score_adjustment"`
	ConfidenceAdjustment float64 `json:"confidence_adjustment"`
	Note                 string  `json:"note"`
}

// AnalyzeDivergence compares insider and trend directions. Insiders selling
// against a bullish trend is weighted most heavily: it is the conflict least
// commonly explained away.
func AnalyzeDivergence(insiderDir, trendDir domain.Direction, sc13Count int) Divergence {
	d := Divergence{
		Label:            DivergenceNone,
		InsiderDirection: string(insiderDir),
		TrendDirection:   string(trendDir),
		Note:             "signals are neutral/mixed",
	}

	switch {
	case insiderDir == domain.DirectionBullish && trendDir == domain.DirectionBearish:
		d.Label = DivergenceBullish
		d.Note = "insider accumulation while trend is bearish"
		d.ScoreAdjustment = +3
		d.ConfidenceAdjustment = -0.03
	case insiderDir == domain.DirectionBearish && trendDir == domain.DirectionBullish:
		d.Label = DivergenceBearish
		d.Note = "insider selling against bullish trend"
		d.ScoreAdjustment = -8
		d.ConfidenceAdjustment = -0.08
	case sc13Count > 0 && trendDir == domain.DirectionBearish:
		d.Label = DivergenceSC13Trend
		d.Note = "SC13 filing present but price trend is bearish"
		d.ScoreAdjustment = -4
		d.ConfidenceAdjustment = -0.06
	case insiderDir != domain.DirectionNeutral && insiderDir == trendDir:
		d.Label = DivergenceAlignment
		d.Note = "insider flow and trend are aligned"
		d.ScoreAdjustment = +1
		d.ConfidenceAdjustment = +0.02
	}

	return d
}
