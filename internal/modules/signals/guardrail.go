package signals

import (
	"math"

	"github.com/wealthpulse/signals/internal/modules/trend"
	"github.com/wealthpulse/signals/pkg/formulas"
)

// GuardrailResult is the auditable breakdown of the entry-quality layer.
type GuardrailResult struct {
	ScoreBefore int      `json:"score_before"`
	ScoreAfter  int      `json:"score_after"`
	FT          float64  `json:"ft"`
	Adj         int      `json:"adj"`
	Notes       []string `json:"notes"`
}

// ApplyGuardrail post-processes a raw score using only the technical
// snapshot. It is deliberately not a full technical system, just a
// penalty/boost layer: penalize chasing (extended above SMA50, near the
// 60D high), lightly boost entries near SMA50 support, and nudge down
// non-bullish names below SMA200. A nil snapshot leaves the score unchanged.
func ApplyGuardrail(score int, tech *trend.Snapshot) GuardrailResult {
	if tech == nil {
		return GuardrailResult{
			ScoreBefore: score,
			ScoreAfter:  score,
			FT:          1.0,
			Notes:       []string{"no technical data"},
		}
	}

	ft := 1.0
	adj := 0
	var notes []string

	if tech.Bullish && tech.NearSupport {
		ft *= 1.05
		adj += 2
		notes = append(notes, "near SMA50 support")
	}

	if tech.Bullish && (tech.ExtendedUp || tech.NearResistance60) {
		ft *= 0.90
		if tech.ExtendedUp {
			notes = append(notes, "extended above SMA50")
		}
		if tech.NearResistance60 {
			notes = append(notes, "near 60D high")
		}
	}

	// Below SMA200 is a slow-trend risk flag; kept small, this is a
	// guardrail, not a signal.
	if tech.BelowSMA200 && !tech.Bullish {
		adj -= 3
		notes = append(notes, "below SMA200")
	}

	if notes == nil {
		notes = []string{"neutral"}
	}

	after := formulas.ClampInt(int(math.Round(float64(score)*ft))+adj, 0, 100)
	return GuardrailResult{
		ScoreBefore: score,
		ScoreAfter:  after,
		FT:          ft,
		Adj:         adj,
		Notes:       notes,
	}
}
