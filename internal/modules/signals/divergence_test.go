package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wealthpulse/signals/internal/domain"
)

func TestAnalyzeDivergence(t *testing.T) {
	tests := []struct {
		name       string
		insider    domain.Direction
		trend      domain.Direction
		sc13       int
		wantLabel  string
		wantScore  int
		wantConf   float64
	}{
		{
			name:      "insider buys into bearish trend",
			insider:   domain.DirectionBullish,
			trend:     domain.DirectionBearish,
			wantLabel: DivergenceBullish,
			wantScore: 3,
			wantConf:  -0.03,
		},
		{
			name:      "insider sells against bullish trend",
			insider:   domain.DirectionBearish,
			trend:     domain.DirectionBullish,
			wantLabel: DivergenceBearish,
			wantScore: -8,
			wantConf:  -0.08,
		},
		{
			name:      "sc13 against bearish trend",
			insider:   domain.DirectionNeutral,
			trend:     domain.DirectionBearish,
			sc13:      1,
			wantLabel: DivergenceSC13Trend,
			wantScore: -4,
			wantConf:  -0.06,
		},
		{
			name:      "bullish alignment",
			insider:   domain.DirectionBullish,
			trend:     domain.DirectionBullish,
			wantLabel: DivergenceAlignment,
			wantScore: 1,
			wantConf:  0.02,
		},
		{
			name:      "neutral on both sides",
			insider:   domain.DirectionNeutral,
			trend:     domain.DirectionNeutral,
			wantLabel: DivergenceNone,
		},
		{
			name:      "neutral trend with insider flow",
			insider:   domain.DirectionBullish,
			trend:     domain.DirectionNeutral,
			wantLabel: DivergenceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeDivergence(tt.insider, tt.trend, tt.sc13)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantScore, got.ScoreAdjustment)
			assert.InDelta(t, tt.wantConf, got.ConfidenceAdjustment, 1e-9)
			assert.Equal(t, string(tt.insider), got.InsiderDirection)
			assert.Equal(t, string(tt.trend), got.TrendDirection)
		})
	}
}

func TestBullishInsiderWithBearishTrendOutranksSC13Conflict(t *testing.T) {
	// When both patterns could match, the insider-flow read wins; the
	// sc13 conflict case only applies when insiders are silent.
	got := AnalyzeDivergence(domain.DirectionBullish, domain.DirectionBearish, 2)
	assert.Equal(t, DivergenceBullish, got.Label)
}
