package whales

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthpulse/signals/internal/domain"
)

func TestPreviousQuarterEnd(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-03-31", "2025-12-31"},
		{"2026-06-30", "2026-03-31"},
		{"2026-09-30", "2026-06-30"},
		{"2026-12-31", "2026-09-30"},
	}
	for _, tt := range tests {
		in, err := time.Parse("2006-01-02", tt.in)
		require.NoError(t, err)
		got := PreviousQuarterEnd(in)
		assert.Equal(t, tt.want, got.Format("2006-01-02"), tt.in)
	}

	odd, _ := time.Parse("2006-01-02", "2026-05-15")
	assert.True(t, PreviousQuarterEnd(odd).IsZero())
}

func TestComputeDeltasAggregatesAndCountsManagers(t *testing.T) {
	current := []domain.HoldingValue{
		{InvestorID: "A", CUSIP: "037833100", ValueUSD: 600},
		// Same manager filing two rows for one CUSIP sums before compare.
		{InvestorID: "A", CUSIP: "037833100", ValueUSD: 100},
		{InvestorID: "B", CUSIP: "037833100", ValueUSD: 200},
		{InvestorID: "C", CUSIP: "594918104", ValueUSD: 500},
	}
	previous := []domain.HoldingValue{
		{InvestorID: "A", CUSIP: "037833100", ValueUSD: 400},
		{InvestorID: "B", CUSIP: "037833100", ValueUSD: 300},
		// Manager D exited entirely.
		{InvestorID: "D", CUSIP: "594918104", ValueUSD: 900},
	}

	rows := ComputeDeltas(current, previous, nil)
	require.Len(t, rows, 2)

	apple := rows[0]
	assert.Equal(t, "037833100", apple.CUSIP)
	assert.Equal(t, int64(900), apple.TotalValueUSD)
	assert.Equal(t, int64(200), apple.DeltaValueUSD)
	assert.Equal(t, 2, apple.ManagerCount)
	assert.Equal(t, 1, apple.ManagerIncreaseCount)
	assert.Equal(t, 1, apple.ManagerDecreaseCount)

	msft := rows[1]
	assert.Equal(t, "594918104", msft.CUSIP)
	assert.Equal(t, int64(500), msft.TotalValueUSD)
	assert.Equal(t, int64(-400), msft.DeltaValueUSD)
	assert.Equal(t, 2, msft.ManagerCount)
	assert.Equal(t, 1, msft.ManagerIncreaseCount)
	assert.Equal(t, 1, msft.ManagerDecreaseCount)
}

func TestComputeDeltasUniverseFilter(t *testing.T) {
	current := []domain.HoldingValue{
		{InvestorID: "A", CUSIP: "IN", ValueUSD: 100},
		{InvestorID: "A", CUSIP: "OUT", ValueUSD: 100},
	}
	rows := ComputeDeltas(current, nil, map[string]bool{"IN": true})
	require.Len(t, rows, 1)
	assert.Equal(t, "IN", rows[0].CUSIP)
}

func TestComputeDeltasSortedByDeltaDesc(t *testing.T) {
	current := []domain.HoldingValue{
		{InvestorID: "A", CUSIP: "LOW", ValueUSD: 10},
		{InvestorID: "A", CUSIP: "HIGH", ValueUSD: 100},
		{InvestorID: "A", CUSIP: "TIE1", ValueUSD: 50},
		{InvestorID: "A", CUSIP: "TIE2", ValueUSD: 50},
	}
	rows := ComputeDeltas(current, nil, nil)
	require.Len(t, rows, 4)
	assert.Equal(t, "HIGH", rows[0].CUSIP)
	assert.Equal(t, "TIE1", rows[1].CUSIP)
	assert.Equal(t, "TIE2", rows[2].CUSIP)
	assert.Equal(t, "LOW", rows[3].CUSIP)
}
