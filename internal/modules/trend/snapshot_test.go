package trend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(n int, start, step float64) ([]string, []float64) {
	dates := make([]string, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		dates[i] = fmt.Sprintf("2026-%02d-%02d", 1+i/28, 1+i%28)
		closes[i] = start + float64(i)*step
	}
	return dates, closes
}

func TestComputeRejectsBadInput(t *testing.T) {
	assert.Nil(t, Compute(nil, nil))
	assert.Nil(t, Compute([]string{"2026-01-01"}, nil))
	assert.Nil(t, Compute([]string{"2026-01-01"}, []float64{1, 2}))
}

func TestComputeShortSeriesDegradesToNils(t *testing.T) {
	dates, closes := series(30, 100, 1)
	s := Compute(dates, closes)
	require.NotNil(t, s)

	assert.Nil(t, s.SMA50)
	assert.Nil(t, s.SMA200)
	assert.Nil(t, s.High60)
	assert.NotNil(t, s.Return20) // 21+ bars is enough for the 20D return
	assert.False(t, s.Bullish)
	assert.False(t, s.Bearish)
	assert.False(t, s.BelowSMA200)
}

func TestComputeBullishExtended(t *testing.T) {
	dates, closes := series(60, 100, 1)
	s := Compute(dates, closes)
	require.NotNil(t, s)

	require.NotNil(t, s.SMA50)
	assert.InDelta(t, 134.5, *s.SMA50, 1e-9)
	assert.Equal(t, 159.0, s.Close)
	require.NotNil(t, s.Return20)
	assert.Greater(t, *s.Return20, 0.0)

	assert.True(t, s.Bullish)
	assert.False(t, s.Bearish)
	assert.True(t, s.ExtendedUp, "18%% above SMA50")
	assert.True(t, s.NearResistance60, "at the 60D high")
	assert.False(t, s.NearSupport)
}

func TestComputeNearSupport(t *testing.T) {
	dates, closes := series(60, 100, 0)
	closes[len(closes)-1] = 100.5
	s := Compute(dates, closes)
	require.NotNil(t, s)

	assert.True(t, s.Bullish)
	assert.True(t, s.NearSupport)
	assert.False(t, s.ExtendedUp)
}

func TestComputeBearish(t *testing.T) {
	dates, closes := series(60, 159, -1)
	s := Compute(dates, closes)
	require.NotNil(t, s)

	assert.False(t, s.Bullish)
	assert.True(t, s.Bearish)
	assert.False(t, s.NearSupport)
	assert.False(t, s.ExtendedUp)
	assert.False(t, s.NearResistance60)
}

func TestComputeBelowSMA200(t *testing.T) {
	dates, closes := series(250, 349, -1)
	s := Compute(dates, closes)
	require.NotNil(t, s)

	require.NotNil(t, s.SMA200)
	assert.True(t, s.BelowSMA200)
	assert.True(t, s.Bearish)
}

func TestComputeDistances(t *testing.T) {
	dates, closes := series(60, 100, 1)
	s := Compute(dates, closes)
	require.NotNil(t, s)

	require.NotNil(t, s.DistSMA50)
	assert.InDelta(t, 159.0/134.5-1, *s.DistSMA50, 1e-9)
	require.NotNil(t, s.DistHigh60)
	assert.InDelta(t, 0, *s.DistHigh60, 1e-9)
	require.NotNil(t, s.DistLow60)
	assert.InDelta(t, 159.0/100.0-1, *s.DistLow60, 1e-9)
}
