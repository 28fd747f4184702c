package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vols(values ...int64) []*int64 {
	out := make([]*int64, len(values))
	for i, v := range values {
		out[i] = ip(v)
	}
	return out
}

func TestComputeVolumeStatsInsufficientData(t *testing.T) {
	v := make([]int64, 20)
	for i := range v {
		v[i] = 100
	}
	stats := computeVolumeStats(vols(v...))
	require.NotNil(t, stats)
	assert.Nil(t, stats.Avg20)
	assert.Nil(t, stats.Latest)
	assert.Nil(t, stats.Ratio)
	assert.Nil(t, stats.Spike)
}

func TestComputeVolumeStatsSpikeThreshold(t *testing.T) {
	tests := []struct {
		name   string
		latest int64
		spike  bool
	}{
		{"at threshold", 180, true},
		{"just under", 179, false},
		{"well over", 500, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := make([]int64, 0, 21)
			for i := 0; i < 20; i++ {
				v = append(v, 100)
			}
			v = append(v, tt.latest)

			stats := computeVolumeStats(vols(v...))
			require.NotNil(t, stats.Avg20)
			assert.InDelta(t, 100.0, *stats.Avg20, 1e-9)
			require.NotNil(t, stats.Ratio)
			assert.InDelta(t, float64(tt.latest)/100.0, *stats.Ratio, 1e-9)
			require.NotNil(t, stats.Spike)
			assert.Equal(t, tt.spike, *stats.Spike)
		})
	}
}

func TestComputeVolumeStatsSkipsUnknownVolumes(t *testing.T) {
	volumes := make([]*int64, 0, 30)
	for i := 0; i < 20; i++ {
		volumes = append(volumes, ip(100), nil)
	}
	volumes = append(volumes, ip(200))

	stats := computeVolumeStats(volumes)
	require.NotNil(t, stats.Ratio)
	assert.InDelta(t, 2.0, *stats.Ratio, 1e-9)
	require.NotNil(t, stats.Spike)
	assert.True(t, *stats.Spike)
}
