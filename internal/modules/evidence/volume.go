package evidence

import (
	"github.com/wealthpulse/signals/pkg/formulas"
)

const (
	volumeWindow     = 20
	volumeSpikeRatio = 1.8
)

// computeVolumeStats compares the latest volume against the trailing
// 20-bar average. Bars with unknown volume are skipped; fewer than 21 known
// volumes yields all-nil stats, never an error.
func computeVolumeStats(volumes []*int64) *VolumeStats {
	known := make([]float64, 0, len(volumes))
	for _, v := range volumes {
		if v != nil {
			known = append(known, float64(*v))
		}
	}
	if len(known) < volumeWindow+1 {
		return &VolumeStats{}
	}

	latest := known[len(known)-1]
	avg := formulas.Mean(known[len(known)-1-volumeWindow : len(known)-1])

	out := &VolumeStats{Avg20: &avg, Latest: &latest}
	if avg != 0 {
		ratio := latest / avg
		spike := ratio >= volumeSpikeRatio
		out.Ratio = &ratio
		out.Spike = &spike
	}
	return out
}
