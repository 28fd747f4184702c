package evidence

import (
	"sort"
	"strings"
	"time"

	"github.com/wealthpulse/signals/internal/domain"
	"github.com/wealthpulse/signals/pkg/formulas"
)

// socialLookbackDays is the rolling window for the mention baseline.
const socialLookbackDays = 7

// computeSocialStats folds bucketed mention counts into per-ticker velocity
// and persistence reads.
//
// velocity = latest bucket mentions / mean of the prior buckets in window.
// persistent = the two most recent buckets both at or above
// threshold x baseline. Thresholding against MinMentions happens in the
// scorer so the raw read stays visible in reasons either way.
func computeSocialStats(buckets []domain.SocialBucket, asOf time.Time, velocityThreshold float64, minMentions int) map[string]*SocialStats {
	start := asOf.AddDate(0, 0, -socialLookbackDays)

	grouped := make(map[string][]domain.SocialBucket)
	for _, b := range buckets {
		if b.BucketStart.Before(start) || b.BucketStart.After(asOf) {
			continue
		}
		t := strings.ToUpper(strings.TrimSpace(b.Ticker))
		if t == "" {
			continue
		}
		grouped[t] = append(grouped[t], b)
	}

	out := make(map[string]*SocialStats, len(grouped))
	for t, rows := range grouped {
		// Newest first.
		sort.Slice(rows, func(i, j int) bool { return rows[i].BucketStart.After(rows[j].BucketStart) })

		latest := rows[0]
		stats := &SocialStats{
			Enabled:           true,
			Source:            latest.Source,
			LatestBucketStart: latest.BucketStart.Format(time.RFC3339),
			MentionsLatest:    latest.Mentions,
			SentimentHint:     latest.SentimentHint,
			VelocityThreshold: velocityThreshold,
			MinMentions:       minMentions,
		}

		if len(rows) > 1 {
			prev := make([]float64, 0, len(rows)-1)
			for _, r := range rows[1:] {
				prev = append(prev, float64(r.Mentions))
			}
			baseline := formulas.Mean(prev)
			stats.MentionsBaseline = &baseline
			if baseline > 0 {
				velocity := float64(latest.Mentions) / baseline
				stats.Velocity = &velocity
				// Two-window persistence: this bucket and the one before it.
				stats.Persistent = float64(rows[0].Mentions) >= velocityThreshold*baseline &&
					float64(rows[1].Mentions) >= velocityThreshold*baseline
			}
		}

		out[t] = stats
	}
	return out
}
