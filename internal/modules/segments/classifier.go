package segments

import (
	"fmt"
	"sort"
	"time"

	"github.com/wealthpulse/signals/internal/domain"
	"github.com/wealthpulse/signals/internal/modules/signals"
	"github.com/wealthpulse/signals/internal/modules/whales"
	"github.com/wealthpulse/signals/pkg/formulas"
)

// DefaultPicksPerSegment is the display depth of each bucket.
const DefaultPicksPerSegment = 3

// Risk points. Accumulated per ticker; any nonzero total makes the ticker a
// risk candidate.
const (
	riskPointsAvoid      = 8
	riskPointsBearTrend  = 6
	riskPointsNetSelling = 4
	riskPointsDivergence = 8
)

// riskOverrideMargin lets a materially stronger risk candidate beat the
// otherwise-winning bucket, so strong bullish evidence cannot mask a larger
// bearish signal.
const riskOverrideMargin = 6

// strengthDollarCeiling saturates the dollar-scaled strength bonuses.
const strengthDollarCeiling = 100_000_000.0

// bucketOrder is also the tie-break priority: earlier wins on equal strength.
var bucketOrder = []domain.Segment{
	domain.SegmentInsider,
	domain.SegmentActivist,
	domain.SegmentInstitutional,
	domain.SegmentMomentum,
	domain.SegmentRisk,
}

var bucketNames = map[domain.Segment]string{
	domain.SegmentInsider:       "Insider Activity",
	domain.SegmentActivist:      "Activist / Large Owner",
	domain.SegmentInstitutional: "Institutional Accumulation",
	domain.SegmentMomentum:      "Momentum / Trend",
	domain.SegmentRisk:          "Risk / Avoid",
}

// Bucket is one themed segment with its retained picks.
type Bucket struct {
	Key   domain.Segment             `json:"key"`
	Name  string                     `json:"name"`
	Picks []domain.SegmentAssignment `json:"picks"`
}

// Board is the full segment view for one run.
type Board struct {
	AsOf     string   `json:"as_of"`
	Segments []Bucket `json:"segments"`
}

// Flatten returns every retained pick in bucket order, for persistence.
func (b *Board) Flatten() []domain.SegmentAssignment {
	var out []domain.SegmentAssignment
	for _, bucket := range b.Segments {
		out = append(out, bucket.Picks...)
	}
	return out
}

type candidate struct {
	segment domain.Segment
	pick    domain.SegmentAssignment
}

// Classify assigns each scored ticker to its single strongest segment and
// builds the themed buckets. A ticker claims exactly one bucket; each bucket
// then retains its top picksPerSegment claims by strength, then confidence.
func Classify(fresh []signals.Result, inst []whales.Result, asOf time.Time, picksPerSegment int) *Board {
	if picksPerSegment <= 0 {
		picksPerSegment = DefaultPicksPerSegment
	}

	freshByTicker := make(map[string]*signals.Result, len(fresh))
	for i := range fresh {
		freshByTicker[fresh[i].Ticker] = &fresh[i]
	}
	instByTicker := make(map[string]*whales.Result, len(inst))
	for i := range inst {
		instByTicker[inst[i].Ticker] = &inst[i]
	}

	tickers := make([]string, 0, len(freshByTicker)+len(instByTicker))
	seen := make(map[string]bool)
	for t := range freshByTicker {
		seen[t] = true
		tickers = append(tickers, t)
	}
	for t := range instByTicker {
		if !seen[t] {
			tickers = append(tickers, t)
		}
	}
	sort.Strings(tickers)

	byBucket := make(map[domain.Segment][]domain.SegmentAssignment)
	for _, t := range tickers {
		if winner := pickSegment(candidates(freshByTicker[t], instByTicker[t])); winner != nil {
			byBucket[winner.segment] = append(byBucket[winner.segment], winner.pick)
		}
	}

	board := &Board{AsOf: asOf.Format(time.RFC3339)}
	for _, key := range bucketOrder {
		picks := byBucket[key]
		sort.SliceStable(picks, func(i, j int) bool {
			if picks[i].Strength != picks[j].Strength {
				return picks[i].Strength > picks[j].Strength
			}
			if picks[i].Confidence != picks[j].Confidence {
				return picks[i].Confidence > picks[j].Confidence
			}
			return picks[i].Ticker < picks[j].Ticker
		})
		if len(picks) > picksPerSegment {
			picks = picks[:picksPerSegment]
		}
		board.Segments = append(board.Segments, Bucket{Key: key, Name: bucketNames[key], Picks: picks})
	}
	return board
}

// candidates derives the bucket candidacies for one ticker from its scored
// rows. The returned slice follows bucketOrder.
func candidates(fresh *signals.Result, inst *whales.Result) []candidate {
	var out []candidate

	maxScore := 0
	if fresh != nil {
		maxScore = fresh.Score
	}
	if inst != nil && inst.Score > maxScore {
		maxScore = inst.Score
	}

	if fresh != nil && fresh.Reasons != nil {
		r := fresh.Reasons

		if r.Insider.BuyValue > 0 {
			strength := float64(fresh.Score) + 10*formulas.DollarMagnitude(r.Insider.BuyValue, strengthDollarCeiling)
			if r.Insider.ClusterBuyInsiders >= 3 {
				strength += 5
			}
			trendWord := "n/a"
			if r.TrendFlags.BullishRecent {
				trendWord = "bull"
			}
			out = append(out, candidate{domain.SegmentInsider, assignment(fresh, domain.SegmentInsider, strength,
				fmt.Sprintf("Insider net $%s · Trend %s", formulas.FormatUSD(r.Insider.NetValue), trendWord))})
		}

		if r.SC13.Count > 0 {
			count := r.SC13.Count
			capped := count
			if capped > 3 {
				capped = 3
			}
			strength := float64(fresh.Score + 5*capped)
			latest := "n/a"
			if len(r.SC13.LatestFiledAt) >= 10 {
				latest = r.SC13.LatestFiledAt[:10]
			}
			out = append(out, candidate{domain.SegmentActivist, assignment(fresh, domain.SegmentActivist, strength,
				fmt.Sprintf("SC13 x%d · latest %s", count, latest))})
		}
	}

	if inst != nil && inst.Reasons != nil {
		r := inst.Reasons
		breadth := 0.0
		if r.Breadth.Total > 0 {
			breadth = float64(r.Breadth.Increase) / float64(r.Breadth.Total)
		}
		strength := float64(inst.Score) + 10*breadth +
			10*formulas.DollarMagnitude(float64(r.DeltaValueUSD), strengthDollarCeiling)
		out = append(out, candidate{domain.SegmentInstitutional, domain.SegmentAssignment{
			Ticker:     inst.Ticker,
			Segment:    domain.SegmentInstitutional,
			Strength:   strength,
			Score:      inst.Score,
			Action:     inst.Action,
			Confidence: inst.Confidence,
			Why: fmt.Sprintf("13F Δ $%s · mgrs %d/%d",
				formulas.FormatUSD(float64(r.DeltaValueUSD)), r.Breadth.Increase, r.Breadth.Total),
			SourceKind: "institutional_13f",
		}})
	}

	if fresh != nil && fresh.Reasons != nil {
		r := fresh.Reasons

		if r.TrendFlags.BullishRecent {
			ret20 := "n/a"
			if r.Trend != nil && r.Trend.Return20 != nil {
				ret20 = fmt.Sprintf("%.1f%%", *r.Trend.Return20*100)
			}
			out = append(out, candidate{domain.SegmentMomentum, assignment(fresh, domain.SegmentMomentum,
				float64(maxScore+5), fmt.Sprintf("Trend bull · 20D %s", ret20))})
		}

		points := 0
		if fresh.Action == domain.ActionAvoid || (inst != nil && inst.Action == domain.ActionAvoid) {
			points += riskPointsAvoid
		}
		if r.TrendFlags.BearishRecent {
			points += riskPointsBearTrend
		}
		if r.Insider.SellValue > r.Insider.BuyValue {
			points += riskPointsNetSelling
		}
		if r.Divergence.Label == signals.DivergenceBearish || r.Divergence.Label == signals.DivergenceSC13Trend {
			points += riskPointsDivergence
		}
		if points > 0 {
			out = append(out, candidate{domain.SegmentRisk, assignment(fresh, domain.SegmentRisk,
				float64(maxScore+points),
				fmt.Sprintf("Bearish setup · insider sell $%s", formulas.FormatUSD(r.Insider.SellValue)))})
		}
	}

	return out
}

// pickSegment resolves one ticker's candidacies to a single claim. Highest
// strength wins; ties break toward the earlier bucket. The risk override
// then reclaims the ticker when a risk candidate is materially stronger
// than a non-risk winner.
func pickSegment(cands []candidate) *candidate {
	if len(cands) == 0 {
		return nil
	}

	top := cands[0]
	for _, c := range cands[1:] {
		if c.pick.Strength > top.pick.Strength {
			top = c
		}
	}

	if top.segment != domain.SegmentRisk {
		for _, c := range cands {
			if c.segment == domain.SegmentRisk && c.pick.Strength >= top.pick.Strength+riskOverrideMargin {
				top = c
				break
			}
		}
	}
	return &top
}

func assignment(r *signals.Result, seg domain.Segment, strength float64, why string) domain.SegmentAssignment {
	return domain.SegmentAssignment{
		Ticker:     r.Ticker,
		Segment:    seg,
		Strength:   strength,
		Score:      r.Score,
		Action:     r.Action,
		Confidence: r.Confidence,
		Why:        why,
		SourceKind: "fresh_signals",
	}
}
