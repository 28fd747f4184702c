package whales

import (
	"sort"
	"time"

	"github.com/wealthpulse/signals/internal/domain"
)

// DeltaRow is the quarter-over-quarter 13F aggregate for one CUSIP.
type DeltaRow struct {
	CUSIP                string
	TotalValueUSD        int64
	DeltaValueUSD        int64
	ManagerCount         int
	ManagerIncreaseCount int
	ManagerDecreaseCount int
}

// PreviousQuarterEnd maps a 13F report period to the prior quarter end.
// Report periods are quarter ends (03-31, 06-30, 09-30, 12-31); anything
// else returns the zero time.
func PreviousQuarterEnd(reportPeriod time.Time) time.Time {
	y := reportPeriod.Year()
	switch {
	case reportPeriod.Month() == time.March && reportPeriod.Day() == 31:
		return time.Date(y-1, time.December, 31, 0, 0, 0, 0, time.UTC)
	case reportPeriod.Month() == time.June && reportPeriod.Day() == 30:
		return time.Date(y, time.March, 31, 0, 0, 0, 0, time.UTC)
	case reportPeriod.Month() == time.September && reportPeriod.Day() == 30:
		return time.Date(y, time.June, 30, 0, 0, 0, 0, time.UTC)
	case reportPeriod.Month() == time.December && reportPeriod.Day() == 31:
		return time.Date(y, time.September, 30, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}

type mgrKey struct {
	investor string
	cusip    string
}

// ComputeDeltas aggregates current and previous quarter holding values into
// per-CUSIP totals, deltas and manager increase/decrease breadth. Passing a
// nil universe includes every CUSIP. A manager counts as increasing when its
// summed current value exceeds its previous value; a position absent from a
// quarter counts as zero. Output is sorted by delta descending, CUSIP
// ascending on ties.
func ComputeDeltas(current, previous []domain.HoldingValue, universe map[string]bool) []DeltaRow {
	curByMgr := make(map[mgrKey]int64)
	prevByMgr := make(map[mgrKey]int64)
	curTotals := make(map[string]int64)
	prevTotals := make(map[string]int64)
	mgrsByCUSIP := make(map[string]map[string]bool)

	include := func(cusip string) bool {
		return universe == nil || universe[cusip]
	}
	note := func(cusip, investor string) {
		set := mgrsByCUSIP[cusip]
		if set == nil {
			set = make(map[string]bool)
			mgrsByCUSIP[cusip] = set
		}
		set[investor] = true
	}

	for _, r := range current {
		if !include(r.CUSIP) {
			continue
		}
		curByMgr[mgrKey{r.InvestorID, r.CUSIP}] += r.ValueUSD
		curTotals[r.CUSIP] += r.ValueUSD
		note(r.CUSIP, r.InvestorID)
	}
	for _, r := range previous {
		if !include(r.CUSIP) {
			continue
		}
		prevByMgr[mgrKey{r.InvestorID, r.CUSIP}] += r.ValueUSD
		prevTotals[r.CUSIP] += r.ValueUSD
		note(r.CUSIP, r.InvestorID)
	}

	out := make([]DeltaRow, 0, len(mgrsByCUSIP))
	for cusip, mgrs := range mgrsByCUSIP {
		row := DeltaRow{
			CUSIP:         cusip,
			TotalValueUSD: curTotals[cusip],
			DeltaValueUSD: curTotals[cusip] - prevTotals[cusip],
			ManagerCount:  len(mgrs),
		}
		for m := range mgrs {
			vCur := curByMgr[mgrKey{m, cusip}]
			vPrev := prevByMgr[mgrKey{m, cusip}]
			if vCur > vPrev {
				row.ManagerIncreaseCount++
			} else if vCur < vPrev {
				row.ManagerDecreaseCount++
			}
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DeltaValueUSD != out[j].DeltaValueUSD {
			return out[i].DeltaValueUSD > out[j].DeltaValueUSD
		}
		return out[i].CUSIP < out[j].CUSIP
	})
	return out
}
