package evidence

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wealthpulse/signals/internal/domain"
	"github.com/wealthpulse/signals/internal/modules/regime"
	"github.com/wealthpulse/signals/internal/modules/trend"
)

// minBarsForTrend matches the regime minimum: below it a ticker gets no
// trend or volume read at all.
const minBarsForTrend = regime.MinBars

// Params controls the freshness window and qualification gates.
type Params struct {
	AsOf                    time.Time
	FreshDays               int
	InsiderMinValue         float64
	SocialEnabled           bool
	SocialVelocityThreshold float64
	SocialMinMentions       int
}

// Inputs are the already-materialized collaborator rows for one pass.
type Inputs struct {
	Filings             []domain.LargeOwnerFiling
	InsiderTxs          []domain.InsiderTx
	Prices              map[string]domain.PriceSeries
	SocialBuckets       []domain.SocialBucket
	Context13F          map[string]*Context13F
	Market              *regime.Regime
	Sectors             map[string]*regime.Regime
	SectorProxyByTicker map[string]string
}

type sc13Agg struct {
	count   int
	latest  time.Time
	details []FilingDetail
}

// Aggregate groups raw evidence rows into per-ticker bundles for the fresh
// window [AsOf-FreshDays, AsOf]. Tickers with no SC13 filing and no
// qualifying insider transaction are dropped; there is nothing to score.
// Output is sorted by ticker, one bundle per ticker.
func Aggregate(in Inputs, p Params) []Bundle {
	freshStart := p.AsOf.AddDate(0, 0, -p.FreshDays)

	sc13ByTicker := make(map[string]*sc13Agg)
	for _, f := range in.Filings {
		if f.Ticker == "" || f.FiledAt == nil {
			continue
		}
		if f.FiledAt.Before(freshStart) || f.FiledAt.After(p.AsOf) {
			continue
		}
		agg := sc13ByTicker[f.Ticker]
		if agg == nil {
			agg = &sc13Agg{}
			sc13ByTicker[f.Ticker] = agg
		}
		agg.count++
		if f.FiledAt.After(agg.latest) {
			agg.latest = *f.FiledAt
		}
		agg.details = append(agg.details, FilingDetail{
			Accession: f.Accession,
			FormType:  f.FormType,
			FilerName: f.FilerName,
			FiledAt:   f.FiledAt.Format(time.RFC3339),
		})
	}

	txsByTicker := make(map[string][]domain.InsiderTx)
	for _, tx := range in.InsiderTxs {
		if tx.Ticker == "" || tx.EventDate == nil || tx.IsDerivative {
			continue
		}
		if tx.EventDate.Before(freshStart) || tx.EventDate.After(p.AsOf) {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(tx.Code))
		if code != "P" && code != "S" {
			continue
		}
		txsByTicker[tx.Ticker] = append(txsByTicker[tx.Ticker], tx)
	}

	tickers := make([]string, 0, len(sc13ByTicker)+len(txsByTicker))
	seen := make(map[string]bool)
	for t := range sc13ByTicker {
		if !seen[t] {
			seen[t] = true
			tickers = append(tickers, t)
		}
	}
	for t := range txsByTicker {
		if !seen[t] {
			seen[t] = true
			tickers = append(tickers, t)
		}
	}
	sort.Strings(tickers)
	if len(tickers) == 0 {
		return nil
	}

	var socialByTicker map[string]*SocialStats
	if p.SocialEnabled {
		socialByTicker = computeSocialStats(in.SocialBuckets, p.AsOf, p.SocialVelocityThreshold, p.SocialMinMentions)
	}

	out := make([]Bundle, 0, len(tickers))
	for _, t := range tickers {
		b := buildBundle(t, sc13ByTicker[t], txsByTicker[t], in, p)
		if b == nil {
			continue
		}
		if s := socialByTicker[strings.ToUpper(t)]; s != nil {
			b.Social = s
		}
		out = append(out, *b)
	}
	return out
}

func buildBundle(ticker string, sc13 *sc13Agg, txs []domain.InsiderTx, in Inputs, p Params) *Bundle {
	b := &Bundle{Ticker: ticker, Market: in.Market}

	if sc13 != nil {
		b.SC13Count = sc13.count
		b.SC13LatestFiledAt = sc13.latest.Format(time.RFC3339)
		details := append([]FilingDetail(nil), sc13.details...)
		sort.Slice(details, func(i, j int) bool { return details[i].FiledAt > details[j].FiledAt })
		if len(details) > 5 {
			details = details[:5]
		}
		b.SC13Filings = details
	}

	series := in.Prices[ticker]
	var closeByDate map[string]float64
	var sortedDates []string
	if len(series) >= minBarsForTrend {
		b.Trend = trend.Compute(series.Dates(), series.Closes())
		b.Volume = computeVolumeStats(series.Volumes())
		b.VolumeSpike = b.Volume != nil && b.Volume.Spike != nil && *b.Volume.Spike

		if b.Trend != nil && regime.IsRecent(b.Trend.AsOfDate, p.AsOf) &&
			b.Trend.SMA50 != nil && b.Trend.Return20 != nil {
			b.TrendBullishRecent = b.Trend.Bullish
			b.TrendBearishRecent = b.Trend.Bearish
		}

		closeByDate = make(map[string]float64, len(series))
		sortedDates = series.Dates()
		for _, bar := range series {
			closeByDate[bar.Date] = bar.Close
		}
	}

	closeOnOrBefore := func(day string) *float64 {
		if c, ok := closeByDate[day]; ok {
			return &c
		}
		for i := len(sortedDates) - 1; i >= 0; i-- {
			if sortedDates[i] <= day {
				c := closeByDate[sortedDates[i]]
				return &c
			}
		}
		return nil
	}

	var latestEvent time.Time
	clusterInsiders := make(map[string]bool)
	var details []TxDetail

	for _, tx := range txs {
		code := strings.ToUpper(strings.TrimSpace(tx.Code))

		var value *float64
		estimated := false
		switch {
		case tx.Value != nil:
			value = tx.Value
		case tx.Shares != nil && tx.Price != nil:
			v := *tx.Shares * *tx.Price
			value = &v
			estimated = true
			b.EstimatedValueCount++
		case tx.Shares != nil:
			if px := closeOnOrBefore(tx.EventDate.Format("2006-01-02")); px != nil {
				v := *tx.Shares * *px
				value = &v
				estimated = true
				b.EstimatedValueCount++
			}
		}
		if value == nil || *value < p.InsiderMinValue {
			continue
		}

		if code == "P" {
			if tx.Is10b51 {
				b.InsiderBuyValue10b5 += *value
				b.InsiderBuyCount10b5++
			} else {
				b.InsiderBuyValue += *value
				b.InsiderBuyCount++
				if tx.InsiderCIK != "" {
					clusterInsiders[tx.InsiderCIK] = true
				} else if tx.InsiderName != "" {
					clusterInsiders[tx.InsiderName] = true
				}
			}
		} else {
			if tx.Is10b51 {
				b.InsiderSellValue10b5 += *value
				b.InsiderSellCount10b5++
			} else {
				b.InsiderSellValue += *value
				b.InsiderSellCount++
			}
		}

		if tx.EventDate.After(latestEvent) {
			latestEvent = *tx.EventDate
		}
		d := TxDetail{
			Accession:   tx.Accession,
			Code:        code,
			Value:       *value,
			Shares:      tx.Shares,
			Price:       tx.Price,
			Estimated:   estimated,
			InsiderName: tx.InsiderName,
			InsiderCIK:  tx.InsiderCIK,
			Is10b51:     tx.Is10b51,
			EventDate:   tx.EventDate.Format(time.RFC3339),
		}
		if tx.FiledAt != nil {
			d.FiledAt = tx.FiledAt.Format(time.RFC3339)
		}
		details = append(details, d)
	}

	totalTxCount := b.InsiderBuyCount + b.InsiderSellCount + b.InsiderBuyCount10b5 + b.InsiderSellCount10b5
	if b.SC13Count == 0 && totalTxCount == 0 {
		return nil
	}

	b.ClusterBuyInsiders = len(clusterInsiders)
	if !latestEvent.IsZero() {
		b.InsiderLatestEventDate = latestEvent.Format(time.RFC3339)
	}

	sort.Slice(details, func(i, j int) bool {
		vi, vj := math.Abs(details[i].Value), math.Abs(details[j].Value)
		if vi != vj {
			return vi > vj
		}
		return details[i].Accession < details[j].Accession
	})
	if len(details) > 8 {
		details = details[:8]
	}
	b.InsiderTxs = details

	b.Context13F = in.Context13F[ticker]
	if proxy, ok := in.SectorProxyByTicker[ticker]; ok {
		b.Sector = in.Sectors[proxy]
	}
	return b
}
