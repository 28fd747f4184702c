package evidence

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthpulse/signals/internal/domain"
	"github.com/wealthpulse/signals/internal/modules/regime"
)

var testAsOf = time.Date(2026, 8, 28, 21, 30, 0, 0, time.UTC)

func tp(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func fp(v float64) *float64 { return &v }

func ip(v int64) *int64 { return &v }

func testParams() Params {
	return Params{AsOf: testAsOf, FreshDays: 7, InsiderMinValue: 100000}
}

// flatSeries builds n daily bars ending on lastDay, constant close, no volume.
func flatSeries(lastDay time.Time, n int, close float64) domain.PriceSeries {
	out := make(domain.PriceSeries, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, domain.PriceBar{
			Date:  lastDay.AddDate(0, 0, -i).Format("2006-01-02"),
			Close: close,
		})
	}
	return out
}

func buyTx(ticker, accession string, value float64, event string) domain.InsiderTx {
	return domain.InsiderTx{
		Ticker:    ticker,
		Code:      "P",
		Value:     fp(value),
		EventDate: tp(event),
		Accession: accession,
	}
}

func TestAggregateWindowFiltering(t *testing.T) {
	in := Inputs{
		Filings: []domain.LargeOwnerFiling{
			{Ticker: "ACME", FormType: "SC 13D", FilerName: "Activist LP", FiledAt: tp("2026-08-25T12:00:00Z"), Accession: "f1"},
			{Ticker: "OLDY", FormType: "SC 13G", FiledAt: tp("2026-08-10T12:00:00Z"), Accession: "f2"},
			{Ticker: "ACME", FormType: "SC 13G", FiledAt: nil, Accession: "f3"},
			{Ticker: "", FormType: "SC 13D", FiledAt: tp("2026-08-25T12:00:00Z")},
		},
		InsiderTxs: []domain.InsiderTx{
			buyTx("LATE", "t1", 500000, "2026-08-29T00:00:00Z"), // after as-of
			buyTx("OLDY", "t2", 500000, "2026-08-15T00:00:00Z"), // stale
		},
	}

	bundles := Aggregate(in, testParams())
	require.Len(t, bundles, 1)
	b := bundles[0]
	assert.Equal(t, "ACME", b.Ticker)
	assert.Equal(t, 1, b.SC13Count)
	assert.Equal(t, "2026-08-25T12:00:00Z", b.SC13LatestFiledAt)
	require.Len(t, b.SC13Filings, 1)
	assert.Equal(t, "Activist LP", b.SC13Filings[0].FilerName)
}

func TestAggregateCodeAndDerivativeFilter(t *testing.T) {
	in := Inputs{
		InsiderTxs: []domain.InsiderTx{
			{Ticker: "ACME", Code: "A", Value: fp(5_000_000), EventDate: tp("2026-08-25T00:00:00Z")},
			{Ticker: "ACME", Code: "M", Value: fp(5_000_000), EventDate: tp("2026-08-25T00:00:00Z")},
			{Ticker: "ACME", Code: "P", IsDerivative: true, Value: fp(5_000_000), EventDate: tp("2026-08-25T00:00:00Z")},
			{Ticker: "ACME", Code: " p ", Value: fp(200_000), InsiderCIK: "111", EventDate: tp("2026-08-25T00:00:00Z")},
			{Ticker: "ACME", Code: "S", Value: fp(300_000), EventDate: tp("2026-08-26T00:00:00Z")},
		},
	}

	bundles := Aggregate(in, testParams())
	require.Len(t, bundles, 1)
	b := bundles[0]
	assert.Equal(t, 200_000.0, b.InsiderBuyValue)
	assert.Equal(t, 1, b.InsiderBuyCount)
	assert.Equal(t, 300_000.0, b.InsiderSellValue)
	assert.Equal(t, 1, b.InsiderSellCount)
	assert.Equal(t, 1, b.ClusterBuyInsiders)
	assert.Equal(t, "2026-08-26T00:00:00Z", b.InsiderLatestEventDate)
}

func TestAggregateValueEstimation(t *testing.T) {
	lastBar := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	p := testParams()
	p.InsiderMinValue = 10_000

	in := Inputs{
		Prices: map[string]domain.PriceSeries{
			"ACME": flatSeries(lastBar, 60, 30),
		},
		InsiderTxs: []domain.InsiderTx{
			// shares*price estimate
			{Ticker: "ACME", Code: "P", Shares: fp(1000), Price: fp(50), EventDate: tp("2026-08-25T00:00:00Z"), Accession: "t1"},
			// close-price fallback: event day after the last bar resolves to it
			{Ticker: "ACME", Code: "P", Shares: fp(400), EventDate: tp("2026-08-27T00:00:00Z"), Accession: "t2"},
			// estimated below the floor: dropped, but the estimate is still counted
			{Ticker: "ACME", Code: "P", Shares: fp(10), Price: fp(1), EventDate: tp("2026-08-25T00:00:00Z"), Accession: "t3"},
		},
	}

	bundles := Aggregate(in, p)
	require.Len(t, bundles, 1)
	b := bundles[0]
	assert.Equal(t, 62_000.0, b.InsiderBuyValue) // 50000 + 400*30
	assert.Equal(t, 2, b.InsiderBuyCount)
	assert.Equal(t, 3, b.EstimatedValueCount)
	require.Len(t, b.InsiderTxs, 2)
	assert.True(t, b.InsiderTxs[0].Estimated)
}

func TestAggregateMinValueGateDropsBundle(t *testing.T) {
	in := Inputs{
		InsiderTxs: []domain.InsiderTx{
			{Ticker: "TINY", Code: "S", Value: fp(50_000), EventDate: tp("2026-08-25T00:00:00Z")},
		},
	}
	assert.Empty(t, Aggregate(in, testParams()))
}

func TestAggregateClusterIdentity(t *testing.T) {
	in := Inputs{
		InsiderTxs: []domain.InsiderTx{
			{Ticker: "ACME", Code: "P", Value: fp(200_000), InsiderCIK: "1", InsiderName: "Alice", EventDate: tp("2026-08-24T00:00:00Z")},
			{Ticker: "ACME", Code: "P", Value: fp(300_000), InsiderCIK: "1", InsiderName: "Alice", EventDate: tp("2026-08-25T00:00:00Z")},
			{Ticker: "ACME", Code: "P", Value: fp(400_000), InsiderName: "Bob", EventDate: tp("2026-08-25T00:00:00Z")},
			// Scheduled buys never count toward the cluster.
			{Ticker: "ACME", Code: "P", Value: fp(900_000), InsiderCIK: "9", Is10b51: true, EventDate: tp("2026-08-25T00:00:00Z")},
		},
	}

	bundles := Aggregate(in, testParams())
	require.Len(t, bundles, 1)
	b := bundles[0]
	assert.Equal(t, 2, b.ClusterBuyInsiders)
	assert.Equal(t, 3, b.InsiderBuyCount)
	assert.Equal(t, 1, b.InsiderBuyCount10b5)
	assert.Equal(t, 900_000.0, b.InsiderBuyValue10b5)
}

func TestAggregateDetailTruncation(t *testing.T) {
	var txs []domain.InsiderTx
	for i := 1; i <= 10; i++ {
		txs = append(txs, buyTx("ACME", fmt.Sprintf("a%02d", i), float64(i)*100_000, "2026-08-25T00:00:00Z"))
	}
	var filings []domain.LargeOwnerFiling
	for i := 1; i <= 7; i++ {
		filings = append(filings, domain.LargeOwnerFiling{
			Ticker:    "ACME",
			FormType:  "SC 13D",
			FiledAt:   tp(fmt.Sprintf("2026-08-25T0%d:00:00Z", i)),
			Accession: fmt.Sprintf("f%d", i),
		})
	}

	bundles := Aggregate(Inputs{Filings: filings, InsiderTxs: txs}, testParams())
	require.Len(t, bundles, 1)
	b := bundles[0]

	require.Len(t, b.InsiderTxs, 8)
	assert.Equal(t, 1_000_000.0, b.InsiderTxs[0].Value) // largest first
	assert.Equal(t, 300_000.0, b.InsiderTxs[7].Value)

	require.Len(t, b.SC13Filings, 5)
	assert.Equal(t, "f7", b.SC13Filings[0].Accession) // newest first
	assert.Equal(t, 7, b.SC13Count)
}

func TestAggregateTrendVolumeAndContext(t *testing.T) {
	lastBar := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	series := make(domain.PriceSeries, 0, 60)
	for i := 59; i >= 0; i-- {
		vol := int64(1_000_000)
		if i == 0 {
			vol = 2_000_000
		}
		series = append(series, domain.PriceBar{
			Date:   lastBar.AddDate(0, 0, -i).Format("2006-01-02"),
			Close:  100 + float64(59-i),
			Volume: ip(vol),
		})
	}

	sector := &regime.Regime{Ticker: "XLK"}
	in := Inputs{
		InsiderTxs: []domain.InsiderTx{buyTx("ACME", "t1", 500_000, "2026-08-25T00:00:00Z")},
		Prices:     map[string]domain.PriceSeries{"ACME": series},
		Context13F: map[string]*Context13F{"ACME": {DeltaValueUSD: 42}},
		Sectors:    map[string]*regime.Regime{"XLK": sector},
		SectorProxyByTicker: map[string]string{
			"ACME": "XLK",
		},
	}

	bundles := Aggregate(in, testParams())
	require.Len(t, bundles, 1)
	b := bundles[0]

	require.NotNil(t, b.Trend)
	assert.True(t, b.TrendBullishRecent)
	assert.True(t, b.VolumeSpike)
	require.NotNil(t, b.Context13F)
	assert.Equal(t, int64(42), b.Context13F.DeltaValueUSD)
	assert.Same(t, sector, b.Sector)
}

func TestAggregateShortSeriesSkipsTrend(t *testing.T) {
	lastBar := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	in := Inputs{
		InsiderTxs: []domain.InsiderTx{buyTx("ACME", "t1", 500_000, "2026-08-25T00:00:00Z")},
		Prices:     map[string]domain.PriceSeries{"ACME": flatSeries(lastBar, 40, 100)},
	}

	bundles := Aggregate(in, testParams())
	require.Len(t, bundles, 1)
	assert.Nil(t, bundles[0].Trend)
	assert.Nil(t, bundles[0].Volume)
	assert.False(t, bundles[0].TrendBullishRecent)
}

func TestAggregateSocialAttachment(t *testing.T) {
	p := testParams()
	p.SocialEnabled = true
	p.SocialVelocityThreshold = 1.5
	p.SocialMinMentions = 5

	in := Inputs{
		InsiderTxs: []domain.InsiderTx{buyTx("ACME", "t1", 500_000, "2026-08-25T00:00:00Z")},
		SocialBuckets: []domain.SocialBucket{
			{Ticker: "acme ", BucketStart: testAsOf.Add(-1 * time.Hour), Mentions: 30, Source: "stocktwits"},
			{Ticker: "ACME", BucketStart: testAsOf.Add(-2 * time.Hour), Mentions: 10, Source: "stocktwits"},
		},
	}

	bundles := Aggregate(in, p)
	require.Len(t, bundles, 1)
	s := bundles[0].Social
	require.NotNil(t, s)
	assert.Equal(t, 30, s.MentionsLatest)
	require.NotNil(t, s.Velocity)
	assert.InDelta(t, 3.0, *s.Velocity, 1e-9)
}

func TestAggregateSortsByTicker(t *testing.T) {
	in := Inputs{
		InsiderTxs: []domain.InsiderTx{
			buyTx("ZZZ", "t1", 500_000, "2026-08-25T00:00:00Z"),
			buyTx("AAA", "t2", 500_000, "2026-08-25T00:00:00Z"),
			buyTx("MMM", "t3", 500_000, "2026-08-25T00:00:00Z"),
		},
	}

	bundles := Aggregate(in, testParams())
	require.Len(t, bundles, 3)
	assert.Equal(t, "AAA", bundles[0].Ticker)
	assert.Equal(t, "MMM", bundles[1].Ticker)
	assert.Equal(t, "ZZZ", bundles[2].Ticker)
}
