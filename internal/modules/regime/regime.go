package regime

import (
	"time"

	"github.com/wealthpulse/signals/internal/domain"
	"github.com/wealthpulse/signals/internal/modules/trend"
)

// MinBars is the minimum price history for a usable regime read.
const MinBars = 55

// RecentDays tolerates weekends/holidays between the last bar and as-of.
const RecentDays = 3

// Rule documents the classification rule inside every reasons payload.
const Rule = "bullish if close>SMA50 and 20D return>0"

// DefaultSectorProxies are the SPDR sector ETFs used as sector reference
// instruments when no custom list is configured.
var DefaultSectorProxies = []string{
	"XLC",  // Communication Services
	"XLY",  // Consumer Discretionary
	"XLP",  // Consumer Staples
	"XLE",  // Energy
	"XLF",  // Financials
	"XLV",  // Health Care
	"XLI",  // Industrials
	"XLB",  // Materials
	"XLK",  // Technology
	"XLU",  // Utilities
	"XLRE", // Real Estate
}

// Regime is a coarse bullish/bearish read of a reference instrument,
// embedded verbatim into reasons payloads.
type Regime struct {
	Ticker        string   `json:"ticker"`
	AsOfDate      string   `json:"as_of_date"`
	Close         float64  `json:"close"`
	SMA50         *float64 `json:"sma50,omitempty"`
	Return20      *float64 `json:"return_20d,omitempty"`
	Recent        bool     `json:"recent"`
	BullishRecent bool     `json:"bullish_recent"`
	BearishRecent bool     `json:"bearish_recent"`
	Rule          string   `json:"rule"`
}

// Compute classifies one reference instrument. Returns nil when the series
// has fewer than MinBars points; the caller then simply skips the
// adjustment for that regime.
func Compute(ticker string, series domain.PriceSeries, asOf time.Time) *Regime {
	if len(series) < MinBars {
		return nil
	}

	snap := trend.Compute(series.Dates(), series.Closes())
	if snap == nil {
		return nil
	}

	recent := IsRecent(snap.AsOfDate, asOf)
	return &Regime{
		Ticker:        ticker,
		AsOfDate:      snap.AsOfDate,
		Close:         snap.Close,
		SMA50:         snap.SMA50,
		Return20:      snap.Return20,
		Recent:        recent,
		BullishRecent: recent && snap.Bullish,
		BearishRecent: recent && snap.Bearish,
		Rule:          Rule,
	}
}

// ComputeSectors classifies each sector proxy that has enough history.
// The result is keyed by proxy symbol; tickers resolve into it through the
// configured ticker->proxy mapping.
func ComputeSectors(proxies []string, prices map[string]domain.PriceSeries, asOf time.Time) map[string]*Regime {
	if len(proxies) == 0 {
		proxies = DefaultSectorProxies
	}
	out := make(map[string]*Regime, len(proxies))
	for _, p := range proxies {
		if r := Compute(p, prices[p], asOf); r != nil {
			out[p] = r
		}
	}
	return out
}

// IsRecent reports whether lastBarDate ("2006-01-02") falls within
// RecentDays calendar days before asOf. A bar after asOf is not recent.
func IsRecent(lastBarDate string, asOf time.Time) bool {
	day, err := time.Parse("2006-01-02", lastBarDate)
	if err != nil {
		return false
	}
	asOfDay := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	delta := int(asOfDay.Sub(day).Hours() / 24)
	return delta >= 0 && delta <= RecentDays
}
