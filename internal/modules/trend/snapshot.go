package trend

import (
	"math"

	"github.com/markcheno/go-talib"
)

// Thresholds for the proximity/extension flags, as fractions of the
// reference level.
const (
	SupportBandPct    = 0.02
	ResistanceBandPct = 0.02
	ExtendedUpPct     = 0.08
)

// Snapshot is the derived technical state of one instrument at its last bar.
// Nullable fields stay nil when the series is too short; flags requiring a
// nil field stay false. Insufficient data is never an error.
type Snapshot struct {
	AsOfDate string  `json:"as_of_date"`
	Close    float64 `json:"close"`

	SMA50    *float64 `json:"sma50,omitempty"`
	SMA200   *float64 `json:"sma200,omitempty"`
	Return20 *float64 `json:"return_20d,omitempty"`
	Return60 *float64 `json:"return_60d,omitempty"`
	High60   *float64 `json:"high_60d,omitempty"`
	Low60    *float64 `json:"low_60d,omitempty"`

	DistSMA50  *float64 `json:"dist_to_sma50,omitempty"`
	DistSMA200 *float64 `json:"dist_to_sma200,omitempty"`
	DistHigh60 *float64 `json:"dist_to_high_60d,omitempty"`
	DistLow60  *float64 `json:"dist_to_low_60d,omitempty"`

	Bullish          bool `json:"bullish"`
	Bearish          bool `json:"bearish"`
	NearSupport      bool `json:"near_support"`
	NearResistance60 bool `json:"near_resistance_60d"`
	ExtendedUp       bool `json:"extended_up"`
	BelowSMA200      bool `json:"below_sma200"`
}

// Compute derives a Snapshot from ordered daily closes. The caller owns the
// slices and has already truncated them to the as-of date; Compute never
// mutates them. Returns nil only when the input is empty or misaligned.
func Compute(dates []string, closes []float64) *Snapshot {
	if len(dates) == 0 || len(closes) == 0 || len(dates) != len(closes) {
		return nil
	}

	s := &Snapshot{
		AsOfDate: dates[len(dates)-1],
		Close:    closes[len(closes)-1],
	}

	s.SMA50 = sma(closes, 50)
	s.SMA200 = sma(closes, 200)
	s.Return20 = trailingReturn(closes, 20)
	s.Return60 = trailingReturn(closes, 60)
	s.High60, s.Low60 = trailingRange(closes, 60)

	s.DistSMA50 = distance(s.Close, s.SMA50)
	s.DistSMA200 = distance(s.Close, s.SMA200)
	s.DistHigh60 = distance(s.Close, s.High60)
	s.DistLow60 = distance(s.Close, s.Low60)

	if s.SMA50 != nil && s.Return20 != nil {
		s.Bullish = s.Close > *s.SMA50 && *s.Return20 > 0
		s.Bearish = s.Close < *s.SMA50 && *s.Return20 < 0
	}
	if s.Bullish && s.DistSMA50 != nil {
		s.NearSupport = math.Abs(*s.DistSMA50) <= SupportBandPct
		s.ExtendedUp = *s.DistSMA50 >= ExtendedUpPct
	}
	if s.Bullish && s.DistHigh60 != nil {
		s.NearResistance60 = *s.DistHigh60 >= -ResistanceBandPct
	}
	if s.SMA200 != nil {
		s.BelowSMA200 = s.Close < *s.SMA200
	}

	return s
}

// sma returns the trailing simple moving average, nil below the period.
// talib pads the leading window with zeros, so the length guard matters.
func sma(closes []float64, period int) *float64 {
	if len(closes) < period {
		return nil
	}
	series := talib.Sma(closes, period)
	v := series[len(series)-1]
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// trailingReturn is close[-1]/close[-1-n] - 1, nil when the series is too
// short or the reference close is zero.
func trailingReturn(closes []float64, n int) *float64 {
	if len(closes) < n+1 {
		return nil
	}
	prev := closes[len(closes)-1-n]
	if prev == 0 {
		return nil
	}
	r := closes[len(closes)-1]/prev - 1.0
	return &r
}

// trailingRange is the max/min over the trailing n closes, inclusive of the
// latest. Both nil below n points.
func trailingRange(closes []float64, n int) (high, low *float64) {
	if len(closes) < n {
		return nil, nil
	}
	window := closes[len(closes)-n:]
	hi, lo := window[0], window[0]
	for _, c := range window[1:] {
		hi = math.Max(hi, c)
		lo = math.Min(lo, c)
	}
	return &hi, &lo
}

// distance is close/ref - 1 as a signed fraction, nil when ref is nil or zero.
func distance(close float64, ref *float64) *float64 {
	if ref == nil || *ref == 0 {
		return nil
	}
	d := close / *ref
	d -= 1.0
	return &d
}
