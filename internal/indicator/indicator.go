package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// All series returned here are aligned with their input: same length,
// with math.NaN() marking positions where the window has not filled yet.

// MACD holds the three aligned MACD series
type MACD struct {
	Line   []float64 `json:"line"`
	Signal []float64 `json:"signal"`
	Hist   []float64 `json:"hist"`
}

// Undefined returns a series of n undefined values
func Undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA calculates the simple moving average of the trailing window values
func SMA(series []float64, window int) []float64 {
	if window < 1 || len(series) < window {
		return Undefined(len(series))
	}
	if window == 1 {
		out := make([]float64, len(series))
		copy(out, series)
		return out
	}

	// talib leaves the lookback positions at zero
	out := talib.Sma(series, window)
	for i := 0; i < window-1; i++ {
		out[i] = math.NaN()
	}
	return out
}

// RollingMax returns the maximum of the trailing window values
func RollingMax(series []float64, window int) []float64 {
	if window < 1 || len(series) < window {
		return Undefined(len(series))
	}
	if window == 1 {
		out := make([]float64, len(series))
		copy(out, series)
		return out
	}

	out := talib.Max(series, window)
	for i := 0; i < window-1; i++ {
		out[i] = math.NaN()
	}
	return out
}

// EMA calculates the exponential moving average with alpha = 2/(span+1).
// The recursion is seeded with the first defined observation and values are
// reported once span observations have been seen.
func EMA(series []float64, span int) []float64 {
	if span < 1 {
		return Undefined(len(series))
	}
	return ewm(series, 2/(float64(span)+1), span)
}

// ewm is a recursive exponential mean: y = (1-alpha)*y + alpha*x.
// Leading undefined values are skipped; minPeriods counts defined observations.
func ewm(series []float64, alpha float64, minPeriods int) []float64 {
	out := Undefined(len(series))

	var y float64
	seen := 0
	for i, x := range series {
		if math.IsNaN(x) {
			continue
		}
		if seen == 0 {
			y = x
		} else {
			y = (1-alpha)*y + alpha*x
		}
		seen++
		if seen >= minPeriods {
			out[i] = y
		}
	}
	return out
}

// RSI calculates Wilder's Relative Strength Index.
// Average gain/loss use exponential smoothing with alpha = 1/period.
// A zero average loss leaves the value undefined rather than 100.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	if period < 1 || n < 2 {
		return Undefined(n)
	}

	gains := Undefined(n)
	losses := Undefined(n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		gains[i] = math.Max(change, 0)
		losses[i] = math.Max(-change, 0)
	}

	alpha := 1 / float64(period)
	avgGain := ewm(gains, alpha, period)
	avgLoss := ewm(losses, alpha, period)

	out := Undefined(n)
	for i := range out {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) || avgLoss[i] == 0 {
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - (100 / (1 + rs))
	}
	return out
}

// CalculateMACD calculates the MACD line, signal line and histogram
func CalculateMACD(closes []float64, fast, slow, signal int) MACD {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	line := Undefined(len(closes))
	for i := range line {
		line[i] = emaFast[i] - emaSlow[i] // NaN propagates
	}

	sig := EMA(line, signal)
	hist := Undefined(len(closes))
	for i := range hist {
		hist[i] = line[i] - sig[i]
	}

	return MACD{Line: line, Signal: sig, Hist: hist}
}

// Bias returns (close - ma) / ma * 100 per position
func Bias(closes, ma []float64) []float64 {
	out := Undefined(len(closes))
	for i := range closes {
		if i >= len(ma) || math.IsNaN(ma[i]) || ma[i] == 0 {
			continue
		}
		out[i] = (closes[i] - ma[i]) / ma[i] * 100
	}
	return out
}

// Shift moves the series forward by n positions, filling the head with NaN
func Shift(series []float64, n int) []float64 {
	out := Undefined(len(series))
	for i := n; i < len(series); i++ {
		if i-n >= 0 {
			out[i] = series[i-n]
		}
	}
	return out
}

// LatestDefined returns the most recent defined value
func LatestDefined(series []float64) (float64, bool) {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) {
			return series[i], true
		}
	}
	return 0, false
}

// Latest is LatestDefined as an optional value
func Latest(series []float64) *float64 {
	v, ok := LatestDefined(series)
	if !ok {
		return nil
	}
	return &v
}

// Slope returns the latest defined value minus the defined value lag
// observations earlier. Undefined positions are dropped first.
func Slope(series []float64, lag int) *float64 {
	defined := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if lag < 1 || len(defined) < lag+1 {
		return nil
	}
	d := defined[len(defined)-1] - defined[len(defined)-1-lag]
	return &d
}

// Pct returns the percent change from b to a: (a/b - 1) * 100
func Pct(a, b float64) float64 {
	return (a/b - 1.0) * 100.0
}
