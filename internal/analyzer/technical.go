package analyzer

import (
	"etfdash/internal/indicator"
	"etfdash/pkg/model"
)

// Indicator windows
const (
	RSIPeriod  = 14
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
	SlopeLag   = 5
)

// Derived is the latest value of every indicator for one series.
// A nil field means the series was too short to define it.
type Derived struct {
	Bars       int      `json:"bars"`
	PNow       *float64 `json:"p_now"`
	Open       *float64 `json:"open"`
	Close      *float64 `json:"close"`
	MA5        *float64 `json:"ma5"`
	MA10       *float64 `json:"ma10"`
	MA20       *float64 `json:"ma20"`
	MA50       *float64 `json:"ma50"`
	MA60       *float64 `json:"ma60"`
	MA150      *float64 `json:"ma150"`
	MA200      *float64 `json:"ma200"`
	Bias60     *float64 `json:"bias60"`
	MA5Slope   *float64 `json:"ma5_slope"`
	MA10Slope  *float64 `json:"ma10_slope"`
	MA20Slope  *float64 `json:"ma20_slope"`
	VolToday   *float64 `json:"v_today"`
	VolAvg     *float64 `json:"v_avg"`
	RSI14      *float64 `json:"rsi14"`
	MACD       *float64 `json:"macd"`
	MACDSignal *float64 `json:"macd_signal"`
	MACDHist   *float64 `json:"macd_hist"`
}

// ComputeDerived calculates the indicator bundle from daily bars.
// The volume average window includes the latest bar.
func ComputeDerived(bars []model.Candle, volAvgWindow int) Derived {
	closes := model.Closes(bars)
	volumes := model.Volumes(bars)

	ma5 := indicator.SMA(closes, 5)
	ma10 := indicator.SMA(closes, 10)
	ma20 := indicator.SMA(closes, 20)
	ma60 := indicator.SMA(closes, 60)
	macd := indicator.CalculateMACD(closes, MACDFast, MACDSlow, MACDSignal)

	return Derived{
		Bars:       len(bars),
		PNow:       indicator.Latest(closes),
		Open:       indicator.Latest(model.Opens(bars)),
		Close:      indicator.Latest(closes),
		MA5:        indicator.Latest(ma5),
		MA10:       indicator.Latest(ma10),
		MA20:       indicator.Latest(ma20),
		MA50:       indicator.Latest(indicator.SMA(closes, 50)),
		MA60:       indicator.Latest(ma60),
		MA150:      indicator.Latest(indicator.SMA(closes, 150)),
		MA200:      indicator.Latest(indicator.SMA(closes, 200)),
		Bias60:     indicator.Latest(indicator.Bias(closes, ma60)),
		MA5Slope:   indicator.Slope(ma5, SlopeLag),
		MA10Slope:  indicator.Slope(ma10, SlopeLag),
		MA20Slope:  indicator.Slope(ma20, SlopeLag),
		VolToday:   indicator.Latest(volumes),
		VolAvg:     indicator.Latest(indicator.SMA(volumes, volAvgWindow)),
		RSI14:      indicator.Latest(indicator.RSI(closes, RSIPeriod)),
		MACD:       indicator.Latest(macd.Line),
		MACDSignal: indicator.Latest(macd.Signal),
		MACDHist:   indicator.Latest(macd.Hist),
	}
}

// MA20Held reports whether price is at or above MA20
func (d Derived) MA20Held() *bool {
	if d.PNow == nil || d.MA20 == nil {
		return nil
	}
	return model.Ptr(*d.PNow >= *d.MA20)
}
