package risk

import (
	"etfdash/pkg/model"
)

// Zone is the 35-rule position of price relative to P_high
type Zone string

const (
	ZoneSafe    Zone = "SAFE"
	ZoneWatch   Zone = "WATCH"
	ZoneGold    Zone = "GOLD" // near-bottom
	ZoneDeep    Zone = "DEEP"
	ZoneMissing Zone = "MISSING"
)

// IsGold returns nil when the zone is undetermined
func (z Zone) IsGold() *bool {
	if z == ZoneMissing || z == "" {
		return nil
	}
	return model.Ptr(z == ZoneGold)
}

// Rule35 thresholds as fractions of P_high
const (
	SafeRatio  = 0.8
	WatchRatio = 0.7
	GoldRatio  = 0.65
)

// Rule35 holds the three price lines and the resulting zone
type Rule35 struct {
	Safe  *float64 `json:"safe"`
	Watch *float64 `json:"watch"`
	Gold  *float64 `json:"gold"`
	Zone  Zone     `json:"zone"`
}

// Rule35Zone partitions P_now against 0.8, 0.7 and 0.65 of P_high
func Rule35Zone(pNow, pHigh *float64) Rule35 {
	if pNow == nil || pHigh == nil {
		return Rule35{Zone: ZoneMissing}
	}

	safe := *pHigh * SafeRatio
	watch := *pHigh * WatchRatio
	gold := *pHigh * GoldRatio
	out := Rule35{Safe: &safe, Watch: &watch, Gold: &gold}

	switch p := *pNow; {
	case p >= safe:
		out.Zone = ZoneSafe
	case p >= watch:
		out.Zone = ZoneWatch
	case p >= gold:
		out.Zone = ZoneGold
	default:
		out.Zone = ZoneDeep
	}
	return out
}

// PHighSource labels where P_high came from
type PHighSource string

const (
	PHighFromMeta    PHighSource = "YAHOO_52W_HIGH"
	PHighFromHistory PHighSource = "HISTORY_252D_HIGH"
	PHighMissing     PHighSource = "MISSING"
)

// HistoryHighWindow is the bar count used when no 52-week high is supplied
const HistoryHighWindow = 252

// ResolvePHigh prefers the data source's 52-week high and falls back to the
// highest High of the trailing HistoryHighWindow bars.
func ResolvePHigh(meta model.Meta, bars []model.Candle) (*float64, PHighSource) {
	if meta.FiftyTwoWeekHigh != nil {
		return model.Ptr(*meta.FiftyTwoWeekHigh), PHighFromMeta
	}
	if len(bars) == 0 {
		return nil, PHighMissing
	}

	tail := bars
	if len(tail) > HistoryHighWindow {
		tail = tail[len(tail)-HistoryHighWindow:]
	}
	high := tail[0].High
	for _, b := range tail[1:] {
		if b.High > high {
			high = b.High
		}
	}
	return &high, PHighFromHistory
}

// TrailingStop returns P_high*(1-pct) and whether P_now is below it
func TrailingStop(pHigh, pNow *float64, pct float64) (stop *float64, hit *bool) {
	if pHigh == nil {
		return nil, nil
	}
	s := *pHigh * (1.0 - pct)
	if pNow == nil {
		return &s, nil
	}
	return &s, model.Ptr(*pNow < s)
}

// Drawdown is (P_now/P_high - 1) * 100
func Drawdown(pNow, pHigh *float64) *float64 {
	if pNow == nil || pHigh == nil || *pHigh == 0 {
		return nil
	}
	d := (*pNow / *pHigh - 1.0) * 100.0
	return &d
}
