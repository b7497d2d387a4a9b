package pattern

import (
	"math"

	"etfdash/internal/indicator"
	"etfdash/pkg/model"
)

const (
	longBlackBodyRatio    = 0.6
	distributionVolFactor = 1.2
)

// BearishOmens are two-bar warning conditions on the latest session
type BearishOmens struct {
	LongBlackEngulf *bool `json:"long_black_engulf"`
	PriceUpVolDown  *bool `json:"price_up_vol_down"`
	DistributionDay *bool `json:"distribution_day"`
}

// DetectBearishOmens evaluates the last two bars. The distribution-day
// average excludes the current bar.
func DetectBearishOmens(bars []model.Candle, volAvgWindow int) BearishOmens {
	if len(bars) < 2 {
		return BearishOmens{}
	}

	cur, prev := bars[len(bars)-1], bars[len(bars)-2]

	rng := cur.High - cur.Low
	longBlack := cur.Close < cur.Open && rng > 0 && (cur.Open-cur.Close)/rng >= longBlackBodyRatio
	engulf := cur.Close < prev.Open && cur.Open > prev.Close

	out := BearishOmens{
		LongBlackEngulf: model.Ptr(longBlack && engulf),
		PriceUpVolDown:  model.Ptr(cur.Close > prev.Close && cur.Volume < prev.Volume),
	}

	if cur.Close >= prev.Close {
		out.DistributionDay = model.Ptr(false)
		return out
	}

	avg := indicator.Shift(indicator.SMA(model.Volumes(bars), volAvgWindow), 1)
	prior := avg[len(avg)-1]
	if math.IsNaN(prior) {
		return out // down day, but no prior average to compare
	}
	out.DistributionDay = model.Ptr(float64(cur.Volume) >= distributionVolFactor*prior)
	return out
}
