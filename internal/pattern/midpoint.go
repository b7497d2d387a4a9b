package pattern

import (
	"time"

	"etfdash/pkg/model"
)

// MidpointDefense is the midpoint of the latest long red candle
type MidpointDefense struct {
	Midpoint *float64   `json:"midpoint,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
	Broken   *bool      `json:"broken,omitempty"`
}

// DetectMidpointDefense walks back to the latest bar with Close > Open and
// body/range >= minBodyRatio; broken when the final close is below (H+L)/2.
func DetectMidpointDefense(bars []model.Candle, minBodyRatio float64) MidpointDefense {
	for i := len(bars) - 1; i >= 0; i-- {
		b := bars[i]
		rng := b.High - b.Low
		if rng <= 0 || b.Close <= b.Open {
			continue
		}
		if (b.Close-b.Open)/rng < minBodyRatio {
			continue
		}

		mid := (b.High + b.Low) / 2
		return MidpointDefense{
			Midpoint: model.Ptr(mid),
			Date:     model.Ptr(b.Time),
			Broken:   model.Ptr(bars[len(bars)-1].Close < mid),
		}
	}
	return MidpointDefense{}
}
