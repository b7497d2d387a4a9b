package pattern

import (
	"math"
	"time"

	"etfdash/internal/indicator"
	"etfdash/pkg/model"
)

// MassiveVolumeLevel is the support/resistance of the highest-volume bar
// in a trailing window. Every field is nil when history is shorter than
// the window.
type MassiveVolumeLevel struct {
	LookbackDays int        `json:"lookback_days"`
	Found        *bool      `json:"found,omitempty"`
	Date         *time.Time `json:"date,omitempty"`
	Low          *float64   `json:"low,omitempty"`
	High         *float64   `json:"high,omitempty"`
	Volume       *float64   `json:"volume,omitempty"`
	WindowMax    *float64   `json:"window_max,omitempty"`
	LowBroken    *bool      `json:"low_broken,omitempty"`
	HighBroken   *bool      `json:"high_broken,omitempty"`
}

// Insufficient reports whether the window could not be evaluated
func (m MassiveVolumeLevel) Insufficient() bool {
	return m.Found == nil
}

// MassiveVolumeLevels finds the latest bar whose volume equals the trailing
// max over lookbackDays bars and compares the final close to its range.
func MassiveVolumeLevels(bars []model.Candle, lookbackDays int) MassiveVolumeLevel {
	out := MassiveVolumeLevel{LookbackDays: lookbackDays}
	if lookbackDays < 1 || len(bars) < lookbackDays {
		return out
	}

	vols := model.Volumes(bars)
	vmax := indicator.RollingMax(vols, lookbackDays)

	hit := -1
	for i := lookbackDays - 1; i < len(bars); i++ {
		if math.IsNaN(vmax[i]) {
			continue
		}
		if vols[i] == vmax[i] {
			hit = i // ties go to the most recent
		}
	}

	if hit < 0 {
		out.Found = model.Ptr(false)
		out.LowBroken = model.Ptr(false)
		out.HighBroken = model.Ptr(false)
		return out
	}

	bar := bars[hit]
	last := bars[len(bars)-1].Close

	out.Found = model.Ptr(true)
	out.Date = model.Ptr(bar.Time)
	out.Low = model.Ptr(bar.Low)
	out.High = model.Ptr(bar.High)
	out.Volume = model.Ptr(vols[hit])
	out.WindowMax = model.Ptr(vmax[hit])
	out.LowBroken = model.Ptr(last < bar.Low)
	out.HighBroken = model.Ptr(last > bar.High)
	return out
}
