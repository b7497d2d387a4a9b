package pattern

import (
	"time"

	"etfdash/pkg/model"
)

// GapKind is the direction of a strict price gap
type GapKind string

const (
	GapUp   GapKind = "GAP_UP"
	GapDown GapKind = "GAP_DOWN"
)

// Direction returns "UP" or "DOWN"
func (k GapKind) Direction() string {
	switch k {
	case GapUp:
		return "UP"
	case GapDown:
		return "DOWN"
	}
	return ""
}

// GapEvent is one strict gap between bar Index-1 and bar Index
type GapEvent struct {
	Kind     GapKind   `json:"kind"`
	Date     time.Time `json:"date"`
	PrevDate time.Time `json:"prev_date"`
	Lower    float64   `json:"lower"`
	Upper    float64   `json:"upper"`
	Index    int       `json:"-"`
}

// GapStatus tracks the latest unexpired gap and whether a later close filled it.
type GapStatus struct {
	LastGap      *GapEvent `json:"last_gap,omitempty"`
	LookbackDays int       `json:"lookback_days"`
	// Expired is set when the latest gap lies more than LookbackDays
	// calendar days before the final bar; LastGap is then nil.
	Expired       bool       `json:"expired"`
	FilledByClose bool       `json:"filled_by_close"`
	FillDate      *time.Time `json:"fill_date,omitempty"`
	FillClose     *float64   `json:"fill_close,omitempty"`
	// ReclaimLevel is the upper edge of a GAP_UP zone
	ReclaimLevel *float64 `json:"reclaim_level,omitempty"`
}

// Open reports whether a tracked gap is still unfilled
func (s *GapStatus) Open() bool {
	return s.LastGap != nil && !s.FilledByClose
}

// GapAt applies the strict gap test to bar i against bar i-1.
// GAP_UP: low(i) > high(i-1), zone [high(i-1), low(i)].
// GAP_DOWN: high(i) < low(i-1), zone [high(i), low(i-1)].
func GapAt(bars []model.Candle, i int) *GapEvent {
	if i < 1 || i >= len(bars) {
		return nil
	}
	prev, cur := bars[i-1], bars[i]

	if cur.Low > prev.High {
		return &GapEvent{
			Kind:     GapUp,
			Date:     cur.Time,
			PrevDate: prev.Time,
			Lower:    prev.High,
			Upper:    cur.Low,
			Index:    i,
		}
	}
	if cur.High < prev.Low {
		return &GapEvent{
			Kind:     GapDown,
			Date:     cur.Time,
			PrevDate: prev.Time,
			Lower:    cur.High,
			Upper:    prev.Low,
			Index:    i,
		}
	}
	return nil
}

// DetectLastGap finds the most recent strict gap within lookbackDays bars
// and scans forward for the first close that fills it.
// Returns nil when there are fewer than 2 bars.
func DetectLastGap(bars []model.Candle, lookbackDays int) *GapStatus {
	if len(bars) < 2 {
		return nil
	}

	status := &GapStatus{LookbackDays: lookbackDays}

	start := len(bars) - lookbackDays
	if start < 1 {
		start = 1
	}

	var last *GapEvent
	for i := start; i < len(bars); i++ {
		if gap := GapAt(bars, i); gap != nil {
			last = gap // last gap wins
		}
	}
	if last == nil {
		return status
	}

	latest := bars[len(bars)-1].Time
	if model.DaysBetween(last.Date, latest) > lookbackDays {
		status.Expired = true
		return status
	}

	status.LastGap = last
	if last.Kind == GapUp {
		status.ReclaimLevel = model.Ptr(last.Upper)
	}

	for j := last.Index + 1; j < len(bars); j++ {
		c := bars[j].Close
		filled := (last.Kind == GapUp && c <= last.Lower) ||
			(last.Kind == GapDown && c >= last.Upper)
		if filled {
			status.FilledByClose = true
			status.FillDate = model.Ptr(bars[j].Time)
			status.FillClose = model.Ptr(c)
			break
		}
	}

	return status
}
