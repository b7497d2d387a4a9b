package pattern

import (
	"time"

	"etfdash/pkg/model"
)

// ReclaimWindow is how many bars after the fill a reclaim may occur
const ReclaimWindow = 3

// ReclaimState distinguishes a definite answer from a missing precondition
type ReclaimState string

const (
	Reclaimed            ReclaimState = "RECLAIMED"
	NotReclaimed         ReclaimState = "NOT_RECLAIMED"
	ReclaimNotApplicable ReclaimState = "NOT_APPLICABLE"
	ReclaimUnknown       ReclaimState = "UNKNOWN"
)

// ReclaimSignal is a false-breakdown reclaim of a filled GAP_UP
type ReclaimSignal struct {
	State         ReclaimState `json:"state"`
	Date          *time.Time   `json:"date,omitempty"`
	DaysSinceFill *int         `json:"days_since_fill,omitempty"`
	Level         *float64     `json:"level,omitempty"`
}

// IsReclaim collapses the state to an optional boolean.
// Not-applicable is a definite false; unknown is nil.
func (r ReclaimSignal) IsReclaim() *bool {
	switch r.State {
	case Reclaimed:
		return model.Ptr(true)
	case NotReclaimed, ReclaimNotApplicable:
		return model.Ptr(false)
	}
	return nil
}

// GapReclaimWithin3Days checks whether, within ReclaimWindow bars after a
// GAP_UP was filled by close, a close got back to the gap's upper edge.
func GapReclaimWithin3Days(status *GapStatus, bars []model.Candle) ReclaimSignal {
	if status == nil {
		return ReclaimSignal{State: ReclaimUnknown}
	}
	gap := status.LastGap
	if gap == nil || gap.Kind != GapUp || !status.FilledByClose {
		return ReclaimSignal{State: ReclaimNotApplicable}
	}
	if status.FillDate == nil {
		return ReclaimSignal{State: ReclaimUnknown}
	}

	level := gap.Upper
	if status.ReclaimLevel != nil {
		level = *status.ReclaimLevel
	}

	fillIdx := -1
	fillKey := model.DateKey(*status.FillDate)
	for i := range bars {
		if model.DateKey(bars[i].Time) == fillKey {
			fillIdx = i
			break
		}
	}
	if fillIdx < 0 {
		return ReclaimSignal{State: ReclaimUnknown, Level: model.Ptr(level)}
	}

	for d := 1; d <= ReclaimWindow; d++ {
		j := fillIdx + d
		if j >= len(bars) {
			break
		}
		if bars[j].Close >= level {
			return ReclaimSignal{
				State:         Reclaimed,
				Date:          model.Ptr(bars[j].Time),
				DaysSinceFill: model.Ptr(d),
				Level:         model.Ptr(level),
			}
		}
	}

	return ReclaimSignal{State: NotReclaimed, Level: model.Ptr(level)}
}
