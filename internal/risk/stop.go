package risk

import (
	"errors"
	"fmt"

	"etfdash/pkg/model"
)

var (
	// ErrInvalidR is returned when a reward/risk ratio cannot be used for sizing
	ErrInvalidR = errors.New("reward/risk ratio must be positive")
	// ErrInvalidMinRR is returned for a negative minimum reward/risk
	ErrInvalidMinRR = errors.New("min_rr must be >= 0")
)

// TargetMode records which path produced the target and R
type TargetMode string

const (
	ModeMissing       TargetMode = "MISSING"
	ModeMissingPHigh  TargetMode = "MISSING_P_HIGH"
	ModeInvalidStop   TargetMode = "INVALID_STOP_GE_ENTRY"
	ModeInvalidTarget TargetMode = "INVALID_TARGET_LE_ENTRY_USE_PCT_STOP"
	ModePHigh         TargetMode = "P_HIGH"
	ModeMinRR         TargetMode = "MIN_RR"
)

// Plan is the stop/target/R outcome for one entry price
type Plan struct {
	Stop    *float64   `json:"stop"`
	Target  *float64   `json:"target"`
	R       *float64   `json:"r"`
	Mode    TargetMode `json:"target_mode"`
	PctStop *float64   `json:"pct_stop"`
	// MA20Ignored is set when MA20 >= entry and the percentage stop was used
	MA20Ignored bool `json:"ma20_ignored"`
}

// ComputeStop returns the tighter of MA20 and the percentage stop when MA20
// sits below entry; otherwise the percentage stop alone.
func ComputeStop(entry float64, ma20 *float64, stopLossPct float64) (stop, pctStop float64, ma20Ignored bool) {
	pctStop = entry * (1.0 - stopLossPct)
	if ma20 == nil {
		return pctStop, pctStop, false
	}
	if *ma20 >= entry {
		return pctStop, pctStop, true
	}
	if *ma20 > pctStop {
		return *ma20, pctStop, false
	}
	return pctStop, pctStop, false
}

// ComputeTargetAndR targets pHigh and derives R = (target-entry)/(entry-stop).
// When 0 < R < minRR the target is lowered to entry + minRR*(entry-stop).
func ComputeTargetAndR(entry, ma20, pHigh *float64, stopLossPct, minRR float64) (Plan, error) {
	if minRR < 0 {
		return Plan{}, fmt.Errorf("min_rr %.4f: %w", minRR, ErrInvalidMinRR)
	}
	if entry == nil {
		return Plan{Mode: ModeMissing}, nil
	}

	e := *entry
	stop, pctStop, ignored := ComputeStop(e, ma20, stopLossPct)
	plan := Plan{
		Stop:        model.Ptr(stop),
		PctStop:     model.Ptr(pctStop),
		MA20Ignored: ignored,
	}

	if pHigh == nil {
		plan.Mode = ModeMissingPHigh
		return plan, nil
	}

	target := *pHigh
	plan.Target = model.Ptr(target)

	perShare := e - stop
	if perShare <= 0 {
		plan.Mode = ModeInvalidStop
		return plan, nil
	}

	r := (target - e) / perShare
	if r <= 0 {
		plan.Stop = model.Ptr(pctStop)
		plan.Mode = ModeInvalidTarget
		return plan, nil
	}

	plan.Mode = ModePHigh
	if r < minRR {
		target = e + minRR*perShare
		r = minRR
		plan.Target = model.Ptr(target)
		plan.Mode = ModeMinRR
	}
	plan.R = model.Ptr(r)
	return plan, nil
}

// RROK reports whether R exists and meets the configured minimum
func RROK(r *float64, minRR float64) bool {
	return r != nil && *r >= minRR
}
