package risk

import (
	"fmt"
	"math"
)

// KellyFraction computes f = (W*(R+1) - 1) / R and caps it to [0, maxPosition].
func KellyFraction(w, r, maxPosition float64) (raw, capped float64, err error) {
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, 0, fmt.Errorf("kelly with R=%v: %w", r, ErrInvalidR)
	}

	raw = (w*(r+1.0) - 1.0) / r
	capped = math.Max(0, math.Min(maxPosition, raw))
	return raw, capped, nil
}

// Kelly sizes only when every input is defined; otherwise both results are nil.
func Kelly(w *float64, plan Plan, maxPosition float64) (raw, capped *float64) {
	if w == nil || plan.Stop == nil || plan.Target == nil || plan.R == nil {
		return nil, nil
	}
	f, c, err := KellyFraction(*w, *plan.R, maxPosition)
	if err != nil {
		return nil, nil
	}
	return &f, &c
}
