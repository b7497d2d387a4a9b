package analyzer

import (
	"fmt"
	"strings"

	"etfdash/internal/risk"
)

// buildNotes lists the data sources, fixed formulas and every override
// or fallback path the report took.
func buildNotes(rep *Report, opts Options) []string {
	notes := []string{
		"P_now, moving averages, RSI, MACD and average volume are computed from Yahoo Finance daily history (Close/Volume).",
		fmt.Sprintf("P_high source: %s", rep.PHighSource),
		"BIAS_60 = ((P_now - MA60) / MA60) x 100%",
		fmt.Sprintf("Trailing stop = P_high x (1 - trailing_stop_pct); trailing_stop_pct=%.4f", opts.TrailingStopPct),
		fmt.Sprintf("Gaps use the strict definition (Low > prior High / High < prior Low, no threshold); island window %d-%d bars; massive volume = highest volume of the trailing %d bars.",
			opts.IslandMinDays, opts.IslandMaxDays, opts.MassiveVolumeWindow),
		fmt.Sprintf("Kelly position is capped at max_position_pct=%.2f%%.", opts.MaxPositionPct*100),
	}

	plan := rep.Plan
	if plan.MA20Ignored {
		notes = append(notes, "MA20 >= entry (P_now): an MA20 stop would sit at or above entry and leave R undefined, so the percentage stop is used instead.")
	}

	if !rep.RROK {
		r := "MISSING"
		if plan.R != nil {
			r = fmt.Sprintf("%.4f", *plan.R)
		}
		notes = append(notes, fmt.Sprintf("R=%s < min_rr=%.4f; no rating is issued.", r, opts.MinRR))
	}

	switch plan.Mode {
	case risk.ModeInvalidTarget:
		notes = append(notes, "target <= entry gives R <= 0: the stop is forced to entry x (1 - stop_loss_pct) and rating and Kelly sizing are withheld.")
	case risk.ModeMinRR:
		notes = append(notes, fmt.Sprintf("R from P_high was below min_rr=%.4f; target lowered to entry + min_rr x (entry - stop).", opts.MinRR))
	case risk.ModeInvalidStop:
		notes = append(notes, "stop >= entry leaves no risk per share; R is undefined and no rating is issued.")
	}

	if rep.PHighSource == risk.PHighFromHistory {
		notes = append(notes, fmt.Sprintf("No 52-week high in the quote metadata; P_high falls back to the highest High of the last %d bars.", risk.HistoryHighWindow))
	}

	if len(rep.Missing) > 0 {
		notes = append(notes, fmt.Sprintf("Missing evidence: %s; no rating is issued.", strings.Join(rep.Missing, ", ")))
	}

	return notes
}
