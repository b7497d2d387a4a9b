package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"etfdash/internal/analyzer"
)

// WriteTable prints the evidence checklist, the win-rate breakdown and
// the verdict as terminal tables.
func WriteTable(w io.Writer, rep *analyzer.Report) error {
	v := newView(rep)

	fmt.Fprintf(w, "%s (%s) vs %s  [%s]\n\n", rep.DisplayName(), rep.Ticker, rep.Benchmark.Symbol, v.LocalTime)

	evidence := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Item", "Value", "Status"}),
	)
	rows := [][]string{
		{"P_now", Num(rep.Subject.PNow, 2), "BIAS_60 " + Pct(rep.Subject.Bias60)},
		{"MA5 / MA10", Num(rep.Subject.MA5, 2) + " / " + Num(rep.Subject.MA10, 2), "san_yang " + Flag(rep.SanYang)},
		{"MA20 / MA50", Num(rep.Subject.MA20, 2) + " / " + Num(rep.Subject.MA50, 2), "MA20 " + v.MA20Guard},
		{"MA60 / MA150 / MA200", strings.Join([]string{Num(rep.Subject.MA60, 2), Num(rep.Subject.MA150, 2), Num(rep.Subject.MA200, 2)}, " / "), string(rep.Regime)},
		{"P_high", Num(rep.PHigh, 2), fmt.Sprintf("%s, drawdown %s", rep.PHighSource, Pct(rep.Drawdown))},
		{"35 rule", fmt.Sprintf("%s / %s / %s", Num(rep.Rule35.Safe, 2), Num(rep.Rule35.Watch, 2), Num(rep.Rule35.Gold, 2)), string(rep.Rule35.Zone)},
		{"Trailing stop", Num(rep.TrailingStop, 2), "hit " + Flag(rep.TrailingStopHit)},
		{"Volume", Int(rep.Subject.VolToday) + " / " + Int(rep.Subject.VolAvg), fmt.Sprintf("%sx %s", Num(rep.Volume.Ratio, 2), rep.Volume.Label)},
		{"RSI14 / MACD", Num(rep.Subject.RSI14, 2) + " / " + Num(rep.Subject.MACD, 2), "hist " + Num(rep.Subject.MACDHist, 2)},
		{"Gap", fmt.Sprintf("%s [%s, %s]", Text(v.GapKind), Num(v.GapLower, 2), Num(v.GapUpper, 2)), fmt.Sprintf("filled_by_close %s, reclaim %s", Flag(rep.Patterns.Gap.FilledByClose), Flag(rep.Patterns.Reclaim.IsReclaim()))},
		{"Island reversal", Flag(rep.Patterns.Island.Found), Text(v.IslandDirection)},
		{"Massive volume", Num(rep.Patterns.MassiveVolume.Low, 2) + " / " + Num(rep.Patterns.MassiveVolume.High, 2), "low_broken " + Flag(rep.Patterns.MassiveVolume.LowBroken)},
		{"Bearish omens", fmt.Sprintf("engulf %s", Flag(rep.Patterns.Omens.LongBlackEngulf)), fmt.Sprintf("dist %s, up_vol_down %s", Flag(rep.Patterns.Omens.DistributionDay), Flag(rep.Patterns.Omens.PriceUpVolDown))},
		{"Benchmark " + rep.Benchmark.Symbol, Num(rep.Benchmark.PNow, 2) + " / MA150 " + Num(rep.Benchmark.MA150, 2), string(rep.Benchmark.Regime)},
	}
	for _, row := range rows {
		if err := evidence.Append(row); err != nil {
			return err
		}
	}
	if err := evidence.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	breakdown := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Rule", "Kind", "Status", "Delta", "Missing"}),
	)
	for _, c := range rep.WinRate.Components {
		if err := breakdown.Append([]string{
			c.Name,
			string(c.Kind),
			string(c.Status),
			fmt.Sprintf("%+.2f", c.Delta),
			strings.Join(c.Missing, ","),
		}); err != nil {
			return err
		}
	}
	if err := breakdown.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	verdict := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Stop", "Target", "R", "W", "Kelly", "Rating"}),
	)
	if err := verdict.Append([]string{
		Num(rep.Plan.Stop, 2),
		fmt.Sprintf("%s (%s)", Num(rep.Plan.Target, 2), rep.Plan.Mode),
		Num(rep.Plan.R, 4),
		Frac(rep.WinRate.Clamped),
		Frac(rep.KellyCapped),
		string(rep.Rating),
	}); err != nil {
		return err
	}
	if err := verdict.Render(); err != nil {
		return err
	}

	if len(rep.Missing) > 0 {
		fmt.Fprintf(w, "\nMissing evidence: %s\n", strings.Join(rep.Missing, ", "))
	}
	return nil
}
