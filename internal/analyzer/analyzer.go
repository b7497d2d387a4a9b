package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"etfdash/internal/config"
	"etfdash/internal/metrics"
	"etfdash/internal/provider"
	"etfdash/internal/risk"
	"etfdash/internal/rules"
	"etfdash/pkg/model"
)

// Options holds every tunable the pipeline reads
type Options struct {
	Benchmark       string
	HistoryDays     int
	VolumeAvgWindow int

	StopLossPct     float64
	MinRR           float64
	MaxPositionPct  float64
	TrailingStopPct float64

	LookbackDays        int
	IslandMinDays       int
	IslandMaxDays       int
	MassiveVolumeWindow int
	MidpointBodyRatio   float64
}

// OptionsFromConfig copies the analysis settings out of a validated config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Benchmark:           cfg.Data.Benchmark,
		HistoryDays:         cfg.Data.HistoryDays,
		VolumeAvgWindow:     cfg.Data.VolumeAvgWindow,
		StopLossPct:         cfg.Risk.StopLossPct,
		MinRR:               cfg.Risk.MinRR,
		MaxPositionPct:      cfg.Risk.MaxPositionPct,
		TrailingStopPct:     cfg.Risk.TrailingStopPct,
		LookbackDays:        cfg.Pattern.LookbackDays,
		IslandMinDays:       cfg.Pattern.IslandMinDays,
		IslandMaxDays:       cfg.Pattern.IslandMaxDays,
		MassiveVolumeWindow: cfg.Pattern.MassiveVolumeWindow,
		MidpointBodyRatio:   cfg.Pattern.MidpointBodyRatio,
	}
}

// ReportAnalyzer fetches histories and builds reports
type ReportAnalyzer struct {
	opts     Options
	provider provider.Provider
	now      func() time.Time
}

// NewReportAnalyzer creates a new report analyzer
func NewReportAnalyzer(opts Options, p provider.Provider) *ReportAnalyzer {
	return &ReportAnalyzer{opts: opts, provider: p, now: time.Now}
}

// Options returns the analyzer settings
func (a *ReportAnalyzer) Options() Options {
	return a.opts
}

// Analyze builds the report for ticker against the configured benchmark
func (a *ReportAnalyzer) Analyze(ctx context.Context, ticker string, progress ProgressFunc) (*Report, error) {
	return a.AnalyzeWith(ctx, ticker, a.opts.Benchmark, progress)
}

// AnalyzeWith builds the report for ticker against an explicit benchmark
func (a *ReportAnalyzer) AnalyzeWith(ctx context.Context, ticker, benchmark string, progress ProgressFunc) (*Report, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	if benchmark == "" {
		benchmark = a.opts.Benchmark
	}

	subject, bench, err := Fetch(ctx, a.provider, ticker, benchmark, a.opts.HistoryDays, progress)
	if err != nil {
		return nil, err
	}

	opts := a.opts
	opts.Benchmark = benchmark
	rep, err := Build(subject, bench, opts, a.now())
	if err != nil {
		return nil, err
	}

	metrics.ObserveReport(string(rep.Rating), rep.Missing)
	log.Info().
		Str("report_id", rep.ID).
		Str("ticker", rep.Ticker).
		Str("benchmark", benchmark).
		Int("bars", rep.Subject.Bars).
		Str("rating", string(rep.Rating)).
		Int("missing", len(rep.Missing)).
		Msg("report built")

	return rep, nil
}

// Build derives every report field from the two snapshots. It performs no
// I/O; the only error is an invalid min_rr.
func Build(subject, bench *model.Snapshot, opts Options, now time.Time) (*Report, error) {
	bars := subject.Candles
	d := ComputeDerived(bars, opts.VolumeAvgWindow)
	b := ComputeDerived(bench.Candles, opts.VolumeAvgWindow)

	rep := &Report{
		ID:          uuid.NewString(),
		Ticker:      subject.Symbol,
		Name:        subject.Meta.ShortName,
		GeneratedAt: now,
		FetchedAt:   subject.FetchedAt,
		Subject:     d,
		Benchmark: BenchmarkSummary{
			Symbol: bench.Symbol,
			Bars:   b.Bars,
			PNow:   b.PNow,
			MA150:  b.MA150,
			Regime: rules.TrendRegime(b.PNow, b.MA150),
		},
		Links: Links{
			Quote:            provider.QuoteURL(subject.Symbol),
			History:          provider.HistoryURL(subject.Symbol),
			BenchmarkQuote:   provider.QuoteURL(bench.Symbol),
			BenchmarkHistory: provider.HistoryURL(bench.Symbol),
		},
		TrailingStopPct: opts.TrailingStopPct,
		StopLossPct:     opts.StopLossPct,
		MinRR:           opts.MinRR,
		MaxPositionPct:  opts.MaxPositionPct,
	}
	if len(bars) > 0 {
		rep.LastBar = model.Ptr(bars[len(bars)-1].Time)
	}

	rep.PHigh, rep.PHighSource = risk.ResolvePHigh(subject.Meta, bars)
	rep.Drawdown = risk.Drawdown(d.PNow, rep.PHigh)
	rep.Rule35 = risk.Rule35Zone(d.PNow, rep.PHigh)
	rep.TrailingStop, rep.TrailingStopHit = risk.TrailingStop(rep.PHigh, d.PNow, opts.TrailingStopPct)

	rep.Regime = rules.TrendRegime(d.PNow, d.MA150)
	rep.Volume = rules.ClassifyVolume(d.VolToday, d.VolAvg, d.Open, d.Close)
	rep.SanYang = rules.SanYangKaiTai(d.MA5, d.MA10, d.MA20, d.MA20Slope)
	rep.SanShengWuNai = rules.SanShengWuNai(d.PNow, d.MA5, d.MA10, d.MA20, d.MA5Slope, d.MA10Slope, d.MA20Slope)
	rep.Patterns = DetectPatterns(bars, opts)

	plan, err := risk.ComputeTargetAndR(d.PNow, d.MA20, rep.PHigh, opts.StopLossPct, opts.MinRR)
	if err != nil {
		return nil, err
	}
	rep.Plan = plan
	rep.RROK = risk.RROK(plan.R, opts.MinRR)

	p := rep.Patterns
	rep.WinRate = rules.ChooseWinRateBreakdown(rules.WinRateInputs{
		PNow:             d.PNow,
		MA150:            d.MA150,
		MA50:             d.MA50,
		MA200:            d.MA200,
		SanYang:          rep.SanYang,
		InGoldZone:       rep.Rule35.Zone.IsGold(),
		RSI14:            d.RSI14,
		VolRatio:         rep.Volume.Ratio,
		Bias60:           d.Bias60,
		GapOpen:          p.Gap.Open,
		GapFilled:        p.Gap.Filled,
		GapFilledByClose: p.Gap.FilledByClose,
		GapDirection:     p.Gap.Direction,
		BullishIsland:    p.Island.Bullish,
		BearishIsland:    p.Island.Bearish,
		SupportBroken:    p.MassiveVolume.LowBroken,
		LongBlackEngulf:  p.Omens.LongBlackEngulf,
		SanShengWuNai:    rep.SanShengWuNai,
	})
	rep.KellyRaw, rep.KellyCapped = risk.Kelly(rep.WinRate.Clamped, plan, opts.MaxPositionPct)

	rep.Evidence = risk.Evidence{
		PNow:            d.PNow,
		MA5:             d.MA5,
		MA10:            d.MA10,
		MA20:            d.MA20,
		MA50:            d.MA50,
		MA60:            d.MA60,
		MA150:           d.MA150,
		MA200:           d.MA200,
		Bias60:          d.Bias60,
		PHigh:           rep.PHigh,
		VolToday:        d.VolToday,
		VolAvg:          d.VolAvg,
		RSI14:           d.RSI14,
		MACD:            d.MACD,
		BenchPNow:       b.PNow,
		BenchMA150:      b.MA150,
		Stop:            plan.Stop,
		Target:          plan.Target,
		R:               plan.R,
		KellyCapped:     rep.KellyCapped,
		TrailingStop:    rep.TrailingStop,
		TrailingStopHit: rep.TrailingStopHit,
		GapOpen:         p.Gap.Open,
		GapFilled:       p.Gap.Filled,
		GapFilledClose:  p.Gap.FilledByClose,
		IslandReversal:  p.Island.Found,
		SupportBroken:   p.MassiveVolume.LowBroken,
		LongBlackEngulf: p.Omens.LongBlackEngulf,
		DistributionDay: p.Omens.DistributionDay,
		PriceUpVolDown:  p.Omens.PriceUpVolDown,
	}
	rep.Missing = rep.Evidence.Missing()

	rep.Rating = risk.FinalRating(risk.RatingInputs{
		EvidenceOK:   len(rep.Missing) == 0,
		RROK:         rep.RROK,
		KellyCapped:  rep.KellyCapped,
		Regime:       rep.Regime,
		BenchRegime:  rep.Benchmark.Regime,
		SanYang:      rep.SanYang,
		VolumeAttack: rep.Volume.Attack,
		VolRatio:     rep.Volume.Ratio,
	})
	rep.RatingLabel = rep.Rating.Label()
	rep.Notes = buildNotes(rep, opts)

	return rep, nil
}
