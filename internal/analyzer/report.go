package analyzer

import (
	"time"

	"etfdash/internal/risk"
	"etfdash/internal/rules"
)

// BenchmarkSummary is the market filter
type BenchmarkSummary struct {
	Symbol string       `json:"symbol"`
	Bars   int          `json:"bars"`
	PNow   *float64     `json:"p_now"`
	MA150  *float64     `json:"ma150"`
	Regime rules.Regime `json:"regime"`
}

// Links are the public pages the numbers can be checked against
type Links struct {
	Quote            string `json:"quote"`
	History          string `json:"history"`
	BenchmarkQuote   string `json:"benchmark_quote"`
	BenchmarkHistory string `json:"benchmark_history"`
}

// Report is the complete diagnosis for one ticker. Nil pointers are
// facts that could not be established; the renderer shows them as MISSING.
type Report struct {
	ID          string     `json:"id"`
	Ticker      string     `json:"ticker"`
	Name        *string    `json:"name,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
	FetchedAt   time.Time  `json:"fetched_at"`
	LastBar     *time.Time `json:"last_bar,omitempty"`

	Subject   Derived          `json:"subject"`
	Benchmark BenchmarkSummary `json:"benchmark"`
	Links     Links            `json:"links"`

	PHigh       *float64         `json:"p_high"`
	PHighSource risk.PHighSource `json:"p_high_source"`
	Drawdown    *float64         `json:"drawdown_pct"`
	Rule35      risk.Rule35      `json:"rule35"`

	TrailingStopPct float64  `json:"trailing_stop_pct"`
	TrailingStop    *float64 `json:"trailing_stop"`
	TrailingStopHit *bool    `json:"trailing_stop_hit"`

	Regime        rules.Regime       `json:"regime"`
	Volume        rules.VolumeSignal `json:"volume"`
	SanYang       *bool              `json:"san_yang"`
	SanShengWuNai *bool              `json:"san_sheng_wu_nai"`
	Patterns      PatternSignals     `json:"patterns"`

	StopLossPct    float64   `json:"stop_loss_pct"`
	MinRR          float64   `json:"min_rr"`
	Plan           risk.Plan `json:"plan"`
	RROK           bool      `json:"rr_ok"`
	MaxPositionPct float64   `json:"max_position_pct"`

	WinRate     rules.WinRateBreakdown `json:"win_rate"`
	KellyRaw    *float64               `json:"kelly_f_raw"`
	KellyCapped *float64               `json:"kelly_f_capped"`

	Evidence    risk.Evidence `json:"-"`
	Missing     []string      `json:"missing"`
	Rating      risk.Rating   `json:"rating"`
	RatingLabel string        `json:"rating_label"`
	Notes       []string      `json:"notes"`
}

// DisplayName is the short name when the source supplied one
func (r *Report) DisplayName() string {
	if r.Name != nil && *r.Name != "" {
		return *r.Name
	}
	return r.Ticker
}

// W is the clamped win rate used for Kelly sizing
func (r *Report) W() *float64 {
	return r.WinRate.Clamped
}
