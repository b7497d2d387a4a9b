package rules

import (
	"github.com/shopspring/decimal"
)

// ComponentKind is the role of a scoring contribution
type ComponentKind string

const (
	KindBase    ComponentKind = "BASE"
	KindBonus   ComponentKind = "BONUS"
	KindPenalty ComponentKind = "PENALTY"
)

// ComponentStatus records what happened to a rule
type ComponentStatus string

const (
	StatusApplied        ComponentStatus = "APPLIED"
	StatusNotApplied     ComponentStatus = "NOT_APPLIED"
	StatusSkippedMissing ComponentStatus = "SKIPPED_MISSING"
)

// Rule names as they appear in the breakdown
const (
	RuleBase                = "base_trend"
	RuleThreeWayResonance   = "three_way_resonance"
	RuleValueReversion      = "value_reversion"
	RuleBullishMomentum     = "bullish_momentum"
	RuleGapDownFilled       = "gap_down_filled_by_close"
	RuleBottomIsland        = "bottom_island_reversal"
	RuleGapUpFilled         = "gap_up_filled_by_close"
	RuleTopIsland           = "top_island_reversal"
	RuleMassiveSupportBroke = "massive_volume_support_broken"
	RuleLongBlackEngulf     = "long_black_engulf"
	RuleSanShengWuNai       = "san_sheng_wu_nai"
	RuleOpenGapUnfilled     = "open_gap_unfilled"
)

var (
	baseBull = decimal.RequireFromString("0.60")
	baseBear = decimal.RequireFromString("0.30")

	minWinRate = decimal.RequireFromString("0.15")
	maxWinRate = decimal.RequireFromString("0.85")
)

// WinRateComponent is one line of the audit trail.
// Delta is the contribution actually added; Weight is the rule's nominal value.
type WinRateComponent struct {
	Name    string          `json:"name"`
	Kind    ComponentKind   `json:"kind"`
	Status  ComponentStatus `json:"status"`
	Weight  float64         `json:"weight"`
	Delta   float64         `json:"delta"`
	Missing []string        `json:"missing,omitempty"`
}

// WinRateBreakdown is the additive score. All totals are nil when the
// base trend inputs are missing.
type WinRateBreakdown struct {
	Base         *float64           `json:"base"`
	BonusTotal   *float64           `json:"bonus_total"`
	PenaltyTotal *float64           `json:"penalty_total"`
	Raw          *float64           `json:"w_raw"`
	Clamped      *float64           `json:"w_clamped"`
	Components   []WinRateComponent `json:"components"`
}

// WinRateInputs carries every fact the scoring rules read.
// A nil field is a missing input.
type WinRateInputs struct {
	PNow  *float64
	MA150 *float64
	MA50  *float64
	MA200 *float64

	SanYang    *bool
	InGoldZone *bool
	RSI14      *float64
	VolRatio   *float64
	Bias60     *float64

	GapOpen          *bool
	GapFilled        *bool
	GapFilledByClose *bool
	GapDirection     *string // "UP" or "DOWN"

	// Callers resolve to the most recent island flavor before scoring
	BullishIsland *bool
	BearishIsland *bool

	SupportBroken   *bool
	LongBlackEngulf *bool
	SanShengWuNai   *bool
}

type input struct {
	name    string
	present bool
}

func missingOf(inputs ...input) []string {
	var out []string
	for _, in := range inputs {
		if !in.present {
			out = append(out, in.name)
		}
	}
	return out
}

type scoringRule struct {
	name   string
	kind   ComponentKind
	weight decimal.Decimal
	eval   func(in WinRateInputs, bull bool) (applied bool, missing []string)
}

func flagRule(name string, kind ComponentKind, weight, field string, get func(WinRateInputs) *bool) scoringRule {
	return scoringRule{
		name:   name,
		kind:   kind,
		weight: decimal.RequireFromString(weight),
		eval: func(in WinRateInputs, _ bool) (bool, []string) {
			v := get(in)
			if v == nil {
				return false, []string{field}
			}
			return *v, nil
		},
	}
}

func gapFilledRule(name string, kind ComponentKind, weight, direction string) scoringRule {
	return scoringRule{
		name:   name,
		kind:   kind,
		weight: decimal.RequireFromString(weight),
		eval: func(in WinRateInputs, _ bool) (bool, []string) {
			if in.GapFilledByClose == nil {
				return false, []string{"gap_filled_by_close"}
			}
			if !*in.GapFilledByClose {
				return false, nil
			}
			if in.GapDirection == nil {
				return false, []string{"gap_direction"}
			}
			return *in.GapDirection == direction, nil
		},
	}
}

// winRateRules lists bonuses then penalties in report order
var winRateRules = []scoringRule{
	flagRule(RuleThreeWayResonance, KindBonus, "0.10", "san_yang", func(in WinRateInputs) *bool { return in.SanYang }),
	{
		name:   RuleValueReversion,
		kind:   KindBonus,
		weight: decimal.RequireFromString("0.20"),
		eval: func(in WinRateInputs, _ bool) (bool, []string) {
			if m := missingOf(input{"rule_35_zone", in.InGoldZone != nil}, input{"rsi14", in.RSI14 != nil}); m != nil {
				return false, m
			}
			return *in.InGoldZone && *in.RSI14 < 30, nil
		},
	},
	{
		name:   RuleBullishMomentum,
		kind:   KindBonus,
		weight: decimal.RequireFromString("0.10"),
		eval: func(in WinRateInputs, bull bool) (bool, []string) {
			if !bull {
				return false, nil
			}
			if m := missingOf(input{"vol_ratio", in.VolRatio != nil}, input{"bias60", in.Bias60 != nil}); m != nil {
				return false, m
			}
			return *in.VolRatio > 1.0 && *in.Bias60 < 10, nil
		},
	},
	gapFilledRule(RuleGapDownFilled, KindBonus, "0.10", "DOWN"),
	flagRule(RuleBottomIsland, KindBonus, "0.10", "island_bullish", func(in WinRateInputs) *bool { return in.BullishIsland }),

	gapFilledRule(RuleGapUpFilled, KindPenalty, "-0.10", "UP"),
	flagRule(RuleTopIsland, KindPenalty, "-0.10", "island_bearish", func(in WinRateInputs) *bool { return in.BearishIsland }),
	flagRule(RuleMassiveSupportBroke, KindPenalty, "-0.10", "massive_volume_low_broken", func(in WinRateInputs) *bool { return in.SupportBroken }),
	flagRule(RuleLongBlackEngulf, KindPenalty, "-0.10", "long_black_engulf", func(in WinRateInputs) *bool { return in.LongBlackEngulf }),
	flagRule(RuleSanShengWuNai, KindPenalty, "-0.10", "san_sheng_wu_nai", func(in WinRateInputs) *bool { return in.SanShengWuNai }),
	{
		name:   RuleOpenGapUnfilled,
		kind:   KindPenalty,
		weight: decimal.RequireFromString("-0.10"),
		eval: func(in WinRateInputs, _ bool) (bool, []string) {
			if m := missingOf(input{"gap_open", in.GapOpen != nil}, input{"gap_filled", in.GapFilled != nil}); m != nil {
				return false, m
			}
			return *in.GapOpen && !*in.GapFilled, nil
		},
	},
}

func ptr(d decimal.Decimal) *float64 {
	f := d.InexactFloat64()
	return &f
}

// ChooseWinRateBreakdown scores W = base + bonuses + penalties, rounds to
// 4 decimals and clamps to [0.15, 0.85]. Every rule is listed in the
// result whether or not it fired.
func ChooseWinRateBreakdown(in WinRateInputs) WinRateBreakdown {
	var out WinRateBreakdown

	baseMissing := missingOf(
		input{"p_now", in.PNow != nil},
		input{"ma150", in.MA150 != nil},
		input{"ma50", in.MA50 != nil},
		input{"ma200", in.MA200 != nil},
	)
	if baseMissing != nil {
		out.Components = append(out.Components, WinRateComponent{
			Name:    RuleBase,
			Kind:    KindBase,
			Status:  StatusSkippedMissing,
			Missing: baseMissing,
		})
		for _, r := range winRateRules {
			out.Components = append(out.Components, WinRateComponent{
				Name:    r.name,
				Kind:    r.kind,
				Status:  StatusSkippedMissing,
				Weight:  r.weight.InexactFloat64(),
				Missing: []string{"base"},
			})
		}
		return out
	}

	bull := *in.PNow > *in.MA150 && *in.MA50 > *in.MA200
	base := baseBear
	if bull {
		base = baseBull
	}
	out.Components = append(out.Components, WinRateComponent{
		Name:   RuleBase,
		Kind:   KindBase,
		Status: StatusApplied,
		Weight: base.InexactFloat64(),
		Delta:  base.InexactFloat64(),
	})

	bonus, penalty := decimal.Zero, decimal.Zero
	for _, r := range winRateRules {
		c := WinRateComponent{Name: r.name, Kind: r.kind, Weight: r.weight.InexactFloat64()}

		applied, missing := r.eval(in, bull)
		switch {
		case missing != nil:
			c.Status = StatusSkippedMissing
			c.Missing = missing
		case applied:
			c.Status = StatusApplied
			c.Delta = r.weight.InexactFloat64()
			if r.kind == KindBonus {
				bonus = bonus.Add(r.weight)
			} else {
				penalty = penalty.Add(r.weight)
			}
		default:
			c.Status = StatusNotApplied
		}
		out.Components = append(out.Components, c)
	}

	raw := base.Add(bonus).Add(penalty).Round(4)
	clamped := decimal.Min(decimal.Max(raw, minWinRate), maxWinRate)

	out.Base = ptr(base)
	out.BonusTotal = ptr(bonus)
	out.PenaltyTotal = ptr(penalty)
	out.Raw = ptr(raw)
	out.Clamped = ptr(clamped)
	return out
}

// Applied returns the components that changed the score
func (b WinRateBreakdown) Applied() []WinRateComponent {
	var out []WinRateComponent
	for _, c := range b.Components {
		if c.Status == StatusApplied {
			out = append(out, c)
		}
	}
	return out
}
