package risk

import (
	"etfdash/internal/rules"
)

// StrongBuyVolRatio is the volume ratio that stands in for attack volume
const StrongBuyVolRatio = 1.2

// Rating is the final categorical verdict
type Rating string

const (
	RatingInsufficient  Rating = "INSUFFICIENT_DATA"
	RatingStandAside    Rating = "STAND_ASIDE"
	RatingStrongBuy     Rating = "STRONG_BUY"
	RatingWatchPullback Rating = "WATCH_ON_PULLBACK"
)

// Label is the human-readable verdict
func (r Rating) Label() string {
	switch r {
	case RatingInsufficient:
		return "Insufficient data, no conclusion permitted"
	case RatingStandAside:
		return "Stand aside"
	case RatingStrongBuy:
		return "Strong buy"
	case RatingWatchPullback:
		return "Watch on pullback"
	}
	return string(r)
}

// Evidence is the fixed checklist that must be complete before a rating is issued
type Evidence struct {
	PNow            *float64
	MA5             *float64
	MA10            *float64
	MA20            *float64
	MA50            *float64
	MA60            *float64
	MA150           *float64
	MA200           *float64
	Bias60          *float64
	PHigh           *float64
	VolToday        *float64
	VolAvg          *float64
	RSI14           *float64
	MACD            *float64
	BenchPNow       *float64
	BenchMA150      *float64
	Stop            *float64
	Target          *float64
	R               *float64
	KellyCapped     *float64
	TrailingStop    *float64
	TrailingStopHit *bool
	GapOpen         *bool
	GapFilled       *bool
	GapFilledClose  *bool
	IslandReversal  *bool
	SupportBroken   *bool
	LongBlackEngulf *bool
	DistributionDay *bool
	PriceUpVolDown  *bool
}

// Missing lists the names of every absent field, in checklist order
func (e Evidence) Missing() []string {
	checks := []struct {
		name    string
		present bool
	}{
		{"p_now", e.PNow != nil},
		{"ma5", e.MA5 != nil},
		{"ma10", e.MA10 != nil},
		{"ma20", e.MA20 != nil},
		{"ma50", e.MA50 != nil},
		{"ma60", e.MA60 != nil},
		{"ma150", e.MA150 != nil},
		{"ma200", e.MA200 != nil},
		{"bias60", e.Bias60 != nil},
		{"p_high", e.PHigh != nil},
		{"v_today", e.VolToday != nil},
		{"v_avg", e.VolAvg != nil},
		{"rsi14", e.RSI14 != nil},
		{"macd", e.MACD != nil},
		{"benchmark.p_now", e.BenchPNow != nil},
		{"benchmark.ma150", e.BenchMA150 != nil},
		{"stop", e.Stop != nil},
		{"target", e.Target != nil},
		{"r", e.R != nil},
		{"kelly_f_capped", e.KellyCapped != nil},
		{"trailing_stop", e.TrailingStop != nil},
		{"trailing_stop_hit", e.TrailingStopHit != nil},
		{"gap_open", e.GapOpen != nil},
		{"gap_filled", e.GapFilled != nil},
		{"gap_filled_by_close", e.GapFilledClose != nil},
		{"island_reversal", e.IslandReversal != nil},
		{"massive_volume_low_broken", e.SupportBroken != nil},
		{"long_black_engulf", e.LongBlackEngulf != nil},
		{"distribution_day", e.DistributionDay != nil},
		{"price_up_vol_down", e.PriceUpVolDown != nil},
	}

	var missing []string
	for _, c := range checks {
		if !c.present {
			missing = append(missing, c.name)
		}
	}
	return missing
}

// Complete reports whether no evidence is missing
func (e Evidence) Complete() bool {
	return len(e.Missing()) == 0
}

// RatingInputs is everything FinalRating reads
type RatingInputs struct {
	EvidenceOK   bool
	RROK         bool
	KellyCapped  *float64
	Regime       rules.Regime
	BenchRegime  rules.Regime
	SanYang      *bool
	VolumeAttack bool
	VolRatio     *float64
}

// FinalRating applies the verdict rules in order; the first match wins.
func FinalRating(in RatingInputs) Rating {
	if !in.EvidenceOK || !in.RROK {
		return RatingInsufficient
	}
	if in.KellyCapped != nil && *in.KellyCapped <= 0 {
		return RatingStandAside
	}
	if in.BenchRegime != rules.RegimeBull {
		return RatingStandAside
	}

	volumeOK := in.VolumeAttack || (in.VolRatio != nil && *in.VolRatio >= StrongBuyVolRatio)
	if in.Regime == rules.RegimeBull && in.SanYang != nil && *in.SanYang && volumeOK {
		return RatingStrongBuy
	}
	if in.Regime == rules.RegimeBull {
		return RatingWatchPullback
	}
	return RatingStandAside
}
