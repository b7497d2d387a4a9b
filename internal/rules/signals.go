package rules

import "etfdash/pkg/model"

// Regime is the trend state of a series against its MA150
type Regime string

const (
	RegimeBull         Regime = "BULL"
	RegimeBear         Regime = "BEAR"
	RegimeUndetermined Regime = "UNDETERMINED"
)

// TrendRegime returns BULL when price is above MA150
func TrendRegime(pNow, ma150 *float64) Regime {
	if pNow == nil || ma150 == nil {
		return RegimeUndetermined
	}
	if *pNow > *ma150 {
		return RegimeBull
	}
	return RegimeBear
}

// VolumeLabel classifies today's volume against its average
type VolumeLabel string

const (
	VolumeAttack       VolumeLabel = "ATTACK"
	VolumeDistribution VolumeLabel = "DISTRIBUTION"
	VolumeExpansion    VolumeLabel = "EXPANSION"
	VolumeContraction  VolumeLabel = "CONTRACTION"
	VolumeMissing      VolumeLabel = "MISSING"
)

// Volume thresholds
const (
	AttackRatio       = 1.5
	DistributionRatio = 2.5
)

// VolumeSignal is the volume classification for the latest bar
type VolumeSignal struct {
	Ratio        *float64    `json:"ratio,omitempty"`
	Attack       bool        `json:"attack"`
	Distribution bool        `json:"distribution"`
	Label        VolumeLabel `json:"label"`
}

// ClassifyVolume computes vol_today/vol_avg and labels it.
// Attack needs an up candle, distribution a down candle.
func ClassifyVolume(volToday, volAvg, open, close *float64) VolumeSignal {
	if volToday == nil || volAvg == nil || *volAvg == 0 {
		return VolumeSignal{Label: VolumeMissing}
	}

	ratio := *volToday / *volAvg
	up := open != nil && close != nil && *close > *open
	down := open != nil && close != nil && *close < *open

	sig := VolumeSignal{
		Ratio:        model.Ptr(ratio),
		Attack:       ratio > AttackRatio && up,
		Distribution: ratio > DistributionRatio && down,
	}

	switch {
	case sig.Attack:
		sig.Label = VolumeAttack
	case sig.Distribution:
		sig.Label = VolumeDistribution
	case ratio >= 1.0:
		sig.Label = VolumeExpansion
	default:
		sig.Label = VolumeContraction
	}
	return sig
}

// SanYangKaiTai is the bullish MA alignment: MA5 > MA10 > MA20 with a rising MA20
func SanYangKaiTai(ma5, ma10, ma20, ma20Slope *float64) *bool {
	if ma5 == nil || ma10 == nil || ma20 == nil || ma20Slope == nil {
		return nil
	}
	ok := *ma5 > *ma10 && *ma10 > *ma20 && *ma20Slope > 0
	return &ok
}

// SanShengWuNai is bearish exhaustion: all three MAs falling, stacked
// MA20 > MA10 > MA5, and price below all of them.
func SanShengWuNai(pNow, ma5, ma10, ma20, ma5Slope, ma10Slope, ma20Slope *float64) *bool {
	for _, v := range []*float64{pNow, ma5, ma10, ma20, ma5Slope, ma10Slope, ma20Slope} {
		if v == nil {
			return nil
		}
	}

	falling := *ma5Slope < 0 && *ma10Slope < 0 && *ma20Slope < 0
	stacked := *ma20 > *ma10 && *ma10 > *ma5
	below := *pNow < *ma5 && *pNow < *ma10 && *pNow < *ma20

	ok := falling && stacked && below
	return &ok
}
