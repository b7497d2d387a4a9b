package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfdash/pkg/model"
)

func f(v float64) *float64 { return model.Ptr(v) }
func b(v bool) *bool { return model.Ptr(v) }

func TestTrendRegime(t *testing.T) {
	assert.Equal(t, RegimeBull, TrendRegime(f(110), f(100)))
	assert.Equal(t, RegimeBear, TrendRegime(f(100), f(100)))
	assert.Equal(t, RegimeUndetermined, TrendRegime(nil, f(100)))
	assert.Equal(t, RegimeUndetermined, TrendRegime(f(100), nil))
}

func TestClassifyVolume(t *testing.T) {
	tests := []struct {
		name     string
		vol, avg *float64
		open     float64
		close    float64
		want     VolumeLabel
	}{
		{"attack on up candle", f(200), f(100), 10, 11, VolumeAttack},
		{"high ratio down candle below distribution", f(200), f(100), 11, 10, VolumeExpansion},
		{"distribution on down candle", f(300), f(100), 11, 10, VolumeDistribution},
		{"expansion at exactly 1.0", f(100), f(100), 10, 11, VolumeExpansion},
		{"contraction", f(80), f(100), 10, 11, VolumeContraction},
		{"zero average", f(80), f(0), 10, 11, VolumeMissing},
		{"missing volume", nil, f(100), 10, 11, VolumeMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := ClassifyVolume(tt.vol, tt.avg, f(tt.open), f(tt.close))
			assert.Equal(t, tt.want, sig.Label)
			if tt.want == VolumeMissing {
				assert.Nil(t, sig.Ratio)
			} else {
				require.NotNil(t, sig.Ratio)
			}
		})
	}

	attack := ClassifyVolume(f(200), f(100), f(10), f(11))
	assert.True(t, attack.Attack)
	assert.InDelta(t, 2.0, *attack.Ratio, 1e-9)
}

func TestSanYangKaiTai(t *testing.T) {
	assert.True(t, *SanYangKaiTai(f(11), f(10), f(9), f(0.5)))
	assert.False(t, *SanYangKaiTai(f(11), f(10), f(9), f(-0.5)))
	assert.False(t, *SanYangKaiTai(f(10), f(11), f(9), f(0.5)))
	assert.Nil(t, SanYangKaiTai(f(11), nil, f(9), f(0.5)))
}

func TestSanShengWuNai(t *testing.T) {
	tests := []struct {
		name string
		pNow *float64
		want *bool
	}{
		{"price below stacked falling lines", f(90), b(true)},
		{"price above the fast line", f(105), b(false)},
		{"missing price", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanShengWuNai(tt.pNow, f(100), f(110), f(120), f(-1), f(-1), f(-1))
			assert.Equal(t, tt.want, got)
		})
	}

	rising := SanShengWuNai(f(90), f(100), f(110), f(120), f(-1), f(-1), f(1))
	assert.False(t, *rising)
}

func bullBase() WinRateInputs {
	return WinRateInputs{
		PNow:    f(110),
		MA150:   f(100),
		MA50:    f(210),
		MA200:   f(200),
		SanYang: b(false),
	}
}

func component(t *testing.T, bd WinRateBreakdown, name string) WinRateComponent {
	t.Helper()
	for _, c := range bd.Components {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("component %s not found", name)
	return WinRateComponent{}
}

func TestChooseWinRateBreakdown_BullBaseOnly(t *testing.T) {
	bd := ChooseWinRateBreakdown(bullBase())

	require.NotNil(t, bd.Base)
	assert.Equal(t, 0.6, *bd.Base)
	assert.Equal(t, 0.0, *bd.BonusTotal)
	assert.Equal(t, 0.0, *bd.PenaltyTotal)
	assert.Equal(t, 0.6, *bd.Raw)
	assert.Equal(t, 0.6, *bd.Clamped)

	assert.Len(t, bd.Components, 1+len(winRateRules))
	assert.Equal(t, StatusNotApplied, component(t, bd, RuleThreeWayResonance).Status)

	skipped := component(t, bd, RuleValueReversion)
	assert.Equal(t, StatusSkippedMissing, skipped.Status)
	assert.Equal(t, []string{"rule_35_zone", "rsi14"}, skipped.Missing)

	momentum := component(t, bd, RuleBullishMomentum)
	assert.Equal(t, StatusSkippedMissing, momentum.Status)
	assert.Equal(t, []string{"vol_ratio", "bias60"}, momentum.Missing)
}

func TestChooseWinRateBreakdown_BonusesAndPenalties(t *testing.T) {
	in := bullBase()
	in.SanYang = b(true)
	in.InGoldZone = b(true)
	in.RSI14 = f(20)
	in.GapFilledByClose = b(true)
	in.GapDirection = model.Ptr("UP")
	in.BearishIsland = b(true)
	in.SupportBroken = b(true)
	in.LongBlackEngulf = b(true)
	in.GapOpen = b(true)
	in.GapFilled = b(false)

	bd := ChooseWinRateBreakdown(in)

	require.NotNil(t, bd.Raw)
	assert.Equal(t, 0.6, *bd.Base)
	assert.Equal(t, 0.3, *bd.BonusTotal)
	assert.Equal(t, -0.5, *bd.PenaltyTotal)
	assert.Equal(t, 0.4, *bd.Raw)
	assert.Equal(t, 0.4, *bd.Clamped)

	var applied []string
	for _, c := range bd.Applied() {
		applied = append(applied, c.Name)
	}
	assert.Equal(t, []string{
		RuleBase,
		RuleThreeWayResonance,
		RuleValueReversion,
		RuleGapUpFilled,
		RuleTopIsland,
		RuleMassiveSupportBroke,
		RuleLongBlackEngulf,
		RuleOpenGapUnfilled,
	}, applied)

	assert.Equal(t, 0.2, component(t, bd, RuleValueReversion).Delta)
	assert.Equal(t, -0.1, component(t, bd, RuleGapUpFilled).Delta)
	assert.Equal(t, StatusNotApplied, component(t, bd, RuleGapDownFilled).Status)
	assert.Equal(t, 0.0, component(t, bd, RuleGapDownFilled).Delta)
	assert.Equal(t, StatusSkippedMissing, component(t, bd, RuleBottomIsland).Status)
}

func TestChooseWinRateBreakdown_Clamp(t *testing.T) {
	in := WinRateInputs{
		PNow:             f(90),
		MA150:            f(100),
		MA50:             f(190),
		MA200:            f(200),
		SanYang:          b(false),
		GapFilledByClose: b(true),
		GapDirection:     model.Ptr("UP"),
		BearishIsland:    b(true),
		SupportBroken:    b(true),
		LongBlackEngulf:  b(true),
		SanShengWuNai:    b(true),
	}

	bd := ChooseWinRateBreakdown(in)
	assert.Equal(t, 0.3, *bd.Base)
	assert.Equal(t, -0.2, *bd.Raw)
	assert.Equal(t, 0.15, *bd.Clamped)

	high := bullBase()
	high.SanYang = b(true)
	high.InGoldZone = b(true)
	high.RSI14 = f(25)
	high.VolRatio = f(1.5)
	high.Bias60 = f(4)
	high.GapFilledByClose = b(true)
	high.GapDirection = model.Ptr("DOWN")
	high.BullishIsland = b(true)

	bd = ChooseWinRateBreakdown(high)
	assert.Equal(t, 1.2, *bd.Raw)
	assert.Equal(t, 0.85, *bd.Clamped)
}

func TestChooseWinRateBreakdown_MomentumGatedOnBullBase(t *testing.T) {
	in := bullBase()
	in.PNow = f(95) // bear base
	in.VolRatio = f(2)
	in.Bias60 = f(1)

	bd := ChooseWinRateBreakdown(in)
	assert.Equal(t, 0.3, *bd.Base)
	assert.Equal(t, StatusNotApplied, component(t, bd, RuleBullishMomentum).Status)
}

func TestChooseWinRateBreakdown_GapDirectionMissing(t *testing.T) {
	in := bullBase()
	in.GapFilledByClose = b(true)

	bd := ChooseWinRateBreakdown(in)
	c := component(t, bd, RuleGapDownFilled)
	assert.Equal(t, StatusSkippedMissing, c.Status)
	assert.Equal(t, []string{"gap_direction"}, c.Missing)
}

func TestChooseWinRateBreakdown_MissingBase(t *testing.T) {
	in := bullBase()
	in.PNow = nil
	in.MA200 = nil
	in.SanYang = b(true)

	bd := ChooseWinRateBreakdown(in)

	assert.Nil(t, bd.Base)
	assert.Nil(t, bd.BonusTotal)
	assert.Nil(t, bd.PenaltyTotal)
	assert.Nil(t, bd.Raw)
	assert.Nil(t, bd.Clamped)
	assert.Empty(t, bd.Applied())

	base := component(t, bd, RuleBase)
	assert.Equal(t, StatusSkippedMissing, base.Status)
	assert.Equal(t, []string{"p_now", "ma200"}, base.Missing)

	for _, c := range bd.Components[1:] {
		assert.Equal(t, StatusSkippedMissing, c.Status, c.Name)
		assert.Equal(t, []string{"base"}, c.Missing)
	}
}
