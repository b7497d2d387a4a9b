package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfdash/internal/rules"
	"etfdash/pkg/model"
)

func f(v float64) *float64 { return model.Ptr(v) }

func TestComputeStop(t *testing.T) {
	tests := []struct {
		name        string
		ma20        *float64
		wantStop    float64
		wantIgnored bool
	}{
		{"ma20 above entry is ignored", f(105), 95, true},
		{"ma20 equal to entry is ignored", f(100), 95, true},
		{"ma20 tighter than pct stop", f(97), 97, false},
		{"pct stop tighter than ma20", f(90), 95, false},
		{"no ma20", nil, 95, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stop, pct, ignored := ComputeStop(100, tt.ma20, 0.05)
			assert.InDelta(t, tt.wantStop, stop, 1e-9)
			assert.InDelta(t, 95.0, pct, 1e-9)
			assert.Equal(t, tt.wantIgnored, ignored)
		})
	}
}

func TestComputeTargetAndR_PHigh(t *testing.T) {
	plan, err := ComputeTargetAndR(f(100), nil, f(101), 0.05, 0)
	require.NoError(t, err)

	assert.Equal(t, ModePHigh, plan.Mode)
	assert.InDelta(t, 95.0, *plan.Stop, 1e-9)
	assert.InDelta(t, 101.0, *plan.Target, 1e-9)
	assert.InDelta(t, 0.2, *plan.R, 1e-9)
}

func TestComputeTargetAndR_MinRR(t *testing.T) {
	plan, err := ComputeTargetAndR(f(100), f(105), f(101), 0.05, 2.5)
	require.NoError(t, err)

	assert.Equal(t, ModeMinRR, plan.Mode)
	assert.True(t, plan.MA20Ignored)
	assert.InDelta(t, 95.0, *plan.Stop, 1e-9)
	assert.InDelta(t, 112.5, *plan.Target, 1e-9)
	assert.Equal(t, 2.5, *plan.R)
	assert.True(t, RROK(plan.R, 2.5))
}

func TestComputeTargetAndR_EdgeCases(t *testing.T) {
	t.Run("target at or below entry forces pct stop", func(t *testing.T) {
		plan, err := ComputeTargetAndR(f(100), f(98), f(99), 0.05, 0)
		require.NoError(t, err)
		assert.Equal(t, ModeInvalidTarget, plan.Mode)
		assert.InDelta(t, 95.0, *plan.Stop, 1e-9)
		assert.InDelta(t, 99.0, *plan.Target, 1e-9)
		assert.Nil(t, plan.R)
		assert.False(t, RROK(plan.R, 0))
	})

	t.Run("missing p_high", func(t *testing.T) {
		plan, err := ComputeTargetAndR(f(100), nil, nil, 0.05, 0)
		require.NoError(t, err)
		assert.Equal(t, ModeMissingPHigh, plan.Mode)
		assert.NotNil(t, plan.Stop)
		assert.Nil(t, plan.Target)
		assert.Nil(t, plan.R)
	})

	t.Run("missing entry", func(t *testing.T) {
		plan, err := ComputeTargetAndR(nil, nil, f(120), 0.05, 0)
		require.NoError(t, err)
		assert.Equal(t, ModeMissing, plan.Mode)
		assert.Nil(t, plan.Stop)
	})

	t.Run("stop at entry", func(t *testing.T) {
		// a zero stop percentage leaves no risk per share
		plan, err := ComputeTargetAndR(f(100), nil, f(120), 0, 0)
		require.NoError(t, err)
		assert.Equal(t, ModeInvalidStop, plan.Mode)
		assert.NotNil(t, plan.Target)
		assert.Nil(t, plan.R)
	})

	t.Run("negative min_rr", func(t *testing.T) {
		_, err := ComputeTargetAndR(f(100), nil, f(120), 0.05, -1)
		assert.ErrorIs(t, err, ErrInvalidMinRR)
	})

	t.Run("r below min_rr of zero is untouched", func(t *testing.T) {
		plan, err := ComputeTargetAndR(f(100), nil, f(110), 0.05, 0)
		require.NoError(t, err)
		assert.Equal(t, ModePHigh, plan.Mode)
		assert.InDelta(t, 2.0, *plan.R, 1e-9)
	})
}

func TestKellyFraction(t *testing.T) {
	raw, capped, err := KellyFraction(0.6, 2.0, 0.2)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, raw, 1e-9)
	assert.InDelta(t, 0.2, capped, 1e-9)

	raw, capped, err = KellyFraction(0.3, 1.0, 0.2)
	require.NoError(t, err)
	assert.InDelta(t, -0.4, raw, 1e-9)
	assert.Equal(t, 0.0, capped)

	_, _, err = KellyFraction(0.5, 0, 0.2)
	assert.ErrorIs(t, err, ErrInvalidR)
}

func TestKellyFractionBounds(t *testing.T) {
	const maxPos = 0.2
	for _, w := range []float64{0, 0.15, 0.3, 0.5, 0.85, 1} {
		for _, r := range []float64{0.1, 0.5, 1, 2.5, 10} {
			_, capped, err := KellyFraction(w, r, maxPos)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, capped, 0.0)
			assert.LessOrEqual(t, capped, maxPos)
		}
	}
}

func TestKelly_RequiresInputs(t *testing.T) {
	plan, err := ComputeTargetAndR(f(100), nil, f(110), 0.05, 0)
	require.NoError(t, err)

	raw, capped := Kelly(f(0.6), plan, 0.2)
	require.NotNil(t, raw)
	assert.InDelta(t, (0.6*3-1)/2, *raw, 1e-9)
	assert.InDelta(t, 0.2, *capped, 1e-9)

	raw, capped = Kelly(nil, plan, 0.2)
	assert.Nil(t, raw)
	assert.Nil(t, capped)

	raw, _ = Kelly(f(0.6), Plan{Stop: f(95), Target: f(99)}, 0.2)
	assert.Nil(t, raw)
}

func TestRule35Zone(t *testing.T) {
	tests := []struct {
		pNow float64
		want Zone
	}{
		{85, ZoneSafe},
		{80, ZoneSafe},
		{75, ZoneWatch},
		{66, ZoneGold},
		{65, ZoneGold},
		{50, ZoneDeep},
	}

	for _, tt := range tests {
		got := Rule35Zone(f(tt.pNow), f(100))
		assert.Equal(t, tt.want, got.Zone, "p_now=%v", tt.pNow)
	}

	missing := Rule35Zone(nil, f(100))
	assert.Equal(t, ZoneMissing, missing.Zone)
	assert.Nil(t, missing.Zone.IsGold())
	assert.True(t, *ZoneGold.IsGold())
	assert.False(t, *ZoneDeep.IsGold())
}

func TestResolvePHigh(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Candle, 300)
	for i := range bars {
		bars[i] = model.Candle{Time: day.AddDate(0, 0, i), High: 100}
	}
	bars[10].High = 500 // outside the trailing 252 bars
	bars[200].High = 130

	v, src := ResolvePHigh(model.Meta{FiftyTwoWeekHigh: f(140)}, bars)
	assert.Equal(t, PHighFromMeta, src)
	assert.Equal(t, 140.0, *v)

	v, src = ResolvePHigh(model.Meta{}, bars)
	assert.Equal(t, PHighFromHistory, src)
	assert.Equal(t, 130.0, *v)

	v, src = ResolvePHigh(model.Meta{}, nil)
	assert.Equal(t, PHighMissing, src)
	assert.Nil(t, v)
}

func TestTrailingStopAndDrawdown(t *testing.T) {
	stop, hit := TrailingStop(f(100), f(94), 0.05)
	assert.InDelta(t, 95.0, *stop, 1e-9)
	assert.True(t, *hit)

	_, hit = TrailingStop(f(100), f(96), 0.05)
	assert.False(t, *hit)

	stop, hit = TrailingStop(nil, f(96), 0.05)
	assert.Nil(t, stop)
	assert.Nil(t, hit)

	assert.InDelta(t, -10.0, *Drawdown(f(90), f(100)), 1e-9)
	assert.Nil(t, Drawdown(f(90), f(0)))
}

func completeEvidence() Evidence {
	v := f(1)
	flag := model.Ptr(false)
	return Evidence{
		PNow: v, MA5: v, MA10: v, MA20: v, MA50: v, MA60: v, MA150: v, MA200: v,
		Bias60: v, PHigh: v, VolToday: v, VolAvg: v, RSI14: v, MACD: v,
		BenchPNow: v, BenchMA150: v, Stop: v, Target: v, R: v, KellyCapped: v,
		TrailingStop: v, TrailingStopHit: flag, GapOpen: flag, GapFilled: flag,
		GapFilledClose: flag, IslandReversal: flag, SupportBroken: flag,
		LongBlackEngulf: flag, DistributionDay: flag, PriceUpVolDown: flag,
	}
}

func TestEvidence(t *testing.T) {
	e := completeEvidence()
	assert.True(t, e.Complete())
	assert.Empty(t, e.Missing())

	e.MACD = nil
	e.GapFilledClose = nil
	assert.False(t, e.Complete())
	assert.Equal(t, []string{"macd", "gap_filled_by_close"}, e.Missing())
}

func bullishRating() RatingInputs {
	return RatingInputs{
		EvidenceOK:   true,
		RROK:         true,
		KellyCapped:  f(0.1),
		Regime:       rules.RegimeBull,
		BenchRegime:  rules.RegimeBull,
		SanYang:      model.Ptr(true),
		VolumeAttack: true,
		VolRatio:     f(1.6),
	}
}

func TestFinalRating(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*RatingInputs)
		want   Rating
	}{
		{"strong buy", func(in *RatingInputs) {}, RatingStrongBuy},
		{"strong buy on ratio alone", func(in *RatingInputs) { in.VolumeAttack = false; in.VolRatio = f(1.2) }, RatingStrongBuy},
		{"evidence incomplete", func(in *RatingInputs) { in.EvidenceOK = false }, RatingInsufficient},
		{"rr gate failed", func(in *RatingInputs) { in.RROK = false }, RatingInsufficient},
		{"kelly zero", func(in *RatingInputs) { in.KellyCapped = f(0) }, RatingStandAside},
		{"benchmark bear", func(in *RatingInputs) { in.BenchRegime = rules.RegimeBear }, RatingStandAside},
		{"no san yang", func(in *RatingInputs) { in.SanYang = model.Ptr(false) }, RatingWatchPullback},
		{"weak volume", func(in *RatingInputs) { in.VolumeAttack = false; in.VolRatio = f(1.1) }, RatingWatchPullback},
		{"ticker bear", func(in *RatingInputs) { in.Regime = rules.RegimeBear }, RatingStandAside},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := bullishRating()
			tt.modify(&in)
			assert.Equal(t, tt.want, FinalRating(in))
		})
	}
}

func TestEvidenceGateOverridesFavorableInputs(t *testing.T) {
	e := completeEvidence()
	e.TrailingStopHit = nil

	in := bullishRating()
	in.EvidenceOK = e.Complete()
	assert.Equal(t, RatingInsufficient, FinalRating(in))
	assert.NotEmpty(t, RatingInsufficient.Label())
}
