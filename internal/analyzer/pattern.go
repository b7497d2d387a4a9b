package analyzer

import (
	"etfdash/internal/pattern"
	"etfdash/pkg/model"
)

// GapSummary flattens the last-gap scan into the evidence flags.
// A scan that found no live gap is a definite negative, not missing data.
type GapSummary struct {
	Status        *pattern.GapStatus `json:"status,omitempty"`
	Open          *bool              `json:"open"`
	Filled        *bool              `json:"filled"`
	FilledByClose *bool              `json:"filled_by_close"`
	Direction     *string            `json:"direction,omitempty"`
}

// IslandSummary is the most recent island of either flavor
type IslandSummary struct {
	Latest  *pattern.IslandReversal `json:"latest,omitempty"`
	Found   *bool                   `json:"found"`
	Bullish *bool                   `json:"bullish"`
	Bearish *bool                   `json:"bearish"`
}

// PatternSignals bundles every detector result for the subject series
type PatternSignals struct {
	Gap           GapSummary                 `json:"gap"`
	Reclaim       pattern.ReclaimSignal      `json:"reclaim"`
	Island        IslandSummary              `json:"island"`
	MassiveVolume pattern.MassiveVolumeLevel `json:"massive_volume"`
	Omens         pattern.BearishOmens       `json:"omens"`
	Midpoint      pattern.MidpointDefense    `json:"midpoint"`
}

// DetectPatterns runs the gap, island, volume and candle detectors
func DetectPatterns(bars []model.Candle, opts Options) PatternSignals {
	status := pattern.DetectLastGap(bars, opts.LookbackDays)

	return PatternSignals{
		Gap:           summarizeGap(status),
		Reclaim:       pattern.GapReclaimWithin3Days(status, bars),
		Island:        detectIslands(bars, opts),
		MassiveVolume: pattern.MassiveVolumeLevels(bars, opts.MassiveVolumeWindow),
		Omens:         pattern.DetectBearishOmens(bars, opts.MassiveVolumeWindow),
		Midpoint:      pattern.DetectMidpointDefense(bars, opts.MidpointBodyRatio),
	}
}

func summarizeGap(status *pattern.GapStatus) GapSummary {
	if status == nil {
		return GapSummary{}
	}

	out := GapSummary{Status: status}
	if status.LastGap == nil {
		out.Open = model.Ptr(false)
		out.Filled = model.Ptr(false)
		out.FilledByClose = model.Ptr(false)
		return out
	}

	out.Open = model.Ptr(!status.FilledByClose)
	out.Filled = model.Ptr(status.FilledByClose)
	out.FilledByClose = model.Ptr(status.FilledByClose)
	out.Direction = model.Ptr(status.LastGap.Kind.Direction())
	return out
}

func detectIslands(bars []model.Candle, opts Options) IslandSummary {
	cfg := pattern.IslandConfig{
		MinDays:      opts.IslandMinDays,
		MaxDays:      opts.IslandMaxDays,
		LookbackDays: opts.LookbackDays,
	}

	top, okTop := pattern.DetectIslandReversal(bars, pattern.IslandBearish, cfg)
	bottom, okBottom := pattern.DetectIslandReversal(bars, pattern.IslandBullish, cfg)
	if !okTop || !okBottom {
		return IslandSummary{}
	}

	latest := pattern.LatestIsland(top, bottom)
	return IslandSummary{
		Latest:  latest,
		Found:   model.Ptr(latest != nil),
		Bullish: model.Ptr(latest != nil && latest.Direction == pattern.IslandBullish),
		Bearish: model.Ptr(latest != nil && latest.Direction == pattern.IslandBearish),
	}
}
