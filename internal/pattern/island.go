package pattern

import "etfdash/pkg/model"

// IslandDirection is the reversal flavor
type IslandDirection string

const (
	// IslandBearish is a GAP_UP then GAP_DOWN (top island)
	IslandBearish IslandDirection = "BEARISH"
	// IslandBullish is a GAP_DOWN then GAP_UP (bottom island)
	IslandBullish IslandDirection = "BULLISH"
)

// IslandConfig bounds the island scan
type IslandConfig struct {
	MinDays      int
	MaxDays      int
	LookbackDays int
}

// IslandReversal is an opening gap and the opposite closing gap that
// returns into its zone.
type IslandReversal struct {
	Direction IslandDirection `json:"direction"`
	Opening   GapEvent        `json:"opening"`
	Closing   GapEvent        `json:"closing"`
}

// DetectIslandReversal returns the latest island of the given direction.
// The bool is false when there is too little history to decide.
func DetectIslandReversal(bars []model.Candle, dir IslandDirection, cfg IslandConfig) (*IslandReversal, bool) {
	window := cfg.LookbackDays + 2
	if window < 20 {
		window = 20
	}
	if len(bars) > window {
		bars = bars[len(bars)-window:]
	}
	if len(bars) < 3 {
		return nil, false
	}

	openKind, closeKind := GapUp, GapDown
	if dir == IslandBullish {
		openKind, closeKind = GapDown, GapUp
	}

	var latest *IslandReversal
	for i := 1; i < len(bars)-1; i++ {
		opening := GapAt(bars, i)
		if opening == nil || opening.Kind != openKind {
			continue
		}

		startJ := i + cfg.MinDays
		endJ := i + cfg.MaxDays
		if endJ > len(bars)-1 {
			endJ = len(bars) - 1
		}

		for j := startJ; j <= endJ; j++ {
			closing := GapAt(bars, j)
			if closing == nil || closing.Kind != closeKind {
				continue
			}
			if returnsInto(*opening, *closing) {
				latest = &IslandReversal{Direction: dir, Opening: *opening, Closing: *closing}
			}
		}
	}

	return latest, true
}

func returnsInto(opening, closing GapEvent) bool {
	if opening.Kind == GapUp {
		return closing.Upper >= opening.Lower
	}
	return closing.Lower <= opening.Upper
}

// LatestIsland picks the chronologically later of two islands.
func LatestIsland(a, b *IslandReversal) *IslandReversal {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Closing.Date.After(a.Closing.Date):
		return b
	}
	return a
}
