package report

import (
	"time"

	"etfdash/internal/analyzer"
	"etfdash/internal/pattern"
	"etfdash/internal/rules"
)

// view flattens the nested optional parts of a report for the templates
type view struct {
	*analyzer.Report

	GapKind     *string
	GapLower    *float64
	GapUpper    *float64
	GapDate     *time.Time
	GapPrevDate *time.Time
	GapExpired  bool
	FillDate    *time.Time
	FillClose   *float64

	IslandDirection *string
	IslandOpenDate  *time.Time
	IslandCloseDate *time.Time

	MA20Guard  string
	TrailingOp string
	Applied    []rules.WinRateComponent
	LocalTime  string
	UTCTime    string
}

func newView(rep *analyzer.Report) view {
	v := view{Report: rep}

	if st := rep.Patterns.Gap.Status; st != nil {
		v.GapExpired = st.Expired
		v.FillDate = st.FillDate
		v.FillClose = st.FillClose
		if g := st.LastGap; g != nil {
			kind := string(g.Kind)
			v.GapKind = &kind
			v.GapLower = &g.Lower
			v.GapUpper = &g.Upper
			v.GapDate = &g.Date
			v.GapPrevDate = &g.PrevDate
		}
	}

	if isl := rep.Patterns.Island.Latest; isl != nil {
		dir := islandLabel(isl.Direction)
		v.IslandDirection = &dir
		v.IslandOpenDate = &isl.Opening.Date
		v.IslandCloseDate = &isl.Closing.Date
	}

	switch held := rep.Subject.MA20Held(); {
	case held == nil:
		v.MA20Guard = Missing
	case *held:
		v.MA20Guard = "held"
	default:
		v.MA20Guard = "broken"
	}

	switch hit := rep.TrailingStopHit; {
	case hit == nil:
		v.TrailingOp = "?"
	case *hit:
		v.TrailingOp = "<"
	default:
		v.TrailingOp = ">="
	}

	v.Applied = rep.WinRate.Applied()
	v.LocalTime = rep.GeneratedAt.Local().Format("2006/01/02 15:04:05 MST")
	v.UTCTime = rep.FetchedAt.UTC().Format("2006/01/02 15:04:05 UTC")
	return v
}

func islandLabel(d pattern.IslandDirection) string {
	if d == pattern.IslandBullish {
		return "bottom (bullish)"
	}
	return "top (bearish)"
}
