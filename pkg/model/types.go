package model

import "time"

// Candle represents a single daily bar (OHLCV data)
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Meta holds the scalar facts the data source may or may not supply.
// A nil field means the source did not provide it.
type Meta struct {
	FiftyTwoWeekHigh *float64 `json:"fifty_two_week_high,omitempty"`
	ShortName        *string  `json:"short_name,omitempty"`
}

// Snapshot is one fetched price history plus metadata, ascending by date.
// It is treated as immutable once returned by a provider.
type Snapshot struct {
	Symbol    string    `json:"symbol"`
	FetchedAt time.Time `json:"fetched_at"`
	Candles   []Candle  `json:"candles"`
	Meta      Meta      `json:"meta"`
}

// Clone returns a deep copy so callers never share the candle slice.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Candles = make([]Candle, len(s.Candles))
	copy(out.Candles, s.Candles)
	if s.Meta.FiftyTwoWeekHigh != nil {
		out.Meta.FiftyTwoWeekHigh = Ptr(*s.Meta.FiftyTwoWeekHigh)
	}
	if s.Meta.ShortName != nil {
		out.Meta.ShortName = Ptr(*s.Meta.ShortName)
	}
	return &out
}

// Closes extracts the close column
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Opens extracts the open column
func Opens(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Open
	}
	return out
}

// Highs extracts the high column
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Volumes extracts the volume column as float64
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = float64(c.Volume)
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// DateKey formats a bar time as an ISO calendar date.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DaysBetween returns the calendar-day difference b - a, ignoring time of day.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
