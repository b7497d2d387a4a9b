package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Missing is the display sentinel for an absent value
const Missing = "MISSING"

// Num formats an optional number with the given decimals
func Num(v *float64, digits int) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatFloat(*v, 'f', digits, 64)
}

// Pct formats a value that is already in percent
func Pct(v *float64) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// Frac formats a fraction as a percentage
func Frac(v *float64) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

// Int formats an optional count with thousands separators
func Int(v *float64) string {
	if v == nil {
		return Missing
	}
	return groupThousands(int64(*v))
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Flag formats an optional boolean
func Flag(v *bool) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatBool(*v)
}

// Date formats an optional calendar date
func Date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return Missing
	}
	return t.Format("2006-01-02")
}

// Text formats an optional string
func Text(s *string) string {
	if s == nil || *s == "" {
		return Missing
	}
	return *s
}
