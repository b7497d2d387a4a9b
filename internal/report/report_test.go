package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfdash/internal/analyzer"
	"etfdash/internal/config"
	"etfdash/pkg/model"
)

func series(n int) []model.Candle {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Candle, n)
	for i := range bars {
		c := 100 + 0.3*float64(i) + 2*float64(i%2)
		bars[i] = model.Candle{
			Time:   start.AddDate(0, 0, i),
			Open:   c - 0.2,
			High:   c + 3,
			Low:    c - 3,
			Close:  c,
			Volume: 1000 + int64(i%5)*100,
		}
	}
	return bars
}

func buildReport(t *testing.T, bars int) *analyzer.Report {
	t.Helper()
	subject := &model.Snapshot{
		Symbol:    "VOO",
		FetchedAt: time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
		Candles:   series(bars),
		Meta:      model.Meta{FiftyTwoWeekHigh: model.Ptr(250.0), ShortName: model.Ptr("Vanguard S&P 500")},
	}
	bench := &model.Snapshot{Symbol: "^GSPC", Candles: series(260)}

	opts := analyzer.OptionsFromConfig(config.DefaultConfig())
	rep, err := analyzer.Build(subject, bench, opts, time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local))
	require.NoError(t, err)
	return rep
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, Missing, Num(nil, 2))
	assert.Equal(t, "1.50", Num(model.Ptr(1.5), 2))
	assert.Equal(t, "12.50%", Pct(model.Ptr(12.5)))
	assert.Equal(t, "20.00%", Frac(model.Ptr(0.2)))
	assert.Equal(t, "1,234,567", Int(model.Ptr(1234567.0)))
	assert.Equal(t, "999", Int(model.Ptr(999.0)))
	assert.Equal(t, "-1,000", Int(model.Ptr(-1000.0)))
	assert.Equal(t, Missing, Flag(nil))
	assert.Equal(t, "false", Flag(model.Ptr(false)))
	assert.Equal(t, Missing, Date(nil))
	assert.Equal(t, "2024-03-01", Date(model.Ptr(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))))
	assert.Equal(t, Missing, Text(model.Ptr("")))
}

func TestRenderMarkdown(t *testing.T) {
	rep := buildReport(t, 260)

	var buf bytes.Buffer
	require.NoError(t, RenderMarkdown(&buf, rep))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "## Vanguard S&P 500 (VOO) Diagnosis"))
	assert.Contains(t, out, "https://finance.yahoo.com/quote/VOO/history")
	assert.Contains(t, out, "| **Swing high (P_high)** | 250.00 (YAHOO_52W_HIGH)")
	assert.Contains(t, out, "- base_trend (BASE): +0.60")
	assert.Contains(t, out, "**Rating: "+rep.RatingLabel+"**")
	assert.Contains(t, out, "- P_high source: YAHOO_52W_HIGH")
	assert.NotContains(t, out, "Missing evidence")
	assert.NotContains(t, out, "<no value>")
}

func TestRenderMarkdown_MissingSentinel(t *testing.T) {
	rep := buildReport(t, 30)

	var buf bytes.Buffer
	require.NoError(t, RenderMarkdown(&buf, rep))
	out := buf.String()

	assert.Contains(t, out, "MA150="+Missing)
	assert.Contains(t, out, "- Missing evidence: ")
	assert.Contains(t, out, "(INSUFFICIENT_DATA)")
	assert.NotContains(t, out, "<nil>")
}

func TestWriteMarkdownFile(t *testing.T) {
	rep := buildReport(t, 260)
	dir := filepath.Join(t.TempDir(), "reports")

	path, err := WriteMarkdownFile(dir, rep)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "VOO_20240301.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### 5. Notes")
}

func TestWriteTable(t *testing.T) {
	rep := buildReport(t, 260)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, rep))
	out := buf.String()

	assert.Contains(t, out, "VOO")
	assert.Contains(t, out, "three_way_resonance")
	assert.Contains(t, out, "open_gap_unfilled")
	assert.Contains(t, out, string(rep.Rating))
}

func TestWriteJSON(t *testing.T) {
	rep := buildReport(t, 260)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rep))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "VOO", decoded["ticker"])
	assert.Equal(t, string(rep.Rating), decoded["rating"])
	assert.Contains(t, decoded, "win_rate")
	assert.NotContains(t, decoded, "Evidence")
}
