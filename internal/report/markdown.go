package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"etfdash/internal/analyzer"
)

var funcs = template.FuncMap{
	"num":  func(v *float64) string { return Num(v, 2) },
	"num4": func(v *float64) string { return Num(v, 4) },
	"pct":  Pct,
	"frac": Frac,
	"int":  Int,
	"flag": Flag,
	"date": Date,
	"text": Text,
	"f4":   func(v float64) string { return Num(&v, 4) },
	"fpct": func(v float64) string { return Frac(&v) },
	"join": strings.Join,
}

var markdownTmpl = template.Must(template.New("report").Funcs(funcs).Parse(markdownText))

const markdownText = `## {{.DisplayName}} ({{.Ticker}}) Diagnosis

**Report time (local):** {{.LocalTime}}  
**Data fetched (UTC):** {{.UTCTime}}  
**Report ID:** {{.ID}}

### 0. Sources (Yahoo Finance only)
- Quote: {{.Links.Quote}}
- History: {{.Links.History}}
- Benchmark ({{.Benchmark.Symbol}}): {{.Links.BenchmarkQuote}}
- Benchmark history: {{.Links.BenchmarkHistory}}

### 1. Evidence Check
> Check this table before reading the verdict. If any required value is MISSING no rating is issued.

| Item | Value | Status |
| :--- | :--- | :--- |
| **Price (P_now)** | {{num .Subject.PNow}} | BIAS_60 = ((P_now - MA60) / MA60) x 100% = {{pct .Subject.Bias60}} |
| **Trailing stop** | P_high x (1 - {{f4 .TrailingStopPct}}) = {{num .TrailingStop}} | hit={{flag .TrailingStopHit}} |
| **Gap / reclaim** | gap={{text .GapKind}}, zone=[{{num .GapLower}}, {{num .GapUpper}}] | filled_by_close={{flag .Patterns.Gap.FilledByClose}} ({{date .FillDate}}), reclaim_3d={{flag .Patterns.Reclaim.IsReclaim}} ({{date .Patterns.Reclaim.Date}}) |
| **Massive volume / midpoint** | low={{num .Patterns.MassiveVolume.Low}} (broken={{flag .Patterns.MassiveVolume.LowBroken}}), high={{num .Patterns.MassiveVolume.High}} (broken={{flag .Patterns.MassiveVolume.HighBroken}}) | midpoint={{num .Patterns.Midpoint.Midpoint}} (broken={{flag .Patterns.Midpoint.Broken}}, {{date .Patterns.Midpoint.Date}}) |
| **Short MAs** | MA5={{num .Subject.MA5}}, MA10={{num .Subject.MA10}} | - |
| **Mid MAs** | MA20={{num .Subject.MA20}}, MA50={{num .Subject.MA50}} | MA20 guard: {{.MA20Guard}} |
| **Long MAs** | MA60={{num .Subject.MA60}}, MA150={{num .Subject.MA150}}, MA200={{num .Subject.MA200}} | regime: {{.Regime}} |
| **Swing high (P_high)** | {{num .PHigh}} ({{.PHighSource}}) | drawdown: {{pct .Drawdown}} |
| **Volume** | today={{int .Subject.VolToday}} / avg={{int .Subject.VolAvg}} | ratio {{num .Volume.Ratio}}x ({{.Volume.Label}}) |
| **Momentum** | RSI14={{num .Subject.RSI14}}, MACD={{num .Subject.MACD}} | signal={{num .Subject.MACDSignal}}, hist={{num .Subject.MACDHist}} |
| **Market filter** | {{.Benchmark.Symbol}} P_now={{num .Benchmark.PNow}} / MA150={{num .Benchmark.MA150}} | {{.Benchmark.Regime}} |

### 2. Calculations

#### 2.1 35 rule
- Weak line (0.8): P_high x 0.8 = {{num .PHigh}} x 0.8 = {{num .Rule35.Safe}}
- Watch line (0.7): P_high x 0.7 = {{num .PHigh}} x 0.7 = {{num .Rule35.Watch}}
- Gold line (0.65): P_high x 0.65 = {{num .PHigh}} x 0.65 = {{num .Rule35.Gold}}
- Zone: **{{.Rule35.Zone}}**

#### 2.2 BIAS_60
- BIAS_60 = ((P_now - MA60) / MA60) x 100%
- = (({{num .Subject.PNow}} - {{num .Subject.MA60}}) / {{num .Subject.MA60}}) x 100%
- = {{pct .Subject.Bias60}}

#### 2.3 Trailing stop
- Trailing stop = P_high x (1 - trailing_stop_pct)
- = {{num .PHigh}} x (1 - {{f4 .TrailingStopPct}})
- = {{num .TrailingStop}}
- Close {{num .Subject.PNow}} {{.TrailingOp}} trailing stop {{num .TrailingStop}}

#### 2.4 Gaps, islands and volume levels
- Latest gap: {{text .GapKind}} (date={{date .GapDate}}; prev={{date .GapPrevDate}}; zone=[{{num .GapLower}}, {{num .GapUpper}}]){{if .GapExpired}} (latest gap expired){{end}}
- Filled by close: {{flag .Patterns.Gap.FilledByClose}} (fill_date={{date .FillDate}}; fill_close={{num .FillClose}})
- Reclaim within 3 bars: {{flag .Patterns.Reclaim.IsReclaim}} (date={{date .Patterns.Reclaim.Date}}; level={{num .Patterns.Reclaim.Level}}; state={{.Patterns.Reclaim.State}})
- Island reversal: {{flag .Patterns.Island.Found}} ({{text .IslandDirection}}; opening={{date .IslandOpenDate}}; closing={{date .IslandCloseDate}})
- Massive volume: date={{date .Patterns.MassiveVolume.Date}}; volume={{int .Patterns.MassiveVolume.Volume}}; low={{num .Patterns.MassiveVolume.Low}} (broken={{flag .Patterns.MassiveVolume.LowBroken}}); high={{num .Patterns.MassiveVolume.High}} (broken={{flag .Patterns.MassiveVolume.HighBroken}})
- Midpoint defense: {{num .Patterns.Midpoint.Midpoint}} (broken={{flag .Patterns.Midpoint.Broken}}; date={{date .Patterns.Midpoint.Date}})
- Bearish omens: engulf={{flag .Patterns.Omens.LongBlackEngulf}}, distribution_day={{flag .Patterns.Omens.DistributionDay}}, up_vol_down={{flag .Patterns.Omens.PriceUpVolDown}}

#### 2.5 Stop, target and R
- stop_loss_pct = {{fpct .StopLossPct}}
- Percentage stop: entry x (1 - stop_loss_pct) = {{num .Subject.PNow}} x (1 - {{f4 .StopLossPct}}) = {{num .Plan.PctStop}}
- MA20 stop: {{num .Subject.MA20}}{{if .Plan.MA20Ignored}} (ignored, MA20 >= entry){{end}}
- Stop (tighter of the two): {{num .Plan.Stop}}
- Target: {{num .Plan.Target}} ({{.Plan.Mode}})
- R = (target - entry) / (entry - stop) = ({{num .Plan.Target}} - {{num .Subject.PNow}}) / ({{num .Subject.PNow}} - {{num .Plan.Stop}}) = {{num4 .Plan.R}}

#### 2.6 Kelly
- W (rule-derived): {{num .WinRate.Clamped}} (base {{num .WinRate.Base}}, bonus {{num .WinRate.BonusTotal}}, penalty {{num .WinRate.PenaltyTotal}}, raw {{num4 .WinRate.Raw}})
{{- range .Applied}}
  - {{.Name}} ({{.Kind}}): {{printf "%+.2f" .Delta}}
{{- end}}
- f = (W x (R + 1) - 1) / R
  - f = ({{num4 .WinRate.Clamped}} x ({{num4 .Plan.R}} + 1) - 1) / {{num4 .Plan.R}}
  - f_raw = {{num4 .KellyRaw}}
  - f_capped (0 to {{fpct .MaxPositionPct}}) = {{frac .KellyCapped}}

### 3. Combined diagnosis
- Volume: {{.Volume.Label}} (ratio {{num .Volume.Ratio}})
- Trend: san_yang={{flag .SanYang}}; san_sheng_wu_nai={{flag .SanShengWuNai}}; regime={{.Regime}}; market={{.Benchmark.Regime}}

### 4. Verdict
**Rating: {{.RatingLabel}}** ({{.Rating}})

- Entry: {{num .Subject.PNow}}
- Stop: {{num .Plan.Stop}}
- Trailing stop: {{num .TrailingStop}}
- **W:** {{frac .WinRate.Clamped}}
- **R:** {{num4 .Plan.R}}
- **Kelly position:** {{frac .KellyCapped}} (no entry when zero or MISSING; single position capped at {{fpct .MaxPositionPct}})
{{- if .Missing}}
- Missing evidence: {{join .Missing ", "}}
{{- end}}

### 5. Notes
{{- range .Notes}}
- {{.}}
{{- else}}
- (none)
{{- end}}
`

// RenderMarkdown writes the Markdown report
func RenderMarkdown(w io.Writer, rep *analyzer.Report) error {
	return markdownTmpl.Execute(w, newView(rep))
}

// FileName is <TICKER>_<YYYYMMDD>.md using the local report date
func FileName(rep *analyzer.Report) string {
	ticker := strings.NewReplacer("/", "_", "\\", "_").Replace(rep.Ticker)
	return fmt.Sprintf("%s_%s.md", ticker, rep.GeneratedAt.Local().Format("20060102"))
}

// WriteMarkdownFile renders the report into dir and returns the file path
func WriteMarkdownFile(dir string, rep *analyzer.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	path := filepath.Join(dir, FileName(rep))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}

	if err := RenderMarkdown(f, rep); err != nil {
		f.Close()
		return "", fmt.Errorf("rendering report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing report file: %w", err)
	}
	return path, nil
}
