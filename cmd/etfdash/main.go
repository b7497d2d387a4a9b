package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"etfdash/internal/analyzer"
	"etfdash/internal/config"
	"etfdash/internal/logging"
	"etfdash/internal/provider"
	"etfdash/internal/report"
	"etfdash/internal/symbols"
)

var (
	cfgFile         string
	benchmark       string
	outDir          string
	format          string
	minRR           float64
	stopLossPct     float64
	maxPositionPct  float64
	trailingStopPct float64
	lookback        int
	historyDays     int
	verbose         bool
	port            int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "etfdash [TICKER]",
		Short: "Evidence-gated technical report for ETFs and stocks",
		Long: `etfdash fetches daily history for a ticker and a benchmark, derives trend,
pattern and risk evidence, and issues a rating only when every piece of
evidence is present.

Examples:
  etfdash VOO
  etfdash report QQQ --benchmark ^NDX --format table
  etfdash serve --port 8080`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runReport,
		SilenceUsage: true,
	}

	reportCmd := &cobra.Command{
		Use:          "report TICKER",
		Short:        "Build the report for one ticker",
		Args:         cobra.ExactArgs(1),
		RunE:         runReport,
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve reports over HTTP",
		Args:         cobra.NoArgs,
		RunE:         runServe,
		SilenceUsage: true,
	}
	serveCmd.Flags().IntVar(&port, "port", 8080, "listen port")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "config.yaml", "config file path")
	flags.StringVar(&benchmark, "benchmark", "", "benchmark symbol (default from config, ^GSPC)")
	flags.StringVar(&outDir, "out", "", "directory for markdown reports")
	flags.StringVar(&format, "format", "", "output format: markdown, table, json")
	flags.Float64Var(&minRR, "min-rr", 0, "minimum reward/risk; 0 disables the target override")
	flags.Float64Var(&stopLossPct, "stop-loss-pct", 0.05, "percentage stop below entry")
	flags.Float64Var(&maxPositionPct, "max-position-pct", 0.20, "cap on the Kelly fraction")
	flags.Float64Var(&trailingStopPct, "trailing-stop-pct", 0.05, "trailing stop below P_high")
	flags.IntVar(&lookback, "lookback", 120, "pattern lookback in bars")
	flags.IntVar(&historyDays, "history-days", 400, "calendar days of history to fetch")
	flags.BoolVar(&verbose, "verbose", false, "debug logging")

	rootCmd.AddCommand(reportCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flags that were set on the
// command line. Validation happens after the overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	f := cmd.Flags()
	if f.Changed("benchmark") {
		b, err := symbols.Normalize(benchmark)
		if err != nil {
			return nil, fmt.Errorf("benchmark: %w", err)
		}
		cfg.Data.Benchmark = b
	}
	if f.Changed("out") {
		cfg.Output.Dir = outDir
	}
	if f.Changed("format") {
		cfg.Output.Format = format
	}
	if f.Changed("min-rr") {
		cfg.Risk.MinRR = minRR
	}
	if f.Changed("stop-loss-pct") {
		cfg.Risk.StopLossPct = stopLossPct
	}
	if f.Changed("max-position-pct") {
		cfg.Risk.MaxPositionPct = maxPositionPct
	}
	if f.Changed("trailing-stop-pct") {
		cfg.Risk.TrailingStopPct = trailingStopPct
	}
	if f.Changed("lookback") {
		cfg.Pattern.LookbackDays = lookback
	}
	if f.Changed("history-days") {
		cfg.Data.HistoryDays = historyDays
	}
	if f.Changed("port") {
		cfg.Server.Port = port
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Init(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}

// buildProvider stacks Yahoo behind the circuit breaker and, when ttl > 0,
// the snapshot cache.
func buildProvider(cfg *config.Config, ttl time.Duration) (provider.Provider, *provider.BreakerProvider, *provider.CachingProvider) {
	yahoo := provider.NewYahooProvider(cfg.Yahoo.RateLimit, cfg.Yahoo.Timeout)
	breaker := provider.NewBreakerProvider(yahoo, cfg.Yahoo.BreakerFailures, cfg.Yahoo.BreakerTimeout)
	if ttl <= 0 {
		return breaker, breaker, nil
	}
	cache := provider.NewCachingProvider(breaker, ttl)
	return cache, breaker, cache
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted. Stopping...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func runReport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	ticker, err := symbols.Normalize(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, _, _ := buildProvider(cfg, 0)
	a := analyzer.NewReportAnalyzer(analyzer.OptionsFromConfig(cfg), p)

	ctx, cancel := signalContext()
	defer cancel()

	bar := progressbar.NewOptions(2,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Fetching"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	rep, err := a.Analyze(ctx, ticker, func(role, symbol string) {
		bar.Describe(fmt.Sprintf("Fetched %s", symbol))
		_ = bar.Add(1)
	})
	_ = bar.Finish()
	if err != nil {
		return err
	}

	return writeReport(cfg, rep)
}

func writeReport(cfg *config.Config, rep *analyzer.Report) error {
	switch cfg.Output.Format {
	case "json":
		return report.WriteJSON(os.Stdout, rep)

	case "table":
		return report.WriteTable(os.Stdout, rep)

	default:
		path, err := report.WriteMarkdownFile(cfg.Output.Dir, rep)
		if err != nil {
			return err
		}
		log.Info().Str("ticker", rep.Ticker).Str("path", path).Msg("report written")
		fmt.Println(path)
		return nil
	}
}
