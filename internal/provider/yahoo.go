package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"etfdash/internal/ratelimit"
	"etfdash/pkg/model"
)

const (
	yahooBaseURL  = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooQuoteURL = "https://finance.yahoo.com/quote"
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// YahooProvider implements the Provider interface for Yahoo Finance (unofficial API)
type YahooProvider struct {
	client  *http.Client
	limiter *ratelimit.Limiter
	baseURL string
}

// YahooOption customises a YahooProvider
type YahooOption func(*YahooProvider)

// WithBaseURL points the provider at another chart endpoint
func WithBaseURL(u string) YahooOption {
	return func(p *YahooProvider) { p.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) YahooOption {
	return func(p *YahooProvider) { p.client = c }
}

// NewYahooProvider creates a new Yahoo Finance provider
func NewYahooProvider(perMinute int, timeout time.Duration, opts ...YahooOption) *YahooProvider {
	p := &YahooProvider{
		client:  &http.Client{Timeout: timeout},
		limiter: ratelimit.NewLimiter("yahoo", perMinute),
		baseURL: yahooBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// yahooResponse represents the Yahoo Finance chart response.
// Quote arrays use pointers because Yahoo sends null for halted sessions.
type yahooResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol           string   `json:"symbol"`
				ShortName        *string  `json:"shortName"`
				LongName         *string  `json:"longName"`
				FiftyTwoWeekHigh *float64 `json:"fiftyTwoWeekHigh"`
				GMTOffset        int64    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetDailyHistory fetches daily bars for the trailing days calendar days
func (p *YahooProvider) GetDailyHistory(ctx context.Context, symbol string, days int) (*model.Snapshot, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	now := time.Now()
	start := now.AddDate(0, 0, -days)
	reqURL := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d&events=history&includePrePost=false",
		p.baseURL, url.PathEscape(symbol), start.Unix(), now.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		p.limiter.SignalRateLimited()
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("rate limited"), Retryable: true}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData), Retryable: false}
	}
	if resp.StatusCode >= 500 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: true}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: false}
	}

	p.limiter.ResetBackoff()

	var data yahooResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if data.Chart.Error != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s", data.Chart.Error.Description), Retryable: false}
	}
	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Timestamp) == 0 ||
		len(data.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData), Retryable: false}
	}

	result := data.Chart.Result[0]
	quotes := result.Indicators.Quote[0]

	// One bar per trading date; a repeated date keeps the later row
	byDate := make(map[string]model.Candle, len(result.Timestamp))
	skipped := 0
	for i, ts := range result.Timestamp {
		if i >= len(quotes.Open) || i >= len(quotes.High) || i >= len(quotes.Low) || i >= len(quotes.Close) {
			skipped++
			continue
		}
		if quotes.Open[i] == nil || quotes.High[i] == nil || quotes.Low[i] == nil || quotes.Close[i] == nil {
			skipped++
			continue
		}

		var volume int64
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			volume = *quotes.Volume[i]
		}

		// exchange-local calendar date, stored as midnight UTC
		local := time.Unix(ts+result.Meta.GMTOffset, 0).UTC()
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

		byDate[model.DateKey(day)] = model.Candle{
			Time:   day,
			Open:   *quotes.Open[i],
			High:   *quotes.High[i],
			Low:    *quotes.Low[i],
			Close:  *quotes.Close[i],
			Volume: volume,
		}
	}

	if len(byDate) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %w", symbol, ErrNoData), Retryable: false}
	}

	candles := make([]model.Candle, 0, len(byDate))
	for _, c := range byDate {
		candles = append(candles, c)
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})

	if skipped > 0 {
		log.Debug().Str("provider", p.Name()).Str("ticker", symbol).Int("skipped", skipped).Msg("dropped incomplete rows")
	}

	name := result.Meta.ShortName
	if name == nil {
		name = result.Meta.LongName
	}

	return &model.Snapshot{
		Symbol:    symbol,
		FetchedAt: now.UTC(),
		Candles:   candles,
		Meta: model.Meta{
			FiftyTwoWeekHigh: result.Meta.FiftyTwoWeekHigh,
			ShortName:        name,
		},
	}, nil
}

// QuoteURL is the public Yahoo quote page for a symbol
func QuoteURL(symbol string) string {
	return fmt.Sprintf("%s/%s", yahooQuoteURL, url.PathEscape(symbol))
}

// HistoryURL is the public Yahoo history page for a symbol
func HistoryURL(symbol string) string {
	return QuoteURL(symbol) + "/history"
}
