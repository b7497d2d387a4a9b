package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfdash/pkg/model"
)

const chartBody = `{"chart":{"result":[{
  "meta":{"symbol":"SPY","shortName":"SPDR S&P 500","fiftyTwoWeekHigh":480.5,"gmtoffset":-18000},
  "timestamp":[1704292200,1704205800,1704312000,1704378600],
  "indicators":{"quote":[{
    "open":[101,100,102,null],
    "high":[103,101,104,null],
    "low":[99,98,100,null],
    "close":[102,100.5,103,null],
    "volume":[2000,1000,3000,null]
  }]}
}],"error":null}}`

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *YahooProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewYahooProvider(600, 5*time.Second, WithBaseURL(srv.URL))
}

func TestYahooGetDailyHistory(t *testing.T) {
	var gotPath, gotAgent, gotInterval string
	p := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		gotInterval = r.URL.Query().Get("interval")
		w.Write([]byte(chartBody))
	})

	snap, err := p.GetDailyHistory(context.Background(), "SPY", 400)
	require.NoError(t, err)

	assert.Equal(t, "/SPY", gotPath)
	assert.NotEmpty(t, gotAgent)
	assert.Equal(t, "1d", gotInterval)

	assert.Equal(t, "SPY", snap.Symbol)
	require.Len(t, snap.Candles, 2, "null row dropped, duplicate date merged")

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), snap.Candles[0].Time)
	assert.Equal(t, 100.5, snap.Candles[0].Close)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), snap.Candles[1].Time)
	assert.Equal(t, 103.0, snap.Candles[1].Close, "later row wins on a repeated date")
	assert.Equal(t, int64(3000), snap.Candles[1].Volume)

	require.NotNil(t, snap.Meta.FiftyTwoWeekHigh)
	assert.Equal(t, 480.5, *snap.Meta.FiftyTwoWeekHigh)
	require.NotNil(t, snap.Meta.ShortName)
	assert.Equal(t, "SPDR S&P 500", *snap.Meta.ShortName)
}

func TestYahooMissingMeta(t *testing.T) {
	p := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"X"},"timestamp":[1704205800],
		  "indicators":{"quote":[{"open":[1],"high":[2],"low":[0.5],"close":[1.5],"volume":[null]}]}}]}}`))
	})

	snap, err := p.GetDailyHistory(context.Background(), "X", 30)
	require.NoError(t, err)
	assert.Nil(t, snap.Meta.FiftyTwoWeekHigh)
	assert.Nil(t, snap.Meta.ShortName)
	require.Len(t, snap.Candles, 1)
	assert.Zero(t, snap.Candles[0].Volume)
}

func TestYahooErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
		noData    bool
	}{
		{"rate limited", http.StatusTooManyRequests, "", true, false},
		{"server error", http.StatusBadGateway, "", true, false},
		{"not found", http.StatusNotFound, "", false, true},
		{"forbidden", http.StatusForbidden, "", false, false},
		{"empty result", http.StatusOK, `{"chart":{"result":[]}}`, false, true},
		{"chart error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, false, false},
		{"all rows null", http.StatusOK, `{"chart":{"result":[{"meta":{},"timestamp":[1704205800],
		  "indicators":{"quote":[{"open":[null],"high":[null],"low":[null],"close":[null],"volume":[null]}]}}]}}`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := p.GetDailyHistory(context.Background(), "NOPE", 30)
			require.Error(t, err)

			var pe *ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "yahoo", pe.Provider)
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.Equal(t, tt.noData, errors.Is(err, ErrNoData))
		})
	}
}

func TestQuoteURLs(t *testing.T) {
	assert.Equal(t, "https://finance.yahoo.com/quote/SPY", QuoteURL("SPY"))
	assert.Equal(t, "https://finance.yahoo.com/quote/%5EGSPC/history", HistoryURL("^GSPC"))
}

type stubProvider struct {
	calls atomic.Int32
	err   error
	snap  *model.Snapshot
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) GetDailyHistory(ctx context.Context, symbol string, days int) (*model.Snapshot, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := s.snap.Clone()
	out.Symbol = symbol
	return out, nil
}

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Candles: []model.Candle{{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 10}},
		Meta:    model.Meta{FiftyTwoWeekHigh: model.Ptr(12.0)},
	}
}

func TestBreakerTripsOnRetryableErrors(t *testing.T) {
	stub := &stubProvider{err: &ProviderError{Provider: "stub", Err: errors.New("boom"), Retryable: true}}
	p := NewBreakerProvider(stub, 2, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := p.GetDailyHistory(context.Background(), "SPY", 10)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}

	_, err := p.GetDailyHistory(context.Background(), "SPY", 10)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), stub.calls.Load(), "open breaker skips the inner call")
	assert.Equal(t, "open", p.State())
}

func TestBreakerIgnoresNonRetryableErrors(t *testing.T) {
	stub := &stubProvider{err: &ProviderError{Provider: "stub", Err: ErrNoData, Retryable: false}}
	p := NewBreakerProvider(stub, 1, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := p.GetDailyHistory(context.Background(), "NOPE", 10)
		assert.ErrorIs(t, err, ErrNoData)
	}
	assert.Equal(t, int32(3), stub.calls.Load())
	assert.Equal(t, "closed", p.State())
}

func TestBreakerPassesSnapshot(t *testing.T) {
	stub := &stubProvider{snap: testSnapshot()}
	p := NewBreakerProvider(stub, 3, time.Minute)

	snap, err := p.GetDailyHistory(context.Background(), "SPY", 10)
	require.NoError(t, err)
	assert.Equal(t, "SPY", snap.Symbol)
	assert.Equal(t, "stub", p.Name())
}

func TestCachingProvider(t *testing.T) {
	stub := &stubProvider{snap: testSnapshot()}
	p := NewCachingProvider(stub, time.Minute)

	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	first, err := p.GetDailyHistory(context.Background(), "SPY", 10)
	require.NoError(t, err)
	first.Candles[0].Close = 999 // callers own their copy

	second, err := p.GetDailyHistory(context.Background(), "SPY", 10)
	require.NoError(t, err)
	assert.Equal(t, 10.0, second.Candles[0].Close)
	assert.Equal(t, int32(1), stub.calls.Load())

	_, err = p.GetDailyHistory(context.Background(), "QQQ", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), stub.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = p.GetDailyHistory(context.Background(), "SPY", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(3), stub.calls.Load(), "expired entry refetched")

	assert.Equal(t, 1, p.Purge(), "only QQQ is stale")
}

func TestCachingProviderDoesNotCacheErrors(t *testing.T) {
	stub := &stubProvider{err: errors.New("down")}
	p := NewCachingProvider(stub, time.Minute)

	_, err := p.GetDailyHistory(context.Background(), "SPY", 10)
	require.Error(t, err)
	_, err = p.GetDailyHistory(context.Background(), "SPY", 10)
	require.Error(t, err)
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestCachingProviderDisabled(t *testing.T) {
	stub := &stubProvider{snap: testSnapshot()}
	p := NewCachingProvider(stub, 0)

	for i := 0; i < 2; i++ {
		_, err := p.GetDailyHistory(context.Background(), "SPY", 10)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), stub.calls.Load())
}
