package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"etfdash/pkg/model"
)

// BreakerProvider stops calling the inner provider after repeated
// transient failures until the breaker timeout elapses.
type BreakerProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps inner with a breaker that trips after
// failures consecutive retryable errors and half-opens after timeout.
func NewBreakerProvider(inner Provider, failures int, timeout time.Duration) *BreakerProvider {
	if failures < 1 {
		failures = 1
	}

	st := gobreaker.Settings{Name: inner.Name()}
	st.Timeout = timeout
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= uint32(failures)
	}
	// an unknown ticker says nothing about upstream health
	st.IsSuccessful = func(err error) bool {
		return err == nil || !IsRetryable(err)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		switch to {
		case gobreaker.StateOpen:
			log.Warn().Str("provider", name).Msg("circuit opened")
		case gobreaker.StateHalfOpen:
			log.Info().Str("provider", name).Msg("circuit half-open")
		case gobreaker.StateClosed:
			log.Info().Str("provider", name).Msg("circuit closed")
		}
	}

	return &BreakerProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// Name returns the inner provider name
func (p *BreakerProvider) Name() string {
	return p.inner.Name()
}

// State exposes the breaker state for health reporting
func (p *BreakerProvider) State() string {
	return p.breaker.State().String()
}

// GetDailyHistory delegates to the inner provider through the breaker
func (p *BreakerProvider) GetDailyHistory(ctx context.Context, symbol string, days int) (*model.Snapshot, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.GetDailyHistory(ctx, symbol, days)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%w: %v", ErrCircuitOpen, err), Retryable: true}
	}
	if err != nil {
		return nil, err
	}
	return out.(*model.Snapshot), nil
}
