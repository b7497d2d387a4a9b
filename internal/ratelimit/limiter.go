package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const initialBackoff = 500 * time.Millisecond

// Limiter wraps rate.Limiter with a backoff that kicks in after the
// upstream answers 429.
type Limiter struct {
	limiter *rate.Limiter
	name    string
	mu      sync.Mutex
	backoff time.Duration
	maxWait time.Duration
	// penalized is set by SignalRateLimited and cleared by ResetBackoff
	penalized bool
}

// NewLimiter creates a new rate limiter
// perMinute specifies the number of requests allowed per minute
func NewLimiter(name string, perMinute int) *Limiter {
	if perMinute < 1 {
		perMinute = 1
	}
	rps := float64(perMinute) / 60.0
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	if burst > 5 {
		burst = 5
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
		backoff: initialBackoff,
		maxWait: 2 * time.Minute,
	}
}

// Wait blocks until a token is available, first sitting out any pending
// backoff. It returns early with the context's error.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	delay := time.Duration(0)
	if l.penalized {
		delay = l.backoff
	}
	l.mu.Unlock()

	if delay > 0 {
		log.Debug().Str("limiter", l.name).Dur("backoff", delay).Msg("backing off after rate limit")
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SignalRateLimited should be called when a 429 response is received.
// Each call doubles the backoff up to maxWait.
func (l *Limiter) SignalRateLimited() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.penalized {
		l.backoff *= 2
	}
	if l.backoff > l.maxWait {
		l.backoff = l.maxWait
	}
	l.penalized = true
}

// ResetBackoff resets the backoff duration after successful request
func (l *Limiter) ResetBackoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.backoff = initialBackoff
	l.penalized = false
}

// GetBackoff returns the pending backoff, or zero when none applies
func (l *Limiter) GetBackoff() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.penalized {
		return 0
	}
	return l.backoff
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	return l.name
}
