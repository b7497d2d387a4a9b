package provider

import (
	"context"
	"errors"

	"etfdash/pkg/model"
)

var (
	// ErrNoData is returned when the source has no bars for a symbol
	ErrNoData = errors.New("no data available")
	// ErrCircuitOpen is returned while the breaker is refusing calls
	ErrCircuitOpen = errors.New("circuit open")
)

// Provider defines the interface for daily history sources
type Provider interface {
	// Name returns the provider name
	Name() string

	// GetDailyHistory fetches about days calendar days of daily bars,
	// ascending by date, plus whatever metadata the source supplies.
	GetDailyHistory(ctx context.Context, symbol string, days int) (*model.Snapshot, error)
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient provider failure
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
