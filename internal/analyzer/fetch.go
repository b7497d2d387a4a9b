package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"etfdash/internal/metrics"
	"etfdash/internal/provider"
	"etfdash/pkg/model"
)

// Fetch roles
const (
	RoleSubject   = "subject"
	RoleBenchmark = "benchmark"
)

// ProgressFunc is called once per finished fetch
type ProgressFunc func(role, symbol string)

// Fetch loads the subject and benchmark histories concurrently. Either
// failure cancels the other and fails the whole request; nothing is retried.
func Fetch(ctx context.Context, p provider.Provider, ticker, benchmark string, days int, progress ProgressFunc) (subject, bench *model.Snapshot, err error) {
	g, gctx := errgroup.WithContext(ctx)

	fetch := func(role, symbol string, dst **model.Snapshot) func() error {
		return func() error {
			start := time.Now()
			snap, err := p.GetDailyHistory(gctx, symbol, days)
			metrics.ObserveFetch(p.Name(), role, time.Since(start), err)
			if err != nil {
				return fmt.Errorf("fetching %s %s: %w", role, symbol, err)
			}

			log.Debug().
				Str("ticker", symbol).
				Str("role", role).
				Int("bars", len(snap.Candles)).
				Dur("took", time.Since(start)).
				Msg("history fetched")

			*dst = snap
			if progress != nil {
				progress(role, symbol)
			}
			return nil
		}
	}

	g.Go(fetch(RoleSubject, ticker, &subject))
	g.Go(fetch(RoleBenchmark, benchmark, &bench))

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return subject, bench, nil
}
