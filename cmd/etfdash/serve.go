package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"etfdash/internal/analyzer"
	"etfdash/internal/web"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, breaker, cache := buildProvider(cfg, cfg.Server.CacheTTL)
	a := analyzer.NewReportAnalyzer(analyzer.OptionsFromConfig(cfg), p)
	srv := web.NewServer(a, breaker)

	ctx, cancel := signalContext()
	defer cancel()

	if cache != nil {
		go purgeLoop(ctx, cache, cfg.Server.CacheTTL)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	log.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// purgeLoop drops expired snapshots once per ttl
func purgeLoop(ctx context.Context, cache interface{ Purge() int }, ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := cache.Purge(); n > 0 {
				log.Debug().Int("purged", n).Msg("snapshot cache purged")
			}
		}
	}
}
