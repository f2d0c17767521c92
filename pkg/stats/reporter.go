package stats

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartReporter logs the stats summary and posts aggregate gauges every
// interval until ctx is cancelled. The returned channel is closed once the
// reporter has shut down.
func StartReporter(ctx context.Context, s *Stats, interval time.Duration) <-chan struct{} {
	doneChan := make(chan struct{})

	go func() {
		defer close(doneChan)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stats reporter shutting down")
				return
			case <-ticker.C:
			}
			s.LogSummary()
			s.postAggregates(ctx)
		}
	}()
	return doneChan
}
