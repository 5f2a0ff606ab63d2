package bootstrap

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	clockport "github.com/chibo-dx/roster-api/internal/ports/out/clock"
	"github.com/chibo-dx/roster-api/internal/ports/out/idempotency"
)

// PurgeIdempotencyKeys drops records older than ttl every interval until ctx is done.
// A zero ttl or interval returns immediately.
func PurgeIdempotencyKeys(ctx context.Context, store idempotency.Store, ttl, interval time.Duration, clk clockport.Clock, log zerolog.Logger) {
	if ttl <= 0 || interval <= 0 || store == nil {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := store.Purge(ctx, clk.Now().Add(-ttl))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int("purged", n).Msg("idempotency keys purged")
			}
		}
	}
}
