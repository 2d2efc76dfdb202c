package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/intake-service/internal/store"
)

// StartSweeper launches the periodic retention sweep. The sweep is a courtesy
// cleanup on top of the store's purge-on-load; it stops when ctx is cancelled.
func StartSweeper(ctx context.Context, tickets *store.TicketStore, interval, retention time.Duration, logger *zap.Logger) {
	if interval <= 0 || retention <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := tickets.Purge(ctx, retention)
				if err != nil {
					logger.Warn("retention sweep failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					logger.Info("retention sweep removed expired tickets", zap.Int("count", removed))
				}
			}
		}
	}()
}
