package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const HEALTHCHECK_TIMER = 15

type Pinger interface {
	Ping(ctx context.Context) error
}

// MonitorLLMHealth periodically verifies the LLM endpoint is reachable
// and flips the readiness flag consumed by /ready.
func MonitorLLMHealth(ctx context.Context, client Pinger, healthy *atomic.Bool) {
	ticker := time.NewTicker(time.Second * HEALTHCHECK_TIMER)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := client.Ping(ctx)
			healthy.Store(err == nil)
			if err != nil {
				slog.Warn("[HealthCheck] LLM endpoint is unhealthy",
					slog.String("error", err.Error()))
			}
		}
	}
}
