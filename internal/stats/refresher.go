package stats

import (
	"context"
	"log/slog"
	"time"
)

// Refresher periodically recomputes the counters of every deck so due
// counts follow the clock between mutations.
type Refresher struct {
	agg      *Aggregator
	interval time.Duration
	log      *slog.Logger
}

// NewRefresher returns a Refresher. An interval <= 0 disables it.
func NewRefresher(agg *Aggregator, interval time.Duration, log *slog.Logger) *Refresher {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Refresher{agg: agg, interval: interval, log: log}
}

// Run blocks until ctx is done. Failed passes are logged and retried on
// the next tick.
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.log.Debug("stats refresher disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("stats refresher started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("stats refresher stopped")
			return
		case <-ticker.C:
			if err := r.agg.RecomputeAll(ctx); err != nil && ctx.Err() == nil {
				r.log.Warn("failed to refresh deck counters", "error", err)
			}
		}
	}
}
