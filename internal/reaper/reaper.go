// Package reaper clears stale magic-link token state on a fixed
// schedule. Housekeeping only: Verify's own expiry predicate keeps
// stale tokens unverifiable whether or not the reaper has run.
package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hallpass/hallpass/internal/metrics"
	"github.com/robfig/cron/v3"
)

// TokenStore is the slice of the user repository the reaper needs.
type TokenStore interface {
	ClearExpiredTokens(ctx context.Context) (int64, error)
}

type Reaper struct {
	store    TokenStore
	logger   *slog.Logger
	schedule string
	cron     *cron.Cron
}

// New creates a reaper sweeping on the given cron schedule ("@hourly"
// in the default configuration).
func New(store TokenStore, logger *slog.Logger, schedule string) *Reaper {
	return &Reaper{
		store:    store,
		logger:   logger.With("component", "reaper"),
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the sweep and starts the cron scheduler in its own
// goroutine.
func (r *Reaper) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, func() {
		r.Sweep(context.Background())
	}); err != nil {
		return fmt.Errorf("register sweep: %w", err)
	}
	r.cron.Start()
	r.logger.Info("reaper started", "schedule", r.schedule)
	return nil
}

// Stop halts the scheduler; the returned context is done once any
// in-flight sweep has finished.
func (r *Reaper) Stop() context.Context {
	r.logger.Info("reaper stopping")
	return r.cron.Stop()
}

// Sweep clears the token triple for every user whose stored token has
// expired. Failures are logged and swallowed; the reaper never takes
// down request handling.
func (r *Reaper) Sweep(ctx context.Context) {
	start := time.Now()

	cleared, err := r.store.ClearExpiredTokens(ctx)
	if err != nil {
		r.logger.Error("sweep expired tokens", "error", err)
		return
	}

	metrics.ReaperCycleDuration.Observe(time.Since(start).Seconds())
	if cleared > 0 {
		metrics.ReaperClearedTotal.Add(float64(cleared))
		r.logger.Info("cleared expired tokens", "count", cleared)
	}
}
