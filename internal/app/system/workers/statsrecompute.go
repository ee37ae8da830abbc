// internal/app/system/workers/statsrecompute.go

// Package workers holds long-interval background workers that are
// heavier than the simple tasks jobs.
package workers

import (
	"context"
	"sync"
	"time"

	goalstore "github.com/dalemusser/accord/internal/app/store/goals"
	loginstore "github.com/dalemusser/accord/internal/app/store/logins"
	statstore "github.com/dalemusser/accord/internal/app/store/stats"
	"go.uber.org/zap"
)

// StatsRecompute is a background worker that rebuilds every user's
// dashboard counters from goal and sign-in history. Handlers bump
// counters incrementally; this worker corrects drift.
type StatsRecompute struct {
	stats    *statstore.Store
	goals    *goalstore.Store
	logins   *loginstore.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewStatsRecompute creates a stats recompute worker.
func NewStatsRecompute(stats *statstore.Store, goals *goalstore.Store, logins *loginstore.Store, logger *zap.Logger, interval time.Duration) *StatsRecompute {
	return &StatsRecompute{
		stats:    stats,
		goals:    goals,
		logins:   logins,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background recompute loop.
func (w *StatsRecompute) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("stats recompute worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *StatsRecompute) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("stats recompute worker stopped")
}

func (w *StatsRecompute) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.recomputeAll()
		}
	}
}

func (w *StatsRecompute) recomputeAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ids, err := w.stats.AllIDs(ctx)
	if err != nil {
		w.log.Error("failed to list stats records", zap.Error(err))
		return
	}

	var failed int
	for _, id := range ids {
		if err := w.recomputeOne(ctx, id); err != nil {
			failed++
			w.log.Warn("stats recompute failed for user",
				zap.String("user_id", id),
				zap.Error(err))
		}
	}

	w.log.Info("stats recompute pass complete",
		zap.Int("users", len(ids)),
		zap.Int("failed", failed))
}

func (w *StatsRecompute) recomputeOne(ctx context.Context, id string) error {
	completed, total, err := w.goals.CountByOwner(ctx, id)
	if err != nil {
		return err
	}
	daysActive, streak, err := w.logins.ActiveDays(ctx, id)
	if err != nil {
		return err
	}
	return w.stats.Recompute(ctx, id, int(completed), int(total), streak, daysActive)
}
