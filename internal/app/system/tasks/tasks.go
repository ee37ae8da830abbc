// internal/app/system/tasks/tasks.go

// Package tasks runs periodic background jobs: token and OAuth state
// cleanup, goal reminders, retention sweeps, and stats recomputation.
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a named periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner executes registered jobs on their intervals until stopped.
type Runner struct {
	log    *zap.Logger
	jobs   []Job
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewRunner creates an empty Runner.
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		log:    logger,
		stopCh: make(chan struct{}),
	}
}

// Add registers a job. Call before Start.
func (r *Runner) Add(jobs ...Job) {
	r.jobs = append(r.jobs, jobs...)
}

// Start launches one goroutine per job. Each job also runs once shortly
// after startup so a restarted server does not wait a full interval.
func (r *Runner) Start() {
	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(job)
	}
	r.log.Info("background jobs started", zap.Int("count", len(r.jobs)))
}

// Stop signals all job loops to exit and waits for them.
func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	r.log.Info("background jobs stopped")
}

func (r *Runner) loop(job Job) {
	defer r.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	// Initial run after a short delay.
	initial := time.NewTimer(10 * time.Second)
	defer initial.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-initial.C:
			r.runOne(job)
		case <-ticker.C:
			r.runOne(job)
		}
	}
}

func (r *Runner) runOne(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		r.log.Error("background job failed",
			zap.String("job", job.Name),
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)))
		return
	}
	r.log.Debug("background job finished",
		zap.String("job", job.Name),
		zap.Duration("elapsed", time.Since(start)))
}
