// Package tasks runs periodic background jobs for the lifetime of the
// process.
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one periodic unit of work.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run; zero uses Interval.
	Timeout time.Duration
	// RunAtStart runs the job once before the first tick.
	RunAtStart bool
	Run        func(ctx context.Context) error
}

// Scheduler drives a set of Jobs, each on its own ticker.
type Scheduler struct {
	log    *zap.Logger
	jobs   []Job
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler. Jobs with a non-positive interval or no
// Run func are skipped.
func NewScheduler(logger *zap.Logger, jobs ...Job) *Scheduler {
	s := &Scheduler{log: logger}
	for _, j := range jobs {
		if j.Interval <= 0 || j.Run == nil {
			logger.Warn("skipping disabled job", zap.String("job", j.Name))
			continue
		}
		s.jobs = append(s.jobs, j)
	}
	return s
}

// Jobs returns the jobs that will run.
func (s *Scheduler) Jobs() []Job { return s.jobs }

// Start launches one goroutine per job. Jobs stop when ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
	s.log.Info("background jobs started", zap.Int("count", len(s.jobs)))
}

// Stop cancels every job and waits for running ones to return.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.log.Info("background jobs stopped")
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	defer s.wg.Done()

	if j.RunAtStart {
		s.runOnce(ctx, j)
	}

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j Job) {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = j.Interval
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("job panicked", zap.String("job", j.Name), zap.Any("panic", rec))
		}
	}()

	start := time.Now()
	if err := j.Run(runCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("job failed", zap.String("job", j.Name), zap.Error(err))
		return
	}
	s.log.Debug("job finished", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
}
