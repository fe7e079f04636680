// Package schedule runs the periodic jobs (blob backups, page snapshots)
// on cron specs.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "deskcal/internal/log"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner. Jobs receive the context passed to Start
// and never overlap with themselves.
type Scheduler struct {
	cron *cron.Cron

	mu  sync.Mutex
	ctx context.Context
}

// New creates a Scheduler evaluating specs in loc.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
			cron.WithLogger(logger),
		),
		ctx: context.Background(),
	}
}

// Add registers job under name on a standard 5-field spec (descriptors
// such as "@hourly" are accepted too). An empty spec is a no-op.
func (s *Scheduler) Add(name, spec string, job Job) error {
	if spec == "" {
		appLog.Info("schedule: job disabled", "job", name)
		return nil
	}
	id, err := s.cron.AddFunc(spec, s.wrap(name, job))
	if err != nil {
		return fmt.Errorf("schedule: invalid cron spec for %s: %w", name, err)
	}
	appLog.Info("schedule: job registered", "job", name, "spec", spec, "entry", int(id))
	return nil
}

// Len reports how many jobs are registered.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in the background until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs or ctx, whichever
// comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		appLog.Warn("schedule: stop timed out with jobs still running")
	}
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()

		start := time.Now()
		if err := job(ctx); err != nil {
			appLog.Error("schedule: job failed", err, "job", name, "elapsed", time.Since(start).String())
			return
		}
		appLog.Debug("schedule: job done", "job", name, "elapsed", time.Since(start).String())
	}
}

// cronLogger adapts the package-level logger to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
