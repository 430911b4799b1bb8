// Package jobs runs periodic background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// OverdueSweeper is satisfied by *service.RentalService.
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context) (int, error)
}

// Scheduler wraps a cron runner.  Jobs never overlap: a run that is still
// going when the next tick fires causes that tick to be skipped.
type Scheduler struct {
	c   *cron.Cron
	log logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(log logrus.FieldLogger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		c: cron.New(cron.WithChain(
			cron.Recover(cronLogger{log}),
			cron.SkipIfStillRunning(cronLogger{log}),
		)),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddOverdueSweep schedules s.SweepOverdue.  spec is a standard 5-field
// cron expression or a descriptor such as "@every 1h".
func (s *Scheduler) AddOverdueSweep(spec string, sweeper OverdueSweeper, timeout time.Duration) error {
	job := OverdueJob{Sweeper: sweeper, Log: s.log, Timeout: timeout}
	if _, err := s.c.AddFunc(spec, func() { job.Run(s.ctx) }); err != nil {
		return fmt.Errorf("schedule overdue sweep %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.c.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OverdueJob is one sweep run.
type OverdueJob struct {
	Sweeper OverdueSweeper
	Log     logrus.FieldLogger
	Timeout time.Duration

	mu      sync.Mutex
	lastN   int
	lastErr error
}

func (j *OverdueJob) Run(parent context.Context) {
	ctx := parent
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	n, err := j.Sweeper.SweepOverdue(ctx)

	j.mu.Lock()
	j.lastN, j.lastErr = n, err
	j.mu.Unlock()

	entry := j.Log.WithFields(logrus.Fields{
		"job":         "overdue_sweep",
		"overdue":     n,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("overdue sweep failed")
		return
	}
	entry.Info("overdue sweep finished")
}

// Last returns the result of the most recent run.
func (j *OverdueJob) Last() (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastN, j.lastErr
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct{ log logrus.FieldLogger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kv(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kv(keysAndValues)).WithError(err).Error("cron: " + msg)
}

func kv(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
