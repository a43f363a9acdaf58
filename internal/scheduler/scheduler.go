// Package scheduler runs the follow-up sweep on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"outreach.app/courier/common/logger"
)

// Sweeper enqueues the reminders due on today.
type Sweeper interface {
	Sweep(ctx context.Context, today time.Time) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	now     func() time.Time
	logger  *slog.Logger
}

// New parses pattern (standard five fields, optional leading seconds, or a descriptor such
// as "@daily") and registers the sweep. Overlapping runs are skipped.
func New(pattern string, sweeper Sweeper, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cronLog := cronLogger{log: log}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	s := &Scheduler{
		cron:    c,
		sweeper: sweeper,
		now:     time.Now,
		logger:  log,
	}
	if _, err := c.AddFunc(pattern, func() { _, _ = s.RunNow(context.Background()) }); err != nil {
		return nil, fmt.Errorf("parsing reminder schedule %q: %w", pattern, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("reminder scheduler started", "entries", len(s.cron.Entries()))
}

// Stop stops scheduling and waits for a running sweep, up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow performs one sweep immediately.
func (s *Scheduler) RunNow(ctx context.Context) (int, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "courier.scheduler"})

	start := time.Now()
	n, err := s.sweeper.Sweep(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "follow-up sweep failed", "error", err, "enqueued", n)
		return n, err
	}
	s.logger.InfoContext(ctx, "follow-up sweep done", "enqueued", n, "duration_ms", time.Since(start).Milliseconds())
	return n, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
