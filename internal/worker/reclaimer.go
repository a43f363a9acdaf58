package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outreach.app/courier/common/logger"
	"outreach.app/courier/internal/model"
	"outreach.app/courier/internal/queue"
)

type ReclaimerConfig struct {
	// Claimant is the consumer name reclaimed reminders are moved to.
	Claimant  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
	// MaxDeliveries dead-letters a reminder that was handed out this many times without
	// an ack, which means a worker keeps dying on it.
	MaxDeliveries int64
}

// Reclaimer settles reminders left pending by a worker that died between XREADGROUP and
// XACK. Each reclaimed reminder is checked against its contact before being re-delivered,
// since the follow-up may have been sent or moved while it sat in the pending list.
type Reclaimer struct {
	claimer  StaleClaimer
	consumer Consumer
	checker  ReminderChecker
	handle   queue.MessageProcessor
	cfg      ReclaimerConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewReclaimer(claimer StaleClaimer, consumer Consumer, checker ReminderChecker, handle queue.MessageProcessor, cfg ReclaimerConfig) *Reclaimer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxDeliveries <= 0 {
		cfg.MaxDeliveries = 5
	}
	return &Reclaimer{
		claimer:   claimer,
		consumer:  consumer,
		checker:   checker,
		handle:    handle,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run reclaims on every tick until Stop is called or ctx ends.
func (r *Reclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "courier.worker.reclaimer",
	})

	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"min_idle", r.cfg.MinIdle,
		"claimant", r.cfg.Claimant)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			if _, err := r.ReclaimOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaim cycle error", "error", err)
			}
		}
	}
}

func (r *Reclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// ReclaimStats counts how one cycle settled the reminders it claimed.
type ReclaimStats struct {
	Redelivered  int
	AlreadySent  int
	DeadLettered int
	Deferred     int
}

// ReclaimOnce claims one batch of stale reminders and settles each of them.
func (r *Reclaimer) ReclaimOnce(ctx context.Context) (ReclaimStats, error) {
	var stats ReclaimStats

	stale, err := r.claimer.ClaimStale(ctx, r.cfg.Claimant, r.cfg.MinIdle, r.cfg.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("claiming stale reminders: %w", err)
	}
	if len(stale) == 0 {
		return stats, nil
	}

	for _, s := range stale {
		r.settle(ctx, s, &stats)
	}

	slog.InfoContext(ctx, "reclaim cycle finished",
		"claimed", len(stale),
		"redelivered", stats.Redelivered,
		"already_sent", stats.AlreadySent,
		"dead_lettered", stats.DeadLettered,
		"deferred", stats.Deferred)

	return stats, nil
}

func (r *Reclaimer) settle(ctx context.Context, stale queue.StaleMessage, stats *ReclaimStats) {
	msg := stale.Message
	msgID := msg.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: &msgID})

	if stale.ParseErr != nil {
		r.deadLetter(ctx, msg, fmt.Sprintf("unparseable reminder: %v", stale.ParseErr), stats)
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{ContactID: &msg.ContactID})

	if stale.Deliveries > r.cfg.MaxDeliveries {
		r.deadLetter(ctx, msg, fmt.Sprintf("abandoned after %d deliveries", stale.Deliveries), stats)
		return
	}

	status, err := r.checker.Status(ctx, msg.ContactID, msg.DueDate)
	if err != nil {
		// Left pending; the next cycle claims it again.
		slog.WarnContext(ctx, "reminder status check failed, deferring", "error", err)
		stats.Deferred++
		return
	}

	switch status {
	case model.ReminderSent:
		if err := r.consumer.Ack(ctx, msg); err != nil {
			slog.WarnContext(ctx, "failed to ack settled reminder", "error", err)
		}
		stats.AlreadySent++
	case model.ReminderSuperseded:
		r.deadLetter(ctx, msg, "follow-up superseded for due date "+msg.DueDate.Format(time.DateOnly), stats)
	default:
		slog.InfoContext(ctx, "redelivering stale reminder",
			"idle", stale.Idle,
			"deliveries", stale.Deliveries)
		// The handler requeues or dead-letters on failure itself.
		_ = r.handle(ctx, msg)
		stats.Redelivered++
	}
}

func (r *Reclaimer) deadLetter(ctx context.Context, msg queue.Message, reason string, stats *ReclaimStats) {
	slog.WarnContext(ctx, "dead-lettering stale reminder", "reason", reason)
	if err := r.consumer.SendDLQ(ctx, msg, reason); err != nil {
		slog.ErrorContext(ctx, "failed to send reminder to DLQ", "error", err)
		stats.Deferred++
		return
	}
	stats.DeadLettered++
}
