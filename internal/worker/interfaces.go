package worker

import (
	"context"
	"time"

	"outreach.app/courier/internal/model"
	"outreach.app/courier/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// ReminderProcessor delivers one follow-up reminder.
type ReminderProcessor interface {
	Remind(ctx context.Context, contactID int64, dueDate time.Time) error
}

// StaleClaimer hands over reminders another consumer read but never acknowledged.
type StaleClaimer interface {
	ClaimStale(ctx context.Context, claimant string, minIdle time.Duration, count int64) ([]queue.StaleMessage, error)
}

// ReminderChecker reports whether a queued reminder is still owed.
type ReminderChecker interface {
	Status(ctx context.Context, contactID int64, dueDate time.Time) (model.ReminderStatus, error)
}
