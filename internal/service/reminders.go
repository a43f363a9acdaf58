package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"outreach.app/courier/common/logger"
	"outreach.app/courier/internal/followup"
	"outreach.app/courier/internal/model"
	"outreach.app/courier/internal/notify"
	"outreach.app/courier/internal/queue"
	"outreach.app/courier/internal/store"
)

const reminderTitle = "Follow-up Reminder"

// ReminderService turns due follow-up dates into outreach notifications.
type ReminderService interface {
	// Sweep enqueues one reminder per contact whose follow-up is due on today. Dates that
	// fall on a weekend become due the following Monday.
	Sweep(ctx context.Context, today time.Time) (int, error)
	// Remind posts the reminder for contactID unless its follow-up date moved away from
	// dueDate or it was already reminded.
	Remind(ctx context.Context, contactID int64, dueDate time.Time) error
	// Status reports whether a reminder queued for dueDate is still owed.
	Status(ctx context.Context, contactID int64, dueDate time.Time) (model.ReminderStatus, error)
}

type ReminderDeps struct {
	Contacts store.ContactStore
	Notifier notify.Notifier
	Producer queue.Producer
	Now      func() time.Time
	Logger   *slog.Logger
}

type reminderService struct {
	contacts store.ContactStore
	notifier notify.Notifier
	producer queue.Producer
	now      func() time.Time
	logger   *slog.Logger
}

func NewReminderService(deps ReminderDeps) ReminderService {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &reminderService{
		contacts: deps.Contacts,
		notifier: deps.Notifier,
		producer: deps.Producer,
		now:      deps.Now,
		logger:   deps.Logger,
	}
}

func (s *reminderService) Sweep(ctx context.Context, today time.Time) (int, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "courier.service.reminders"})
	sc := logger.StartSpan(ctx, "reminders.sweep")
	defer sc.End()
	ctx = sc.Context()

	today = followup.Day(today)
	due, err := s.contacts.ListFollowUps(ctx, store.FollowUpFilter{
		OnOrBefore:  today,
		PendingOnly: true,
	})
	if err != nil {
		sc.RecordError(err)
		return 0, upstream("store", "list_follow_ups", err)
	}

	traceID := sc.TraceID()
	var (
		enqueued int
		errs     []error
	)
	for _, c := range due {
		if c.FollowUpDate == nil || followup.NextWeekday(*c.FollowUpDate).After(today) {
			continue
		}
		task := queue.Task{
			TaskType:  queue.TaskTypeFollowUpReminder,
			ContactID: c.ID,
			DueDate:   followup.Day(*c.FollowUpDate),
		}
		if traceID != "" {
			task.TraceID = &traceID
		}
		if err := s.producer.Enqueue(ctx, task); err != nil {
			errs = append(errs, fmt.Errorf("contact %d: %w", c.ID, err))
			continue
		}
		enqueued++
	}

	s.logger.InfoContext(ctx, "follow-up sweep finished",
		"today", followup.FormatDate(today),
		"due", len(due),
		"enqueued", enqueued,
		"failed", len(errs))

	if len(errs) > 0 {
		err := upstream("queue", "enqueue", errors.Join(errs...))
		sc.RecordError(err)
		return enqueued, err
	}
	return enqueued, nil
}

func (s *reminderService) Status(ctx context.Context, contactID int64, dueDate time.Time) (model.ReminderStatus, error) {
	status, _, err := s.status(ctx, contactID, dueDate)
	return status, err
}

func (s *reminderService) status(ctx context.Context, contactID int64, dueDate time.Time) (model.ReminderStatus, *model.Contact, error) {
	contact, err := s.contacts.GetByID(ctx, contactID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.InfoContext(ctx, "reminder superseded, contact gone")
			return model.ReminderSuperseded, nil, nil
		}
		return "", nil, upstream("store", "get_by_id", err)
	}

	switch {
	case contact.State == nil || *contact.State != model.StateFuture:
		s.logger.InfoContext(ctx, "reminder superseded, contact no longer marked future")
		return model.ReminderSuperseded, contact, nil
	case contact.FollowUpDate == nil || !followup.Day(*contact.FollowUpDate).Equal(followup.Day(dueDate)):
		s.logger.InfoContext(ctx, "reminder superseded, follow-up date changed")
		return model.ReminderSuperseded, contact, nil
	case contact.RemindedAt != nil:
		s.logger.InfoContext(ctx, "reminder already sent")
		return model.ReminderSent, contact, nil
	}
	return model.ReminderDue, contact, nil
}

func (s *reminderService) Remind(ctx context.Context, contactID int64, dueDate time.Time) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ContactID: &contactID,
		Component: "courier.service.reminders",
	})

	status, contact, err := s.status(ctx, contactID, dueDate)
	if err != nil || status != model.ReminderDue {
		return err
	}

	s.notifier.Notify(ctx, reminderTitle, reminderMessage(contact), notify.ChannelOutreach)

	if err := s.contacts.MarkReminded(ctx, contact.ID, s.now().UTC()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return upstream("store", "mark_reminded", err)
	}

	s.logger.InfoContext(ctx, "follow-up reminder sent", "follow_up_date", followup.FormatDate(*contact.FollowUpDate))
	return nil
}

func reminderMessage(c *model.Contact) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n*Follow up with:* _<%s|%s>_", c.ProfileURL, c.DisplayName())
	if c.Title != "" {
		fmt.Fprintf(&sb, "\n*Title:* %s", c.Title)
	}
	if c.Company != "" {
		fmt.Fprintf(&sb, "\n*Company:* %s", c.Company)
	}
	if c.FollowUpDate != nil {
		fmt.Fprintf(&sb, "\n*Follow up:* %s", followup.FormatDate(*c.FollowUpDate))
	}
	if c.Response != "" {
		fmt.Fprintf(&sb, "\n*Last response:* _\"%s\"_", c.Response)
	}
	return sb.String()
}
