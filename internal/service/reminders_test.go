package service_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"outreach.app/courier/internal/model"
	"outreach.app/courier/internal/notify"
	"outreach.app/courier/internal/queue"
	"outreach.app/courier/internal/service"
	"outreach.app/courier/internal/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("ReminderService", func() {
	var (
		ctx      context.Context
		contacts *memContactStore
		notifier *mockNotifier
		producer *mockProducer
		svc      service.ReminderService
		now      time.Time
		future   model.StateLabel
	)

	BeforeEach(func() {
		ctx = context.Background()
		contacts = &memContactStore{}
		notifier = &mockNotifier{}
		producer = &mockProducer{}
		now = time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC) // Monday
		future = model.StateFuture
		svc = service.NewReminderService(service.ReminderDeps{
			Contacts: contacts,
			Notifier: notifier,
			Producer: producer,
			Now:      func() time.Time { return now },
		})
	})

	seedFuture := func(id int64, date time.Time) {
		contacts.seed(model.Contact{
			ID:           id,
			ProfileURL:   fmt.Sprintf("https://example.com/in/p%d", id),
			FullName:     "Pat Smith",
			State:        &future,
			FollowUpDate: &date,
			Response:     "Ping me in March",
		})
	}

	Describe("Sweep", func() {
		It("enqueues contacts due today or earlier", func() {
			seedFuture(1, day(2025, 3, 3))
			seedFuture(2, day(2025, 2, 27))
			seedFuture(3, day(2025, 3, 4))

			n, err := svc.Sweep(ctx, now)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))
			Expect(producer.tasks).To(ConsistOf(
				HaveField("ContactID", int64(1)),
				HaveField("ContactID", int64(2)),
			))
			Expect(producer.tasks[0].TaskType).To(Equal(queue.TaskTypeFollowUpReminder))
		})

		It("rolls weekend dates forward to Monday", func() {
			seedFuture(1, day(2025, 3, 8)) // Saturday

			n, err := svc.Sweep(ctx, day(2025, 3, 8))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())

			n, err = svc.Sweep(ctx, day(2025, 3, 10))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
			Expect(producer.tasks[0].DueDate).To(Equal(day(2025, 3, 8)))
		})

		It("skips contacts already reminded", func() {
			seedFuture(1, day(2025, 3, 3))
			Expect(contacts.MarkReminded(ctx, 1, now)).To(Succeed())

			n, err := svc.Sweep(ctx, now)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})

		It("reports enqueue failures but keeps going", func() {
			seedFuture(1, day(2025, 3, 3))
			seedFuture(2, day(2025, 3, 3))
			producer.enqueueFn = func(_ context.Context, task queue.Task) error {
				if task.ContactID == 1 {
					return errors.New("redis: connection refused")
				}
				return nil
			}

			n, err := svc.Sweep(ctx, now)

			Expect(n).To(Equal(1))
			var upErr *service.UpstreamError
			Expect(errors.As(err, &upErr)).To(BeTrue())
			Expect(upErr.Service).To(Equal("queue"))
		})

		It("fails upstream when the store is down", func() {
			contacts.listFn = func(context.Context, store.FollowUpFilter) ([]model.Contact, error) {
				return nil, errors.New("timeout")
			}

			_, err := svc.Sweep(ctx, now)

			var upErr *service.UpstreamError
			Expect(errors.As(err, &upErr)).To(BeTrue())
			Expect(upErr.Service).To(Equal("store"))
		})
	})

	Describe("Remind", func() {
		It("notifies the outreach channel and marks the contact", func() {
			seedFuture(1, day(2025, 3, 3))

			Expect(svc.Remind(ctx, 1, day(2025, 3, 3))).To(Succeed())

			sent := notifier.on(notify.ChannelOutreach)
			Expect(sent).To(HaveLen(1))
			Expect(sent[0].Title).To(Equal("Follow-up Reminder"))
			Expect(sent[0].Text).To(ContainSubstring("Pat Smith"))
			Expect(sent[0].Text).To(ContainSubstring("03/03/2025"))
			Expect(sent[0].Text).To(ContainSubstring("Ping me in March"))

			c, err := contacts.GetByID(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.RemindedAt).To(HaveValue(Equal(now)))
		})

		It("sends a reminder only once", func() {
			seedFuture(1, day(2025, 3, 3))

			Expect(svc.Remind(ctx, 1, day(2025, 3, 3))).To(Succeed())
			Expect(svc.Remind(ctx, 1, day(2025, 3, 3))).To(Succeed())

			Expect(notifier.on(notify.ChannelOutreach)).To(HaveLen(1))
		})

		It("skips a reminder whose date has moved", func() {
			seedFuture(1, day(2025, 4, 1))

			Expect(svc.Remind(ctx, 1, day(2025, 3, 3))).To(Succeed())

			Expect(notifier.sent).To(BeEmpty())
		})

		It("skips a contact that is no longer Future", func() {
			seedFuture(1, day(2025, 3, 3))
			hot := model.StateHot
			contacts.mu.Lock()
			contacts.contacts[0].State = &hot
			contacts.mu.Unlock()

			Expect(svc.Remind(ctx, 1, day(2025, 3, 3))).To(Succeed())

			Expect(notifier.sent).To(BeEmpty())
		})

		It("ignores a deleted contact", func() {
			Expect(svc.Remind(ctx, 999, day(2025, 3, 3))).To(Succeed())
			Expect(notifier.sent).To(BeEmpty())
		})
	})

	Describe("Status", func() {
		It("is due until the reminder goes out, then sent", func() {
			seedFuture(1, day(2025, 3, 3))

			status, err := svc.Status(ctx, 1, day(2025, 3, 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(model.ReminderDue))

			Expect(svc.Remind(ctx, 1, day(2025, 3, 3))).To(Succeed())

			status, err = svc.Status(ctx, 1, day(2025, 3, 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(model.ReminderSent))
		})

		It("is superseded when the date moved or the contact is gone", func() {
			seedFuture(1, day(2025, 4, 1))

			status, err := svc.Status(ctx, 1, day(2025, 3, 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(model.ReminderSuperseded))

			status, err = svc.Status(ctx, 999, day(2025, 3, 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(model.ReminderSuperseded))
		})

		It("fails upstream when the store is down", func() {
			seedFuture(1, day(2025, 3, 3))
			contacts.getFn = func(context.Context, int64) (*model.Contact, error) {
				return nil, errors.New("timeout")
			}

			_, err := svc.Status(ctx, 1, day(2025, 3, 3))

			var upErr *service.UpstreamError
			Expect(errors.As(err, &upErr)).To(BeTrue())
			Expect(upErr.Service).To(Equal("store"))
		})
	})
})
