package worker_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"outreach.app/courier/internal/queue"
	"outreach.app/courier/internal/worker"
)

type fakeConsumer struct {
	mu       sync.Mutex
	batches  [][]queue.Message
	acked    []string
	requeued []string
	dlq      []string
}

func (c *fakeConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.batches) == 0 {
		return nil, nil
	}
	batch := c.batches[0]
	c.batches = c.batches[1:]
	return batch, nil
}

func (c *fakeConsumer) Ack(ctx context.Context, msg queue.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acked = append(c.acked, msg.ID)
	return nil
}

func (c *fakeConsumer) Requeue(ctx context.Context, msg queue.Message, errMsg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requeued = append(c.requeued, msg.ID)
	return nil
}

func (c *fakeConsumer) SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dlq = append(c.dlq, msg.ID)
	return nil
}

type fakeProcessor struct {
	remindFn func(ctx context.Context, contactID int64, dueDate time.Time) error
}

func (p *fakeProcessor) Remind(ctx context.Context, contactID int64, dueDate time.Time) error {
	if p.remindFn != nil {
		return p.remindFn(ctx, contactID, dueDate)
	}
	return nil
}

var _ = Describe("Worker", func() {
	var (
		ctx      context.Context
		consumer *fakeConsumer
		proc     *fakeProcessor
		w        *worker.Worker
		due      time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		consumer = &fakeConsumer{}
		proc = &fakeProcessor{}
		w = worker.New(consumer, proc, worker.Config{MaxAttempts: 3})
		due = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	})

	It("acks a delivered reminder", func() {
		var gotID int64
		var gotDue time.Time
		proc.remindFn = func(_ context.Context, contactID int64, dueDate time.Time) error {
			gotID, gotDue = contactID, dueDate
			return nil
		}

		err := w.HandleMessage(ctx, queue.Message{ID: "1-0", ContactID: 42, DueDate: due, Attempt: 1})

		Expect(err).NotTo(HaveOccurred())
		Expect(gotID).To(Equal(int64(42)))
		Expect(gotDue).To(Equal(due))
		Expect(consumer.acked).To(ConsistOf("1-0"))
		Expect(consumer.requeued).To(BeEmpty())
	})

	It("requeues a failure below the attempt limit", func() {
		proc.remindFn = func(context.Context, int64, time.Time) error { return errors.New("slack down") }

		err := w.HandleMessage(ctx, queue.Message{ID: "2-0", ContactID: 7, DueDate: due, Attempt: 1})

		Expect(err).To(HaveOccurred())
		Expect(consumer.acked).To(BeEmpty())
		Expect(consumer.requeued).To(ConsistOf("2-0"))
		Expect(consumer.dlq).To(BeEmpty())
	})

	It("dead-letters a failure at the attempt limit", func() {
		proc.remindFn = func(context.Context, int64, time.Time) error { return errors.New("slack down") }

		_ = w.HandleMessage(ctx, queue.Message{ID: "3-0", ContactID: 7, DueDate: due, Attempt: 3})

		Expect(consumer.dlq).To(ConsistOf("3-0"))
		Expect(consumer.requeued).To(BeEmpty())
	})

	It("recovers a panicking processor", func() {
		proc.remindFn = func(context.Context, int64, time.Time) error { panic("boom") }

		err := w.HandleMessage(ctx, queue.Message{ID: "4-0", ContactID: 9, DueDate: due, Attempt: 1})

		Expect(err).To(MatchError(ContainSubstring("panic: boom")))
		Expect(consumer.requeued).To(ConsistOf("4-0"))
	})

	It("drains batches until stopped", func() {
		consumer.batches = [][]queue.Message{
			{{ID: "5-0", ContactID: 1, DueDate: due, Attempt: 1}, {ID: "6-0", ContactID: 2, DueDate: due, Attempt: 1}},
		}

		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()

		Eventually(func() int {
			consumer.mu.Lock()
			defer consumer.mu.Unlock()
			return len(consumer.acked)
		}).Should(Equal(2))

		w.Stop()
		Eventually(done).Should(Receive(BeNil()))
	})
})
