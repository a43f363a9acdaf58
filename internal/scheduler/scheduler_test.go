package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"outreach.app/courier/internal/scheduler"
)

type mockSweeper struct {
	calls   atomic.Int32
	sweepFn func(ctx context.Context, today time.Time) (int, error)
}

func (m *mockSweeper) Sweep(ctx context.Context, today time.Time) (int, error) {
	m.calls.Add(1)
	if m.sweepFn != nil {
		return m.sweepFn(ctx, today)
	}
	return 0, nil
}

var _ = Describe("Scheduler", func() {
	It("rejects an invalid pattern", func() {
		_, err := scheduler.New("every morning", &mockSweeper{}, nil)
		Expect(err).To(MatchError(ContainSubstring("every morning")))
	})

	DescribeTable("accepts supported patterns",
		func(pattern string) {
			_, err := scheduler.New(pattern, &mockSweeper{}, nil)
			Expect(err).NotTo(HaveOccurred())
		},
		Entry("weekday mornings", "0 8 * * 1-5"),
		Entry("with seconds", "30 0 8 * * *"),
		Entry("descriptor", "@daily"),
	)

	It("sweeps with the current day", func() {
		sweeper := &mockSweeper{}
		var got time.Time
		sweeper.sweepFn = func(_ context.Context, today time.Time) (int, error) {
			got = today
			return 3, nil
		}
		s, err := scheduler.New("@daily", sweeper, nil)
		Expect(err).NotTo(HaveOccurred())
		fixed := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
		s.SetNow(func() time.Time { return fixed })

		n, err := s.RunNow(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))
		Expect(got).To(Equal(fixed))
	})

	It("surfaces a failed sweep", func() {
		sweeper := &mockSweeper{sweepFn: func(context.Context, time.Time) (int, error) {
			return 1, errors.New("redis down")
		}}
		s, err := scheduler.New("@daily", sweeper, nil)
		Expect(err).NotTo(HaveOccurred())

		n, err := s.RunNow(context.Background())

		Expect(err).To(MatchError("redis down"))
		Expect(n).To(Equal(1))
	})

	It("fires on schedule until stopped", func() {
		sweeper := &mockSweeper{}
		s, err := scheduler.New("@every 1s", sweeper, nil)
		Expect(err).NotTo(HaveOccurred())

		s.Start()
		Eventually(sweeper.calls.Load, 3*time.Second, 100*time.Millisecond).Should(BeNumerically(">=", 1))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		Expect(s.Stop(ctx)).To(Succeed())
	})
})
