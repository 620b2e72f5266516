package submission_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/trail-report/internal/submission"
	"github.com/frahmantamala/trail-report/pkg/logger"
)

type terminalRecord struct {
	mu       sync.Mutex
	reasons  []submission.StopReason
	attempts []int
}

func (t *terminalRecord) record(reason submission.StopReason, attempts int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reasons = append(t.reasons, reason)
	t.attempts = append(t.attempts, attempts)
}

func (t *terminalRecord) Reasons() []submission.StopReason {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]submission.StopReason{}, t.reasons...)
}

var _ = Describe("Poller", func() {
	var (
		terminal *terminalRecord
		ticks    atomic.Int32
		config   submission.PollConfig
	)

	BeforeEach(func() {
		terminal = &terminalRecord{}
		ticks.Store(0)
		config = submission.PollConfig{
			Interval:    10 * time.Millisecond,
			MaxAttempts: 100,
			Timeout:     5 * time.Second,
			MaxFailures: 3,
		}
	})

	newPoller := func(tick submission.TickFunc) *submission.Poller {
		return submission.NewPoller(config, tick, terminal.record, logger.Discard())
	}

	It("stops once the tick reports done", func() {
		p := newPoller(func(ctx context.Context, attempt int) (bool, error) {
			ticks.Add(1)
			return attempt == 3, nil
		})
		p.Start(context.Background())
		p.Wait()

		Expect(terminal.Reasons()).To(Equal([]submission.StopReason{submission.StopTerminal}))
		Expect(terminal.attempts).To(Equal([]int{3}))
		Expect(p.Running()).To(BeFalse())
	})

	It("waits one interval before the first tick", func() {
		config.Interval = 200 * time.Millisecond
		p := newPoller(func(ctx context.Context, attempt int) (bool, error) {
			ticks.Add(1)
			return true, nil
		})
		p.Start(context.Background())
		Consistently(ticks.Load, 100*time.Millisecond, 10*time.Millisecond).Should(BeZero())
		p.Wait()
		Expect(ticks.Load()).To(Equal(int32(1)))
	})

	It("gives up after the attempt cap", func() {
		config.MaxAttempts = 4
		p := newPoller(func(ctx context.Context, attempt int) (bool, error) {
			ticks.Add(1)
			return false, nil
		})
		p.Start(context.Background())
		p.Wait()

		Expect(terminal.Reasons()).To(Equal([]submission.StopReason{submission.StopMaxAttempts}))
		Expect(ticks.Load()).To(Equal(int32(4)))
	})

	It("gives up after the overall timeout", func() {
		config.Timeout = 80 * time.Millisecond
		p := newPoller(func(ctx context.Context, attempt int) (bool, error) {
			return false, nil
		})
		p.Start(context.Background())
		p.Wait()

		Expect(terminal.Reasons()).To(Equal([]submission.StopReason{submission.StopTimeout}))
	})

	It("gives up after consecutive failures only", func() {
		p := newPoller(func(ctx context.Context, attempt int) (bool, error) {
			ticks.Add(1)
			// attempt 3 succeeds and resets the failure count
			if attempt == 3 {
				return false, nil
			}
			return false, errors.New("unreachable")
		})
		p.Start(context.Background())
		p.Wait()

		Expect(terminal.Reasons()).To(Equal([]submission.StopReason{submission.StopFailures}))
		Expect(ticks.Load()).To(Equal(int32(6)))
	})

	It("reports cancellation when stopped", func() {
		p := newPoller(func(ctx context.Context, attempt int) (bool, error) {
			return false, nil
		})
		p.Start(context.Background())
		Eventually(p.Running).Should(BeTrue())
		p.Stop()
		p.Wait()

		Expect(terminal.Reasons()).To(Equal([]submission.StopReason{submission.StopCancelled}))
		Expect(p.Running()).To(BeFalse())
	})

	It("cancels the previous run when started again", func() {
		config.MaxAttempts = 2
		p := newPoller(func(ctx context.Context, attempt int) (bool, error) {
			return false, nil
		})
		p.Start(context.Background())
		p.Start(context.Background())
		p.Wait()

		Eventually(terminal.Reasons).Should(ConsistOf(submission.StopCancelled, submission.StopMaxAttempts))
	})

	It("passes a context bounded by the overall deadline to each tick", func() {
		var deadline atomic.Bool
		p := newPoller(func(ctx context.Context, attempt int) (bool, error) {
			_, ok := ctx.Deadline()
			deadline.Store(ok)
			return true, nil
		})
		p.Start(context.Background())
		p.Wait()
		Expect(deadline.Load()).To(BeTrue())
	})
})

var _ = Describe("Debouncer", func() {
	It("runs once after the trigger has been quiet", func() {
		var calls atomic.Int32
		d := submission.NewDebouncer(40*time.Millisecond, func() { calls.Add(1) })

		for i := 0; i < 5; i++ {
			d.Trigger()
			time.Sleep(10 * time.Millisecond)
		}
		Expect(d.Pending()).To(BeTrue())
		Eventually(calls.Load).Should(Equal(int32(1)))
		Consistently(calls.Load, 100*time.Millisecond).Should(Equal(int32(1)))
		Expect(d.Pending()).To(BeFalse())
	})

	It("does not run after Stop", func() {
		var calls atomic.Int32
		d := submission.NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })

		d.Trigger()
		Expect(d.Stop()).To(BeTrue())
		Expect(d.Stop()).To(BeFalse())
		Consistently(calls.Load, 80*time.Millisecond).Should(BeZero())
	})
})
