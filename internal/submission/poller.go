package submission

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type StopReason string

const (
	StopTerminal    StopReason = "terminal"
	StopMaxAttempts StopReason = "max_attempts"
	StopTimeout     StopReason = "timeout"
	StopFailures    StopReason = "failures"
	StopCancelled   StopReason = "cancelled"
)

type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
	MaxFailures int
}

func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval:    5 * time.Second,
		MaxAttempts: 60,
		Timeout:     5 * time.Minute,
		MaxFailures: 5,
	}
}

// TickFunc performs one poll. Returning done ends the run with StopTerminal;
// an error counts towards the consecutive failure limit.
type TickFunc func(ctx context.Context, attempt int) (done bool, err error)

// TerminalFunc is called exactly once per run, after its timers are released.
type TerminalFunc func(reason StopReason, attempts int)

// Poller repeatedly invokes a tick on a fixed interval until the tick reports
// done, the attempt cap or the overall timeout is hit, too many consecutive
// ticks fail, or it is stopped. The first tick happens one interval after Start.
type Poller struct {
	config     PollConfig
	onTick     TickFunc
	onTerminal TerminalFunc
	logger     *slog.Logger

	mu      sync.Mutex
	gen     uint64
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewPoller(config PollConfig, onTick TickFunc, onTerminal TerminalFunc, logger *slog.Logger) *Poller {
	defaults := DefaultPollConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = defaults.MaxFailures
	}

	return &Poller{
		config:     config,
		onTick:     onTick,
		onTerminal: onTerminal,
		logger:     logger,
	}
}

// Start begins a new run. A run already in progress is cancelled first and
// reports StopCancelled.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.gen++
	p.running = true
	p.cancel = cancel
	p.done = make(chan struct{})

	p.logger.Debug("status polling started",
		"interval", p.config.Interval,
		"max_attempts", p.config.MaxAttempts,
		"timeout", p.config.Timeout)

	go p.run(runCtx, p.gen, p.done)
}

// Stop cancels the current run without waiting for it to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Wait blocks until the latest run has released its timers and reported.
func (p *Poller) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (p *Poller) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	deadline := time.Now().Add(p.config.Timeout)
	ticker := time.NewTicker(p.config.Interval)
	timeout := time.NewTimer(p.config.Timeout)

	attempts, failures := 0, 0
	reason := p.loop(ctx, deadline, ticker, timeout, &attempts, &failures)

	ticker.Stop()
	timeout.Stop()

	p.mu.Lock()
	if p.gen == gen {
		p.running = false
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
	}
	p.mu.Unlock()

	p.logger.Debug("status polling stopped", "reason", reason, "attempts", attempts)
	if p.onTerminal != nil {
		p.onTerminal(reason, attempts)
	}
}

func (p *Poller) loop(ctx context.Context, deadline time.Time, ticker *time.Ticker, timeout *time.Timer, attempts, failures *int) StopReason {
	for {
		select {
		case <-ctx.Done():
			return StopCancelled
		case <-timeout.C:
			return StopTimeout
		case <-ticker.C:
		}

		// A tick that became due together with cancellation must not run.
		if ctx.Err() != nil {
			return StopCancelled
		}

		*attempts++
		tickCtx, cancel := context.WithDeadline(ctx, deadline)
		done, err := p.onTick(tickCtx, *attempts)
		cancel()

		switch {
		case ctx.Err() != nil:
			return StopCancelled
		case done:
			return StopTerminal
		case err != nil:
			*failures++
			p.logger.Debug("status poll failed", "attempt", *attempts, "consecutive_failures", *failures, "error", err)
			if *failures >= p.config.MaxFailures {
				return StopFailures
			}
		default:
			*failures = 0
		}

		if *attempts >= p.config.MaxAttempts {
			return StopMaxAttempts
		}
		if !time.Now().Before(deadline) {
			return StopTimeout
		}
	}
}
