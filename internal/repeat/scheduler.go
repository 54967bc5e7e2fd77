package repeat

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dukerupert/tuckborough/internal/event"
	"github.com/dukerupert/tuckborough/internal/store"
)

// Epoch is the watermark sentinel written by a reset: far enough in the
// past that the next poll always qualifies for a run.
var Epoch = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

const defaultPollInterval = 30 * time.Second

// Runner is the unit of work the scheduler drives once per period.
type Runner interface {
	Run(now time.Time) error
}

// Scheduler owns the repeat engine's timer loop and its persisted
// watermark. It polls frequently and compares elapsed time against the
// configured period, rather than sleeping for the whole period, so that
// an external reset takes effect promptly.
type Scheduler struct {
	mu     sync.RWMutex
	runner Runner
	runLog *store.RunLogStore
	resets <-chan event.Event
	period time.Duration
	poll   time.Duration
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}

	started   atomic.Bool
	ticking   atomic.Bool
	resetting atomic.Bool
}

func NewScheduler(runner Runner, runLog *store.RunLogStore, bus *event.Bus, period time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		runLog: runLog,
		// Subscribing here, not in Start, keeps a Stop/Start cycle from
		// accumulating subscribers and catches resets published before
		// the loops spin up.
		resets: bus.Subscribe(event.KindTaskNeedsAssignments),
		period: period,
		poll:   defaultPollInterval,
		logger: logger,
	}
}

// Start spawns the tick loop and the reset listener and returns
// immediately. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now().UTC())
			}
		}
	}()

	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.resets:
				s.reset()
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()
}

// Stop cancels both loops and waits for them to exit.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	s.started.Store(false)
}

// tick runs the repeater if the configured period has elapsed since the
// last successful run. A failed tick is logged and retried on a later
// poll; the watermark only advances after the runner succeeds.
func (s *Scheduler) tick(now time.Time) {
	if !s.ticking.CompareAndSwap(false, true) {
		return
	}
	defer s.ticking.Store(false)

	watermark, err := s.runLog.Get()
	if err != nil {
		s.logger.Error("read watermark", "error", err)
		return
	}
	if watermark != nil && now.Sub(*watermark) <= s.period {
		return
	}

	if err := s.runner.Run(now); err != nil {
		s.logger.Error("repeat run failed", "error", err)
		return
	}
	if err := s.runLog.Set(now); err != nil {
		s.logger.Error("advance watermark", "error", err)
	}
}

// reset forces the next poll to qualify for a run by rewinding the
// watermark to the epoch. Concurrent duplicate signals collapse into one
// effective reset.
func (s *Scheduler) reset() {
	if !s.resetting.CompareAndSwap(false, true) {
		return
	}
	defer s.resetting.Store(false)

	if err := s.runLog.Set(Epoch); err != nil {
		s.logger.Error("reset watermark", "error", err)
		return
	}
	s.logger.Info("watermark reset, next poll will run")
}
