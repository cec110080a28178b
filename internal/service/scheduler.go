package service

import (
	"context"
	"log"
	"sync"
	"time"

	"poolride/internal/config"
)

// Scheduler drives the reconciler: a short-interval sweep for locks,
// timeouts and countdowns, plus the once-a-day cash commission run.
type Scheduler struct {
	reconciler *SettlementReconciler
	cfg        config.SettlementConfig
	now        func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(reconciler *SettlementReconciler, cfg config.SettlementConfig) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		cfg:        cfg,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
}

// Start launches the background loops. They run until Stop is called or
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.done.Add(2)
	go s.sweepLoop(ctx)
	go s.cashLoop(ctx)
	log.Printf("[SCHEDULER] started: sweep every %s, cash sweep at %02d:00", s.cfg.SweepInterval, s.cfg.CashSweepHour)
}

// Stop shuts the loops down and waits for them to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.done.Wait()
}

func (s *Scheduler) sweepLoop(ctx context.Context) {
	defer s.done.Done()

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reconciler.RunSweep(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) cashLoop(ctx context.Context) {
	defer s.done.Done()

	for {
		now := s.now()
		next := s.nextCashRun(now)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-timer.C:
			day := s.now()
			if n, err := s.reconciler.DeductCashCommissions(ctx, day); err != nil {
				log.Printf("[SCHEDULER] cash commission sweep failed: %v", err)
			} else {
				log.Printf("[SCHEDULER] cash commission sweep settled %d booking(s)", n)
			}
		case <-s.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// nextCashRun returns the next occurrence of the configured sweep hour.
func (s *Scheduler) nextCashRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.CashSweepHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
