package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RunKind names the three scheduled briefing runs.
type RunKind string

const (
	RunDaily   RunKind = "daily"
	RunWeekend RunKind = "weekend"
	RunWeekly  RunKind = "weekly"
)

// Runner executes briefing runs. Runs are mutually exclusive inside the
// runner itself.
type Runner interface {
	RunDaily(ctx context.Context) error
	RunWeekend(ctx context.Context) error
	RunWeekly(ctx context.Context) error
}

// ShouldRun reports whether a run kind is due at the given instant. All
// schedule slots have minute resolution and are evaluated in UTC:
// daily fires every day at 21:30, weekend on Saturday at 21:30, weekly
// on Sunday at 03:00.
func ShouldRun(kind RunKind, now time.Time) bool {
	now = now.UTC()

	switch kind {
	case RunDaily:
		return now.Hour() == 21 && now.Minute() == 30
	case RunWeekend:
		return now.Weekday() == time.Saturday && now.Hour() == 21 && now.Minute() == 30
	case RunWeekly:
		return now.Weekday() == time.Sunday && now.Hour() == 3 && now.Minute() == 0
	default:
		return false
	}
}

// Scheduler drives the runner from a wall-clock tick loop. Each kind
// fires at most once per minute slot regardless of tick frequency.
type Scheduler struct {
	runner    Runner
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastFired map[RunKind]string
}

func NewScheduler(runner Runner, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:    runner,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
		lastFired: make(map[RunKind]string),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		slog.Info("Scheduler started", "interval", s.interval.String())

		for {
			select {
			case <-s.ctx.Done():
				return
			case now := <-ticker.C:
				s.tick(now.UTC())
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

// tick fires every due kind exactly once per minute slot. The weekend
// run intentionally replaces the daily one on Saturdays.
func (s *Scheduler) tick(now time.Time) {
	slot := now.Format("2006-01-02T15:04")

	for _, kind := range []RunKind{RunWeekend, RunDaily, RunWeekly} {
		if !ShouldRun(kind, now) {
			continue
		}
		if kind == RunDaily && ShouldRun(RunWeekend, now) {
			continue
		}
		if s.lastFired[kind] == slot {
			continue
		}
		s.lastFired[kind] = slot
		s.fire(kind)
	}
}

func (s *Scheduler) fire(kind RunKind) {
	slog.Info("Scheduled run triggered", "kind", kind)

	var err error
	switch kind {
	case RunDaily:
		err = s.runner.RunDaily(s.ctx)
	case RunWeekend:
		err = s.runner.RunWeekend(s.ctx)
	case RunWeekly:
		err = s.runner.RunWeekly(s.ctx)
	}
	if err != nil {
		slog.Error("Scheduled run failed", "kind", kind, "error", err)
	}
}
