// Package scheduler runs collection cycles once or on a fixed interval grid.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Clock abstracts time so the loop can be driven in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Runner drives Cycle either once or periodically.
type Runner struct {
	Cycle    func(ctx context.Context) error
	Interval time.Duration // Default: 30m.
	Poll     time.Duration // Default: 1m.
	Clock    Clock
	Logger   *slog.Logger
}

func (r *Runner) defaults() {
	if r.Interval <= 0 {
		r.Interval = 30 * time.Minute
	}
	if r.Poll <= 0 {
		r.Poll = time.Minute
	}
	if r.Clock == nil {
		r.Clock = realClock{}
	}
	if r.Logger == nil {
		r.Logger = slog.Default()
	}
}

// RunOnce runs a single cycle and returns its error.
func (r *Runner) RunOnce(ctx context.Context) error {
	r.defaults()
	if r.Cycle == nil {
		return errors.New("scheduler: no cycle configured")
	}
	return r.Cycle(ctx)
}

// Run executes a cycle immediately and then whenever the clock reaches the
// next boundary of the interval grid anchored at the start time. The clock
// is polled every Poll, so a cycle that overran its slot is followed by one
// catch-up cycle at the next poll. Cycle errors are logged and the loop
// continues.
//
// Cancellation is observed between cycles only: a cycle in flight runs to
// completion on a context that ignores ctx cancellation. Run returns
// ctx.Err() once cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.defaults()
	if r.Cycle == nil {
		return errors.New("scheduler: no cycle configured")
	}

	start := r.Clock.Now()
	next := start
	r.Logger.Info("scheduler started", "interval", r.Interval.String(), "poll", r.Poll.String())

	for {
		if err := ctx.Err(); err != nil {
			r.Logger.Info("scheduler stopped", "reason", err.Error())
			return err
		}

		if now := r.Clock.Now(); !now.Before(next) {
			if err := r.Cycle(context.WithoutCancel(ctx)); err != nil {
				r.Logger.Error("collection cycle failed", "error", err)
			}
			next = nextBoundary(start, now, r.Interval)
			r.Logger.Info("next cycle scheduled", "at", next.Format(time.RFC3339))
		}

		select {
		case <-ctx.Done():
		case <-r.Clock.After(r.Poll):
		}
	}
}

// nextBoundary is the first grid point start+k*interval strictly after t.
func nextBoundary(start, t time.Time, interval time.Duration) time.Time {
	elapsed := t.Sub(start)
	if elapsed < 0 {
		return start
	}
	k := elapsed/interval + 1
	return start.Add(k * interval)
}
