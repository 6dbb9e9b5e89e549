// Package ticker drives the live re-scoring loop: at a fixed interval it
// recomputes every event's congestion score against the current instant and
// reports the results to a publisher. The event snapshot is immutable for the
// lifetime of one loop; a data refresh restarts the loop with a new snapshot.
package ticker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/valetops/traffic-engine/internal/domain"
	"github.com/valetops/traffic-engine/internal/observability"
)

// globalFloor keeps the aggregate indicator from reading completely clear
// while any event exists.
const globalFloor = 1.0

// EventScore is one event's congestion score at a tick.
type EventScore struct {
	EventID string  `json:"event_id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
}

// Report is the full result of one scoring tick.
type Report struct {
	At        time.Time    `json:"at"`
	Scores    []EventScore `json:"scores"`
	GlobalMax float64      `json:"global_max"`
}

// Publisher delivers tick reports to a downstream consumer.
type Publisher interface {
	Publish(ctx context.Context, report Report) error
}

// Evaluate scores every event at the given instant. GlobalMax is the largest
// per-event score, floored at 1 when the snapshot is non-empty; an empty
// snapshot reports 0.
func Evaluate(events []domain.NormalizedEvent, now time.Time) Report {
	report := Report{At: now, Scores: make([]EventScore, len(events))}
	for i, ev := range events {
		score := domain.Score(ev, now)
		report.Scores[i] = EventScore{EventID: ev.ID, Title: ev.Title, Score: score}
		if score > report.GlobalMax {
			report.GlobalMax = score
		}
	}
	if len(events) > 0 && report.GlobalMax < globalFloor {
		report.GlobalMax = globalFloor
	}
	return report
}

// Ticker owns the recurring scoring loop. At most one loop runs at a time:
// Restart cancels and waits out the previous loop before starting the next,
// so a data reload can never leave two loops recomputing the same events.
type Ticker struct {
	clock    clockwork.Clock
	interval time.Duration
	pub      Publisher
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	latest atomic.Pointer[Report]
}

// New creates a Ticker. Pass a nil publisher to keep reports in-process only
// (they remain available via Latest).
func New(clock clockwork.Clock, interval time.Duration, pub Publisher, logger *slog.Logger, metrics *observability.Metrics) *Ticker {
	return &Ticker{
		clock:    clock,
		interval: interval,
		pub:      pub,
		logger:   logger,
		metrics:  metrics,
	}
}

// Restart stops any running loop and starts a new one over the given snapshot.
// The first evaluation happens immediately; subsequent ones follow the
// configured interval. The snapshot is never mutated.
func (t *Ticker) Restart(ctx context.Context, events []domain.NormalizedEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)
		t.run(runCtx, events)
	}()
}

// Stop cancels the running loop, if any, and waits for it to exit.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Ticker) stopLocked() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	t.done = nil
}

// Latest returns the most recent tick report, if one has been produced.
func (t *Ticker) Latest() (Report, bool) {
	r := t.latest.Load()
	if r == nil {
		return Report{}, false
	}
	return *r, true
}

func (t *Ticker) run(ctx context.Context, events []domain.NormalizedEvent) {
	t.logger.Info("scoring loop started", "events", len(events), "interval", t.interval)

	t.evaluate(ctx, events)

	tick := t.clock.NewTicker(t.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("scoring loop stopping", "reason", ctx.Err())
			return
		case <-tick.Chan():
			t.evaluate(ctx, events)
		}
	}
}

func (t *Ticker) evaluate(ctx context.Context, events []domain.NormalizedEvent) {
	start := time.Now()
	report := Evaluate(events, t.clock.Now())
	t.latest.Store(&report)

	t.metrics.TicksTotal.Inc()
	t.metrics.GlobalMaxScore.Set(report.GlobalMax)
	t.metrics.TickDuration.Observe(time.Since(start).Seconds())

	if t.pub == nil {
		return
	}
	if err := t.pub.Publish(ctx, report); err != nil {
		t.logger.Warn("publish tick report failed", "error", err)
		t.metrics.PublishErrors.Inc()
		return
	}
	t.metrics.ReportsPublished.Inc()
}
