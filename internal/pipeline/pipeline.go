// Package pipeline orchestrates one data refresh cycle: fetch the three raw
// collections, normalize every record, partition and sort the result, publish
// the new snapshot, and hand today's events to the scoring loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/valetops/traffic-engine/internal/domain"
	"github.com/valetops/traffic-engine/internal/observability"
	"github.com/valetops/traffic-engine/internal/schedule"
)

// Provider supplies the three raw collections, already parsed. A missing or
// malformed optional collection (in-house events, hotel traffic) must degrade
// to empty on the provider side or surface an error here, where it is treated
// as empty; only the scraped events collection is mandatory.
type Provider interface {
	ScrapedEvents(ctx context.Context) ([]domain.RawScrapedEvent, error)
	InHouseEvents(ctx context.Context) ([]domain.RawInHouseEvent, error)
	HotelTraffic(ctx context.Context) (domain.HotelTraffic, error)
}

// Scorer receives today's snapshot after each refresh. Restart must replace
// any loop started by a previous refresh.
type Scorer interface {
	Restart(ctx context.Context, events []domain.NormalizedEvent)
}

// Snapshot is the immutable result of one refresh cycle. It is rebuilt from
// scratch each cycle and swapped in atomically; nothing mutates it afterwards.
type Snapshot struct {
	Today       []domain.NormalizedEvent `json:"today"`
	Future      []domain.NormalizedEvent `json:"future"`
	RefreshedAt time.Time                `json:"refreshed_at"`
}

// Pipeline drives the refresh cycle.
type Pipeline struct {
	provider Provider
	scorer   Scorer
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	snapshot atomic.Pointer[Snapshot]
	ready    atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(provider Provider, scorer Scorer, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		provider: provider,
		scorer:   scorer,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once at least one refresh has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no data refresh has completed yet")
	}
	return nil
}

// Snapshot returns the result of the most recent successful refresh.
func (p *Pipeline) Snapshot() (Snapshot, bool) {
	s := p.snapshot.Load()
	if s == nil {
		return Snapshot{}, false
	}
	return *s, true
}

// Refresh runs one full cycle. A failure fetching the mandatory scraped
// collection is fatal to the cycle and leaves the prior snapshot (and the
// running scoring loop) intact; optional collections degrade to empty.
// Per-record normalization failures never abort the batch.
func (p *Pipeline) Refresh(ctx context.Context) error {
	scraped, err := p.provider.ScrapedEvents(ctx)
	if err != nil {
		p.metrics.RefreshErrors.Inc()
		return fmt.Errorf("fetch scraped events: %w", err)
	}

	inHouse, err := p.provider.InHouseEvents(ctx)
	if err != nil {
		p.logger.Warn("in-house events unavailable, continuing with none", "error", err)
		inHouse = nil
	}
	traffic, err := p.provider.HotelTraffic(ctx)
	if err != nil {
		p.logger.Warn("hotel traffic unavailable, continuing with none", "error", err)
		traffic = nil
	}

	now := p.clock.Now()

	events := make([]domain.NormalizedEvent, 0, len(scraped)+len(inHouse))
	for _, raw := range scraped {
		ev := domain.NormalizeScraped(raw)
		p.metrics.RecordsNormalized.Inc()
		if ev.Pending {
			p.metrics.RecordsDegraded.Inc()
			p.logger.Warn("scraped event has no usable timing",
				"title", raw.Title, "date", raw.Date, "time", raw.Time)
		}
		events = append(events, ev)
	}
	for _, raw := range inHouse {
		ev := domain.NormalizeInHouse(raw)
		p.metrics.RecordsNormalized.Inc()
		if ev.Pending {
			p.metrics.RecordsDegraded.Inc()
			p.logger.Warn("in-house event has no usable timing",
				"title", raw.Title, "date", raw.Date)
		}
		events = append(events, ev)
	}

	buckets := schedule.Partition(events, now)
	buckets.Today = append(buckets.Today, schedule.Synthesize(traffic, now)...)
	schedule.SortToday(buckets.Today)
	schedule.SortFuture(buckets.Future)

	snap := &Snapshot{Today: buckets.Today, Future: buckets.Future, RefreshedAt: now}
	p.snapshot.Store(snap)
	p.ready.Store(true)

	p.metrics.RefreshesTotal.Inc()
	p.metrics.EventsToday.Set(float64(len(buckets.Today)))
	p.metrics.EventsFuture.Set(float64(len(buckets.Future)))

	p.scorer.Restart(ctx, buckets.Today)

	p.logger.Info("refresh complete",
		"scraped", len(scraped),
		"in_house", len(inHouse),
		"today", len(buckets.Today),
		"future", len(buckets.Future),
	)
	return nil
}

// Run refreshes immediately, then on the given interval until the context is
// cancelled. Failed cycles retry with exponential backoff (5s doubling to a
// 1m cap) instead of waiting out the full interval.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	p.logger.Info("pipeline started", "refresh_interval", interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	const (
		initialBackoff = 5 * time.Second
		maxBackoff     = time.Minute
	)

	backoff := initialBackoff
	var wait time.Duration // zero: refresh immediately on start

	for {
		if wait > 0 && !p.sleep(ctx, wait) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}

		if err := p.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("refresh failed", "error", err)
			wait = backoff
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		backoff = initialBackoff
		wait = interval
	}
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
