package ticker_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valetops/traffic-engine/internal/domain"
	"github.com/valetops/traffic-engine/internal/observability"
	"github.com/valetops/traffic-engine/internal/ticker"
)

// --- mocks ---

type mockPublisher struct {
	mu      sync.Mutex
	reports chan ticker.Report
	err     error
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{reports: make(chan ticker.Report, 16)}
}

func (m *mockPublisher) Publish(_ context.Context, report ticker.Report) error {
	m.mu.Lock()
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.reports <- report
	return nil
}

func (m *mockPublisher) setErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *mockPublisher) next(t *testing.T) ticker.Report {
	t.Helper()
	select {
	case r := <-m.reports:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick report")
		return ticker.Report{}
	}
}

// --- tests ---

var tickStart = time.Date(2026, time.April, 26, 17, 30, 0, 0, time.UTC)

func activeEvent(id string, impact int) domain.NormalizedEvent {
	// Window chosen so tickStart sits at the opening edge of the arrival phase.
	start := tickStart.Add(domain.ArrivalWindow)
	return domain.NormalizedEvent{
		ID:        id,
		Title:     id,
		StartAt:   start,
		EndAt:     start.Add(2 * time.Hour),
		MaxImpact: impact,
	}
}

func TestEvaluate(t *testing.T) {
	t.Run("scores all events and takes the max", func(t *testing.T) {
		synthetic := domain.NewSynthetic("Hotel Check-ins (80 cars)",
			tickStart.Add(-time.Hour), tickStart.Add(time.Hour), 8)
		events := []domain.NormalizedEvent{activeEvent("evt-a", 4), synthetic}

		report := ticker.Evaluate(events, tickStart)

		require.Len(t, report.Scores, 2)
		expected := []ticker.EventScore{
			{EventID: "evt-a", Title: "evt-a", Score: 0.5},
			{EventID: synthetic.ID, Title: "Hotel Check-ins (80 cars)", Score: 8},
		}
		assert.Empty(t, cmp.Diff(expected, report.Scores))
		assert.Equal(t, 8.0, report.GlobalMax)
		assert.Equal(t, tickStart, report.At)
	})

	t.Run("global max floored at 1 while events exist", func(t *testing.T) {
		pending := domain.NormalizedEvent{ID: "evt-p", Pending: true, MaxImpact: 9, SortKey: 999}

		report := ticker.Evaluate([]domain.NormalizedEvent{pending}, tickStart)

		assert.Equal(t, 0.0, report.Scores[0].Score)
		assert.Equal(t, 1.0, report.GlobalMax)
	})

	t.Run("empty snapshot reports zero", func(t *testing.T) {
		report := ticker.Evaluate(nil, tickStart)
		assert.Empty(t, report.Scores)
		assert.Equal(t, 0.0, report.GlobalMax)
	})
}

func TestTicker_PublishesEachInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(tickStart)
	pub := newMockPublisher()
	tk := ticker.New(clock, 3*time.Second, pub, slog.Default(), observability.NewMetricsForTesting())

	tk.Restart(context.Background(), []domain.NormalizedEvent{activeEvent("evt-a", 8)})
	defer tk.Stop()

	first := pub.next(t) // immediate evaluation on start
	assert.Equal(t, tickStart, first.At)
	assert.Equal(t, 1.0, first.GlobalMax) // arrival floor 0.5, aggregate floor 1

	clock.BlockUntil(1)
	clock.Advance(3 * time.Second)
	second := pub.next(t)
	assert.Equal(t, tickStart.Add(3*time.Second), second.At)

	latest, ok := tk.Latest()
	require.True(t, ok)
	assert.Equal(t, second.At, latest.At)
}

func TestTicker_RestartDoesNotDuplicateTicks(t *testing.T) {
	clock := clockwork.NewFakeClockAt(tickStart)
	pub := newMockPublisher()
	tk := ticker.New(clock, 3*time.Second, pub, slog.Default(), observability.NewMetricsForTesting())

	tk.Restart(context.Background(), []domain.NormalizedEvent{activeEvent("evt-a", 8)})
	pub.next(t) // initial evaluation of the first loop

	// Reload: the old loop must be gone before the new one starts.
	tk.Restart(context.Background(), []domain.NormalizedEvent{activeEvent("evt-b", 5)})
	defer tk.Stop()

	initial := pub.next(t)
	require.Len(t, initial.Scores, 1)
	assert.Equal(t, "evt-b", initial.Scores[0].EventID)

	clock.BlockUntil(1)
	clock.Advance(3 * time.Second)

	next := pub.next(t)
	require.Len(t, next.Scores, 1)
	assert.Equal(t, "evt-b", next.Scores[0].EventID)

	// Exactly one report per interval: nothing else queued.
	select {
	case extra := <-pub.reports:
		t.Fatalf("unexpected extra report at %s", extra.At)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTicker_StopTerminatesLoop(t *testing.T) {
	clock := clockwork.NewFakeClockAt(tickStart)
	pub := newMockPublisher()
	tk := ticker.New(clock, 3*time.Second, pub, slog.Default(), observability.NewMetricsForTesting())

	tk.Restart(context.Background(), []domain.NormalizedEvent{activeEvent("evt-a", 8)})
	pub.next(t)
	tk.Stop()

	// A second Stop is a no-op.
	tk.Stop()

	clock.Advance(time.Minute)
	select {
	case extra := <-pub.reports:
		t.Fatalf("report after Stop at %s", extra.At)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTicker_PublishErrorDoesNotStopLoop(t *testing.T) {
	clock := clockwork.NewFakeClockAt(tickStart)
	pub := newMockPublisher()
	pub.setErr(errors.New("broker unavailable"))
	tk := ticker.New(clock, 3*time.Second, pub, slog.Default(), observability.NewMetricsForTesting())

	tk.Restart(context.Background(), []domain.NormalizedEvent{activeEvent("evt-a", 8)})
	defer tk.Stop()

	clock.BlockUntil(1)
	clock.Advance(3 * time.Second)

	// Latest is stored even when publishing fails; wait for the errored tick
	// to complete before clearing the error.
	require.Eventually(t, func() bool {
		r, ok := tk.Latest()
		return ok && r.At.Equal(tickStart.Add(3*time.Second))
	}, 2*time.Second, 10*time.Millisecond)

	// Loop still alive: clearing the error lets reports flow again.
	pub.setErr(nil)
	clock.BlockUntil(1)
	clock.Advance(3 * time.Second)
	report := pub.next(t)
	assert.Equal(t, tickStart.Add(6*time.Second), report.At)
}

func TestTicker_NilPublisherKeepsLatest(t *testing.T) {
	clock := clockwork.NewFakeClockAt(tickStart)
	tk := ticker.New(clock, 3*time.Second, nil, slog.Default(), observability.NewMetricsForTesting())

	_, ok := tk.Latest()
	assert.False(t, ok)

	tk.Restart(context.Background(), []domain.NormalizedEvent{activeEvent("evt-a", 8)})
	defer tk.Stop()

	require.Eventually(t, func() bool {
		_, ok := tk.Latest()
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}
