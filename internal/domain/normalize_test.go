package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timeline(window string, arrival, departure int) *ImpactTimeline {
	return &ImpactTimeline{
		ArrivalRush:   RushWindow{Impact: arrival},
		DuringEvent:   RushWindow{Window: window},
		DepartureRush: RushWindow{Impact: departure},
	}
}

func TestNormalizeScraped(t *testing.T) {
	frozen := time.Date(2026, time.April, 26, 8, 0, 0, 0, time.Local)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	t.Run("timed event", func(t *testing.T) {
		raw := RawScrapedEvent{
			Title:          "HAVOC vs Macon",
			Date:           "Apr 26, 2026",
			Time:           "7:00 PM",
			Venue:          "Propst Arena",
			ImpactTimeline: timeline("07:00 PM - 09:30 PM", 8, 10),
		}

		ev := NormalizeScraped(raw)

		assert.False(t, ev.Pending)
		assert.Equal(t, "HAVOC vs Macon", ev.Title)
		assert.Equal(t, "Propst Arena", ev.Venue)
		assert.Equal(t, "7:00 PM", ev.TimeDisplay)
		assert.Equal(t, "Apr 26, 2026", ev.DateDisplay)
		assert.Equal(t, time.Date(2026, time.April, 26, 19, 0, 0, 0, time.Local), ev.StartAt)
		assert.Equal(t, time.Date(2026, time.April, 26, 21, 30, 0, 0, time.Local), ev.EndAt)
		assert.Equal(t, 10, ev.MaxImpact)
		assert.Equal(t, 19.0, ev.SortKey)
		assert.Equal(t, frozen, ev.NormalizedAt)
		assert.True(t, len(ev.ID) > len("scraped-"))
	})

	t.Run("dates vary phrasing uses first date", func(t *testing.T) {
		raw := RawScrapedEvent{
			Title:          "Panoply Arts Festival",
			Date:           "Dates vary between Apr 24, 2026 - Apr 26, 2026",
			Venue:          "Big Spring Park",
			ImpactTimeline: timeline("10:00 AM - 06:00 PM", 8, 10),
		}

		ev := NormalizeScraped(raw)

		require.False(t, ev.Pending)
		assert.Equal(t, time.Date(2026, time.April, 24, 10, 0, 0, 0, time.Local), ev.StartAt)
		assert.Equal(t, time.Date(2026, time.April, 24, 18, 0, 0, 0, time.Local), ev.EndAt)
	})

	t.Run("midnight rollover advances end", func(t *testing.T) {
		raw := RawScrapedEvent{
			Title:          "New Year Gala",
			Date:           "December 31, 2026",
			Venue:          "Mark C. Smith Concert Hall",
			ImpactTimeline: timeline("10:00 PM - 01:00 AM", 7, 7),
		}

		ev := NormalizeScraped(raw)

		require.False(t, ev.Pending)
		assert.Equal(t, time.Date(2026, time.December, 31, 22, 0, 0, 0, time.Local), ev.StartAt)
		assert.Equal(t, time.Date(2027, time.January, 1, 1, 0, 0, 0, time.Local), ev.EndAt)
		assert.True(t, ev.EndAt.After(ev.StartAt))
	})

	t.Run("error flag degrades to pending with static impact", func(t *testing.T) {
		raw := RawScrapedEvent{
			Title: "Comedy Night",
			Date:  "May 2, 2026",
			Venue: "Mars Music Hall",
			ImpactTimeline: &ImpactTimeline{
				Error:        true,
				StaticImpact: 6,
				DuringEvent:  RushWindow{Window: "07:00 PM - 10:00 PM"},
			},
		}

		ev := NormalizeScraped(raw)

		assert.True(t, ev.Pending)
		assert.Equal(t, 6, ev.MaxImpact)
		assert.True(t, ev.StartAt.IsZero())
		assert.True(t, ev.EndAt.IsZero())
		assert.Equal(t, float64(sortKeyPending), ev.SortKey)
	})

	t.Run("missing timeline defaults impact to 1", func(t *testing.T) {
		ev := NormalizeScraped(RawScrapedEvent{Title: "Mystery Event", Date: "May 2, 2026"})

		assert.True(t, ev.Pending)
		assert.Equal(t, 1, ev.MaxImpact)
	})

	t.Run("malformed window degrades to pending", func(t *testing.T) {
		tests := []struct {
			name string
			date string
			win  string
		}{
			{"no separator", "May 2, 2026", "07:00 PM to 10:00 PM"},
			{"bad clock", "May 2, 2026", "25:00 XX - 10:00 PM"},
			{"unparseable date", "sometime soon", "07:00 PM - 10:00 PM"},
			{"empty window", "May 2, 2026", ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				raw := RawScrapedEvent{
					Title:          "Degraded",
					Date:           tt.date,
					ImpactTimeline: timeline(tt.win, 4, 4),
				}

				ev := NormalizeScraped(raw)

				assert.True(t, ev.Pending)
				assert.Equal(t, 1, ev.MaxImpact)
				assert.True(t, ev.StartAt.IsZero())
			})
		}
	})

	t.Run("impact clamped to scale", func(t *testing.T) {
		raw := RawScrapedEvent{
			Title:          "Oversold",
			Date:           "May 2, 2026",
			ImpactTimeline: timeline("07:00 PM - 10:00 PM", 3, 14),
		}

		ev := NormalizeScraped(raw)

		require.False(t, ev.Pending)
		assert.Equal(t, 10, ev.MaxImpact)
	})

	t.Run("deterministic ID", func(t *testing.T) {
		raw := RawScrapedEvent{
			Title:          "HAVOC vs Macon",
			Date:           "Apr 26, 2026",
			Time:           "7:00 PM",
			Venue:          "Propst Arena",
			ImpactTimeline: timeline("07:00 PM - 09:30 PM", 8, 10),
		}

		first := NormalizeScraped(raw)
		second := NormalizeScraped(raw)

		assert.Equal(t, first.ID, second.ID)
	})
}

func TestNormalizeInHouse(t *testing.T) {
	t.Run("combines date and times", func(t *testing.T) {
		raw := RawInHouseEvent{
			Title:     "Rocket City Gala",
			Date:      "April 26, 2026",
			StartTime: "06:00 PM",
			EndTime:   "10:00 PM",
			Headcount: 120,
		}

		ev := NormalizeInHouse(raw)

		assert.False(t, ev.Pending)
		assert.Equal(t, "Rocket City Gala (120 guests)", ev.Title)
		assert.Equal(t, "Trilogy Hotel", ev.Venue)
		assert.Equal(t, time.Date(2026, time.April, 26, 18, 0, 0, 0, time.Local), ev.StartAt)
		assert.Equal(t, time.Date(2026, time.April, 26, 22, 0, 0, 0, time.Local), ev.EndAt)
		assert.Equal(t, 5, ev.MaxImpact) // ceil(120/25)
		assert.Equal(t, 18.0, ev.SortKey)
	})

	t.Run("midnight rollover", func(t *testing.T) {
		raw := RawInHouseEvent{
			Title:     "Late Reception",
			Date:      "April 26, 2026",
			StartTime: "11:00 PM",
			EndTime:   "01:00 AM",
			Headcount: 50,
		}

		ev := NormalizeInHouse(raw)

		require.False(t, ev.Pending)
		assert.Equal(t, time.Date(2026, time.April, 26, 23, 0, 0, 0, time.Local), ev.StartAt)
		assert.Equal(t, time.Date(2026, time.April, 27, 1, 0, 0, 0, time.Local), ev.EndAt)
	})

	t.Run("headcount to impact", func(t *testing.T) {
		tests := []struct {
			headcount int
			expected  int
		}{
			{0, 1},   // floor applies even at zero guests
			{1, 1},
			{25, 1},
			{26, 2},
			{100, 4},
			{250, 10},
			{300, 10}, // ceiling clamps
		}
		for _, tt := range tests {
			ev := NormalizeInHouse(RawInHouseEvent{
				Title:     "Sized",
				Date:      "April 26, 2026",
				StartTime: "06:00 PM",
				EndTime:   "08:00 PM",
				Headcount: tt.headcount,
			})
			assert.Equal(t, tt.expected, ev.MaxImpact, "headcount %d", tt.headcount)
		}
	})

	t.Run("malformed date degrades to pending", func(t *testing.T) {
		ev := NormalizeInHouse(RawInHouseEvent{
			Title:     "Broken",
			Date:      "26/04/2026",
			StartTime: "06:00 PM",
			EndTime:   "08:00 PM",
			Headcount: 40,
		})

		assert.True(t, ev.Pending)
		assert.True(t, ev.StartAt.IsZero())
		assert.Equal(t, float64(sortKeyPending), ev.SortKey)
	})
}

func TestNewSynthetic(t *testing.T) {
	start := time.Date(2026, time.April, 26, 6, 0, 0, 0, time.Local)
	end := time.Date(2026, time.April, 26, 13, 0, 0, 0, time.Local)

	ev := NewSynthetic("Hotel Check-outs (42 cars)", start, end, 5)

	assert.True(t, ev.Synthetic)
	assert.False(t, ev.Pending)
	assert.Equal(t, "Trilogy Hotel", ev.Venue)
	assert.Equal(t, "06:00 AM - 01:00 PM", ev.TimeDisplay)
	assert.Equal(t, "April 26, 2026", ev.DateDisplay)
	assert.Equal(t, start, ev.StartAt)
	assert.Equal(t, end, ev.EndAt)
	assert.Equal(t, 5, ev.MaxImpact)
	assert.Equal(t, 6.0, ev.SortKey)
	assert.True(t, len(ev.ID) > len("hotel-"))
}

func TestEffectiveDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain date", "Apr 26, 2026", "Apr 26, 2026"},
		{"vary phrasing", "Dates vary between Apr 24, 2026 - Apr 26, 2026", "Apr 24, 2026"},
		{"vary without year", "Dates vary between Apr 24 - Apr 26", "Apr 24"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, effectiveDate(tt.input))
		})
	}
}

func TestParseLongDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"long form", "April 26, 2026", false},
		{"abbreviated", "Apr 26, 2026", false},
		{"no comma", "Apr 26 2026", false},
		{"empty", "", true},
		{"iso", "2026-04-26", true},
		{"garbage", "Unknown Date", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parseLongDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, time.Date(2026, time.April, 26, 0, 0, 0, 0, time.Local), parsed)
		})
	}
}

func TestCombineClock(t *testing.T) {
	day := time.Date(2026, time.April, 26, 0, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		input   string
		hour    int
		minute  int
		wantErr bool
	}{
		{"leading zero", "07:30 PM", 19, 30, false},
		{"no leading zero", "7:30 PM", 19, 30, false},
		{"noon", "12:00 PM", 12, 0, false},
		{"midnight", "12:00 AM", 0, 0, false},
		{"lowercase meridiem", "07:30 pm", 19, 30, false},
		{"24 hour", "19:30", 0, 0, true},
		{"empty", "", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := combineClock(day, tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, time.Date(2026, time.April, 26, tt.hour, tt.minute, 0, 0, time.Local), got)
		})
	}
}
