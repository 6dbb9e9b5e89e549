// Package schedule partitions normalized events into dashboard buckets,
// synthesizes hotel check-in/check-out traffic, and applies the canonical
// ordering rules.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/valetops/traffic-engine/internal/domain"
)

// Synthetic hotel traffic windows: check-outs run through the morning,
// check-ins through the late afternoon.
const (
	checkOutStartHour  = 6
	checkOutEndHour    = 13
	checkInStartHour   = 15
	checkInStartMinute = 0
	checkInEndHour     = 20
	checkInEndMinute   = 30
	vehiclesPerImpact  = 10
	checkOutCutoffHour = 14
)

// Buckets holds the partitioned event lists for one refresh cycle.
type Buckets struct {
	Today  []domain.NormalizedEvent
	Future []domain.NormalizedEvent
}

// Partition splits events into today and future buckets relative to now.
// Today holds events starting on the current calendar day, plus pending events
// whose display date references the current year (they sort last within their
// impact tier). Future holds events starting strictly after today. Events with
// no usable date that don't reference the current year are dropped.
func Partition(events []domain.NormalizedEvent, now time.Time) Buckets {
	var b Buckets
	year := strconv.Itoa(now.Year())
	midnight := startOfDay(now)

	for _, ev := range events {
		switch {
		case ev.Pending:
			if strings.Contains(ev.DateDisplay, year) {
				b.Today = append(b.Today, ev)
			}
		case sameDay(ev.StartAt, now):
			b.Today = append(b.Today, ev)
		case ev.StartAt.After(midnight):
			b.Future = append(b.Future, ev)
		}
	}
	return b
}

// Synthesize derives hotel check-in/check-out events from today's traffic
// record. The check-out event is suppressed once local time reaches 14:00:
// checkout traffic is no longer forward-looking past that point. This is a
// business rule of the schedule, not of the simulation math.
func Synthesize(traffic domain.HotelTraffic, now time.Time) []domain.NormalizedEvent {
	day, ok := traffic[now.Format("2006-01-02")]
	if !ok {
		return nil
	}

	var out []domain.NormalizedEvent
	if day.Departures > 0 && now.Hour() < checkOutCutoffHour {
		out = append(out, domain.NewSynthetic(
			fmt.Sprintf("Hotel Check-outs (%d cars)", day.Departures),
			at(now, checkOutStartHour, 0),
			at(now, checkOutEndHour, 0),
			impactFromVehicles(day.Departures),
		))
	}
	if day.Arrivals > 0 {
		out = append(out, domain.NewSynthetic(
			fmt.Sprintf("Hotel Check-ins (%d cars)", day.Arrivals),
			at(now, checkInStartHour, checkInStartMinute),
			at(now, checkInEndHour, checkInEndMinute),
			impactFromVehicles(day.Arrivals),
		))
	}
	return out
}

// SortToday orders the today bucket: highest impact first, earlier starts
// breaking ties, pending events (sort key 999) last within their tier.
// The sort is stable so equal events keep their arrival order.
func SortToday(events []domain.NormalizedEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].MaxImpact != events[j].MaxImpact {
			return events[i].MaxImpact > events[j].MaxImpact
		}
		return events[i].SortKey < events[j].SortKey
	})
}

// SortFuture orders the future bucket chronologically by start time.
func SortFuture(events []domain.NormalizedEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartAt.Before(events[j].StartAt)
	})
}

// impactFromVehicles rates hotel traffic at one impact point per ten vehicles,
// capped at the top of the scale.
func impactFromVehicles(n int) int {
	impact := (n + vehiclesPerImpact - 1) / vehiclesPerImpact
	if impact > 10 {
		return 10
	}
	return impact
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}
