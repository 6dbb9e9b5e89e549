package domain

import (
	"math"
	"time"
)

const (
	// ArrivalWindow is the lead-in period before an event's start during which
	// incoming traffic is simulated.
	ArrivalWindow = 90 * time.Minute

	// DepartureWindow is the period after an event's end during which outgoing
	// traffic is simulated.
	DepartureWindow = 60 * time.Minute

	// arrivalFloor keeps the indicator from reading completely empty while the
	// arrival window is open.
	arrivalFloor = 0.5
)

// Score computes the event's congestion contribution at the given instant,
// on the [0,10] scale (bounded by MaxImpact).
//
// The curve has three phases around [StartAt, EndAt]: cubic growth through the
// arrival window (congestion builds slowly, then surges just before start),
// zero while the event is underway, and quartic decay through the departure
// window (a fast initial exodus that tapers quickly). Synthetic hotel events
// hold their full MaxImpact through the active window instead of dropping to
// zero.
//
// Boundary membership: start-90m belongs to the arrival window, StartAt and
// EndAt to the active window, end+60m to the departure window. Pending events
// always score zero.
func Score(e NormalizedEvent, now time.Time) float64 {
	if e.Pending || e.StartAt.IsZero() || e.EndAt.IsZero() {
		return 0
	}

	arrivalOpen := e.StartAt.Add(-ArrivalWindow)

	switch {
	case !now.Before(arrivalOpen) && now.Before(e.StartAt):
		x := float64(now.Sub(arrivalOpen)) / float64(ArrivalWindow)
		return math.Max(arrivalFloor, float64(e.MaxImpact)*math.Pow(x, 3))

	case !now.Before(e.StartAt) && !now.After(e.EndAt):
		if e.Synthetic {
			return float64(e.MaxImpact)
		}
		return 0

	case now.After(e.EndAt) && !now.After(e.EndAt.Add(DepartureWindow)):
		y := float64(now.Sub(e.EndAt)) / float64(DepartureWindow)
		return math.Max(0, float64(e.MaxImpact)*math.Pow(1-y, 4))
	}

	return 0
}
