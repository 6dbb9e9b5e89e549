package domain

import "time"

// RushWindow is one phase of the scraper's precomputed impact timeline.
type RushWindow struct {
	Window string `json:"window,omitempty"` // e.g. "07:00 PM - 09:30 PM"
	Impact int    `json:"impact,omitempty"`
}

// ImpactTimeline is the scraper's traffic estimate for one event. When the
// scraper could not determine a start time it sets Error and StaticImpact
// instead of the three windows.
type ImpactTimeline struct {
	Error         bool       `json:"error,omitempty"`
	StaticImpact  int        `json:"static_impact,omitempty"`
	ArrivalRush   RushWindow `json:"arrival_rush"`
	DuringEvent   RushWindow `json:"during_event"`
	DepartureRush RushWindow `json:"departure_rush"`
}

// RawScrapedEvent is one record from the venue scraper's events.json.
// Immutable once fetched; all fields are display strings from the source page.
type RawScrapedEvent struct {
	Title          string          `json:"title"`
	Date           string          `json:"date"` // may read "Dates vary between X - Y"
	Time           string          `json:"time"`
	Venue          string          `json:"venue"`
	ImpactTimeline *ImpactTimeline `json:"impact_timeline"`
	Source         string          `json:"source,omitempty"` // "VBC" or "Huntsville.org"
}

// RawInHouseEvent is one staff-entered record from hotel_events.json.
// The admin form guarantees the formats: long-form date ("January 2, 2006")
// and 12-hour clock times ("03:04 PM").
type RawInHouseEvent struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Headcount int    `json:"headcount"`
}

// DayTraffic holds expected hotel check-in/check-out volume for one date.
type DayTraffic struct {
	Arrivals   int `json:"arrivals"`
	Departures int `json:"departures"`
}

// HotelTraffic maps ISO dates ("2006-01-02") to that day's expected volume.
type HotelTraffic map[string]DayTraffic

// NormalizedEvent is the canonical timed-impact record every raw shape resolves
// into. Downstream logic (scoring, scheduling) never branches on the source
// kind again; Synthetic is the one carrier of the hotel-traffic scoring
// exception.
//
// Invariants: EndAt >= StartAt whenever both are set (a same-day window ending
// before it starts is advanced past midnight); MaxImpact is clamped to [1,10];
// a Pending event carries zero StartAt/EndAt so a half-parsed timestamp can
// never leak into scoring.
type NormalizedEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Venue       string    `json:"venue"`
	TimeDisplay string    `json:"time_display"`
	DateDisplay string    `json:"date_display"`
	StartAt     time.Time `json:"start_at,omitzero"`
	EndAt       time.Time `json:"end_at,omitzero"`
	MaxImpact   int       `json:"max_impact"`
	Pending     bool      `json:"pending,omitempty"`
	Synthetic   bool      `json:"synthetic,omitempty"`

	// SortKey is the fractional start hour-of-day (0-24) used as the secondary
	// ordering key; pending events carry 999 so they sink to the bottom.
	SortKey float64 `json:"sort_key"`

	NormalizedAt time.Time `json:"normalized_at"`
}
