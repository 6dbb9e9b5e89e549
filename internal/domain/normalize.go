package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// hotelVenue labels in-house and synthetic hotel events on the dashboard.
const hotelVenue = "Trilogy Hotel"

// sortKeyPending sinks events without a resolvable start time to the bottom
// of their impact tier.
const sortKeyPending = 999

// windowSeparator joins the two clock strings of a during_event window.
const windowSeparator = " - "

var (
	// longDateLayouts cover the admin form's long-form dates and the scraper's
	// abbreviated ones. Comma-free variants appear in older scraper output.
	longDateLayouts = []string{"January 2, 2006", "Jan 2, 2006", "January 2 2006", "Jan 2 2006"}

	// clockLayouts cover 12-hour clock strings with and without a leading zero.
	clockLayouts = []string{"03:04 PM", "3:04 PM"}
)

// NormalizeScraped converts a scraped venue record into the canonical shape.
// Malformed upstream data never aborts the batch: any failure on the timed
// path degrades the single event to pending with impact 1.
func NormalizeScraped(raw RawScrapedEvent) NormalizedEvent {
	ev := NormalizedEvent{
		ID:           generateID("scraped", raw.Title, raw.Venue, raw.Date, raw.Time),
		Title:        raw.Title,
		Venue:        raw.Venue,
		TimeDisplay:  raw.Time,
		DateDisplay:  raw.Date,
		SortKey:      sortKeyPending,
		NormalizedAt: clock.Now(),
	}

	tl := raw.ImpactTimeline
	if tl == nil || tl.Error {
		ev.Pending = true
		ev.MaxImpact = 1
		if tl != nil {
			ev.MaxImpact = clampImpact(tl.StaticImpact)
		}
		return ev
	}

	start, end, err := parseScrapedWindow(raw.Date, tl.DuringEvent.Window)
	if err != nil {
		ev.Pending = true
		ev.MaxImpact = 1
		return ev
	}

	ev.StartAt = start
	ev.EndAt = end
	ev.MaxImpact = clampImpact(max(tl.ArrivalRush.Impact, tl.DepartureRush.Impact))
	ev.SortKey = sortKeyFor(start)
	return ev
}

// NormalizeInHouse converts a staff-entered record into the canonical shape.
// The title is decorated with the guest count for display, and the impact is
// one point per 25 guests, floored at 1 and capped at 10. A record the admin
// form should have made unrepresentable (unparseable date or time) degrades to
// pending rather than failing the batch.
func NormalizeInHouse(raw RawInHouseEvent) NormalizedEvent {
	ev := NormalizedEvent{
		ID:           generateID("inhouse", raw.Title, hotelVenue, raw.Date, raw.StartTime),
		Title:        fmt.Sprintf("%s (%d guests)", raw.Title, raw.Headcount),
		Venue:        hotelVenue,
		TimeDisplay:  raw.StartTime + windowSeparator + raw.EndTime,
		DateDisplay:  raw.Date,
		MaxImpact:    clampImpact((raw.Headcount + 24) / 25),
		SortKey:      sortKeyPending,
		NormalizedAt: clock.Now(),
	}

	day, err := parseLongDate(raw.Date)
	if err != nil {
		ev.Pending = true
		return ev
	}
	start, err := combineClock(day, raw.StartTime)
	if err != nil {
		ev.Pending = true
		return ev
	}
	end, err := combineClock(day, raw.EndTime)
	if err != nil {
		ev.Pending = true
		return ev
	}
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}

	ev.StartAt = start
	ev.EndAt = end
	ev.SortKey = sortKeyFor(start)
	return ev
}

// NewSynthetic builds a derived hotel check-in/check-out event. Synthetic
// events hold their full impact through the active window because guest
// traffic is continuous rather than a single rush.
func NewSynthetic(title string, start, end time.Time, impact int) NormalizedEvent {
	timeDisplay := formatClock(start) + windowSeparator + formatClock(end)
	dateDisplay := start.Format("January 2, 2006")
	return NormalizedEvent{
		ID:           generateID("hotel", title, hotelVenue, dateDisplay, timeDisplay),
		Title:        title,
		Venue:        hotelVenue,
		TimeDisplay:  timeDisplay,
		DateDisplay:  dateDisplay,
		StartAt:      start,
		EndAt:        end,
		MaxImpact:    clampImpact(impact),
		Synthetic:    true,
		SortKey:      sortKeyFor(start),
		NormalizedAt: clock.Now(),
	}
}

// parseScrapedWindow resolves a scraped date string and a during_event window
// into absolute start/end timestamps, rolling the end past midnight when the
// window wraps.
func parseScrapedWindow(dateStr, window string) (time.Time, time.Time, error) {
	day, err := parseLongDate(effectiveDate(dateStr))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	parts := strings.Split(window, windowSeparator)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("malformed window %q", window)
	}

	start, err := combineClock(day, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := combineClock(day, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// effectiveDate strips the scraper's "Dates vary between A - B" phrasing,
// keeping the text after "between" and before the following "-".
func effectiveDate(dateStr string) string {
	if !strings.Contains(dateStr, "vary between") {
		return dateStr
	}
	_, after, _ := strings.Cut(dateStr, "between")
	first, _, _ := strings.Cut(after, "-")
	return strings.TrimSpace(first)
}

// parseLongDate parses a human-readable date against the known layouts.
func parseLongDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range longDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// combineClock parses a 12-hour clock string and anchors it to the given day.
func combineClock(day time.Time, clockStr string) (time.Time, error) {
	clockStr = strings.ToUpper(strings.TrimSpace(clockStr))
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, clockStr)
		if err != nil {
			continue
		}
		return time.Date(day.Year(), day.Month(), day.Day(),
			t.Hour(), t.Minute(), 0, 0, day.Location()), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized clock time %q", clockStr)
}

func formatClock(t time.Time) string {
	return t.Format("03:04 PM")
}

// sortKeyFor maps a start time to its fractional hour-of-day.
func sortKeyFor(start time.Time) float64 {
	return float64(start.Hour()) + float64(start.Minute())/60
}

// clampImpact bounds an impact rating to the nominal [1,10] scale.
func clampImpact(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

// generateID produces a deterministic ID from the event's raw key fields.
// Rebuilding the list on refresh reproduces the same IDs, keeping per-event
// score streams stable for downstream consumers.
func generateID(kind, title, venue, date, timeStr string) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s", kind, title, venue, date, timeStr)
	hash := sha256.Sum256([]byte(input))
	return kind + "-" + hex.EncodeToString(hash[:8])
}
