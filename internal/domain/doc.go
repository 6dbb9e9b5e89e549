// Package domain models the event records behind the ValetOps congestion
// dashboard and the simulation math that turns them into live traffic scores.
//
// # Data Sources
//
// Three raw collections feed the engine:
//
//   - Scraped venue events: produced by the upstream venue scraper, which walks
//     the Von Braun Center and Huntsville.org event calendars and writes
//     events.json. Each record carries display strings plus a precomputed
//     impact_timeline with arrival/during/departure windows.
//   - In-house events: entered by hotel staff through the admin form and
//     appended to hotel_events.json. Dates are long-form ("January 2, 2006"),
//     times are 12-hour clock strings ("03:04 PM").
//   - Hotel traffic: a date-keyed map ("2006-01-02") of expected check-in
//     arrivals and check-out departures, maintained through the admin form.
//     The scheduler synthesizes check-in/check-out events from it; there is no
//     raw event record for those.
//
// # Upstream Data Conventions
//
// Scraped date strings are usually "Jan 2, 2006" but multi-day listings read
// "Dates vary between Jan 2 - Jan 5, 2026"; the effective date is the text
// after "between" and before the following "-". The during_event window is two
// clock strings joined by " - ", e.g. "07:00 PM - 09:30 PM". A window whose end
// reads earlier than its start rolls past midnight.
//
// An impact_timeline flagged with error (the scraper's "Time TBA" path), or a
// record missing the timeline entirely, yields a pending event: no timing is
// trusted, the impact falls back to static_impact (default 1), and the event
// never produces a live score.
//
// # Impact Scale
//
// MaxImpact is an integer 1-10 rating of peak traffic disruption. Scraped
// events take the larger of the arrival and departure rush impacts. In-house
// events earn one point per 25 guests, floored at 1 and capped at 10.
// Synthetic hotel events earn one point per 10 vehicles, capped at 10.
//
// # Simulation Model
//
// Score computes a piecewise congestion curve around an event's window:
// cubic growth through the 90-minute arrival window (floored at 0.5 so the
// indicator never reads empty), zero while the event is underway (guests are
// inside, lanes are clear), and quartic decay through the 60-minute departure
// window. Synthetic hotel events are the exception during the active window:
// check-in/check-out traffic flows continuously, so they hold their full
// MaxImpact rather than dropping to zero.
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of kind|title|venue|date|time.
// Rebuilding the event list on a data refresh reproduces the same IDs, so
// per-event score streams stay stable across refresh cycles. See [generateID].
package domain
