// Command genmock generates mock feed fixtures for local development and test
// suites: the three raw JSON files a feed server would publish, plus the
// normalized schedule the pipeline would produce from them. It runs the actual
// normalization code so the expected output matches real behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/valetops/traffic-engine/internal/domain"
	"github.com/valetops/traffic-engine/internal/schedule"
)

// Reference day for the fixtures. The frozen clock sits mid-morning so hotel
// check-outs are still synthesized.
var frozenNow = time.Date(2026, time.April, 26, 9, 0, 0, 0, time.Local)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for fixture files")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	// Fix the clock for reproducible IDs and timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(frozenNow))
	defer domain.SetClock(nil)

	scraped := mockScrapedEvents()
	inHouse := mockInHouseEvents()
	traffic := mockHotelTraffic()

	files := []struct {
		name string
		data any
	}{
		{"events.json", scraped},
		{"hotel_events.json", inHouse},
		{"hotel_traffic.json", traffic},
	}
	for _, f := range files {
		path := filepath.Join(*outDir, f.name)
		if err := writeJSON(path, f.data); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
		log.Printf("wrote %s", path)
	}

	normalized := normalizeAll(scraped, inHouse, traffic)
	expectedPath := filepath.Join(*outDir, "expected_schedule.json")
	if err := writeJSON(expectedPath, normalized); err != nil {
		return fmt.Errorf("writing expected schedule: %w", err)
	}
	log.Printf("wrote %s", expectedPath)

	log.Printf("today: %d events, future: %d events", len(normalized.Today), len(normalized.Future))
	return nil
}

func mockScrapedEvents() []domain.RawScrapedEvent {
	return []domain.RawScrapedEvent{
		{
			Title: "Symphony Under the Stars",
			Date:  "April 26, 2026",
			Time:  "07:00 PM - 10:00 PM",
			Venue: "Orion Amphitheater",
			ImpactTimeline: &domain.ImpactTimeline{
				ArrivalRush:   domain.RushWindow{Window: "05:30 PM - 07:00 PM", Impact: 8},
				DuringEvent:   domain.RushWindow{Window: "07:00 PM - 10:00 PM"},
				DepartureRush: domain.RushWindow{Window: "10:00 PM - 11:00 PM", Impact: 6},
			},
			Source: "VBC",
		},
		{
			Title: "Rocket City Comic Expo",
			Date:  "April 27, 2026",
			Time:  "10:00 AM - 06:00 PM",
			Venue: "Von Braun Center",
			ImpactTimeline: &domain.ImpactTimeline{
				ArrivalRush:   domain.RushWindow{Window: "08:30 AM - 10:00 AM", Impact: 9},
				DuringEvent:   domain.RushWindow{Window: "10:00 AM - 06:00 PM"},
				DepartureRush: domain.RushWindow{Window: "06:00 PM - 07:00 PM", Impact: 7},
			},
			Source: "Huntsville.org",
		},
		{
			Title: "Spring Art Walk",
			Date:  "Dates vary between April 20, 2026 - May 3, 2026",
			Time:  "",
			Venue: "Downtown",
			ImpactTimeline: &domain.ImpactTimeline{
				Error:        true,
				StaticImpact: 3,
			},
			Source: "Huntsville.org",
		},
	}
}

func mockInHouseEvents() []domain.RawInHouseEvent {
	return []domain.RawInHouseEvent{
		{
			Title:     "Rehearsal Dinner",
			Date:      "Apr 26, 2026",
			StartTime: "6:00 PM",
			EndTime:   "9:30 PM",
			Headcount: 60,
		},
		{
			Title:     "Pharma Sales Kickoff",
			Date:      "Apr 28, 2026",
			StartTime: "8:00 AM",
			EndTime:   "5:00 PM",
			Headcount: 140,
		},
	}
}

func mockHotelTraffic() domain.HotelTraffic {
	return domain.HotelTraffic{
		"2026-04-26": {Arrivals: 35, Departures: 48},
		"2026-04-27": {Arrivals: 52, Departures: 20},
	}
}

func normalizeAll(scraped []domain.RawScrapedEvent, inHouse []domain.RawInHouseEvent, traffic domain.HotelTraffic) schedule.Buckets {
	var events []domain.NormalizedEvent
	for i := range scraped {
		events = append(events, domain.NormalizeScraped(scraped[i]))
	}
	for i := range inHouse {
		events = append(events, domain.NormalizeInHouse(inHouse[i]))
	}

	buckets := schedule.Partition(events, frozenNow)
	buckets.Today = append(buckets.Today, schedule.Synthesize(traffic, frozenNow)...)
	schedule.SortToday(buckets.Today)
	schedule.SortFuture(buckets.Future)
	return buckets
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
