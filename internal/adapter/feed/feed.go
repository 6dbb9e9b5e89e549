// Package feed fetches the three raw JSON collections over HTTP. The files
// are published by the upstream scraper and admin tooling; the optional ones
// (in-house events, hotel traffic) may not exist yet and degrade to empty.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/valetops/traffic-engine/internal/domain"
)

// Collection file names under the feed base URL.
const (
	scrapedEventsFile = "events.json"
	inHouseEventsFile = "hotel_events.json"
	hotelTrafficFile  = "hotel_traffic.json"
)

var errNotFound = errors.New("feed file not found")

// Client implements pipeline.Provider over an HTTP feed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	cache      *responseCache
}

// NewClient creates a feed client. Responses carrying an ETag are cached so
// unchanged files are served from memory on revalidation.
func NewClient(baseURL string, timeout time.Duration, cacheSize int, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		cache:  newResponseCache(cacheSize),
	}
}

// ScrapedEvents fetches the mandatory scraped collection. Unavailability or a
// malformed payload here is fatal to the refresh cycle.
func (c *Client) ScrapedEvents(ctx context.Context) ([]domain.RawScrapedEvent, error) {
	body, err := c.fetch(ctx, scrapedEventsFile)
	if err != nil {
		return nil, err
	}
	var events []domain.RawScrapedEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("parse %s: %w", scrapedEventsFile, err)
	}
	return events, nil
}

// InHouseEvents fetches the optional staff-entered collection. A missing or
// malformed file degrades to an empty list.
func (c *Client) InHouseEvents(ctx context.Context) ([]domain.RawInHouseEvent, error) {
	body, err := c.fetch(ctx, inHouseEventsFile)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var events []domain.RawInHouseEvent
	if err := json.Unmarshal(body, &events); err != nil {
		c.logger.Warn("malformed in-house events file, treating as empty", "error", err)
		return nil, nil
	}
	return events, nil
}

// HotelTraffic fetches the optional traffic map. A missing or malformed file
// degrades to an empty map.
func (c *Client) HotelTraffic(ctx context.Context) (domain.HotelTraffic, error) {
	body, err := c.fetch(ctx, hotelTrafficFile)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var traffic domain.HotelTraffic
	if err := json.Unmarshal(body, &traffic); err != nil {
		c.logger.Warn("malformed hotel traffic file, treating as empty", "error", err)
		return nil, nil
	}
	return traffic, nil
}

// fetch GETs one feed file. A cache-busting timestamp defeats stale CDN copies
// of the feed; our own ETag cache still avoids re-reading unchanged payloads.
func (c *Client) fetch(ctx context.Context, name string) ([]byte, error) {
	params := url.Values{"t": {strconv.FormatInt(time.Now().UnixMilli(), 10)}}
	fullURL := c.baseURL + "/" + name + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	cached, ok := c.cache.get(name)
	if ok {
		req.Header.Set("If-None-Match", cached.etag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if etag := resp.Header.Get("ETag"); etag != "" {
			c.cache.put(name, etag, body)
		}
		return body, nil

	case http.StatusNotModified:
		if !ok {
			return nil, fmt.Errorf("fetch %s: 304 without a cached copy", name)
		}
		return cached.body, nil

	case http.StatusNotFound:
		return nil, fmt.Errorf("fetch %s: %w", name, errNotFound)

	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch %s: status %d: %s", name, resp.StatusCode, body)
	}
}
