// Package overpass queries a pool of redundant Overpass API endpoints for
// amenities around a point and parses the heterogeneous element shapes
// (nodes with lat/lon, ways with a computed center) into a uniform list.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Unpiloted0852/TrashCompass/pkg/geo"
	"github.com/Unpiloted0852/TrashCompass/pkg/logger"
	"github.com/Unpiloted0852/TrashCompass/pkg/resolver"
)

// ErrAllEndpointsFailed means every endpoint failed in every retry round.
// It is the "connection failed" condition, distinct from an empty result set.
var ErrAllEndpointsFailed = errors.New("overpass: all endpoints failed")

// DefaultEndpoints is the ordered pool of public Overpass interpreters.
var DefaultEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
	"https://maps.mail.ru/osm/tools/overpass/api/interpreter",
	"https://overpass.openstreetmap.ru/api/interpreter",
}

const (
	defaultRounds  = 3
	defaultBackoff = time.Second
)

// Amenity is one feature from a search response. ID is the upstream OSM
// identifier; 0 means the element carried none.
type Amenity struct {
	ID       int64
	Location geo.Point
	Tags     map[string]string
}

// Doer issues a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Options tunes a Client. Zero values fall back to defaults.
type Options struct {
	Endpoints []string
	Rounds    int
	Backoff   time.Duration
	UserAgent string
	HTTP      Doer
}

// Client executes amenity searches with sequential per-round failover
// across endpoints and bounded retry rounds with inter-round backoff.
type Client struct {
	endpoints []string
	rounds    int
	backoff   time.Duration
	userAgent string
	httpc     Doer
}

// NewClient builds a search client from opts.
func NewClient(opts Options) *Client {
	c := &Client{
		endpoints: opts.Endpoints,
		rounds:    opts.Rounds,
		backoff:   opts.Backoff,
		userAgent: opts.UserAgent,
		httpc:     opts.HTTP,
	}
	if len(c.endpoints) == 0 {
		c.endpoints = DefaultEndpoints
	}
	if c.rounds <= 0 {
		c.rounds = defaultRounds
	}
	if c.backoff <= 0 {
		c.backoff = defaultBackoff
	}
	if c.httpc == nil {
		c.httpc = NewHTTPClient(15*time.Second, 30*time.Second)
	}
	return c
}

// NewHTTPClient returns an HTTP client with separate connect and read
// timeouts, matching the tolerances Overpass endpoints need.
func NewHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: readTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		},
	}
}

// BuildQuery wraps the resolved predicate fragments in the fixed query
// header, applies them to node and way geometries inside an around-filter
// centered on origin, and requests centroid output for ways.
func BuildQuery(origin geo.Point, radiusMeters int, q resolver.Resolved) string {
	bbox := fmt.Sprintf("(around:%d,%.7f,%.7f)", radiusMeters, origin.Lat, origin.Lon)
	var b strings.Builder
	b.WriteString("[out:json];(")
	for _, f := range q.Filters() {
		b.WriteString("node")
		b.WriteString(f)
		b.WriteString(bbox)
		b.WriteString(";way")
		b.WriteString(f)
		b.WriteString(bbox)
		b.WriteString(";")
	}
	b.WriteString(");out center;")
	return b.String()
}

// Search runs one resilient search call. The first endpoint to answer with
// a parseable success short-circuits all remaining endpoints and rounds.
// An empty (but successful) result set returns an empty slice and nil error.
func (c *Client) Search(ctx context.Context, origin geo.Point, radiusMeters int, q resolver.Resolved) ([]Amenity, error) {
	query := BuildQuery(origin, radiusMeters, q)

	for round := 0; round < c.rounds; round++ {
		for _, endpoint := range c.endpoints {
			found, err := c.attempt(ctx, endpoint, query)
			if err == nil {
				logger.Debug("overpass: %s answered with %d elements (round %d)", endpoint, len(found), round+1)
				return found, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Debug("overpass: %s failed (round %d): %v", endpoint, round+1, err)
		}
		if round < c.rounds-1 {
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, ErrAllEndpointsFailed
}

func (c *Client) attempt(ctx context.Context, endpoint, query string) ([]Amenity, error) {
	reqURL := endpoint + "?data=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return parseElements(body)
}

type searchResponse struct {
	Elements []struct {
		ID     int64    `json:"id"`
		Lat    *float64 `json:"lat"`
		Lon    *float64 `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// parseElements keeps elements that carry either a direct lat/lon pair or a
// center object; anything else is skipped, not an error.
func parseElements(body []byte) ([]Amenity, error) {
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	found := make([]Amenity, 0, len(parsed.Elements))
	for _, el := range parsed.Elements {
		var loc geo.Point
		switch {
		case el.Lat != nil && el.Lon != nil:
			loc = geo.Point{Lat: *el.Lat, Lon: *el.Lon}
		case el.Center != nil:
			loc = geo.Point{Lat: el.Center.Lat, Lon: el.Center.Lon}
		default:
			continue
		}
		found = append(found, Amenity{ID: el.ID, Location: loc, Tags: el.Tags})
	}
	return found, nil
}
