package main

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/muesli/gominatim"

	"github.com/Unpiloted0852/TrashCompass/pkg/logger"
)

// Geocode suggestion cache.
//
// Free-form place lookups for the custom-search box go through Nominatim
// and are cached indefinitely in SQLite. Only place-name geocoding is
// cached; amenity search results never touch this store.

var (
	geoDBOnce           sync.Once
	geoDB               *sql.DB
	nominatimThrottleMu sync.Mutex
	nominatimLast       time.Time

	nominatimRetries = 1
)

const nominatimMinInterval = 400 * time.Millisecond

// configureGeocode points the suggestion box at a Nominatim server and sets
// the transient-error retry count. Called once at startup, before any
// lookups run.
func configureGeocode(server string, transientRetries int) {
	if strings.TrimSpace(server) != "" {
		gominatim.SetServer(server)
	}
	if transientRetries >= 0 && transientRetries <= 5 {
		nominatimRetries = transientRetries
	}
}

type suggestResult struct {
	Name  string  `json:"name"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Class string  `json:"class,omitempty"` // nominatim
	Type  string  `json:"type,omitempty"`  // nominatim
}

// initGeocodeDB initializes the persistent SQLite cache (indefinite
// retention, no pruning).
func initGeocodeDB() {
	geoDBOnce.Do(func() {
		path := effectiveCacheDir()
		_ = ensureDir(path)
		dbPath := filepath.Join(path, "geocode.sqlite")
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			logger.Error("geocode cache open failed: %v", err)
			return
		}
		if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS geocode_cache (
			query TEXT PRIMARY KEY,
			json  TEXT NOT NULL,
			fetched_at TIMESTAMP NOT NULL
		)`); err != nil {
			logger.Error("geocode cache schema error: %v", err)
			_ = db.Close()
			return
		}
		// Supports potential pruning / ordering by fetched_at.
		_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_geocode_cache_fetched_at ON geocode_cache(fetched_at)`)
		geoDB = db
	})
}

// fetchGeocodeCached returns up to limit nominatim results, using
// indefinite sqlite caching. Transient / truncated JSON errors get one
// lightweight retry; only successful (even if empty) responses are cached.
func fetchGeocodeCached(q string, limit int) []suggestResult {
	if limit <= 0 {
		return nil
	}
	initGeocodeDB()
	var rawJSON string
	if geoDB != nil {
		_ = geoDB.QueryRow(`SELECT json FROM geocode_cache WHERE query = ?`, q).Scan(&rawJSON)
	}

	var payload []map[string]any
	if rawJSON == "" {
		// Cache miss: network fetch with throttle + retry.
		nominatimThrottleMu.Lock()
		delta := time.Since(nominatimLast)
		if delta < nominatimMinInterval {
			time.Sleep(nominatimMinInterval - delta)
		}
		nominatimLast = time.Now()
		nominatimThrottleMu.Unlock()

		qObj := gominatim.SearchQuery{
			Q:     q,
			Limit: limit,
		}

		var res []gominatim.SearchResult
		var err error
		attempts := nominatimRetries + 1
		for attempt := 1; attempt <= attempts; attempt++ {
			res, err = qObj.Get()
			if err == nil {
				break
			}
			errStr := err.Error()
			transient := strings.Contains(errStr, "unexpected end of JSON") || strings.Contains(errStr, "EOF")
			if !transient || attempt == attempts {
				logger.Error("nominatim search error (attempt %d/%d, query=%q): %v", attempt, attempts, q, err)
				return nil
			}
			logger.Debug("transient nominatim error (attempt %d/%d, will retry) query=%q err=%v", attempt, attempts, q, err)
			time.Sleep(150 * time.Millisecond)
		}

		for _, r := range res {
			var lat, lon float64
			if r.Lat != "" {
				lat, _ = strconv.ParseFloat(r.Lat, 64)
			}
			if r.Lon != "" {
				lon, _ = strconv.ParseFloat(r.Lon, 64)
			}
			payload = append(payload, map[string]any{
				"display_name": r.DisplayName,
				"lat":          lat,
				"lon":          lon,
				"class":        r.Class,
				"type":         r.Type,
			})
			if len(payload) >= limit {
				break
			}
		}

		if geoDB != nil {
			b, _ := json.Marshal(payload)
			_, _ = geoDB.Exec(`INSERT OR REPLACE INTO geocode_cache(query, json, fetched_at) VALUES(?,?,CURRENT_TIMESTAMP)`, q, string(b))
		}
	} else {
		if err := json.Unmarshal([]byte(rawJSON), &payload); err != nil {
			logger.Error("geocode cache unmarshal failed for %q: %v (ignoring)", q, err)
			payload = nil
		}
	}

	out := make([]suggestResult, 0, limit)
	for _, p := range payload {
		name, _ := p["display_name"].(string)
		lat, _ := p["lat"].(float64)
		lon, _ := p["lon"].(float64)
		class, _ := p["class"].(string)
		tp, _ := p["type"].(string)
		if name == "" {
			continue
		}
		out = append(out, suggestResult{
			Name:  name,
			Lat:   lat,
			Lon:   lon,
			Class: class,
			Type:  tp,
		})
		if len(out) >= limit {
			break
		}
	}
	return out
}
