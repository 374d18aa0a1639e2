package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/Unpiloted0852/TrashCompass/pkg/logger"
	"github.com/Unpiloted0852/TrashCompass/pkg/overpass"
	"github.com/Unpiloted0852/TrashCompass/pkg/resolver"
	"github.com/Unpiloted0852/TrashCompass/pkg/session"
)

// Loopback HTTP API toward the presentation layer. The process binds a
// fixed local address; whatever renders the compass (a QML shell, a status
// bar widget, curl) polls /api/status and posts category changes back.

// apiServer bundles the handlers' shared state so they stay small.
type apiServer struct {
	ctrl         *session.Controller
	useMetric    bool
	radiusMeters int
}

// RegisterAPI wires all HTTP handlers onto mux.
func RegisterAPI(mux *http.ServeMux, ctrl *session.Controller, useMetric bool, radiusMeters int) {
	s := &apiServer{ctrl: ctrl, useMetric: useMetric, radiusMeters: radiusMeters}

	mux.HandleFunc("GET /api/status", s.handleGetStatus)
	mux.HandleFunc("POST /api/category", s.handlePostCategory)
	mux.HandleFunc("OPTIONS /api/category", s.handlePostCategory)
	mux.HandleFunc("POST /api/retry", s.handlePostRetry)
	mux.HandleFunc("OPTIONS /api/retry", s.handlePostRetry)
	mux.HandleFunc("GET /api/categories", s.handleGetCategories)
	mux.HandleFunc("GET /api/suggest", s.handleGetSuggest)
	mux.HandleFunc("GET /api/history", s.handleGetHistory)
}

func corsHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

type statusResponse struct {
	Category     string            `json:"category,omitempty"`
	DistanceM    *float64          `json:"distance_m,omitempty"`
	Distance     string            `json:"distance,omitempty"`
	RotationDeg  float64           `json:"rotation_deg"`
	Active       bool              `json:"active"`
	Regime       string            `json:"regime"`
	Accuracy     string            `json:"accuracy"`
	Interference bool              `json:"interference,omitempty"`
	Error        string            `json:"error,omitempty"`
	Message      string            `json:"message,omitempty"`
	Searching    bool              `json:"searching"`
	Candidates   int               `json:"candidates"`
	Selected     *selectedAmenity  `json:"selected,omitempty"`
	Metadata     []string          `json:"metadata,omitempty"`
}

type selectedAmenity struct {
	ID   int64             `json:"id,omitempty"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags,omitempty"`
}

func (s *apiServer) handleGetStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.ctrl.Status()

	resp := statusResponse{
		Category:     st.Category,
		RotationDeg:  st.RotationDegrees,
		Active:       st.TargetActive,
		Regime:       st.Regime.String(),
		Accuracy:     st.Accuracy.String(),
		Interference: st.Interference,
		Searching:    st.Searching,
		Candidates:   st.Candidates,
	}
	if st.HasDistance {
		d := st.DistanceMeters
		resp.DistanceM = &d
		resp.Distance = formatDistance(d, s.useMetric)
	}
	if st.Error != session.ErrorNone {
		resp.Error = st.Error.String()
		resp.Message = friendlyError(st.Error)
	} else if st.Category != "" && !st.Searching && st.Candidates == 0 {
		resp.Message = fmt.Sprintf("None found within %dkm", s.radiusMeters/1000)
	}
	if st.Selected != nil {
		resp.Selected = &selectedAmenity{
			ID:   st.Selected.ID,
			Lat:  st.Selected.Location.Lat,
			Lon:  st.Selected.Location.Lon,
			Tags: st.Selected.Tags,
		}
		resp.Metadata = describeAmenity(st.Selected, st.Category)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *apiServer) handlePostCategory(w http.ResponseWriter, r *http.Request) {
	corsHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)
	logger.Debug("POST /api/category name=%q", name)
	s.ctrl.SetCategory(name)
	if name != "" {
		recordSearch(name)
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *apiServer) handlePostRetry(w http.ResponseWriter, r *http.Request) {
	corsHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.ctrl.Retry()
	w.WriteHeader(http.StatusAccepted)
}

func (s *apiServer) handleGetCategories(w http.ResponseWriter, _ *http.Request) {
	all := make([]string, 0, len(resolver.Catalog))
	for name := range resolver.Catalog {
		all = append(all, name)
	}
	sort.Strings(all)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"quick": resolver.QuickAccess,
		"all":   all,
	})
}

func (s *apiServer) handleGetSuggest(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "q required", http.StatusBadRequest)
		return
	}
	limit := 8
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 20 {
			limit = n
		}
	}
	results := fetchGeocodeCached(q, limit)
	w.Header().Set("Content-Type", "application/json")
	if results == nil {
		results = []suggestResult{}
	}
	_ = json.NewEncoder(w).Encode(results)
}

func (s *apiServer) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	entries := recentSearches(limit)
	w.Header().Set("Content-Type", "application/json")
	if entries == nil {
		entries = []string{}
	}
	_ = json.NewEncoder(w).Encode(entries)
}

func friendlyError(kind session.ErrorKind) string {
	switch kind {
	case session.ErrorResolver:
		return "Search failed"
	case session.ErrorConnection:
		return "Connection failed"
	case session.ErrorPermission:
		return "Location permission required"
	default:
		return ""
	}
}

// formatDistance renders a distance for display. Metric switches to km at
// 1000 m; imperial switches from feet to miles at 1000 ft.
func formatDistance(meters float64, metric bool) string {
	if metric {
		if meters >= 1000 {
			return fmt.Sprintf("%.1f km", meters/1000)
		}
		return fmt.Sprintf("%d m", int(meters))
	}
	feet := meters * 3.28084
	if feet >= 1000 {
		return fmt.Sprintf("%.2f mi", feet/5280)
	}
	return fmt.Sprintf("%d ft", int(feet))
}

// describeAmenity builds the human-readable summary lines for a selected
// amenity from its tags: what it is attached to, access policy, fees,
// category-specific extras and accessibility.
func describeAmenity(a *overpass.Amenity, category string) []string {
	if a == nil || len(a.Tags) == 0 {
		return nil
	}
	tags := a.Tags
	var info []string

	name := tags["name"]
	if _, hasToilets := tags["toilets"]; hasToilets && tags["amenity"] != "toilets" {
		building := name
		if building == "" {
			building = "Building"
		}
		info = append(info, "Inside "+building)
	} else if tags["bin"] == "yes" || tags["rubbish"] == "yes" || tags["waste_basket"] == "yes" {
		var attachedTo string
		switch {
		case tags["highway"] == "bus_stop":
			attachedTo = "Bus Stop"
		case tags["amenity"] == "bench":
			attachedTo = "Bench"
		default:
			attachedTo = name
		}
		if attachedTo != "" {
			info = append(info, "At "+attachedTo)
		} else if name != "" {
			info = append(info, name)
		}
	} else if name != "" {
		info = append(info, name)
	}

	access := tags["toilets:access"]
	if access == "" {
		access = tags["access"]
	}
	if access != "" {
		switch access {
		case "customers":
			info = append(info, "Customers Only")
		case "permissive", "yes":
			info = append(info, "Public Access")
		case "private", "no":
			info = append(info, "Private")
		default:
			info = append(info, "Access: "+access)
		}
	}

	price := tags["charge"]
	if price == "" {
		price = tags["toilets:charge"]
	}
	if price != "" {
		info = append(info, "Fee: "+price)
	} else if tags["fee"] == "no" {
		info = append(info, "Free")
	} else if tags["fee"] == "yes" {
		info = append(info, "Fee Required")
	}

	switch category {
	case "Recycling Bin":
		if rt := tags["recycling_type"]; rt != "" {
			info = append(info, "Type: "+capitalize(strings.ReplaceAll(rt, "_", " ")))
		}
	case "Water Fountain":
		switch tags["drinking_water"] {
		case "yes":
			info = append(info, "Water: Drinkable")
		case "no":
			info = append(info, "Water: Not Drinkable")
		}
	case "Defibrillator (AED)":
		loc := tags["defibrillator:location"]
		if loc == "" {
			loc = tags["location"]
		}
		if loc != "" {
			info = append(info, "Location: "+loc)
		}
		if tags["indoor"] == "yes" {
			info = append(info, "(Indoors)")
		}
	}

	if desc := tags["description"]; desc != "" {
		info = append(info, desc)
	}
	if tags["wheelchair"] == "yes" {
		info = append(info, "Wheelchair Accessible")
	}
	return info
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
