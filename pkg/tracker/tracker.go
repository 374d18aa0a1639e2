// Package tracker picks the nearest amenity out of a candidate list and
// reports a change only when the identity of the nearest candidate changes,
// so GPS jitter reordering near-equidistant candidates does not flicker
// the selection.
package tracker

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Unpiloted0852/TrashCompass/pkg/geo"
	"github.com/Unpiloted0852/TrashCompass/pkg/overpass"
)

// identityKeyPrecision is the number of decimal places coordinates are
// rounded to when an amenity has no stable upstream ID. Six places is about
// a tenth of a meter, well below GPS noise.
const identityKeyPrecision = 6

// Tracker remembers the identity of the current selection across updates.
// The zero value is ready to use.
type Tracker struct {
	currentKey string
	selected   bool
}

// Select returns the minimum-distance candidate (ties broken by input
// order) and whether the selection's identity changed since the previous
// call. An empty candidate list yields nil, reporting a change only if
// something was selected before.
func (t *Tracker) Select(candidates []overpass.Amenity, pos geo.Point) (*overpass.Amenity, bool) {
	if len(candidates) == 0 {
		changed := t.selected
		t.currentKey = ""
		t.selected = false
		return nil, changed
	}

	best := 0
	bestDist := math.MaxFloat64
	for i := range candidates {
		if d := geo.DistanceMeters(pos, candidates[i].Location); d < bestDist {
			bestDist = d
			best = i
		}
	}

	chosen := candidates[best]
	key := identityKey(chosen)
	changed := !t.selected || key != t.currentKey
	t.currentKey = key
	t.selected = true
	return &chosen, changed
}

// Reset forgets the current selection, so the next Select reports a change.
func (t *Tracker) Reset() {
	t.currentKey = ""
	t.selected = false
}

// identityKey identifies an amenity by its upstream ID when present.
// ID-less features fall back to coordinates rounded to a fixed precision;
// tags deliberately do not participate, so a re-tagged feature at the same
// spot keeps its identity across fetches.
func identityKey(a overpass.Amenity) string {
	if a.ID != 0 {
		return "id:" + strconv.FormatInt(a.ID, 10)
	}
	return fmt.Sprintf("pt:%.*f,%.*f",
		identityKeyPrecision, roundTo(a.Location.Lat, identityKeyPrecision),
		identityKeyPrecision, roundTo(a.Location.Lon, identityKeyPrecision))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
