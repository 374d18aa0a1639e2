// Package session orchestrates the search pipeline. A Controller owns one
// search session at a time: it reacts to position fixes, decides when a
// fresh amenity fetch is due, keeps the nearest-candidate selection stable
// and feeds the heading engine its target.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/Unpiloted0852/TrashCompass/pkg/geo"
	"github.com/Unpiloted0852/TrashCompass/pkg/heading"
	"github.com/Unpiloted0852/TrashCompass/pkg/logger"
	"github.com/Unpiloted0852/TrashCompass/pkg/overpass"
	"github.com/Unpiloted0852/TrashCompass/pkg/resolver"
	"github.com/Unpiloted0852/TrashCompass/pkg/tracker"
)

// PositionFix is a location sample fed into the controller.
type PositionFix = heading.Fix

// ErrorKind classifies the session-level failure surfaced to the consumer.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	// ErrorResolver means the category produced no usable filter. Retry
	// re-runs resolution; movement-based retries do not help.
	ErrorResolver
	// ErrorConnection means every search endpoint failed in every round.
	ErrorConnection
	// ErrorPermission means the position source denied access. Terminal
	// until fixes start arriving again.
	ErrorPermission
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorResolver:
		return "resolver"
	case ErrorConnection:
		return "connection"
	case ErrorPermission:
		return "permission"
	default:
		return "none"
	}
}

// Searcher runs one amenity search. *overpass.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, origin geo.Point, radiusMeters int, q resolver.Resolved) ([]overpass.Amenity, error)
}

// CategoryResolver turns a category name into tag filters.
// *resolver.Resolver satisfies it.
type CategoryResolver interface {
	Resolve(ctx context.Context, name string) (resolver.Resolved, error)
}

const (
	DefaultRadiusMeters = 2000
	MinRadiusMeters     = 500
	MaxRadiusMeters     = 10000

	// A routine silent refetch fires after this much movement from the
	// last fetch origin.
	defaultRefetchMeters = 150
	// In an error state a retry fires sooner, on the theory that the user
	// walking toward better coverage should not wait the full refetch
	// distance.
	defaultErrorRetryMeters = 100
)

// Config wires a Controller's collaborators. Resolver and Searcher are
// required; everything else has defaults.
type Config struct {
	Resolver CategoryResolver
	Searcher Searcher

	RadiusMeters     int
	RefetchMeters    float64
	ErrorRetryMeters float64
	Clock            func() int64
}

// ClampRadius bounds a configured search radius to the supported range.
func ClampRadius(meters int) int {
	if meters < MinRadiusMeters {
		return MinRadiusMeters
	}
	if meters > MaxRadiusMeters {
		return MaxRadiusMeters
	}
	return meters
}

// Status is the observable session surface for the presentation layer.
type Status struct {
	Category        string
	DistanceMeters  float64
	HasDistance     bool
	RotationDegrees float64
	TargetActive    bool
	Error           ErrorKind
	Searching       bool
	Candidates      int
	Selected        *overpass.Amenity
	Regime          heading.Regime
	Accuracy        heading.Accuracy
	Interference    bool
}

// Controller is safe for concurrent use; position, sensor and user events
// may arrive from different goroutines.
type Controller struct {
	resolver CategoryResolver
	searcher Searcher
	engine   *heading.Engine

	radius     int
	refetch    float64
	errorRetry float64

	mu           sync.Mutex
	closed       bool
	category     string
	resolutions  map[string]resolver.Resolved
	candidates   []overpass.Amenity
	selected     *overpass.Amenity
	tracker      tracker.Tracker
	lastPos      *geo.Point
	fetchOrigin  *geo.Point
	errKind      ErrorKind
	inFlight     bool
	loading      bool
	generation   uint64
	cancelSearch context.CancelFunc
}

// New builds a Controller around the given collaborators.
func New(cfg Config) *Controller {
	radius := cfg.RadiusMeters
	if radius == 0 {
		radius = DefaultRadiusMeters
	}
	refetch := cfg.RefetchMeters
	if refetch == 0 {
		refetch = defaultRefetchMeters
	}
	errorRetry := cfg.ErrorRetryMeters
	if errorRetry == 0 {
		errorRetry = defaultErrorRetryMeters
	}
	clock := cfg.Clock
	if clock == nil {
		clock = func() int64 { return time.Now().UnixMilli() }
	}
	return &Controller{
		resolver:    cfg.Resolver,
		searcher:    cfg.Searcher,
		engine:      heading.New(clock),
		radius:      ClampRadius(radius),
		refetch:     refetch,
		errorRetry:  errorRetry,
		resolutions: make(map[string]resolver.Resolved),
	}
}

// SetCategory replaces the search session wholesale: candidates, selection
// and error state are dropped, any in-flight search is discarded, and if a
// position is already known a fresh search starts immediately.
func (c *Controller) SetCategory(name string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.category = name
	c.candidates = nil
	c.selected = nil
	c.errKind = ErrorNone
	c.tracker.Reset()
	c.discardInFlightLocked()
	var pos *geo.Point
	if c.lastPos != nil {
		p := *c.lastPos
		pos = &p
	}
	c.mu.Unlock()

	c.engine.ClearTarget()
	if name != "" && pos != nil {
		c.startSearch(*pos, false)
	}
}

// OnPositionFix feeds the heading engine, re-evaluates the nearest
// selection against the new position, and triggers a search when due.
// Fixes still in transit from the position source when the session closes
// are dropped before they can restart the engine's drive loop.
func (c *Controller) OnPositionFix(f PositionFix) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.engine.OnFix(f)

	p := f.Point
	c.lastPos = &p
	if c.errKind == ErrorPermission {
		c.errKind = ErrorNone
	}

	var retarget *geo.Point
	if len(c.candidates) > 0 {
		sel, changed := c.tracker.Select(c.candidates, p)
		c.selected = sel
		if changed && sel != nil {
			loc := sel.Location
			retarget = &loc
			logger.Debug("nearest candidate changed, now %.1f m away", geo.DistanceMeters(p, loc))
		}
	}

	trigger, silent := c.searchDueLocked(p)
	c.mu.Unlock()

	if retarget != nil {
		c.engine.SetTarget(*retarget)
	}
	if trigger {
		c.startSearch(p, silent)
	}
}

// searchDueLocked decides whether this fix should trigger a search.
func (c *Controller) searchDueLocked(p geo.Point) (trigger, silent bool) {
	if c.category == "" || c.inFlight {
		return false, false
	}
	if c.fetchOrigin == nil {
		return true, false
	}
	moved := geo.DistanceMeters(*c.fetchOrigin, p)
	if c.errKind == ErrorResolver || c.errKind == ErrorConnection {
		return moved > c.errorRetry, true
	}
	return moved > c.refetch, true
}

// OnOrientationSample feeds a raw sensor sample into the heading engine.
func (c *Controller) OnOrientationSample(s heading.OrientationSample) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.engine.OnOrientation(s)
	c.mu.Unlock()
}

// OnPermissionDenied marks the session blocked on location access. Any
// in-flight search is discarded; the next fix clears the condition.
func (c *Controller) OnPermissionDenied() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.errKind = ErrorPermission
	c.discardInFlightLocked()
}

// Retry clears the error state and re-runs the whole pipeline from the
// last known position, including category re-resolution.
func (c *Controller) Retry() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.errKind = ErrorNone
	delete(c.resolutions, c.category)
	name := c.category
	var pos *geo.Point
	if c.lastPos != nil {
		p := *c.lastPos
		pos = &p
	}
	c.discardInFlightLocked()
	c.mu.Unlock()

	if name == "" || pos == nil {
		return
	}
	c.startSearch(*pos, false)
}

// Close tears the session down: in-flight results are discarded and the
// heading engine's extrapolation loop is stopped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.discardInFlightLocked()
	c.mu.Unlock()
	c.engine.Close()
}

// CurrentDistanceMeters reports the straight-line distance to the selected
// amenity, false when no target or no position is known.
func (c *Controller) CurrentDistanceMeters() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil || c.lastPos == nil {
		return 0, false
	}
	return geo.DistanceMeters(*c.lastPos, c.selected.Location), true
}

// CurrentTargetRotationDegrees reports the pointer rotation, false when no
// target is active.
func (c *Controller) CurrentTargetRotationDegrees() (float64, bool) {
	snap := c.engine.Snapshot()
	if !snap.Active {
		return 0, false
	}
	return snap.RotationDegrees, true
}

// CurrentErrorKind reports the session error state, ErrorNone when healthy.
func (c *Controller) CurrentErrorKind() ErrorKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errKind
}

// SearchInFlight reports whether a search is currently running.
func (c *Controller) SearchInFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Status returns a consistent snapshot of the whole observable surface.
func (c *Controller) Status() Status {
	snap := c.engine.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{
		Category:        c.category,
		RotationDegrees: snap.RotationDegrees,
		TargetActive:    snap.Active,
		Error:           c.errKind,
		Searching:       c.loading,
		Candidates:      len(c.candidates),
		Regime:          snap.Regime,
		Accuracy:        snap.Accuracy,
		Interference:    snap.Interference,
	}
	if c.selected != nil {
		sel := *c.selected
		st.Selected = &sel
	}
	if c.selected != nil && c.lastPos != nil {
		st.DistanceMeters = geo.DistanceMeters(*c.lastPos, c.selected.Location)
		st.HasDistance = true
	}
	return st
}

// discardInFlightLocked invalidates any running search so its result will
// be dropped on arrival, and frees the in-flight slot for a new one.
func (c *Controller) discardInFlightLocked() {
	c.generation++
	if c.cancelSearch != nil {
		c.cancelSearch()
		c.cancelSearch = nil
	}
	c.inFlight = false
	c.loading = false
}

// startSearch launches the resolve-then-fetch pipeline off the caller's
// goroutine. At most one search runs at a time; triggers while one is in
// flight are dropped, not queued.
func (c *Controller) startSearch(origin geo.Point, silent bool) {
	c.mu.Lock()
	if c.closed || c.inFlight || c.category == "" {
		c.mu.Unlock()
		return
	}
	name := c.category
	gen := c.generation
	c.inFlight = true
	c.loading = !silent
	o := origin
	c.fetchOrigin = &o
	res, haveRes := c.resolutions[name]
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelSearch = cancel
	radius := c.radius
	c.mu.Unlock()

	go c.runSearch(ctx, cancel, gen, name, origin, radius, res, haveRes)
}

func (c *Controller) runSearch(ctx context.Context, cancel context.CancelFunc, gen uint64, name string, origin geo.Point, radius int, res resolver.Resolved, haveRes bool) {
	defer cancel()

	if !haveRes {
		r, err := c.resolver.Resolve(ctx, name)
		if err != nil {
			logger.Error("resolving %q: %v", name, err)
			c.finishSearch(gen, origin, nil, ErrorResolver)
			return
		}
		res = r
		c.mu.Lock()
		c.resolutions[name] = r
		c.mu.Unlock()
	}

	candidates, err := c.searcher.Search(ctx, origin, radius, res)
	if err != nil {
		logger.Error("searching %q: %v", name, err)
		c.finishSearch(gen, origin, nil, ErrorConnection)
		return
	}
	logger.Debug("search %q returned %d candidates", name, len(candidates))
	c.finishSearch(gen, origin, candidates, ErrorNone)
}

// finishSearch applies a search outcome unless the session moved on
// (category switched, retried or closed) while it ran.
func (c *Controller) finishSearch(gen uint64, origin geo.Point, candidates []overpass.Amenity, kind ErrorKind) {
	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.inFlight = false
	c.loading = false
	c.cancelSearch = nil
	c.errKind = kind
	if kind != ErrorNone {
		// Previous candidates stay visible alongside the error.
		c.mu.Unlock()
		return
	}

	c.candidates = candidates
	pos := origin
	if c.lastPos != nil {
		pos = *c.lastPos
	}
	sel, _ := c.tracker.Select(candidates, pos)
	c.selected = sel
	c.mu.Unlock()

	if sel != nil {
		c.engine.SetTarget(sel.Location)
	} else {
		c.engine.ClearTarget()
	}
}
