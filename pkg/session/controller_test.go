package session_test

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Unpiloted0852/TrashCompass/pkg/geo"
	"github.com/Unpiloted0852/TrashCompass/pkg/heading"
	"github.com/Unpiloted0852/TrashCompass/pkg/overpass"
	"github.com/Unpiloted0852/TrashCompass/pkg/resolver"
	"github.com/Unpiloted0852/TrashCompass/pkg/session"
)

type fakeResolver struct {
	mu    sync.Mutex
	calls int
	fn    func(name string) (resolver.Resolved, error)
}

func (r *fakeResolver) Resolve(_ context.Context, name string) (resolver.Resolved, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.fn(name)
}

func (r *fakeResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeSearcher struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, origin geo.Point) ([]overpass.Amenity, error)
}

func (s *fakeSearcher) Search(ctx context.Context, origin geo.Point, _ int, _ resolver.Resolved) ([]overpass.Amenity, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(ctx, origin)
}

func (s *fakeSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// benchResolution resolves a real catalog entry so mocks hand out a usable
// filter set without any network.
func benchResolution(t *testing.T) resolver.Resolved {
	t.Helper()
	res, err := resolver.New("", "test", nil).Resolve(context.Background(), "Bench")
	if err != nil {
		t.Fatalf("resolving Bench: %v", err)
	}
	return res
}

func fixAt(p geo.Point) session.PositionFix {
	return session.PositionFix{Point: p}
}

// offsetNorth moves a point roughly the given number of meters north.
func offsetNorth(p geo.Point, meters float64) geo.Point {
	return geo.Point{Lat: p.Lat + meters/111320.0, Lon: p.Lon}
}

func waitIdle(t *testing.T, c *session.Controller) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !c.SearchInFlight() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("search still in flight after 2 s")
}

func TestEndToEndTrashCanScenario(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"elements":[{"id":7,"center":{"lat":40.0005,"lon":-73.0},"tags":{"amenity":"waste_basket"}}]}`))
	}))
	defer good.Close()

	c := session.New(session.Config{
		Resolver: resolver.New("", "TrashCompass/2.1", nil),
		Searcher: overpass.NewClient(overpass.Options{
			Endpoints: []string{bad.URL, good.URL},
			Rounds:    1,
			Backoff:   time.Millisecond,
			UserAgent: "TrashCompass/2.1",
		}),
		Clock: func() int64 { return 0 },
	})
	defer c.Close()

	c.SetCategory("Trash Can")
	if c.SearchInFlight() {
		t.Fatal("search started before any position was known")
	}

	origin := geo.Point{Lat: 40.0, Lon: -73.0}
	c.OnPositionFix(fixAt(origin))
	waitIdle(t, c)

	if kind := c.CurrentErrorKind(); kind != session.ErrorNone {
		t.Fatalf("error kind = %v, want none", kind)
	}
	dist, ok := c.CurrentDistanceMeters()
	if !ok {
		t.Fatal("no distance after successful search")
	}
	if math.Abs(dist-55.6) > 0.5 {
		t.Fatalf("distance = %v, want about 55.6", dist)
	}

	st := c.Status()
	if st.Selected == nil || st.Selected.ID != 7 {
		t.Fatalf("selected = %+v, want amenity 7", st.Selected)
	}

	// Facing north, the target due north sits dead ahead.
	c.OnOrientationSample(heading.OrientationSample{RotationVector: []float64{0, 0, 0, 1}})
	rot, ok := c.CurrentTargetRotationDegrees()
	if !ok {
		t.Fatal("no target rotation with an active selection")
	}
	if math.Abs(rot) > 0.05 {
		t.Fatalf("rotation = %v, want about 0", rot)
	}
}

func TestInFlightSearchGatesNewTriggers(t *testing.T) {
	release := make(chan struct{})
	searcher := &fakeSearcher{fn: func(ctx context.Context, _ geo.Point) ([]overpass.Amenity, error) {
		select {
		case <-release:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}
	res := benchResolution(t)
	c := session.New(session.Config{
		Resolver: &fakeResolver{fn: func(string) (resolver.Resolved, error) { return res, nil }},
		Searcher: searcher,
		Clock:    func() int64 { return 0 },
	})
	defer c.Close()

	origin := geo.Point{Lat: 40.0, Lon: -73.0}
	c.SetCategory("Bench")
	c.OnPositionFix(fixAt(origin))
	if !c.SearchInFlight() {
		t.Fatal("first fix did not start a search")
	}

	// Well past the refetch distance, but a search is running.
	c.OnPositionFix(fixAt(offsetNorth(origin, 400)))
	if got := searcher.callCount(); got != 1 {
		t.Fatalf("searcher calls = %d, want 1 while in flight", got)
	}

	close(release)
	waitIdle(t, c)

	// Now movement past the threshold triggers a silent refetch.
	c.OnPositionFix(fixAt(offsetNorth(origin, 600)))
	waitIdle(t, c)
	if got := searcher.callCount(); got != 2 {
		t.Fatalf("searcher calls = %d, want 2 after refetch", got)
	}
}

func TestSilentRefetchDoesNotShowLoading(t *testing.T) {
	var sawLoading bool
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	searcher := &fakeSearcher{}
	searcher.fn = func(ctx context.Context, _ geo.Point) ([]overpass.Amenity, error) {
		started <- struct{}{}
		select {
		case <-release:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	res := benchResolution(t)
	c := session.New(session.Config{
		Resolver: &fakeResolver{fn: func(string) (resolver.Resolved, error) { return res, nil }},
		Searcher: searcher,
		Clock:    func() int64 { return 0 },
	})
	defer c.Close()

	origin := geo.Point{Lat: 40.0, Lon: -73.0}
	c.SetCategory("Bench")
	c.OnPositionFix(fixAt(origin))
	<-started
	if !c.Status().Searching {
		t.Fatal("first search should report loading")
	}
	release <- struct{}{}
	waitIdle(t, c)

	c.OnPositionFix(fixAt(offsetNorth(origin, 200)))
	<-started
	sawLoading = c.Status().Searching
	release <- struct{}{}
	waitIdle(t, c)

	if sawLoading {
		t.Fatal("silent refetch reported loading")
	}
}

func TestStaleResultDiscardedAfterCategoryChange(t *testing.T) {
	release := make(chan struct{})
	searcher := &fakeSearcher{fn: func(ctx context.Context, _ geo.Point) ([]overpass.Amenity, error) {
		select {
		case <-release:
			return []overpass.Amenity{{ID: 1, Location: geo.Point{Lat: 40.0001, Lon: -73.0}}}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}
	res := benchResolution(t)
	c := session.New(session.Config{
		Resolver: &fakeResolver{fn: func(string) (resolver.Resolved, error) { return res, nil }},
		Searcher: searcher,
		Clock:    func() int64 { return 0 },
	})
	defer c.Close()

	c.SetCategory("Bench")
	c.OnPositionFix(fixAt(geo.Point{Lat: 40.0, Lon: -73.0}))
	if !c.SearchInFlight() {
		t.Fatal("search not started")
	}

	c.SetCategory("")
	close(release)
	waitIdle(t, c)

	time.Sleep(20 * time.Millisecond)
	st := c.Status()
	if st.Selected != nil || st.Candidates != 0 {
		t.Fatalf("stale result applied: %+v", st)
	}
	if _, ok := c.CurrentDistanceMeters(); ok {
		t.Fatal("distance reported from a discarded search")
	}
}

func TestResolverFailureAndRetry(t *testing.T) {
	res := benchResolution(t)
	fr := &fakeResolver{}
	fr.fn = func(string) (resolver.Resolved, error) {
		if fr.callCount() == 1 {
			return resolver.Resolved{}, resolver.ErrNoResolution
		}
		return res, nil
	}
	searcher := &fakeSearcher{fn: func(context.Context, geo.Point) ([]overpass.Amenity, error) {
		return nil, nil
	}}
	c := session.New(session.Config{
		Resolver: fr,
		Searcher: searcher,
		Clock:    func() int64 { return 0 },
	})
	defer c.Close()

	c.SetCategory("Gibberish")
	c.OnPositionFix(fixAt(geo.Point{Lat: 40.0, Lon: -73.0}))
	waitIdle(t, c)
	if kind := c.CurrentErrorKind(); kind != session.ErrorResolver {
		t.Fatalf("error kind = %v, want resolver", kind)
	}

	c.Retry()
	waitIdle(t, c)
	if kind := c.CurrentErrorKind(); kind != session.ErrorNone {
		t.Fatalf("error kind after retry = %v, want none", kind)
	}
	if got := fr.callCount(); got != 2 {
		t.Fatalf("resolver calls = %d, want re-resolution on retry", got)
	}
}

func TestErrorStateRetriesSoonerThanRefetch(t *testing.T) {
	res := benchResolution(t)
	searcher := &fakeSearcher{fn: func(context.Context, geo.Point) ([]overpass.Amenity, error) {
		return nil, overpass.ErrAllEndpointsFailed
	}}
	c := session.New(session.Config{
		Resolver: &fakeResolver{fn: func(string) (resolver.Resolved, error) { return res, nil }},
		Searcher: searcher,
		Clock:    func() int64 { return 0 },
	})
	defer c.Close()

	origin := geo.Point{Lat: 40.0, Lon: -73.0}
	c.SetCategory("Bench")
	c.OnPositionFix(fixAt(origin))
	waitIdle(t, c)
	if kind := c.CurrentErrorKind(); kind != session.ErrorConnection {
		t.Fatalf("error kind = %v, want connection", kind)
	}
	if got := searcher.callCount(); got != 1 {
		t.Fatalf("searcher calls = %d, want 1", got)
	}

	// Under the error-retry distance: nothing happens.
	c.OnPositionFix(fixAt(offsetNorth(origin, 50)))
	waitIdle(t, c)
	if got := searcher.callCount(); got != 1 {
		t.Fatalf("searcher calls = %d after 50 m in error state, want 1", got)
	}

	// Past it, but still under the routine refetch distance: retries.
	c.OnPositionFix(fixAt(offsetNorth(origin, 120)))
	waitIdle(t, c)
	if got := searcher.callCount(); got != 2 {
		t.Fatalf("searcher calls = %d after 120 m in error state, want 2", got)
	}
}

func TestHealthyRefetchUsesLargerThreshold(t *testing.T) {
	res := benchResolution(t)
	searcher := &fakeSearcher{fn: func(context.Context, geo.Point) ([]overpass.Amenity, error) {
		return nil, nil
	}}
	c := session.New(session.Config{
		Resolver: &fakeResolver{fn: func(string) (resolver.Resolved, error) { return res, nil }},
		Searcher: searcher,
		Clock:    func() int64 { return 0 },
	})
	defer c.Close()

	origin := geo.Point{Lat: 40.0, Lon: -73.0}
	c.SetCategory("Bench")
	c.OnPositionFix(fixAt(origin))
	waitIdle(t, c)

	c.OnPositionFix(fixAt(offsetNorth(origin, 120)))
	waitIdle(t, c)
	if got := searcher.callCount(); got != 1 {
		t.Fatalf("searcher calls = %d after 120 m, want 1", got)
	}

	c.OnPositionFix(fixAt(offsetNorth(origin, 160)))
	waitIdle(t, c)
	if got := searcher.callCount(); got != 2 {
		t.Fatalf("searcher calls = %d after 160 m, want 2", got)
	}
}

func TestResolutionCachedAcrossRefetches(t *testing.T) {
	res := benchResolution(t)
	fr := &fakeResolver{fn: func(string) (resolver.Resolved, error) { return res, nil }}
	searcher := &fakeSearcher{fn: func(context.Context, geo.Point) ([]overpass.Amenity, error) {
		return nil, nil
	}}
	c := session.New(session.Config{
		Resolver: fr,
		Searcher: searcher,
		Clock:    func() int64 { return 0 },
	})
	defer c.Close()

	origin := geo.Point{Lat: 40.0, Lon: -73.0}
	c.SetCategory("Bench")
	c.OnPositionFix(fixAt(origin))
	waitIdle(t, c)
	c.OnPositionFix(fixAt(offsetNorth(origin, 200)))
	waitIdle(t, c)

	if got := searcher.callCount(); got != 2 {
		t.Fatalf("searcher calls = %d, want 2", got)
	}
	if got := fr.callCount(); got != 1 {
		t.Fatalf("resolver calls = %d, want a single cached resolution", got)
	}
}

func TestPermissionDeniedBlocksUntilNextFix(t *testing.T) {
	res := benchResolution(t)
	searcher := &fakeSearcher{fn: func(context.Context, geo.Point) ([]overpass.Amenity, error) {
		return nil, nil
	}}
	c := session.New(session.Config{
		Resolver: &fakeResolver{fn: func(string) (resolver.Resolved, error) { return res, nil }},
		Searcher: searcher,
		Clock:    func() int64 { return 0 },
	})
	defer c.Close()

	c.SetCategory("Bench")
	c.OnPermissionDenied()
	if kind := c.CurrentErrorKind(); kind != session.ErrorPermission {
		t.Fatalf("error kind = %v, want permission", kind)
	}

	c.OnPositionFix(fixAt(geo.Point{Lat: 40.0, Lon: -73.0}))
	waitIdle(t, c)
	if kind := c.CurrentErrorKind(); kind != session.ErrorNone {
		t.Fatalf("error kind = %v after a fix arrived, want none", kind)
	}
	if got := searcher.callCount(); got != 1 {
		t.Fatalf("searcher calls = %d, want search once fixes resumed", got)
	}
}

func TestNearestSelectionFollowsMovement(t *testing.T) {
	res := benchResolution(t)
	north := overpass.Amenity{ID: 1, Location: geo.Point{Lat: 40.001, Lon: -73.0}}
	south := overpass.Amenity{ID: 2, Location: geo.Point{Lat: 39.999, Lon: -73.0}}
	searcher := &fakeSearcher{fn: func(context.Context, geo.Point) ([]overpass.Amenity, error) {
		return []overpass.Amenity{north, south}, nil
	}}
	c := session.New(session.Config{
		Resolver: &fakeResolver{fn: func(string) (resolver.Resolved, error) { return res, nil }},
		Searcher: searcher,
		Clock:    func() int64 { return 0 },
	})
	defer c.Close()

	c.SetCategory("Bench")
	c.OnPositionFix(fixAt(geo.Point{Lat: 40.0004, Lon: -73.0}))
	waitIdle(t, c)
	if st := c.Status(); st.Selected == nil || st.Selected.ID != 1 {
		t.Fatalf("selected %+v, want the northern amenity", st.Selected)
	}

	// Drift south without crossing the refetch threshold; the selection
	// re-evaluates against the cached candidates.
	c.OnPositionFix(fixAt(geo.Point{Lat: 39.9996, Lon: -73.0}))
	waitIdle(t, c)
	if st := c.Status(); st.Selected == nil || st.Selected.ID != 2 {
		t.Fatalf("selected %+v, want the southern amenity", st.Selected)
	}
	if got := searcher.callCount(); got != 1 {
		t.Fatalf("searcher calls = %d, want reselect without refetch", got)
	}
}

func TestRadiusClamp(t *testing.T) {
	cases := []struct{ in, want int }{
		{100, 500},
		{500, 500},
		{2000, 2000},
		{10000, 10000},
		{50000, 10000},
	}
	for _, tc := range cases {
		if got := session.ClampRadius(tc.in); got != tc.want {
			t.Errorf("ClampRadius(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCloseDiscardsInFlight(t *testing.T) {
	release := make(chan struct{})
	searcher := &fakeSearcher{fn: func(ctx context.Context, _ geo.Point) ([]overpass.Amenity, error) {
		select {
		case <-release:
			return []overpass.Amenity{{ID: 9, Location: geo.Point{Lat: 40.0001, Lon: -73.0}}}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}
	res := benchResolution(t)
	c := session.New(session.Config{
		Resolver: &fakeResolver{fn: func(string) (resolver.Resolved, error) { return res, nil }},
		Searcher: searcher,
		Clock:    func() int64 { return 0 },
	})

	c.SetCategory("Bench")
	c.OnPositionFix(fixAt(geo.Point{Lat: 40.0, Lon: -73.0}))
	c.Close()
	close(release)

	time.Sleep(20 * time.Millisecond)
	if st := c.Status(); st.Selected != nil {
		t.Fatalf("result applied after Close: %+v", st.Selected)
	}
}

func TestFixAfterCloseDoesNotStartDriving(t *testing.T) {
	res := benchResolution(t)
	c := session.New(session.Config{
		Resolver: &fakeResolver{fn: func(string) (resolver.Resolved, error) { return res, nil }},
		Searcher: &fakeSearcher{fn: func(context.Context, geo.Point) ([]overpass.Amenity, error) {
			return []overpass.Amenity{{ID: 3, Location: geo.Point{Lat: 40.0001, Lon: -73.0}}}, nil
		}},
		Clock: func() int64 { return 0 },
	})

	c.SetCategory("Bench")
	c.OnPositionFix(fixAt(geo.Point{Lat: 40.0, Lon: -73.0}))
	waitIdle(t, c)
	c.Close()

	c.OnPositionFix(session.PositionFix{
		Point:      geo.Point{Lat: 40.0, Lon: -73.0},
		SpeedMps:   20,
		BearingDeg: 90,
		HasBearing: true,
	})
	c.OnOrientationSample(heading.OrientationSample{RotationVector: []float64{0, 0, 0, 1}})

	if got := c.Status().Regime; got == heading.RegimeDriving {
		t.Fatalf("regime after Close = %v", got)
	}
}
