package mapview

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alexbeattie/cautious-fishstick-only/internal/events"
	"github.com/alexbeattie/cautious-fishstick-only/internal/imagecache"
	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
)

type memStore struct {
	mu       sync.Mutex
	listings []listing.Listing
	m        MapState
}

func (s *memStore) Listing(key string) (listing.Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listing.Find(s.listings, key)
}

func (s *memStore) MapState() MapState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m
}

func (s *memStore) UpdateMap(fn func(MapState) MapState) MapState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = fn(s.m)
	return s.m
}

type mockRoutes struct{ mock.Mock }

func (m *mockRoutes) ComputeRoute(ctx context.Context, origin, dest orb.Point) (Route, error) {
	args := m.Called(ctx, origin, dest)
	return args.Get(0).(Route), args.Error(1)
}

// gatedRoutes blocks each call until its gate is released.
type gatedRoutes struct {
	mu    sync.Mutex
	calls int
	gates []chan result
}

type result struct {
	r   Route
	err error
}

func (g *gatedRoutes) ComputeRoute(ctx context.Context, _, _ orb.Point) (Route, error) {
	g.mu.Lock()
	gate := g.gates[g.calls]
	g.calls++
	g.mu.Unlock()
	select {
	case res := <-gate:
		return res.r, res.err
	case <-ctx.Done():
		return Route{}, ctx.Err()
	}
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Kind
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

type fakeImages map[string]imagecache.Image

func (f fakeImages) Resolve(_ context.Context, u string) imagecache.Image {
	if img, ok := f[u]; ok {
		return img
	}
	return imagecache.Image{URL: u, Placeholder: true}
}

var home = orb.Point{-118.40, 34.07}

func pt(lon, lat float64) *orb.Point {
	p := orb.Point{lon, lat}
	return &p
}

func price(v float64) *float64 { return &v }

func fixtures() []listing.Listing {
	return []listing.Listing{
		{Key: "A", Address: "1 Main St", City: "Austin", State: "TX", Price: price(1250000), Coordinate: pt(-97.74, 30.27),
			Media: []listing.Media{{URL: "https://img.example.com/a.jpg"}}},
		{Key: "B", Address: "2 Oak Ave", Coordinate: pt(-97.70, 30.30)},
		{Key: "C", Address: "3 Nowhere Rd"},
	}
}

func sampleRoute(n int) Route {
	path := make(orb.LineString, n)
	for i := range path {
		path[i] = orb.Point{-97.74 + float64(i)*0.01, 30.27}
	}
	return Route{Path: path, Bound: path.Bound(), Distance: 1200, Duration: 3 * time.Minute}
}

func newEngine(routes RouteService, pub events.Publisher) (*Engine, *memStore) {
	st := &memStore{listings: fixtures()}
	return NewEngine(Deps{
		Store:   st,
		Routes:  routes,
		Locator: FixedLocator{Point: home},
		Images:  fakeImages{"https://img.example.com/a.jpg": {URL: "https://img.example.com/a.jpg", Data: []byte("jpg"), ContentType: "image/jpeg"}},
		Events:  pub,
		Timeout: time.Second,
	}), st
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("route request did not settle")
	}
}

func TestAnnotate(t *testing.T) {
	ann, err := Annotate(fixtures()[0])
	require.NoError(t, err)
	assert.Equal(t, "A", ann.ListingKey)
	assert.Equal(t, "$1,250,000", ann.Subtitle)
	assert.Equal(t, orb.Point{-97.74, 30.27}, ann.Coordinate)
	assert.InDelta(t, 0.01, ann.Region.Max.Lon()-ann.Region.Min.Lon(), 1e-9)
	assert.True(t, ann.Region.Contains(ann.Coordinate))

	_, err = Annotate(fixtures()[2])
	assert.ErrorIs(t, err, ErrUnmappable)

	zero, err := Annotate(listing.Listing{Key: "Z", Coordinate: pt(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, orb.Point{0, 0}, zero.Coordinate)
	assert.Empty(t, zero.Subtitle)
}

func TestShowUnmappableAndUnknown(t *testing.T) {
	e, st := newEngine(&mockRoutes{}, &recorder{})

	_, err := e.Show("C")
	assert.ErrorIs(t, err, ErrUnmappable)
	m := st.MapState()
	assert.Equal(t, "C", m.Target)
	assert.True(t, m.Unmappable)
	assert.Nil(t, m.Annotation)

	_, err = e.SelectAnnotation(context.Background())
	assert.ErrorIs(t, err, ErrUnmappable)

	_, err = e.Show("missing")
	assert.ErrorIs(t, err, ErrUnknownListing)
}

func TestSelectAnnotationStoresRoute(t *testing.T) {
	routes := &mockRoutes{}
	routes.On("ComputeRoute", mock.Anything, home, orb.Point{-97.74, 30.27}).Return(sampleRoute(5), nil).Once()
	pub := &recorder{}
	e, st := newEngine(routes, pub)

	_, err := e.Show("A")
	require.NoError(t, err)
	done, err := e.SelectAnnotation(context.Background())
	require.NoError(t, err)
	wait(t, done)

	m := st.MapState()
	require.NotNil(t, m.Route)
	assert.Len(t, m.Route.Path, 5)
	assert.True(t, m.AnnotationSelected)
	assert.False(t, m.RoutePending)
	assert.Equal(t, []events.Kind{events.RouteReady}, pub.kinds())
	routes.AssertExpectations(t)
}

func TestRoutingFailureKeepsPreviousRoute(t *testing.T) {
	routes := &mockRoutes{}
	routes.On("ComputeRoute", mock.Anything, mock.Anything, mock.Anything).Return(sampleRoute(3), nil).Once()
	routes.On("ComputeRoute", mock.Anything, mock.Anything, mock.Anything).Return(Route{}, errors.New("503")).Once()
	pub := &recorder{}
	e, st := newEngine(routes, pub)

	_, err := e.Show("A")
	require.NoError(t, err)
	done, err := e.SelectAnnotation(context.Background())
	require.NoError(t, err)
	wait(t, done)
	before := st.MapState().Route

	done, err = e.SelectAnnotation(context.Background())
	require.NoError(t, err)
	wait(t, done)

	m := st.MapState()
	assert.Same(t, before, m.Route)
	assert.True(t, m.RoutingUnavailable)
	assert.Contains(t, m.RoutingError, ErrRoutingUnavailable.Error())
	assert.Equal(t, []events.Kind{events.RouteReady, events.RoutingUnavailable}, pub.kinds())
}

func TestSupersededRequestIsIgnored(t *testing.T) {
	g := &gatedRoutes{gates: []chan result{make(chan result, 1), make(chan result, 1)}}
	pub := &recorder{}
	e, st := newEngine(g, pub)
	_, err := e.Show("A")
	require.NoError(t, err)

	first, err := e.SelectAnnotation(context.Background())
	require.NoError(t, err)
	second, err := e.SelectAnnotation(context.Background())
	require.NoError(t, err)

	// the first request was cancelled when the second started
	wait(t, first)
	assert.Nil(t, st.MapState().Route)
	assert.Empty(t, pub.kinds())

	// release both gates: the call order of the two goroutines is not fixed
	for _, gate := range g.gates {
		gate <- result{r: sampleRoute(4)}
	}
	wait(t, second)
	require.NotNil(t, st.MapState().Route)
	assert.Len(t, st.MapState().Route.Path, 4)
}

// pausingStore holds the first route-pending transition until released, so a
// newer request can register its cancel func ahead of an older one.
type pausingStore struct {
	*memStore
	taken   atomic.Bool
	paused  chan struct{}
	release chan struct{}
}

func (p *pausingStore) UpdateMap(fn func(MapState) MapState) MapState {
	m := p.memStore.UpdateMap(fn)
	if m.RoutePending && p.taken.CompareAndSwap(false, true) {
		close(p.paused)
		<-p.release
	}
	return m
}

func TestOlderRequestRegisteringLateDoesNotCancelNewer(t *testing.T) {
	g := &gatedRoutes{gates: []chan result{make(chan result, 1), make(chan result, 1)}}
	st := &pausingStore{memStore: &memStore{listings: fixtures()}, paused: make(chan struct{}), release: make(chan struct{})}
	e := NewEngine(Deps{Store: st, Routes: g, Locator: FixedLocator{Point: home}})
	_, err := e.Show("A")
	require.NoError(t, err)

	older := make(chan (<-chan struct{}), 1)
	go func() {
		done, err := e.SelectAnnotation(context.Background())
		assert.NoError(t, err)
		older <- done
	}()
	<-st.paused

	newer, err := e.SelectAnnotation(context.Background())
	require.NoError(t, err)
	close(st.release)
	wait(t, <-older)

	for _, gate := range g.gates {
		gate <- result{r: sampleRoute(3)}
	}
	wait(t, newer)

	m := st.MapState()
	assert.False(t, m.RoutePending)
	require.NotNil(t, m.Route)
	assert.Len(t, m.Route.Path, 3)
}

func TestCancelStaleAbandonsRequestForOldTarget(t *testing.T) {
	g := &gatedRoutes{gates: []chan result{make(chan result, 1)}}
	pub := &recorder{}
	e, st := newEngine(g, pub)
	_, err := e.Show("A")
	require.NoError(t, err)

	done, err := e.SelectAnnotation(context.Background())
	require.NoError(t, err)
	l, _ := st.Listing("B")
	st.UpdateMap(func(m MapState) MapState { return m.Show(l) })
	e.CancelStale()
	wait(t, done)

	m := st.MapState()
	assert.Equal(t, "B", m.Target)
	assert.Nil(t, m.Route)
	assert.False(t, m.RoutePending)
	assert.Empty(t, pub.kinds())
}

func TestDeselectDuringRequestDropsCompletion(t *testing.T) {
	g := &gatedRoutes{gates: []chan result{make(chan result, 1)}}
	pub := &recorder{}
	e, st := newEngine(g, pub)
	_, err := e.Show("A")
	require.NoError(t, err)

	done, err := e.SelectAnnotation(context.Background())
	require.NoError(t, err)
	e.DeselectAnnotation()
	g.gates[0] <- result{err: errors.New("late failure")}
	wait(t, done)

	m := st.MapState()
	assert.False(t, m.AnnotationSelected)
	assert.Nil(t, m.Route)
	assert.False(t, m.RoutingUnavailable)
	assert.Empty(t, pub.kinds())
}

func TestShowOtherListingDiscardsRoute(t *testing.T) {
	routes := &mockRoutes{}
	routes.On("ComputeRoute", mock.Anything, mock.Anything, mock.Anything).Return(sampleRoute(2), nil)
	e, st := newEngine(routes, &recorder{})

	_, err := e.Show("A")
	require.NoError(t, err)
	done, err := e.SelectAnnotation(context.Background())
	require.NoError(t, err)
	wait(t, done)
	seq := st.MapState().RouteSeq

	_, err = e.Show("A")
	require.NoError(t, err)
	assert.NotNil(t, st.MapState().Route, "same target keeps its route")

	_, err = e.Show("B")
	require.NoError(t, err)
	m := st.MapState()
	assert.Nil(t, m.Route)
	assert.False(t, m.AnnotationSelected)
	assert.Greater(t, m.RouteSeq, seq)

	e.Close()
	m = st.MapState()
	assert.Empty(t, m.Target)
	assert.Nil(t, m.Annotation)
}

func TestCalloutThumbnail(t *testing.T) {
	e, _ := newEngine(&mockRoutes{}, &recorder{})

	assert.Equal(t, imagecache.PlaceholderID, e.CalloutThumbnail(context.Background()).PlaceholderID)

	_, err := e.Show("A")
	require.NoError(t, err)
	th := e.CalloutThumbnail(context.Background())
	assert.Empty(t, th.PlaceholderID)
	assert.Equal(t, "image/jpeg", th.ContentType)
	assert.Equal(t, []byte("jpg"), th.Data)

	_, err = e.Show("B")
	require.NoError(t, err)
	assert.Equal(t, imagecache.PlaceholderID, e.CalloutThumbnail(context.Background()).PlaceholderID)
}

func TestCalloutThumbnailSkipsWebsiteDocument(t *testing.T) {
	e, st := newEngine(&mockRoutes{}, &recorder{})
	st.listings = append(st.listings, listing.Listing{Key: "D", Coordinate: pt(-97.6, 30.1), Media: []listing.Media{
		{URL: "https://agent.example.com/listing", Category: listing.CategoryDocument},
		{URL: "https://img.example.com/a.jpg", Category: listing.CategoryPhoto},
	}})

	_, err := e.Show("D")
	require.NoError(t, err)
	th := e.CalloutThumbnail(context.Background())
	assert.Equal(t, "https://img.example.com/a.jpg", th.URL)
	assert.Empty(t, th.PlaceholderID)
}
