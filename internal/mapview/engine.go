package mapview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/alexbeattie/cautious-fishstick-only/internal/events"
	"github.com/alexbeattie/cautious-fishstick-only/internal/imagecache"
	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
)

// RouteService computes a driving path between two points.
type RouteService interface {
	ComputeRoute(ctx context.Context, origin, destination orb.Point) (Route, error)
}

// ImageResolver resolves thumbnails; it never fails.
type ImageResolver interface {
	Resolve(ctx context.Context, url string) imagecache.Image
}

// Store gives the engine serialised access to the map part of the session
// state and read access to the published listings.
type Store interface {
	Listing(key string) (listing.Listing, bool)
	MapState() MapState
	UpdateMap(fn func(MapState) MapState) MapState
}

type Observer interface {
	ObserveRoute(outcome string)
}

type Deps struct {
	Store   Store
	Routes  RouteService
	Locator Locator
	Images  ImageResolver
	Events  events.Publisher
	Obs     Observer
	Log     *zap.Logger
	Timeout time.Duration
}

type Engine struct {
	store   Store
	routes  RouteService
	locator Locator
	images  ImageResolver
	pub     events.Publisher
	obs     Observer
	log     *zap.Logger
	timeout time.Duration

	mu       sync.Mutex
	inflight uint64
	stale    uint64 // requests below this sequence are abandoned
	cancel   context.CancelFunc
}

func NewEngine(d Deps) *Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Timeout <= 0 {
		d.Timeout = 15 * time.Second
	}
	return &Engine{
		store:   d.Store,
		routes:  d.Routes,
		locator: d.Locator,
		images:  d.Images,
		pub:     d.Events,
		obs:     d.Obs,
		log:     d.Log,
		timeout: d.Timeout,
	}
}

// Show points the map at a listing. Showing a different listing discards the
// current route and cancels any pending request. ErrUnmappable is returned
// for listings without a coordinate; the map state records it.
func (e *Engine) Show(key string) (Annotation, error) {
	l, ok := e.store.Listing(key)
	if !ok {
		return Annotation{}, fmt.Errorf("%w: %s", ErrUnknownListing, key)
	}
	ann, err := Annotate(l)
	m := e.store.UpdateMap(func(m MapState) MapState { return m.Show(l) })
	e.supersede(m.RouteSeq)
	return ann, err
}

// Close clears the map surface.
func (e *Engine) Close() {
	m := e.store.UpdateMap(func(m MapState) MapState { return m.Cleared() })
	e.supersede(m.RouteSeq)
}

// CancelStale abandons route requests older than the current map state.
// Call it after the map was retargeted or cleared outside the engine.
func (e *Engine) CancelStale() {
	e.supersede(e.store.MapState().RouteSeq)
}

// SelectAnnotation requests directions from the current location to the
// pin. The route call runs in the background; the returned channel is
// closed once the request has settled. A newer request supersedes this one.
func (e *Engine) SelectAnnotation(ctx context.Context) (<-chan struct{}, error) {
	var (
		seq uint64
		ann *Annotation
		key string
		unm bool
	)
	e.store.UpdateMap(func(m MapState) MapState {
		if m.Annotation == nil {
			unm = m.Unmappable
			return m
		}
		m.RouteSeq++
		m.AnnotationSelected = true
		m.RoutePending = true
		seq, key = m.RouteSeq, m.Target
		a := *m.Annotation
		ann = &a
		return m
	})
	if ann == nil {
		if unm {
			return nil, ErrUnmappable
		}
		return nil, ErrNoAnnotation
	}

	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	e.track(seq, cancel)

	done := make(chan struct{})
	go e.route(reqCtx, seq, key, ann.Coordinate, done)
	return done, nil
}

// DeselectAnnotation drops the route overlay and abandons any pending request.
func (e *Engine) DeselectAnnotation() {
	m := e.store.UpdateMap(func(m MapState) MapState {
		m.RouteSeq++
		m.AnnotationSelected = false
		m.Route = nil
		m.RoutePending = false
		m.RoutingUnavailable = false
		m.RoutingError = ""
		return m
	})
	e.supersede(m.RouteSeq)
}

func (e *Engine) route(ctx context.Context, seq uint64, key string, dest orb.Point, done chan struct{}) {
	defer close(done)
	defer e.finish(seq)

	reqID := uuid.NewString()
	log := e.log.With(zap.String("request_id", reqID), zap.String("listing_key", key), zap.Uint64("seq", seq))

	var r Route
	origin, err := e.locator.CurrentLocation(ctx)
	if err == nil {
		r, err = e.routes.ComputeRoute(ctx, origin, dest)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			log.Debug("route request superseded")
			e.observe("superseded")
			return
		}
		e.fail(ctx, log, seq, key, err)
		return
	}

	applied := false
	e.store.UpdateMap(func(m MapState) MapState {
		if m.RouteSeq != seq || m.Target != key || !m.AnnotationSelected {
			return m
		}
		rr := r
		m.Route = &rr
		m.RoutePending = false
		m.RoutingUnavailable = false
		m.RoutingError = ""
		applied = true
		return m
	})
	if !applied {
		e.observe("superseded")
		return
	}
	e.observe("ok")
	log.Info("route ready", zap.Int("points", len(r.Path)), zap.Float64("distance_m", r.Distance))
	if e.pub != nil {
		e.pub.Publish(ctx, events.Event{Kind: events.RouteReady, Seq: seq, ListingKey: key, Count: len(r.Path)})
	}
}

// fail records a routing failure for the current request only. The previous
// route, if any, stays in place.
func (e *Engine) fail(ctx context.Context, log *zap.Logger, seq uint64, key string, cause error) {
	err := fmt.Errorf("%w: %v", ErrRoutingUnavailable, cause)
	current := false
	e.store.UpdateMap(func(m MapState) MapState {
		if m.RouteSeq != seq || m.Target != key {
			return m
		}
		m.RoutePending = false
		m.RoutingUnavailable = true
		m.RoutingError = err.Error()
		current = true
		return m
	})
	if !current {
		e.observe("superseded")
		return
	}
	e.observe("unavailable")
	log.Warn("routing unavailable", zap.Error(cause))
	if e.pub != nil {
		e.pub.Publish(ctx, events.Event{Kind: events.RoutingUnavailable, Seq: seq, ListingKey: key, Err: err})
	}
}

func (e *Engine) finish(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight == seq && e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// track registers the cancel func of request seq. Registration can race
// with newer requests and with supersede, so an older request never replaces
// a newer one; it is cancelled on arrival instead.
func (e *Engine) track(seq uint64, cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq < e.stale || seq < e.inflight {
		cancel()
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.inflight, e.cancel = seq, cancel
}

// supersede cancels the tracked request if its sequence is below seq, the
// route sequence of a map state that no longer wants it.
func (e *Engine) supersede(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq > e.stale {
		e.stale = seq
	}
	if e.cancel != nil && e.inflight < e.stale {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) observe(outcome string) {
	if e.obs != nil {
		e.obs.ObserveRoute(outcome)
	}
}

// Thumbnail is the callout image for the current pin.
type Thumbnail struct {
	URL           string `json:"url,omitempty"`
	Data          []byte `json:"-"`
	ContentType   string `json:"content_type,omitempty"`
	PlaceholderID string `json:"placeholder_id,omitempty"`
}

// CalloutThumbnail resolves the first media item of the shown listing. The
// placeholder identifier is set whenever no real image is available.
func (e *Engine) CalloutThumbnail(ctx context.Context) Thumbnail {
	m := e.store.MapState()
	l, ok := e.store.Listing(m.Target)
	if !ok || e.images == nil {
		return Thumbnail{PlaceholderID: imagecache.PlaceholderID}
	}
	u := l.FirstPhotoURL()
	img := e.images.Resolve(ctx, u)
	if img.Placeholder || len(img.Data) == 0 {
		return Thumbnail{URL: u, Data: img.Data, PlaceholderID: imagecache.PlaceholderID}
	}
	return Thumbnail{URL: u, Data: img.Data, ContentType: img.ContentType}
}
