// Package app wires the session components together and exposes the user
// intents the renderers send.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexbeattie/cautious-fishstick-only/internal/events"
	"github.com/alexbeattie/cautious-fishstick-only/internal/feed"
	"github.com/alexbeattie/cautious-fishstick-only/internal/imagecache"
	"github.com/alexbeattie/cautious-fishstick-only/internal/mapview"
	"github.com/alexbeattie/cautious-fishstick-only/internal/metrics"
	"github.com/alexbeattie/cautious-fishstick-only/internal/prefetch"
	"github.com/alexbeattie/cautious-fishstick-only/internal/selection"
	"github.com/alexbeattie/cautious-fishstick-only/internal/store"
)

type Deps struct {
	Source  feed.Source
	Routes  mapview.RouteService
	Locator mapview.Locator
	Images  imagecache.Fetcher

	ImageCache   imagecache.Config
	Prefetch     prefetch.Config
	FetchTimeout time.Duration
	RouteTimeout time.Duration
	PollInterval time.Duration

	Metrics *metrics.Manager
	Log     *zap.Logger
}

type Session struct {
	ID string

	store     *store.Store
	bus       *events.Bus
	pipeline  *feed.Pipeline
	poller    *feed.Poller
	selection *selection.Controller
	engine    *mapview.Engine
	images    *imagecache.Cache
	warmer    *prefetch.Warmer
	metrics   *metrics.Manager
	log       *zap.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(d Deps) (*Session, error) {
	if d.Source == nil {
		return nil, errors.New("session requires a listing source")
	}
	if d.Routes == nil || d.Locator == nil {
		return nil, errors.New("session requires a route service and locator")
	}
	if d.Images == nil {
		return nil, errors.New("session requires an image fetcher")
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New("listings")
	}
	id := uuid.NewString()
	log := d.Log.With(zap.String("session", id))

	st := store.New()
	bus := events.NewBus()
	cache, err := imagecache.New(d.Images, d.ImageCache, d.Metrics, log.Named("images"))
	if err != nil {
		return nil, fmt.Errorf("image cache: %w", err)
	}
	pipeline := feed.NewPipeline(feed.Deps{
		Source:  d.Source,
		Store:   st,
		Events:  bus,
		Obs:     d.Metrics,
		Log:     log.Named("feed"),
		Timeout: d.FetchTimeout,
	})

	return &Session{
		ID:        id,
		store:     st,
		bus:       bus,
		pipeline:  pipeline,
		poller:    &feed.Poller{Feed: pipeline, Interval: d.PollInterval, Log: log.Named("poller")},
		selection: selection.NewController(st, d.Metrics, log.Named("selection")),
		engine: mapview.NewEngine(mapview.Deps{
			Store:   st,
			Routes:  d.Routes,
			Locator: d.Locator,
			Images:  cache,
			Events:  bus,
			Obs:     d.Metrics,
			Log:     log.Named("map"),
			Timeout: d.RouteTimeout,
		}),
		images:  cache,
		warmer:  prefetch.New(cache, d.Prefetch, d.Metrics),
		metrics: d.Metrics,
		log:     log,
	}, nil
}

// Start runs the background loops: feed polling (or a single initial fetch),
// event logging and thumbnail prefetch.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)

	// subscribe before the first fetch can publish
	snaps, unsubscribe := s.store.Subscribe()
	sink := &events.LogSink{Bus: s.bus, Log: s.log.Named("events")}

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		sink.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		defer unsubscribe()
		s.warmOnPublish(ctx, snaps)
	}()
	go func() {
		defer s.wg.Done()
		if err := s.poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("feed poller ended", zap.Error(err))
		}
	}()
	s.log.Info("session started")
}

func (s *Session) warmOnPublish(ctx context.Context, snaps <-chan store.Snapshot) {
	var applied uint64
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if snap.Feed.Applied == applied {
				continue
			}
			applied = snap.Feed.Applied
			s.metrics.SetListings(len(snap.Feed.Listings))
			n := s.warmer.WarmListings(snap.Feed.Listings)
			s.log.Debug("thumbnails queued", zap.Int("count", n), zap.Uint64("seq", applied))
		}
	}
}

// Close stops background work and resets the selection.
func (s *Session) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.selection.Reset()
	s.engine.CancelStale()
	s.warmer.Close()
	s.bus.Close()
	s.store.Close()
	s.log.Info("session closed")
}

// TapRow selects a listing, shows its detail and points the map at it as a
// single store transition. A route request for the previous target is
// abandoned afterwards.
func (s *Session) TapRow(key string) (selection.State, error) {
	st, ok := s.selection.TapRow(key)
	if !ok {
		return st, fmt.Errorf("%w: %s", mapview.ErrUnknownListing, key)
	}
	s.engine.CancelStale()
	return st, nil
}

// Dismiss hides the detail view and closes the map surface.
func (s *Session) Dismiss() selection.State {
	st := s.selection.Dismiss()
	s.engine.CancelStale()
	return st
}

func (s *Session) Fetch(ctx context.Context) error   { return s.pipeline.Fetch(ctx) }
func (s *Session) Refresh(ctx context.Context) error { return s.pipeline.Refresh(ctx) }

func (s *Session) SelectAnnotation(ctx context.Context) (<-chan struct{}, error) {
	return s.engine.SelectAnnotation(ctx)
}

func (s *Session) DeselectAnnotation() { s.engine.DeselectAnnotation() }

func (s *Session) CalloutThumbnail(ctx context.Context) mapview.Thumbnail {
	return s.engine.CalloutThumbnail(ctx)
}

func (s *Session) Image(ctx context.Context, url string) imagecache.Image {
	return s.images.Resolve(ctx, url)
}

func (s *Session) ImageStats() imagecache.Stats { return s.images.Stats() }

func (s *Session) Snapshot() store.Snapshot { return s.store.Snapshot() }

func (s *Session) Subscribe() (<-chan store.Snapshot, func()) { return s.store.Subscribe() }

func (s *Session) Events(buffer int) (<-chan events.Event, func()) { return s.bus.Subscribe(buffer) }

func (s *Session) Metrics() *metrics.Manager { return s.metrics }
