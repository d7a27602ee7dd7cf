// Package feed loads the listing feed from the data source and publishes it
// into the session store.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alexbeattie/cautious-fishstick-only/internal/events"
	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
)

// ErrSuperseded is returned to callers of a fetch that a later Refresh
// replaced before it completed.
var ErrSuperseded = errors.New("fetch superseded")

type Source interface {
	FetchListings(ctx context.Context) ([]listing.Listing, error)
}

// Store accepts fetch results by sequence number. Only the latest begun
// sequence may complete.
type Store interface {
	BeginFetch(seq uint64) bool
	PublishListings(seq uint64, ls []listing.Listing) bool
	FailFetch(seq uint64, err error) bool
}

type Observer interface {
	ObserveFetch(outcome string, took time.Duration)
}

type Deps struct {
	Source  Source
	Store   Store
	Events  events.Publisher
	Obs     Observer
	Log     *zap.Logger
	Timeout time.Duration
}

type flight struct {
	seq    uint64
	done   chan struct{}
	err    error
	cancel context.CancelFunc
}

type Pipeline struct {
	src     Source
	store   Store
	pub     events.Publisher
	obs     Observer
	log     *zap.Logger
	timeout time.Duration

	mu  sync.Mutex
	seq uint64
	cur *flight
}

func NewPipeline(d Deps) *Pipeline {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}
	return &Pipeline{
		src:     d.Source,
		store:   d.Store,
		pub:     d.Events,
		obs:     d.Obs,
		log:     d.Log,
		timeout: d.Timeout,
	}
}

// Fetch joins the fetch in flight or starts one, and waits for its outcome.
// Cancelling ctx stops the wait, not the fetch.
func (p *Pipeline) Fetch(ctx context.Context) error {
	p.mu.Lock()
	f := p.cur
	if f == nil {
		f = p.start()
	}
	p.mu.Unlock()
	return wait(ctx, f)
}

// Refresh cancels any fetch in flight and starts a new one.
func (p *Pipeline) Refresh(ctx context.Context) error {
	p.mu.Lock()
	old := p.cur
	f := p.start()
	if old != nil {
		// the new sequence is registered first so the cancelled fetch can
		// no longer complete into the store
		old.cancel()
	}
	p.mu.Unlock()
	return wait(ctx, f)
}

// Seq is the sequence number of the most recently started fetch.
func (p *Pipeline) Seq() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// start must be called with p.mu held.
func (p *Pipeline) start() *flight {
	p.seq++
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	f := &flight{seq: p.seq, done: make(chan struct{}), cancel: cancel}
	p.cur = f
	p.store.BeginFetch(f.seq)
	go p.run(ctx, f)
	return f
}

func (p *Pipeline) run(ctx context.Context, f *flight) {
	defer f.cancel()
	log := p.log.With(zap.Uint64("seq", f.seq))
	began := time.Now()

	ls, err := p.src.FetchListings(ctx)
	outcome := "ok"
	switch {
	case err == nil && p.store.PublishListings(f.seq, ls):
		log.Info("feed published", zap.Int("count", len(ls)), zap.Duration("took", time.Since(began)))
		p.publish(events.Event{Kind: events.FeedPublished, Seq: f.seq, Count: len(ls)})
	case err == nil:
		outcome, err = "superseded", ErrSuperseded
	case p.store.FailFetch(f.seq, err):
		outcome = "error"
		log.Warn("feed fetch failed", zap.Error(err))
		p.publish(events.Event{Kind: events.FeedFailed, Seq: f.seq, Err: err})
	default:
		outcome, err = "superseded", ErrSuperseded
		log.Debug("superseded feed fetch ended")
	}
	if p.obs != nil {
		p.obs.ObserveFetch(outcome, time.Since(began))
	}

	p.mu.Lock()
	if p.cur == f {
		p.cur = nil
	}
	p.mu.Unlock()
	f.err = err
	close(f.done)
}

func (p *Pipeline) publish(evt events.Event) {
	if p.pub != nil {
		p.pub.Publish(context.Background(), evt)
	}
}

func wait(ctx context.Context, f *flight) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
