// Package prefetch warms the image cache with listing thumbnails in the
// background.
package prefetch

import (
	"context"
	"sync"
	"time"

	"github.com/alexbeattie/cautious-fishstick-only/internal/imagecache"
	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
)

type Resolver interface {
	Resolve(ctx context.Context, url string) imagecache.Image
}

type Observer interface {
	ObservePrefetch(result string)
}

type Config struct {
	Capacity int
	Workers  int
	Timeout  time.Duration
}

// Warmer is a bounded work queue of image URLs. A URL already queued or in
// progress is not queued twice; a full queue drops the request.
type Warmer struct {
	ch      chan string
	inFly   sync.Map // url -> struct{}
	res     Resolver
	obs     Observer
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func New(res Resolver, cfg Config, obs Observer) *Warmer {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	w := &Warmer{ch: make(chan string, cfg.Capacity), res: res, obs: obs, timeout: cfg.Timeout}
	for i := 0; i < cfg.Workers; i++ {
		w.wg.Add(1)
		go w.worker()
	}
	return w
}

// Enqueue reports whether url was queued.
func (w *Warmer) Enqueue(url string) bool {
	if url == "" {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}
	if _, exists := w.inFly.LoadOrStore(url, struct{}{}); exists {
		w.observe("duplicate")
		return false
	}
	select {
	case w.ch <- url:
		w.observe("queued")
		return true
	default:
		w.inFly.Delete(url)
		w.observe("dropped")
		return false
	}
}

// WarmListings queues the thumbnail of every listing in feed order.
func (w *Warmer) WarmListings(ls []listing.Listing) int {
	n := 0
	for _, l := range ls {
		if w.Enqueue(l.FirstPhotoURL()) {
			n++
		}
	}
	return n
}

// Close stops accepting work and waits for queued URLs to finish.
func (w *Warmer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.ch)
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Warmer) worker() {
	defer w.wg.Done()
	for u := range w.ch {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		func() {
			defer func() {
				w.inFly.Delete(u)
				cancel()
			}()
			if w.res != nil {
				w.res.Resolve(ctx, u)
			}
		}()
	}
}

func (w *Warmer) observe(result string) {
	if w.obs != nil {
		w.obs.ObservePrefetch(result)
	}
}
