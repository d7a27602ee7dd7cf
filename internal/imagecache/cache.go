// Package imagecache resolves image URLs to bytes in memory. Every caller
// gets an Image back: failures and unusable URLs become the placeholder.
package imagecache

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// PlaceholderID names the fallback image renderers should show.
const PlaceholderID = "placeholder"

type Image struct {
	URL         string `json:"url"`
	Data        []byte `json:"-"`
	ContentType string `json:"content_type,omitempty"`
	Placeholder bool   `json:"placeholder"`
}

// Fetcher performs the network read for one URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// Observer receives cache outcomes (metrics).
type Observer interface {
	ObserveImage(result string)
}

type Config struct {
	MaxBytes     int64
	MaxEntries   int
	FetchTimeout time.Duration
	Placeholder  []byte
}

type Stats struct {
	Hits         uint64 `json:"hits"`
	Misses       uint64 `json:"misses"`
	Fetches      uint64 `json:"fetches"`
	Placeholders uint64 `json:"placeholders"`
	Bytes        int64  `json:"bytes"`
	Entries      int    `json:"entries"`
}

type entry struct {
	data        []byte
	contentType string
}

type Cache struct {
	fetcher Fetcher
	obs     Observer
	log     *zap.Logger
	cfg     Config

	group singleflight.Group
	mu    sync.Mutex // serialises insert+evict
	items *lru.Cache[string, entry]
	bytes atomic.Int64

	hits, misses, fetches, placeholders atomic.Uint64
}

func New(f Fetcher, cfg Config, obs Observer, log *zap.Logger) (*Cache, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 512
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 64 << 20
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Cache{fetcher: f, obs: obs, log: log, cfg: cfg}
	items, err := lru.NewWithEvict[string, entry](cfg.MaxEntries, func(_ string, e entry) {
		c.bytes.Add(-int64(len(e.data)))
	})
	if err != nil {
		return nil, err
	}
	c.items = items
	return c, nil
}

// Resolve returns the image for rawURL, fetching it at most once across
// concurrent callers. It never fails: the placeholder stands in for absent,
// invalid or unreachable images.
func (c *Cache) Resolve(ctx context.Context, rawURL string) Image {
	u, ok := normalize(rawURL)
	if !ok {
		return c.placeholder(rawURL)
	}
	if img, ok := c.lookup(u); ok {
		c.hits.Add(1)
		c.observe("hit")
		return img
	}
	c.misses.Add(1)
	c.observe("miss")

	// The flight outlives any single caller; each caller waits on its own ctx.
	ch := c.group.DoChan(u, func() (any, error) {
		if img, ok := c.lookup(u); ok {
			return img, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.FetchTimeout)
		defer cancel()
		c.fetches.Add(1)
		data, ct, err := c.fetcher.Fetch(fctx, u)
		if err != nil {
			return nil, err
		}
		c.store(u, entry{data: data, contentType: ct})
		return Image{URL: u, Data: data, ContentType: ct}, nil
	})

	select {
	case <-ctx.Done():
		return c.placeholder(rawURL)
	case res := <-ch:
		if res.Err != nil {
			c.log.Debug("image unavailable", zap.String("url", u), zap.Error(res.Err))
			return c.placeholder(rawURL)
		}
		return res.Val.(Image)
	}
}

// ResolveAsync delivers the resolved image on a channel that receives
// exactly one value.
func (c *Cache) ResolveAsync(ctx context.Context, rawURL string) <-chan Image {
	out := make(chan Image, 1)
	go func() { out <- c.Resolve(ctx, rawURL) }()
	return out
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Fetches:      c.fetches.Load(),
		Placeholders: c.placeholders.Load(),
		Bytes:        c.bytes.Load(),
		Entries:      c.items.Len(),
	}
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Purge()
}

func (c *Cache) lookup(u string) (Image, bool) {
	e, ok := c.items.Get(u)
	if !ok {
		return Image{}, false
	}
	return Image{URL: u, Data: e.data, ContentType: e.contentType}, true
}

func (c *Cache) store(u string, e entry) {
	size := int64(len(e.data))
	if size > c.cfg.MaxBytes {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items.Contains(u) {
		return
	}
	c.bytes.Add(size)
	c.items.Add(u, e)
	for c.bytes.Load() > c.cfg.MaxBytes {
		if _, _, ok := c.items.RemoveOldest(); !ok {
			break
		}
	}
}

func (c *Cache) placeholder(rawURL string) Image {
	c.placeholders.Add(1)
	c.observe("placeholder")
	return Image{URL: rawURL, Data: c.cfg.Placeholder, Placeholder: true}
}

func (c *Cache) observe(result string) {
	if c.obs != nil {
		c.obs.ObserveImage(result)
	}
}

func normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String(), true
	default:
		return "", false
	}
}
