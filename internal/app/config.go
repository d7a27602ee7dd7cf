package app

import (
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/alexbeattie/cautious-fishstick-only/internal/config"
	"github.com/alexbeattie/cautious-fishstick-only/internal/imagecache"
	"github.com/alexbeattie/cautious-fishstick-only/internal/mapview"
	"github.com/alexbeattie/cautious-fishstick-only/internal/metrics"
	"github.com/alexbeattie/cautious-fishstick-only/internal/prefetch"
	"github.com/alexbeattie/cautious-fishstick-only/internal/routing"
	"github.com/alexbeattie/cautious-fishstick-only/reso"
)

// FromConfig builds a session against the real data source, OSRM and image
// hosts.
func FromConfig(cfg *config.Config, log *zap.Logger, m *metrics.Manager) (*Session, error) {
	return New(Deps{
		Source: reso.NewClient(cfg.Feed.URL, cfg.Feed.Token,
			reso.WithRetryMax(cfg.Feed.RetryMax),
			reso.WithTimeout(cfg.Feed.Timeout)),
		Routes: routing.NewOSRM(routing.Config{
			BaseURL: cfg.Routing.BaseURL,
			Profile: cfg.Routing.Profile,
			Timeout: cfg.Routing.Timeout,
			Rate:    cfg.Routing.Rate,
			Burst:   cfg.Routing.Burst,
		}),
		Locator: mapview.FixedLocator{Point: orb.Point{cfg.Location.Lon, cfg.Location.Lat}},
		Images:  imagecache.NewHTTPFetcher(cfg.Images.FetchTimeout, cfg.Images.MaxImageBytes),
		ImageCache: imagecache.Config{
			MaxBytes:     cfg.Images.CacheBytes,
			MaxEntries:   cfg.Images.CacheEntries,
			FetchTimeout: cfg.Images.FetchTimeout,
		},
		Prefetch: prefetch.Config{
			Capacity: cfg.Images.PrefetchQueue,
			Workers:  cfg.Images.PrefetchWorkers,
			Timeout:  cfg.Images.FetchTimeout,
		},
		FetchTimeout: cfg.Feed.Timeout,
		RouteTimeout: cfg.Routing.Timeout,
		PollInterval: cfg.Feed.PollInterval,
		Metrics:      m,
		Log:          log,
	})
}
