package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("LISTINGS_FEED_URL", "https://feed.example.com/Property")
	t.Setenv("LISTINGS_ROUTING_RATE", "2.5")
	t.Setenv("LISTINGS_IMAGES_PREFETCH_WORKERS", "4")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "https://feed.example.com/Property", cfg.Feed.URL)
	assert.Equal(t, 4002, cfg.HTTP.Port)
	assert.Equal(t, time.Minute, cfg.HTTP.RateWindow)
	assert.Equal(t, 30*time.Second, cfg.Feed.Timeout)
	assert.InDelta(t, 2.5, cfg.Routing.Rate, 1e-9)
	assert.Equal(t, 4, cfg.Images.PrefetchWorkers)
	assert.Equal(t, int64(64<<20), cfg.Images.CacheBytes)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 8080
feed:
  url: https://feed.example.com/Property
  poll_interval: 5m
location:
  lat: 30.27
  lon: -97.74
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Minute, cfg.Feed.PollInterval)
	assert.InDelta(t, -97.74, cfg.Location.Lon, 1e-9)

	t.Setenv("LISTINGS_HTTP_PORT", "9090")
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoadRequiresFeedURL(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LISTINGS_FEED_URL")
}

func TestLoadRejectsMissingExplicitPath(t *testing.T) {
	t.Setenv("LISTINGS_FEED_URL", "https://feed.example.com/Property")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(filepath.Join(t.TempDir(), "missing-dir"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
