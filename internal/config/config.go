// Package config loads runtime settings from defaults, an optional YAML file
// and LISTINGS_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "LISTINGS"

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Routing  RoutingConfig  `mapstructure:"routing"`
	Images   ImageConfig    `mapstructure:"images"`
	Location LocationConfig `mapstructure:"location"`
	Log      LogConfig      `mapstructure:"log"`
}

type HTTPConfig struct {
	Port       int           `mapstructure:"port"`
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
}

type FeedConfig struct {
	URL          string        `mapstructure:"url"`
	Token        string        `mapstructure:"token"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryMax     int           `mapstructure:"retry_max"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type RoutingConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Profile string        `mapstructure:"profile"`
	Timeout time.Duration `mapstructure:"timeout"`
	Rate    float64       `mapstructure:"rate"`
	Burst   int           `mapstructure:"burst"`
}

type ImageConfig struct {
	CacheBytes      int64         `mapstructure:"cache_bytes"`
	CacheEntries    int           `mapstructure:"cache_entries"`
	MaxImageBytes   int64         `mapstructure:"max_image_bytes"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	PrefetchWorkers int           `mapstructure:"prefetch_workers"`
	PrefetchQueue   int           `mapstructure:"prefetch_queue"`
}

// LocationConfig is the device position used as the directions origin.
type LocationConfig struct {
	Lat float64 `mapstructure:"lat"`
	Lon float64 `mapstructure:"lon"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 4002)
	v.SetDefault("http.rate_limit", 100)
	v.SetDefault("http.rate_window", "1m")

	v.SetDefault("feed.url", "")
	v.SetDefault("feed.token", "")
	v.SetDefault("feed.timeout", "30s")
	v.SetDefault("feed.retry_max", 3)
	v.SetDefault("feed.poll_interval", "0s")

	v.SetDefault("routing.base_url", "https://router.project-osrm.org")
	v.SetDefault("routing.profile", "driving")
	v.SetDefault("routing.timeout", "15s")
	v.SetDefault("routing.rate", 1.0)
	v.SetDefault("routing.burst", 1)

	v.SetDefault("images.cache_bytes", 64<<20)
	v.SetDefault("images.cache_entries", 512)
	v.SetDefault("images.max_image_bytes", 8<<20)
	v.SetDefault("images.fetch_timeout", "20s")
	v.SetDefault("images.prefetch_workers", 2)
	v.SetDefault("images.prefetch_queue", 256)

	v.SetDefault("location.lat", 34.0736)
	v.SetDefault("location.lon", -118.4004)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration. path may name a file, a directory searched for
// config.yaml, or be empty to search the working directory. A path that does
// not exist is an error; a searched directory without config.yaml is not.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("config path: %w", err)
		}
		if fi.IsDir() {
			v.AddConfigPath(path)
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		} else {
			v.SetConfigFile(path)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Feed.URL) == "" {
		return fmt.Errorf("missing required setting feed.url (%s_FEED_URL)", envPrefix)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http.port %d", c.HTTP.Port)
	}
	if c.Location.Lat < -90 || c.Location.Lat > 90 || c.Location.Lon < -180 || c.Location.Lon > 180 {
		return fmt.Errorf("invalid location %v,%v", c.Location.Lat, c.Location.Lon)
	}
	return nil
}
