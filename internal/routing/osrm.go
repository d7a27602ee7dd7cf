// Package routing computes driving routes against an OSRM server.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/time/rate"

	"github.com/alexbeattie/cautious-fishstick-only/internal/mapview"
)

var ErrNoRoute = errors.New("no route found")

// boundPad widens the route bound so the endpoints are not on the edge.
const boundPad = 0.002

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64           `json:"distance"`
		Duration float64           `json:"duration"`
		Geometry *geojson.Geometry `json:"geometry"`
	} `json:"routes"`
}

type Config struct {
	BaseURL string
	Profile string
	Timeout time.Duration
	// Rate is the request budget per second, Burst the bucket size.
	Rate  float64
	Burst int
}

type OSRM struct {
	base    string
	profile string
	http    *retryablehttp.Client
	limiter *rate.Limiter
}

func NewOSRM(cfg Config) *OSRM {
	if cfg.Profile == "" {
		cfg.Profile = "driving"
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.RetryMax = 2
	rc.Logger = nil
	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}
	return &OSRM{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		profile: cfg.Profile,
		http:    rc,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
	}
}

func (o *OSRM) ComputeRoute(ctx context.Context, origin, dest orb.Point) (mapview.Route, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return mapview.Route{}, err
	}
	u := fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=full&geometries=geojson",
		o.base, o.profile, lonLat(origin), lonLat(dest))
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return mapview.Route{}, err
	}
	req.Header.Set("accept", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return mapview.Route{}, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return mapview.Route{}, fmt.Errorf("osrm status %d", resp.StatusCode)
	}

	var out routeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&out); err != nil {
		return mapview.Route{}, fmt.Errorf("osrm decode: %w", err)
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return mapview.Route{}, fmt.Errorf("%w: %s %s", ErrNoRoute, out.Code, out.Message)
	}
	r := out.Routes[0]
	if r.Geometry == nil {
		return mapview.Route{}, fmt.Errorf("%w: missing geometry", ErrNoRoute)
	}
	path, ok := r.Geometry.Geometry().(orb.LineString)
	if !ok || len(path) == 0 {
		return mapview.Route{}, fmt.Errorf("%w: unexpected geometry %s", ErrNoRoute, r.Geometry.Type)
	}
	return mapview.Route{
		Path:     path,
		Bound:    path.Bound().Pad(boundPad),
		Distance: r.Distance,
		Duration: time.Duration(r.Duration * float64(time.Second)),
	}, nil
}

func lonLat(p orb.Point) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lon(), p.Lat())
}
