package reso

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/alexbeattie/cautious-fishstick-only/internal/listing"
)

const maxPayload = 16 << 20

type Client struct {
	token   string
	feedURL string
	http    *retryablehttp.Client
}

type Option func(*Client)

// WithRetryMax overrides the retry budget (tests use 0).
func WithRetryMax(n int) Option {
	return func(c *Client) { c.http.RetryMax = n }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.HTTPClient.Timeout = d
		}
	}
}

// NewClient builds a client for a RESO Web API style property endpoint.
// The token is sent as a bearer credential when set.
func NewClient(feedURL, token string, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil

	c := &Client{token: token, feedURL: feedURL, http: rc}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchListings retrieves and decodes the whole batch. Errors wrap
// listing.ErrNetwork or listing.ErrDecode.
func (c *Client) FetchListings(ctx context.Context) ([]listing.Listing, error) {
	raw, err := c.fetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	ls, err := DecodeBatch(raw)
	if err != nil {
		return nil, err
	}
	return ls, nil
}

func (c *Client) fetchRaw(ctx context.Context) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", listing.ErrNetwork, err)
	}
	req.Header.Set("accept", "application/json")
	if c.token != "" {
		req.Header.Set("authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", listing.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var body map[string]any
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
		return nil, fmt.Errorf("%w: source error %d: %v", listing.ErrNetwork, resp.StatusCode, body)
	}
	b, err := ioReadAllLimit(resp.Body, maxPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", listing.ErrNetwork, err)
	}
	return b, nil
}

func ioReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	lr := io.LimitReader(r, limit+1)
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}
