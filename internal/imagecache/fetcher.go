package imagecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTPFetcher downloads images over HTTP with a bounded body size.
type HTTPFetcher struct {
	http     *retryablehttp.Client
	maxBytes int64
}

func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 500 * time.Millisecond
	rc.RetryMax = 2
	rc.Logger = nil
	if timeout > 0 {
		rc.HTTPClient.Timeout = timeout
	}
	if maxBytes <= 0 {
		maxBytes = 8 << 20
	}
	return &HTTPFetcher{http: rc, maxBytes: maxBytes}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("accept", "image/*")
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(b)) > f.maxBytes {
		return nil, "", errors.New("image too large")
	}
	if len(b) == 0 {
		return nil, "", errors.New("empty image")
	}
	ct := resp.Header.Get("content-type")
	if ct == "" {
		ct = http.DetectContentType(b)
	}
	return b, ct, nil
}
