package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Fetcher downloads extracts published over HTTP(S). Transport failures and
// 429/5xx responses are retried with exponential backoff; other statuses
// fail at once.
type Fetcher struct {
	// Client defaults to one with a 60s timeout.
	Client *http.Client
	// Attempts defaults to 3.
	Attempts int
	// InitialBackoff defaults to 200ms.
	InitialBackoff time.Duration
}

var defaultClient = &http.Client{Timeout: 60 * time.Second}

// Open issues a GET and returns the response body.
func (f Fetcher) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	client := f.Client
	if client == nil {
		client = defaultClient
	}
	attempts := f.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 200 * time.Millisecond
	if f.InitialBackoff > 0 {
		eb.InitialInterval = f.InitialBackoff
	}
	eb.MaxInterval = 5 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)

	var body io.ReadCloser
	err := backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusOK {
			body = resp.Body
			return nil
		}
		_ = resp.Body.Close()
		err = fmt.Errorf("GET %s: %s", url, resp.Status)
		if retryableStatus(resp.StatusCode) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsRemote reports whether path is an http(s) URL.
func IsRemote(path string) bool {
	p := strings.ToLower(path)
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}
