package scraper

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// UserAgent is sent with every request; the leaderboard API rejects the
// default Go client string.
const UserAgent = "Mozilla/5.0 (Windows NT 6.3; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/59.0.3071.115 Safari/537.36"

var ErrStatus = errors.New("unexpected status")

// Client issues GET requests, retrying connection failures with a linear
// backoff. HTTP status errors are never retried.
type Client struct {
	HTTP *http.Client

	Retries int
	Backoff time.Duration
}

// NewClient returns a client whose transport allows up to maxConns
// simultaneous connections per host.
func NewClient(maxConns int, timeout time.Duration) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.MaxConnsPerHost = maxConns
	tr.MaxIdleConnsPerHost = maxConns
	return &http.Client{Transport: tr, Timeout: timeout}
}

// Get performs the request and returns the response on a 2xx status. The
// caller closes the body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			wait := c.Backoff * time.Duration(attempt)
			zap.S().Debugf("Retrying %s in %s (attempt %d): %v", url, wait, attempt, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrap(err, "create request")
		}
		req.Header.Set("User-Agent", UserAgent)
		resp, err := hc.Do(req)
		if err != nil {
			if !isConnError(ctx, err) {
				return nil, errors.Wrapf(err, "get %s", url)
			}
			lastErr = err
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, errors.Wrapf(ErrStatus, "get %s: %d", url, resp.StatusCode)
		}
		return resp, nil
	}
	return nil, errors.Wrapf(lastErr, "get %s: retries exhausted", url)
}

func isConnError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
