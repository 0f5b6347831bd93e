// Package algolia provides a resilient Algolia Analytics REST client
package algolia

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	perr "algoliatap/internal/platform/errors"
	"algoliatap/internal/platform/logger"
)

const (
	hostUS = "https://analytics.us.algolia.com"
	hostEU = "https://analytics.de.algolia.com"

	defaultTimeout   = 30 * time.Second
	defaultUA        = "algoliatap"
	defaultMaxRetry  = 5
	defaultRetryBase = 500 * time.Millisecond

	maxBodyBytes = 8 << 20
)

// BaseURL returns the regional analytics host; anything but "eu" gets US
func BaseURL(region string) string {
	if region == "eu" {
		return hostEU
	}
	return hostUS
}

// Options configures the Client
type Options struct {
	// AppID and APIKey are the X-Algolia-* credential headers
	AppID  string
	APIKey string

	// Region selects the analytics host ("us" default, "eu")
	Region string

	// BaseURL overrides the region host, mainly for tests
	BaseURL string

	UserAgent string
	Timeout   time.Duration

	// Retry config for transient and rate limited responses
	MaxRetries int
	RetryBase  time.Duration
}

// Client is a minimal analytics REST client with bounded jittered retries
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(time.Duration)
	randn func(int64) int64
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = BaseURL(o.Region)
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("algolia"),
		now:   time.Now,
		sleep: time.Sleep,
		randn: rand.Int63n,
	}
}

// Get issues a GET with auth headers, retries, and rate limit handling.
// It returns the response body for 200s; every other outcome maps onto the
// tap's error taxonomy so the orchestrator can scope the failure.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.opts.BaseURL + path
	if enc := params.Encode(); enc != "" {
		u += "?" + enc
	}

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "algolia new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("X-Algolia-Application-Id", c.opts.AppID)
		req.Header.Set("X-Algolia-API-Key", c.opts.APIKey)

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !c.shouldRetry(attempts) {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "algolia request failed")
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("algolia transport error retrying")
			c.sleep(back)
			attempts++
			continue
		}

		retryAfter := parseRetryAfter(resp.Header)
		c.log.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Int("retry_after_s", retryAfter).
			Msg("algolia http response")

		switch resp.StatusCode {
		case http.StatusOK:
			body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			cerr := resp.Body.Close()
			if err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "algolia read body failed")
			}
			if cerr != nil {
				c.log.Error().Err(cerr).Str("path", path).Msg("algolia close body failed")
			}
			return body, nil

		case http.StatusUnauthorized, http.StatusForbidden:
			// credentials are wrong or lack the analytics ACL; retrying
			// cannot help
			_ = drainAndClose(resp.Body)
			return nil, perr.Unauthorizedf("algolia rejected credentials (status %d)", resp.StatusCode)

		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, perr.InvalidArgf("algolia rejected request (status %d): %s", resp.StatusCode, string(body))

		case http.StatusTooManyRequests:
			wait := time.Duration(retryAfter) * time.Second
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			if !c.shouldRetry(attempts) {
				_ = drainAndClose(resp.Body)
				return nil, perr.TooManyRequestsf("algolia rate limited")
			}
			c.log.Warn().Dur("sleep", wait).Int("attempt", attempts).Msg("algolia rate limited backing off")
			_ = drainAndClose(resp.Body)
			c.sleep(wait)
			attempts++
			continue

		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			if !c.shouldRetry(attempts) {
				_ = drainAndClose(resp.Body)
				return nil, perr.Unavailablef("algolia transient server error (status %d)", resp.StatusCode)
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).Msg("algolia transient error retrying")
			_ = drainAndClose(resp.Body)
			c.sleep(back)
			attempts++
			continue

		default:
			// read a small tail for diagnostics then return
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, perr.Internalf("algolia unexpected status %d body %s", resp.StatusCode, string(body))
		}
	}
}

// backoff is exponential with a 30s cap and half-width jitter
func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase
	ms := int64(d / time.Millisecond)
	ms = ms << uint(attempt)
	max := int64(30 * time.Second / time.Millisecond)
	if ms > max {
		ms = max
	}
	d = time.Duration(ms) * time.Millisecond
	return d/2 + time.Duration(c.randn(int64(d/2)+1))
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}
