// Package upstream implements the outbound HTTP layer shared by all vacancy
// providers: paced GET requests with a bounded retry on rate limiting and a
// typed failure taxonomy.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetryAfter = 1 * time.Second

	// maxAttempts bounds how many times a single Get may hit the network
	// under sustained 429 responses: one initial call plus two retries.
	maxAttempts = 3
)

// Params holds query parameters for one request. Entries with a nil value are
// dropped before the request is sent and are excluded from cache fingerprints.
type Params map[string]any

// Progress is an optional presentation hook driven for the lifetime of one
// request. Start is called before the first network touch and Stop on every
// exit path, success or failure.
type Progress interface {
	Start()
	Stop()
}

// Config defines upstream client settings.
type Config struct {
	BaseURL    string
	Headers    map[string]string // static auth/identity headers, attached to every request
	Timeout    time.Duration
	Delay      time.Duration // minimum interval between network calls
	HTTPClient *http.Client
	Progress   Progress
}

// Client performs paced GET requests against one upstream API.
type Client struct {
	baseURL    string
	headers    map[string]string
	timeout    time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
	progress   Progress
}

// NewClient builds a Client for the given base URL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("upstream: base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		headers:    cfg.Headers,
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, 1),
		httpClient: httpClient,
		progress:   cfg.Progress,
	}, nil
}

// Get issues one GET to endpoint (a path relative to the base URL, may be
// empty) and returns the raw JSON body. A 429 response suspends the caller
// for the Retry-After duration and re-issues the request, up to maxAttempts
// total network calls. The configured pacing delay is applied before every
// call, retries included. The client timeout bounds each attempt; a caller
// context with an earlier deadline wins.
func (c *Client) Get(ctx context.Context, endpoint string, params Params) ([]byte, error) {
	if c.progress != nil {
		c.progress.Start()
		defer c.progress.Stop()
	}

	u, err := c.buildURL(endpoint, params)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retryAfter, err := c.do(ctx, u)
		if err == nil {
			return body, nil
		}

		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusTooManyRequests && attempt < maxAttempts {
			if err := sleep(ctx, retryAfter); err != nil {
				return nil, err
			}
			continue
		}

		return nil, err
	}
}

// do performs exactly one network call.
func (c *Client) do(ctx context.Context, u string) ([]byte, time.Duration, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, classifyTransportErr(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, classifyTransportErr(err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, retryAfterDuration(resp.Header), &StatusError{
			Status: resp.StatusCode,
			Body:   truncateBody(body),
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, 0, &StatusError{
			Status: resp.StatusCode,
			Body:   truncateBody(body),
		}
	}

	if !json.Valid(body) {
		return nil, 0, &DecodeError{Err: fmt.Errorf("response is not valid JSON")}
	}

	return body, 0, nil
}

func (c *Client) buildURL(endpoint string, params Params) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("upstream: parse base url: %w", err)
	}

	if endpoint != "" {
		u.Path = path.Join(u.Path, endpoint)
	}

	values := url.Values{}
	for k, v := range params {
		if v == nil {
			continue
		}
		values.Set(k, fmt.Sprint(v))
	}
	u.RawQuery = values.Encode()

	return u.String(), nil
}

func classifyTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Err: err}
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &TimeoutError{Err: err}
	}

	return &ConnError{Err: err}
}

// retryAfterDuration reads the Retry-After header as integer seconds,
// defaulting to one second when absent or malformed.
func retryAfterDuration(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
