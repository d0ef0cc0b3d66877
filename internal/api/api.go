package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"nse-dashboard/internal/interfaces"
	"nse-dashboard/internal/logger"
	"nse-dashboard/internal/store"
)

// Client talks to the report backend.
type Client struct {
	rc         *resty.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	retry      *RetryConfig
	useLogging bool
}

// HTTPError is a non-2xx answer from the backend.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s %s: %s", e.StatusCode, e.Method, e.Path, body)
}

func (c *Client) logDebug(ctx context.Context, msg string, args ...any) {
	if c.useLogging {
		logger.Debug(ctx, msg, args...)
	}
}

func (c *Client) logWarn(ctx context.Context, msg string, args ...any) {
	if c.useLogging {
		logger.Warn(ctx, msg, args...)
	}
}

// ClientOption configures the API client
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.rc.SetTimeout(timeout)
	}
}

// WithBaseURL sets the base URL for all requests
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.rc.SetBaseURL(strings.TrimRight(baseURL, "/"))
	}
}

// WithHeader sets a default header for all requests
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.rc.SetHeader(key, value)
	}
}

// WithLogging enables request/response logging
func WithLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.useLogging = enabled
	}
}

// WithRateLimit throttles outgoing requests. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCacheTTL caches GET results for ttl. Zero disables caching.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		if ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = cache.New(ttl, 2*ttl)
	}
}

// RetryConfig configures retry behavior for GET reads. Submissions are
// never retried.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     5 * time.Second,
	}
}

// WithRetry overrides the GET retry policy
func WithRetry(cfg *RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// NewClient creates a new API client with the given options
func NewClient(opts ...ClientOption) *Client {
	rc := resty.New().
		SetBaseURL("http://localhost:3000").
		SetTimeout(30*time.Second).
		SetHeaders(map[string]string{
			"Accept":          "application/json",
			"Accept-Encoding": "gzip, br",
		})

	c := &Client{
		rc:      rc,
		limiter: rate.NewLimiter(rate.Inf, 0),
		cache:   cache.New(5*time.Minute, 10*time.Minute),
		retry:   DefaultRetryConfig(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.applyRetry()

	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		return c.limiter.Wait(r.Context())
	})
	rc.OnAfterResponse(decompressMiddleware)

	return c
}

// NewFromConfig builds a client from the api section of the config.
func NewFromConfig(cfg *store.Config) *Client {
	retry := DefaultRetryConfig()
	retry.MaxAttempts = cfg.API.RetryCount + 1
	retry.InitialWait = time.Duration(cfg.API.RetryWaitMillis) * time.Millisecond

	opts := []ClientOption{
		WithBaseURL(cfg.API.BaseURL),
		WithTimeout(time.Duration(cfg.API.TimeoutSeconds) * time.Second),
		WithRateLimit(cfg.API.RateLimitRPS, cfg.API.RateLimitBurst),
		WithCacheTTL(time.Duration(cfg.API.CacheTTLSeconds) * time.Second),
		WithRetry(retry),
		WithLogging(cfg.API.Logging),
	}
	for k, v := range cfg.API.Headers {
		opts = append(opts, WithHeader(k, v))
	}
	return NewClient(opts...)
}

func (c *Client) applyRetry() {
	if c.retry == nil || c.retry.MaxAttempts <= 1 {
		c.rc.SetRetryCount(0)
		return
	}
	c.rc.SetRetryCount(c.retry.MaxAttempts - 1).
		SetRetryWaitTime(c.retry.InitialWait).
		SetRetryMaxWaitTime(c.retry.MaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
}

// decompressMiddleware decodes brotli and gzip bodies. Accept-Encoding is
// set explicitly, so net/http leaves them encoded.
func decompressMiddleware(_ *resty.Client, resp *resty.Response) error {
	var reader io.Reader
	switch resp.Header().Get("Content-Encoding") {
	case "br":
		reader = brotli.NewReader(bytes.NewReader(resp.Body()))
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(resp.Body()))
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	default:
		return nil
	}

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	resp.SetBody(decompressed)
	return nil
}

// call executes one request and turns non-2xx answers into *HTTPError.
func (c *Client) call(ctx context.Context, method, path string, pathParams, query map[string]string, body any) ([]byte, error) {
	req := c.rc.R().SetContext(ctx)
	if len(pathParams) > 0 {
		req.SetPathParams(pathParams)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	c.logDebug(ctx, "HTTP Request", "method", method, "path", path)

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.logDebug(ctx, "HTTP Response",
		"method", method,
		"path", path,
		"status", resp.StatusCode(),
		"duration", time.Since(start),
		"bodySize", len(resp.Body()))

	if !resp.IsSuccess() {
		c.logWarn(ctx, "HTTP error response", "method", method, "path", path, "status", resp.StatusCode())
		return nil, &HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode(),
			Body:       string(resp.Body()),
		}
	}
	return resp.Body(), nil
}

// getJSON performs a GET and decodes the answer into T, serving repeats
// from the cache while they are fresh.
func getJSON[T any](ctx context.Context, c *Client, path string, pathParams, query map[string]string) (T, error) {
	var out T
	key := cacheKey(path, pathParams, query)
	if c.cache != nil {
		if v, found := c.cache.Get(key); found {
			c.logDebug(ctx, "Cache hit", "key", key)
			return v.(T), nil
		}
	}

	body, err := c.call(ctx, http.MethodGet, path, pathParams, query, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("%w: failed to parse JSON response from %s: %w", interfaces.ErrBadResponse, path, err)
	}

	if c.cache != nil {
		c.cache.Set(key, out, cache.DefaultExpiration)
	}
	return out, nil
}

func postJSON[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	raw, err := c.call(ctx, http.MethodPost, path, nil, nil, body)
	if err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: failed to parse JSON response from %s: %w", interfaces.ErrBadResponse, path, err)
	}
	return out, nil
}

// InvalidateCache drops every cached read.
func (c *Client) InvalidateCache() {
	if c.cache != nil {
		c.cache.Flush()
	}
}

func cacheKey(path string, pathParams, query map[string]string) string {
	var b strings.Builder
	b.WriteString(path)
	for _, m := range []map[string]string{pathParams, query} {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString("|" + k + "=" + m[k])
		}
		b.WriteString("#")
	}
	return b.String()
}
