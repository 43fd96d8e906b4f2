package httputil

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clishot/pkg/cache"
	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/observability"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxBodySize bounds a downloaded body.
	DefaultMaxBodySize int64 = 20 << 20
)

// NewHTTPClient creates an HTTP client with the given timeout.
// A zero timeout uses DefaultTimeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Client downloads remote resources with caching and retry.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
	maxBody   int64
	attempts  int
	delay     time.Duration
	logger    *log.Logger
}

// NewClient creates a Client. Bodies are cached under namespace for ttl.
// Headers are applied to all requests. Pass nil for headers if no default
// headers are needed, and nil for c to disable caching.
func NewClient(c cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:      NewHTTPClient(0),
		cache:     c,
		keyer:     cache.NewDefaultKeyer(),
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
		maxBody:   DefaultMaxBodySize,
		attempts:  3,
		delay:     time.Second,
		logger:    log.New(io.Discard),
	}
}

// SetTimeout replaces the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.http = NewHTTPClient(d)
}

// SetLogger sets the logger used for retry and cache diagnostics.
func (c *Client) SetLogger(l *log.Logger) {
	if l != nil {
		c.logger = l
	}
}

// SetKeyer replaces the cache keyer.
func (c *Client) SetKeyer(k cache.Keyer) {
	if k != nil {
		c.keyer = k
	}
}

// Fetch returns the body at rawURL, from cache when possible.
// Transient failures are retried with exponential backoff.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	return c.Cached(ctx, rawURL, false, func() ([]byte, error) {
		var body []byte
		err := Retry(ctx, c.attempts, c.delay, func() error {
			var err error
			body, err = c.GetBytes(ctx, rawURL)
			if err != nil && isRetryable(err) {
				c.logger.Debug("retrying fetch", "url", rawURL, "err", err)
			}
			return err
		})
		return body, err
	})
}

// Cached returns the cached body for key or calls fetch and caches its result.
// If refresh is true, the cache is bypassed for reading.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, fetch func() ([]byte, error)) ([]byte, error) {
	cacheKey := c.keyer.HTTPKey(c.namespace, key)
	if !refresh {
		if data, hit, err := c.cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "http")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "http")
	}

	data, err := fetch()
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, cacheKey, data, c.ttl); err != nil {
		c.logger.Debug("cache write failed", "key", cacheKey, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "http", len(data))
	}
	return data, nil
}

// GetBytes performs a single GET and returns the body.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, c.maxBody+1))
	if err != nil {
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read body of %s", rawURL)}
	}
	if int64(len(data)) > c.maxBody {
		return nil, errors.New(errors.ErrCodeInvalidInput, "body of %s exceeds %d bytes", rawURL, c.maxBody)
	}
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request for %s", rawURL)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host, path := hostPath(rawURL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		code := errors.ErrCodeNetwork
		var ne net.Error
		if stderrors.As(err, &ne) && ne.Timeout() {
			code = errors.ErrCodeTimeout
		}
		return nil, &RetryableError{Err: errors.Wrap(code, err, "GET %s", rawURL)}
	}
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp, rawURL); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(resp *http.Response, rawURL string) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "GET %s: status %d", rawURL, code)
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &RetryableError{Err: errors.Wrap(errors.ErrCodeRateLimited,
			&errors.RateLimitedError{RetryAfter: retryAfter}, "GET %s", rawURL)}
	case code >= 500:
		return &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "GET %s: status %d", rawURL, code)}
	default:
		return errors.New(errors.ErrCodeNetwork, "GET %s: status %d", rawURL, code)
	}
}

func hostPath(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ""
	}
	return u.Host, u.Path
}
