// Package transport provides the rate-limited, retrying HTTP client shared by
// every metadata source.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/opted-eu/metafill/internal/logger"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the per-attempt HTTP timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultRateLimit is the number of requests per second across all hosts.
	DefaultRateLimit = 5.0

	// DefaultUserAgent identifies the client to the public APIs.
	DefaultUserAgent = "metafill/1.0 (+https://github.com/opted-eu/metafill)"

	// MaxBodySize caps the number of bytes read from a response body.
	MaxBodySize = 8 * 1024 * 1024

	// Retry defaults.
	DefaultRetryMax     = 3
	DefaultRetryWaitMin = 200 * time.Millisecond
	DefaultRetryWaitMax = 2 * time.Second
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the media type of the response without parameters.
func (r *Response) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}

// Client is a rate-limited HTTP client with retries and a circuit breaker per host.
type Client struct {
	retry     *retryablehttp.Client
	limiter   *rate.Limiter
	userAgent string
	mailto    string
	logger    *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.retry.HTTPClient = hc
	}
}

// WithRateLimit sets the request rate in requests per second. Zero or negative disables limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetry sets the retry count and backoff bounds.
func WithRetry(max int, waitMin, waitMax time.Duration) ClientOption {
	return func(c *Client) {
		c.retry.RetryMax = max
		c.retry.RetryWaitMin = waitMin
		c.retry.RetryWaitMax = waitMax
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMailto adds a contact address to the User-Agent (the polite pool
// convention used by Crossref).
func WithMailto(addr string) ClientOption {
	return func(c *Client) {
		c.mailto = addr
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new transport client.
func NewClient(opts ...ClientOption) *Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	rc.RetryMax = DefaultRetryMax
	rc.RetryWaitMin = DefaultRetryWaitMin
	rc.RetryWaitMax = DefaultRetryWaitMax
	rc.Logger = nil
	// Hand the final response back so the status can be mapped to a sentinel.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		retry:     rc,
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		userAgent: DefaultUserAgent,
		logger:    logger.Discard(),
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// breakerFor returns the circuit breaker for a host, creating it on first use.
func (c *Client) breakerFor(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[host]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	c.breakers[host] = cb
	return cb
}

// Get performs a GET request and returns the fully read response.
// Non-2xx statuses are mapped to the sentinel errors in errors.go.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", rawURL, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	out, err := c.breakerFor(u.Host).Execute(func() (interface{}, error) {
		return c.do(ctx, rawURL, header)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, u.Host, err)
		}
		return nil, err
	}
	resp := out.(*Response)

	c.logger.Debug("http get", "url", rawURL, "status", resp.StatusCode, "elapsed", time.Since(start))

	if err := checkStatus(&http.Response{StatusCode: resp.StatusCode, Header: resp.Header}, rawURL, resp.Body); err != nil {
		return nil, err
	}
	return resp, nil
}

// do runs a single retried request. Only transport failures and 5xx statuses
// are reported as errors here so that 4xx answers do not trip the breaker.
func (c *Client) do(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", c.agent())

	httpResp, err := c.retry.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}
	if httpResp.StatusCode >= 500 {
		return nil, &APIError{StatusCode: httpResp.StatusCode, URL: rawURL, Message: snippet(body, 200)}
	}
	return resp, nil
}

func (c *Client) agent() string {
	if c.mailto == "" {
		return c.userAgent
	}
	return c.userAgent + " (mailto:" + c.mailto + ")"
}

// GetJSON performs a GET request and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, header http.Header, v any) error {
	if header == nil {
		header = http.Header{}
	}
	if header.Get("Accept") == "" {
		header.Set("Accept", "application/json")
	}

	resp, err := c.Get(ctx, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrInvalidResponse, rawURL, err)
	}
	return nil
}
