package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ErrBlocked is returned when a page is an anti-bot challenge instead of content.
var ErrBlocked = errors.New("blocked by anti-bot challenge")

// HTTPStatusError is returned for non-200 responses.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Retryable reports whether the status is worth another attempt.
func (e *HTTPStatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// DefaultUserAgent mimics a desktop browser; several listing sites reject bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

const maxBodySize = 5 * 1024 * 1024

var blockMarkers = [][]byte{[]byte("cf-chl"), []byte("attention required")}

// NewHTTPClient returns a client with a short connect timeout and a slightly
// longer read timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 20 * time.Second,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 7 * time.Second}).DialContext,
			TLSHandshakeTimeout:   7 * time.Second,
			ResponseHeaderTimeout: 12 * time.Second,
			MaxIdleConnsPerHost:   4,
		},
	}
}

// Fetcher downloads pages with bounded retries, a request rate limit and a
// circuit breaker per host.
type Fetcher struct {
	client     HTTPClient
	userAgent  string
	maxRetries uint64
	backoff    time.Duration
	limiter    *rate.Limiter

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRetries sets the retry count and the first backoff step.
func WithRetries(n uint64, backoff time.Duration) Option {
	return func(f *Fetcher) {
		f.maxRetries = n
		f.backoff = backoff
	}
}

// WithRateLimit limits outgoing requests per second across all hosts.
func WithRateLimit(rps float64, burst int) Option {
	return func(f *Fetcher) {
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a Fetcher with the given HTTP client.
func NewFetcher(client HTTPClient, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:     client,
		userAgent:  DefaultUserAgent,
		maxRetries: 2,
		backoff:    500 * time.Millisecond,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get downloads url and returns the body. Server errors and 429 responses
// are retried with exponential backoff; other failures return immediately.
// Under a WithCycle context the outcome is reused for the same url.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if c := cycleFrom(ctx); c != nil {
		return c.get(rawURL, func() ([]byte, error) { return f.get(ctx, rawURL) })
	}
	return f.get(ctx, rawURL)
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	cb, err := f.breaker(rawURL)
	if err != nil {
		return nil, err
	}

	var body []byte
	backoff := retry.WithMaxRetries(f.maxRetries, retry.NewExponential(f.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := f.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
		out, err := cb.Execute(func() (interface{}, error) {
			return f.do(ctx, rawURL)
		})
		if err != nil {
			if retryable(ctx, err) {
				return retry.RetryableError(err)
			}
			return err
		}
		body = out.([]byte)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	lower := bytes.ToLower(body)
	for _, marker := range blockMarkers {
		if bytes.Contains(lower, marker) {
			return nil, ErrBlocked
		}
	}
	return body, nil
}

func (f *Fetcher) breaker(rawURL string) (*gobreaker.CircuitBreaker, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := f.breakers[u.Host]; ok {
		return cb, nil
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    u.Host,
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var se *HTTPStatusError
			return err == nil || (errors.As(err, &se) && !se.Retryable())
		},
	})
	f.breakers[u.Host] = cb
	return cb, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	if errors.Is(err, ErrBlocked) || errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF)
}
