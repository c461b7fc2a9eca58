package netprobe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

var ErrStatus = errors.New("unexpected probe status")

// Config holds probe client settings
type Config struct {
	Timeout           time.Duration
	RetryMax          int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RequestsPerSecond float64 // 0 = unlimited
	UserAgent         string
}

// DefaultConfig returns conservative probe settings
func DefaultConfig() Config {
	return Config{
		Timeout:           10 * time.Second,
		RetryMax:          2,
		RetryWaitMin:      200 * time.Millisecond,
		RetryWaitMax:      2 * time.Second,
		RequestsPerSecond: 2,
		UserAgent:         "QuantumBrowser-Probe/1.0",
	}
}

// Client measures latency and throughput against remote hosts and
// fetches pages for resource extraction.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	mu      sync.RWMutex
}

// Measurement is the result of one probe
type Measurement struct {
	Latency time.Duration // HEAD round trip
	Bytes   int64         // body size of the GET
	Elapsed time.Duration // GET duration
}

// LatencyMs returns the round trip in milliseconds
func (m Measurement) LatencyMs() float64 {
	return float64(m.Latency) / float64(time.Millisecond)
}

// BandwidthMbps returns the GET throughput in megabits per second
func (m Measurement) BandwidthMbps() float64 {
	secs := m.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(m.Bytes) * 8 / secs / 1e6
}

// NewClient creates a probe client
func NewClient(cfg Config) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryMax).
		SetRetryWaitTime(cfg.RetryWaitMin).
		SetRetryMaxWaitTime(cfg.RetryWaitMax).
		SetHeader("User-Agent", cfg.UserAgent)
	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, int(cfg.RequestsPerSecond)))
	}

	return &Client{resty: restyClient, limiter: limiter}
}

// SetRateLimit changes the request rate. rps <= 0 removes the limit.
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}
	return c.resty.R().SetContext(ctx), nil
}

// Measure sends a HEAD for latency and a GET for throughput
func (c *Client) Measure(ctx context.Context, url string) (Measurement, error) {
	req, err := c.request(ctx)
	if err != nil {
		return Measurement{}, err
	}
	start := time.Now()
	resp, err := req.Head(url)
	if err != nil {
		return Measurement{}, fmt.Errorf("latency probe failed: %w", err)
	}
	if resp.IsError() {
		return Measurement{}, fmt.Errorf("%w: HEAD %s returned %d", ErrStatus, url, resp.StatusCode())
	}
	latency := time.Since(start)

	req, err = c.request(ctx)
	if err != nil {
		return Measurement{}, err
	}
	start = time.Now()
	resp, err = req.Get(url)
	if err != nil {
		return Measurement{}, fmt.Errorf("throughput probe failed: %w", err)
	}
	if resp.IsError() {
		return Measurement{}, fmt.Errorf("%w: GET %s returned %d", ErrStatus, url, resp.StatusCode())
	}

	return Measurement{
		Latency: latency,
		Bytes:   int64(len(resp.Body())),
		Elapsed: time.Since(start),
	}, nil
}

// FetchPage downloads an HTML document
func (c *Client) FetchPage(ctx context.Context, url string) (string, error) {
	req, err := c.request(ctx)
	if err != nil {
		return "", err
	}
	resp, err := req.SetHeader("Accept", "text/html,application/xhtml+xml").Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: GET %s returned %d", ErrStatus, url, resp.StatusCode())
	}
	return resp.String(), nil
}
