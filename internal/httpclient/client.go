// Package httpclient is the shared fetch layer for every source: browser-like
// headers, a bounded timeout, transparent decompression and a retry policy.
package httpclient

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/ryosukesatoh/daily-hot/internal/config"
	"github.com/ryosukesatoh/daily-hot/internal/retry"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBodySize bounds how much of a response is read into memory, both before
// and after decompression.
const maxBodySize = 10 << 20

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.URL, e.StatusCode, e.Body)
}

// HTTPStatus lets the retry policy classify the failure.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

type Client struct {
	http      *http.Client
	userAgent string
	retry     retry.Config
	maxBody   int64
	logger    *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client, e.g. with an oauth2 one.
// When the given client has no timeout, a copy carrying the configured
// timeout is used and hc itself is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Timeout == 0 {
			cp := *hc
			cp.Timeout = c.http.Timeout
			hc = &cp
		}
		c.http = hc
	}
}

// WithMaxBodySize overrides the default response size limit.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) { c.maxBody = n }
}

func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

func New(cfg config.HTTPConfig, logger *slog.Logger, opts ...Option) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // decompressReader handles gzip, deflate and br
	}

	c := &Client{
		http:      &http.Client{Transport: transport, Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		retry: retry.Config{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
		},
		maxBody: maxBodySize,
		logger:  logger.With("component", "httpclient"),
	}
	if c.retry.MaxAttempts == 0 {
		c.retry = retry.DefaultConfig()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Retry returns the retry policy callers should wrap their fetch-and-parse
// operations in.
func (c *Client) Retry() retry.Config { return c.retry }

// Derive returns a copy of c that sends requests through hc, keeping the
// headers, retry policy and timeout. Sources with authenticated APIs use it.
func (c *Client) Derive(hc *http.Client) *Client {
	cp := *c
	WithHTTPClient(hc)(&cp)
	return &cp
}

// HTTP exposes the underlying client for SDKs that take one.
func (c *Client) HTTP() *http.Client { return c.http }

// Logger returns the client's logger so callers can log under the same component tree.
func (c *Client) Logger() *slog.Logger { return c.logger }

// Get fetches url with browser-like headers and returns the decoded body.
// A single call makes a single attempt; retries are the caller's concern.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("httpclient: build request: %w", err))
	}
	c.setBrowserHeaders(req)
	return c.do(req)
}

// GetJSON fetches url and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("httpclient: build request: %w", err))
	}
	c.setBrowserHeaders(req)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", url, err)
	}
	return nil
}

// PostJSON sends payload as a JSON body and decodes the JSON response into v.
func (c *Client) PostJSON(ctx context.Context, url string, payload, v any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("httpclient: encode payload: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return retry.Permanent(fmt.Errorf("httpclient: build request: %w", err))
	}
	c.setBrowserHeaders(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	url := req.URL.String()
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s %s: %w", req.Method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	reader, err := decompressReader(resp, io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("httpclient: decompress %s: %w", url, err)
	}

	body, err := io.ReadAll(io.LimitReader(reader, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("httpclient: read %s: %w", url, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, retry.Permanent(fmt.Errorf("httpclient: %s: body exceeds %d bytes", url, c.maxBody))
	}

	c.logger.Debug("fetch complete",
		"method", req.Method,
		"url", url,
		"status", resp.StatusCode,
		"size", len(body),
		"duration", time.Since(start),
	)
	return body, nil
}

// decompressReader wraps a reader with the decompressor named by the
// Content-Encoding header.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
