package transport

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/richard-senior/matchboard/internal/logger"
)

// ClientOptions configures retries and the TLS pool of a Client
type ClientOptions struct {
	Timeout    time.Duration
	MaxRetries int           // total attempts per request
	Backoff    time.Duration // delay before the second attempt, doubled after each failure
	MaxBackoff time.Duration
	// CABundlePath is an optional PEM bundle appended to the system roots,
	// for networks behind an intercepting proxy
	CABundlePath string
}

// StatusError is returned for non 2xx responses
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request returned error status %d", e.Code)
}

// Retryable reports whether repeating the request might succeed
func (e *StatusError) Retryable() bool {
	return e.Code >= 500
}

// Client performs HTTP requests with retry and exponential backoff,
// transparently decoding gzip, deflate and brotli bodies
type Client struct {
	http       *http.Client
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client around a custom transport
func NewClient(opts ClientOptions) *Client {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &Client{
		http:       newHTTPClient(opts),
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		maxBackoff: opts.MaxBackoff,
		sleep:      sleepContext,
	}
}

func newHTTPClient(opts ClientOptions) *http.Client {
	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		logger.Warn("Failed to get system cert pool", err)
		rootCAs = x509.NewCertPool()
	}
	if opts.CABundlePath != "" {
		if pem, err := os.ReadFile(opts.CABundlePath); err != nil {
			logger.Warn("Proceeding without extra CA bundle", err)
		} else if !rootCAs.AppendCertsFromPEM(pem) {
			logger.Warn("Failed to append CA bundle", opts.CABundlePath)
		} else {
			logger.Info("Added CA bundle to root CAs", opts.CABundlePath)
		}
	}

	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: rootCAs},
			Proxy:           http.ProxyFromEnvironment,
		},
		Timeout: opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}
}

// RequestFunc builds a fresh request for each attempt
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Do sends the request built by newReq, retrying transport errors and 5xx
// responses. The decoded body of the first 2xx response is returned.
func (c *Client) Do(ctx context.Context, newReq RequestFunc) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.delay(attempt)
			logger.Warn(fmt.Sprintf("Attempt %d/%d failed, retrying in %s:", attempt, c.maxRetries, delay), lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		body, err := c.once(ctx, newReq)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", c.maxRetries, lastErr)
}

// delay is Backoff * 2^(attempt-1), capped at MaxBackoff
func (c *Client) delay(attempt int) time.Duration {
	d := c.backoff << (attempt - 1)
	if c.maxBackoff > 0 && (d > c.maxBackoff || d < 0) {
		d = c.maxBackoff
	}
	return d
}

func (c *Client) once(ctx context.Context, newReq RequestFunc) ([]byte, error) {
	req, err := newReq(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := DecodeBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(data), 512)}
	}
	return data, nil
}

// DecodeBody reads resp.Body, undoing any Content-Encoding
func DecodeBody(resp *http.Response) ([]byte, error) {
	var reader io.ReadCloser = resp.Body
	contentEncoding := resp.Header.Get("Content-Encoding")
	switch contentEncoding {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		reader = gz
		defer reader.Close()
	case "deflate":
		reader = flate.NewReader(resp.Body)
		defer reader.Close()
	case "br":
		reader = io.NopCloser(brotli.NewReader(resp.Body))
	case "", "identity":
	default:
		logger.Warn("Unknown content encoding:", contentEncoding)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return data, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
