// Package fetch downloads image bytes over HTTP.
//
// A Client applies default headers, paces requests through a rate limiter
// and retries transient failures with backoff. Every failure is returned as
// an *errors.Error of kind ErrFetchFailed, typed by the HTTP status.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Zoidster/BirbBot/pkg/config"
	errs "github.com/Zoidster/BirbBot/pkg/errors"
	"github.com/Zoidster/BirbBot/pkg/logger"
	"github.com/Zoidster/BirbBot/pkg/ratelimit"
	"github.com/Zoidster/BirbBot/pkg/retry"
)

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "birbbot/1.0"

// Client fetches resources over HTTP
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	limiter    ratelimit.Limiter
	retry      *retry.Config
	maxBytes   int64
	logger     logger.Logger
}

// NewClient creates a client with the given timeout, no pacing and a single
// attempt per request.
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": DefaultUserAgent,
			"Accept":     "image/avif,image/webp,image/apng,image/*,*/*;q=0.8",
		},
		limiter: ratelimit.Noop{},
		retry:   &retry.Config{MaxAttempts: 1, Logger: log},
		logger:  log.WithField("component", "fetch"),
	}
}

// NewFromConfig creates a client configured from application settings
func NewFromConfig(cfg *config.Config, log logger.Logger) *Client {
	c := NewClient(cfg.Download.Timeout, log)
	if cfg.Download.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.Download.UserAgent)
	}
	c.SetMaxBytes(cfg.Download.MaxFileSize)
	c.SetLimiter(ratelimit.NewPerMinute(cfg.RateLimit.DownloadRequestsPerMinute, cfg.RateLimit.BurstSize))
	c.SetRetry(retry.FromConfig(cfg.Retry, c.logger))
	return c
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetLimiter replaces the request limiter
func (c *Client) SetLimiter(l ratelimit.Limiter) {
	if l == nil {
		l = ratelimit.Noop{}
	}
	c.limiter = l
}

// SetRetry replaces the retry configuration
func (c *Client) SetRetry(cfg *retry.Config) {
	c.retry = cfg
}

// SetMaxBytes caps response bodies; 0 means unlimited
func (c *Client) SetMaxBytes(n int64) {
	c.maxBytes = n
}

// GetBytes fetches url and returns the full response body
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	data, err := retry.DoWithResult(ctx, func() ([]byte, error) {
		return c.getOnce(ctx, url)
	}, c.retry)
	if err != nil {
		c.logger.WarnWithFields("fetch failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, err
	}

	c.logger.DebugWithFields("fetch completed", map[string]interface{}{
		"url":      url,
		"bytes":    len(data),
		"duration": time.Since(start),
	})

	return data, nil
}

func (c *Client) getOnce(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.FetchFailed(url, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrFetchFailed, errs.ErrorTypeUnknown, "failed to create request", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body := io.Reader(resp.Body)
	if c.maxBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBytes+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errs.FetchFailed(url, 0, fmt.Errorf("failed to read response body: %w", err))
	}

	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, &errs.Error{
			Kind:    errs.ErrFetchFailed,
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("GET %s: response exceeds %d bytes", url, c.maxBytes),
			Code:    resp.StatusCode,
		}
	}

	return data, nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.FetchFailed(req.URL.String(), 0, err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus maps non-2xx responses to typed fetch errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	url := resp.Request.URL.String()
	c.logger.DebugWithFields("unexpected response status", map[string]interface{}{
		"status": resp.StatusCode,
		"url":    url,
	})

	// drain so the connection can be reused
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return errs.FetchFailed(url, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
}
