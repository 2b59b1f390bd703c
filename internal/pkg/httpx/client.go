// Package httpx wraps outbound HTTP calls to third-party APIs with a
// per-attempt timeout and bounded exponential backoff.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"hellofixo-service/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Config controls the retry policy.
type Config struct {
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Upstream string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.Upstream, e.Code)
}

// Client is a JSON HTTP client bound to one upstream.
type Client struct {
	upstream string
	cfg      Config
	http     *http.Client
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func New(upstream string, cfg Config, m *metrics.Metrics, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		upstream: upstream,
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		metrics:  m,
		logger:   logger.With(zap.String("upstream", upstream)),
	}
}

// DoJSON sends body (if non-nil) as JSON and decodes a 2xx response into out (if non-nil).
// Network errors, 429 and 5xx are retried; other statuses fail immediately.
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", c.upstream, err)
		}
	}

	start := time.Now()
	attempt := 0

	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build %s request: %w", c.upstream, err))
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			c.logger.Warn("upstream request failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("failed to read %s response: %w", c.upstream, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			statusErr := &StatusError{Upstream: c.upstream, Code: resp.StatusCode, Body: string(data)}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				c.logger.Warn("upstream returned retryable status", zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode))
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode %s response: %w", c.upstream, err))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialInterval
	policy.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, c.cfg.MaxRetries), ctx))
	c.observe(err, time.Since(start))
	return err
}

// GetJSON is DoJSON for a GET without a body.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	return c.DoJSON(ctx, http.MethodGet, url, headers, nil, out)
}

func (c *Client) observe(err error, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "ok"
	var se *StatusError
	switch {
	case errors.As(err, &se):
		status = strconv.Itoa(se.Code)
	case err != nil:
		status = "error"
	}
	c.metrics.ExternalRequests.WithLabelValues(c.upstream, status).Inc()
	c.metrics.ExternalLatency.WithLabelValues(c.upstream).Observe(elapsed.Seconds())
}
