// Package transport delivers event batches to the ingestion endpoint and
// reports the per-event outcome back to the queue.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/codec"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/dto"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/queue"
)

const eventsPath = "/api/events"

// ErrTransport marks a failure after which the whole batch must be retried
var ErrTransport = errors.New("transport failure")

// Config configures the client
type Config struct {
	Endpoint       string
	RequestTimeout time.Duration
	Codec          string
}

// Client posts batches to POST /api/events
type Client struct {
	url        string
	timeout    time.Duration
	codec      codec.Codec
	httpClient *http.Client
	log        *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new transport client
func NewClient(config Config, log *zap.Logger, opts ...Option) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("transport endpoint is required")
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}
	if config.Codec == "" {
		config.Codec = codec.Default.Name()
	}

	wire, err := codec.Get(config.Codec)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve transport codec: %w", err)
	}

	c := &Client{
		url:        strings.TrimRight(config.Endpoint, "/") + eventsPath,
		timeout:    config.RequestTimeout,
		codec:      wire,
		httpClient: &http.Client{},
		log:        log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Send delivers one batch. Each attempt is bounded by the configured timeout.
// Network errors, timeouts and non-2xx responses return an error wrapping ErrTransport.
// A 4xx response other than 408 or 429 also wraps queue.ErrUndeliverable.
func (c *Client) Send(ctx context.Context, events []domain.Event) (*dto.PublishEventsResponse, error) {
	body, err := c.codec.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", c.codec.ContentType())
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if refused(resp.StatusCode) {
			return nil, fmt.Errorf("%w: %w: status %d: %s", ErrTransport, queue.ErrUndeliverable, resp.StatusCode, bytes.TrimSpace(snippet))
		}
		return nil, fmt.Errorf("%w: unexpected status %d: %s", ErrTransport, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var result dto.PublishEventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", ErrTransport, err)
	}

	c.log.Debug("Batch delivered",
		zap.Int("event_count", len(events)),
		zap.Int("accepted", len(result.Accepted)),
		zap.Int("rejected", len(result.Rejected)),
		zap.Int("duplicates", len(result.Duplicates)),
		zap.Duration("latency", time.Since(start)))

	return &result, nil
}

// refused reports a client error that will recur on every retry
func refused(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return status >= 400 && status < 500
}
