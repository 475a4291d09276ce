// Package fetch retrieves raw METAR text for a station identifier.
package fetch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/rmitchellscott/nimbus/internal/metrics"
)

// ErrNoData is returned when the report service has no report for the station,
// either as 204 No Content or as an empty body.
var ErrNoData = errors.New("no METAR data")

const (
	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 1 << 20

	// maxBackoff caps the delay between two attempts.
	maxBackoff = time.Minute
)

// StatusError is a non-200 answer from the report service.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// Temporary reports whether the request may succeed if repeated.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// Fetcher retrieves the raw report for a station.
type Fetcher interface {
	FetchMETAR(ctx context.Context, stationID string) (string, error)
}

// Config holds the settings for Client.
type Config struct {
	BaseURL    string        // e.g. https://aviationweather.gov/api/data
	Timeout    time.Duration // per request
	MaxRetries int           // retries after the first attempt
	Backoff    time.Duration // delay before the first retry, doubled on each attempt
}

// Option configures a Client or CachedFetcher.
type Option func(*options)

type options struct {
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func newOptions(opts []Option) options {
	o := options{
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithHTTPClient replaces the HTTP client built from Config.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithClock sets the time source used for backoff and cache expiry.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records fetch and cache outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Client handles HTTP requests to the report API
type Client struct {
	config     Config
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new report API client
func NewClient(config Config, opts ...Option) *Client {
	o := newOptions(opts)

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		clock:      o.clock,
		logger:     o.logger.Named("metar-client"),
		metrics:    o.metrics,
	}
}

// FetchMETAR fetches the latest raw METAR for stationID.
func (c *Client) FetchMETAR(ctx context.Context, stationID string) (string, error) {
	endpoint := fmt.Sprintf("%s/metar?ids=%s", strings.TrimRight(c.config.BaseURL, "/"), url.QueryEscape(stationID))

	raw, err := c.fetchWithRetry(ctx, endpoint, stationID)
	switch {
	case errors.Is(err, ErrNoData):
		c.metrics.ObserveFetch(metrics.OutcomeNoData)
	case err != nil:
		c.metrics.ObserveFetch(metrics.OutcomeError)
	default:
		c.metrics.ObserveFetch(metrics.OutcomeSuccess)
	}
	return raw, err
}

// fetchWithRetry performs the HTTP request with retry logic and exponential backoff
func (c *Client) fetchWithRetry(ctx context.Context, endpoint, stationID string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffFor(c.config.Backoff, attempt)
			c.logger.Info("Retrying METAR fetch",
				zap.String("station", stationID),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff))
			if err := c.wait(ctx, backoff); err != nil {
				return "", fmt.Errorf("fetching METAR for %s: %w", stationID, err)
			}
		}

		raw, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("Fetched METAR after retries",
					zap.String("station", stationID),
					zap.Int("attempts_needed", attempt+1))
			}
			return raw, nil
		}
		if errors.Is(err, ErrNoData) {
			return "", fmt.Errorf("%w for station %s", ErrNoData, stationID)
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("fetching METAR for %s: %w", stationID, ctx.Err())
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			c.logger.Warn("METAR request rejected",
				zap.String("station", stationID),
				zap.Int("status", statusErr.StatusCode))
			return "", fmt.Errorf("fetching METAR for %s: %w", stationID, err)
		}

		lastErr = err
		c.logger.Warn("METAR request failed, may retry",
			zap.String("station", stationID),
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.config.MaxRetries+1))
	}

	c.logger.Error("All attempts to fetch METAR failed",
		zap.String("station", stationID),
		zap.Error(lastErr),
		zap.Int("max_attempts", c.config.MaxRetries+1))
	return "", fmt.Errorf("fetching METAR for %s: %w", stationID, lastErr)
}

// backoffFor returns base doubled for every retry after the first, capped at
// maxBackoff.
func backoffFor(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		if d >= maxBackoff/2 {
			return maxBackoff
		}
		d *= 2
	}
	return min(d, maxBackoff)
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

func (c *Client) fetchOnce(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request to METAR API: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return "", ErrNoData
	default:
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	return firstLine(string(body))
}

// firstLine returns the first non-blank line of body, trimmed.
func firstLine(body string) (string, error) {
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	return "", ErrNoData
}
