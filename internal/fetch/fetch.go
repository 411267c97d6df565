// Package fetch retrieves remote documents with bounded exponential backoff.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ariel-frischer/changecast/internal/build"
	"github.com/ariel-frischer/changecast/internal/logging"
)

const (
	// DefaultMaxAttempts is the attempt budget of the default changelog fetch.
	DefaultMaxAttempts = 3

	baseDelay          = time.Second
	defaultHTTPTimeout = 30 * time.Second
)

// ErrRetriesExhausted is returned when no attempt was made or no error was captured.
var ErrRetriesExhausted = errors.New("fetch failed after retries")

// FetchError reports a URL that could not be fetched within the attempt budget.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return "unexpected status: " + e.Status
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Client fetches documents over HTTP.
type Client struct {
	httpClient *http.Client
	sleep      Sleeper
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how backoff waits are performed (useful for tests).
func WithSleeper(sleeper Sleeper) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleep = sleeper
		}
	}
}

// WithLogger sets the logger used for attempt failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient returns a fetch client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		sleep:      sleepContext,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backoff returns the wait after the zero-based attempt i: 2^i seconds.
func Backoff(i int) time.Duration {
	return baseDelay << i
}

// Get fetches url once.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", build.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// GetWithRetry fetches url, retrying transport errors and non-2xx responses.
// Attempt i failing waits 2^i seconds before the next attempt; there is no
// wait after the last attempt. Context cancellation aborts the wait.
func (c *Client) GetWithRetry(ctx context.Context, url string, maxAttempts int) ([]byte, error) {
	var lastErr error
	attempts := 0
	for i := 0; i < maxAttempts; i++ {
		attempts++
		body, err := c.Get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}

		c.logger.Debug("fetch attempt failed",
			logging.String("url", url),
			logging.Int("attempt", i+1),
			logging.Int("max_attempts", maxAttempts),
			logging.Error(err),
		)

		if i < maxAttempts-1 {
			if sleepErr := c.sleep(ctx, Backoff(i)); sleepErr != nil {
				lastErr = sleepErr
				break
			}
		}
	}

	if lastErr == nil {
		return nil, ErrRetriesExhausted
	}
	return nil, &FetchError{URL: url, Attempts: attempts, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
