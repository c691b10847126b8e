// Package remote is the JSON-over-HTTP client shared by the embedding and generation providers.
//
// Every call runs through a circuit breaker and is retried with exponential backoff
// on transport errors, 429 and 5xx responses. Failures come back as
// *domain.ProviderError so callers can tell an unreachable provider from one that
// rejected the request.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"ragmcp/internal/domain"
)

// Config configures a Client.
type Config struct {
	// Provider names the remote service in errors and breaker logs.
	Provider string
	BaseURL  string
	// APIKey is sent as a bearer token when set.
	APIKey string
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
}

// Client performs JSON requests against one provider.
type Client struct {
	provider   string
	baseURL    string
	apiKey     string
	http       *http.Client
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	backoff    func(attempt int) time.Duration
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		provider:   cfg.Provider,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		http:       &http.Client{Timeout: timeout},
		breaker:    NewBreaker(cfg.Provider),
		maxRetries: cfg.MaxRetries,
		backoff:    retryDelay,
	}
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// PostJSON sends in as JSON to path and decodes the response into out (which may be nil).
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

// GetJSON fetches path and decodes the response into out (which may be nil).
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.withRetries(ctx, method, c.baseURL+path, body, out)
	})
	return c.mapBreakerError(err)
}

func (c *Client) mapBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.Unavailable(c.provider, err)
	}
	return err
}

func (c *Client) withRetries(ctx context.Context, method, url string, body []byte, out any) error {
	for attempt := 0; ; attempt++ {
		status, payload, wait, err := c.send(ctx, method, url, body)
		if err != nil {
			if ctx.Err() == nil && attempt < c.maxRetries {
				if err := sleep(ctx, c.backoff(attempt)); err != nil {
					return domain.Unavailable(c.provider, err)
				}
				continue
			}
			return domain.Unavailable(c.provider, fmt.Errorf("send request: %w", err))
		}

		if status == http.StatusTooManyRequests || status >= 500 {
			if attempt < c.maxRetries {
				if wait == 0 {
					wait = c.backoff(attempt)
				}
				if err := sleep(ctx, wait); err != nil {
					return domain.Unavailable(c.provider, err)
				}
				continue
			}
			return &domain.ProviderError{
				Provider:   c.provider,
				Kind:       domain.ProviderUnavailable,
				StatusCode: status,
				Err:        errors.New(snippet(payload)),
			}
		}

		if status >= 300 {
			return domain.Rejected(c.provider, status, errors.New(snippet(payload)))
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return domain.Rejected(c.provider, status, fmt.Errorf("decode response: %w", err))
		}
		return nil
	}
}

func (c *Client) send(ctx context.Context, method, url string, body []byte) (int, []byte, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("read response: %w", err)
	}
	var wait time.Duration
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			wait = time.Duration(secs) * time.Second
		}
	}
	return resp.StatusCode, payload, wait, nil
}

func retryDelay(attempt int) time.Duration {
	attempt = min(max(attempt, 0), 16)
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func snippet(payload []byte) string {
	s := strings.TrimSpace(string(payload))
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	if s == "" {
		s = "empty response"
	}
	return s
}
