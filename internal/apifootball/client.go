// Package apifootball is a small client for the api-football v3 REST API.
package apifootball

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"safe-bets/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api-football-v1.p.rapidapi.com/v3"
	DefaultHost        = "api-football-v1.p.rapidapi.com"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1500 * time.Millisecond
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// ErrMissingKey is returned by NewClient without an API key.
var ErrMissingKey = errors.New("api key is required")

// APIError is a non-retryable error reported by the API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != http.StatusOK {
		return fmt.Sprintf("api-football %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api-football %s: %s", e.Endpoint, e.Message)
}

// Client calls api-football with retries and exponential backoff.
type Client struct {
	baseURL     string
	apiKey      string
	host        string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	logger      *log.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHost sets the X-RapidAPI-Host header.
func WithHost(host string) ClientOption {
	return func(c *Client) {
		c.host = host
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new api-football client.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingKey
	}
	c := &Client{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		host:        DefaultHost,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is the common response wrapper.
type envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

// retryable reports whether a status code is worth another attempt.
func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// get performs a GET with retries and decodes the "response" member into result.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	start := time.Now()
	defer func() {
		observability.RecordAPICall(endpoint, time.Since(start).Seconds())
	}()

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Printf("WARN: %s retry %d/%d after %v: %v", endpoint, attempt, c.maxRetries, delay, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
		req.Header.Set("X-RapidAPI-Host", c.host)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			observability.RecordAPIRetry(endpoint, "transport")
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			observability.RecordAPIRetry(endpoint, "read")
			continue
		}

		if retryable(resp.StatusCode) {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			observability.RecordAPIRetry(endpoint, strconv.Itoa(resp.StatusCode))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: truncate(string(body), 400)}
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("unmarshal %s response: %w", endpoint, err)
		}
		if msg := apiErrors(env.Errors); msg != "" {
			return &APIError{Endpoint: endpoint, StatusCode: http.StatusOK, Message: msg}
		}

		if result != nil && len(env.Response) > 0 {
			if err := json.Unmarshal(env.Response, result); err != nil {
				return fmt.Errorf("unmarshal %s result: %w", endpoint, err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// apiErrors flattens the "errors" member, which is [] when empty and an object otherwise.
func apiErrors(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var byKey map[string]string
	if err := json.Unmarshal(raw, &byKey); err == nil {
		parts := make([]string, 0, len(byKey))
		for k, v := range byKey {
			parts = append(parts, k+": "+v)
		}
		sort.Strings(parts)
		return strings.Join(parts, "; ")
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
