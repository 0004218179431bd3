package apifootball

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *bytes.Buffer) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var logs bytes.Buffer
	c, err := NewClient("test-key",
		WithBaseURL(server.URL),
		WithRetryDelay(time.Millisecond),
		WithMaxDelay(2*time.Millisecond),
		WithLogger(log.New(&logs, "", 0)),
	)
	require.NoError(t, err)
	return c, &logs
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("")
	assert.True(t, errors.Is(err, ErrMissingKey))
}

func TestClient_SendsHeaders(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, DefaultHost, r.Header.Get("X-RapidAPI-Host"))
		assert.Equal(t, "/teams", r.URL.Path)
		assert.Equal(t, "39", r.URL.Query().Get("league"))
		assert.Equal(t, "2025", r.URL.Query().Get("season"))
		w.Write([]byte(`{"errors":[],"results":2,"response":[{"team":{"id":33,"name":"Man Utd"}},{"team":{"id":40,"name":"Liverpool"}},{"team":{"id":0}}]}`))
	})

	teams, err := c.Teams(context.Background(), 39, "2025")
	require.NoError(t, err)
	assert.Equal(t, []Team{{ID: 33, Name: "Man Utd"}, {ID: 40, Name: "Liverpool"}}, teams)
}

func TestClient_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	c, logs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.Write([]byte(`{"errors":[],"response":[]}`))
		}
	})

	teams, err := c.Teams(context.Background(), 39, "2025")
	require.NoError(t, err)
	assert.Empty(t, teams)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, logs.String(), "WARN: /teams retry 1/3")
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Teams(context.Background(), 39, "2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(DefaultMaxRetries+1), calls.Load())
}

func TestClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"You are not subscribed"}`))
	})

	_, err := c.Teams(context.Background(), 39, "2025")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_APIErrorsMember(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":{"token":"Error/Missing application key"},"response":[]}`))
	})

	_, err := c.Teams(context.Background(), 39, "2025")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "token: Error/Missing application key", apiErr.Message)
}

func TestClient_ContextCancelStopsRetries(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c.retryDelay = time.Hour
	c.maxDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Teams(ctx, 39, "2025")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRetryable(t *testing.T) {
	for status, want := range map[int]bool{
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusGatewayTimeout:      true,
		http.StatusBadRequest:          false,
		http.StatusNotFound:            false,
	} {
		if got := retryable(status); got != want {
			t.Errorf("retryable(%d) = %v, want %v", status, got, want)
		}
	}
}
