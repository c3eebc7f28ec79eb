package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropic(t *testing.T, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewAnthropicClient(AnthropicConfig{
		APIKey:  "sk-test",
		BaseURL: server.URL,
		Model:   "claude-sonnet-4-20250514",
		Timeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)
	client.backoff = func(int) time.Duration { return time.Millisecond }
	return client
}

func TestAnthropicClient_Complete(t *testing.T) {
	t.Run("sends system prompt and returns text blocks", func(t *testing.T) {
		var received anthropicRequest
		client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/messages", r.URL.Path)
			assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
			assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Hello "},{"type":"text","text":"there"}],"stop_reason":"end_turn"}`))
		})

		text, err := client.Complete(context.Background(), Request{System: "be kind", Prompt: "hi", MaxTokens: 256})
		require.NoError(t, err)
		assert.Equal(t, "Hello there", text)
		assert.Equal(t, "claude-sonnet-4-20250514", received.Model)
		assert.Equal(t, 256, received.MaxTokens)
		assert.Equal(t, "be kind", received.System)
		assert.Equal(t, []anthropicMessage{{Role: "user", Content: "hi"}}, received.Messages)
	})

	t.Run("defaults max tokens", func(t *testing.T) {
		var received anthropicRequest
		client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
		})

		_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
		require.NoError(t, err)
		assert.Equal(t, defaultMaxTokens, received.MaxTokens)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"recovered"}]}`))
		})

		text, err := client.Complete(context.Background(), Request{Prompt: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "recovered", text)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad"}}`))
		})

		_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
		require.Error(t, err)
		assert.Equal(t, int32(maxRetries+1), calls.Load())
	})

	t.Run("empty completion", func(t *testing.T) {
		client := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"content":[]}`))
		})

		_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})
}

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	_, err := NewAnthropicClient(AnthropicConfig{}, nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
