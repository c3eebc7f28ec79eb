package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrEmptyCompletion is returned when the model answered with no text.
	ErrEmptyCompletion = errors.New("model returned an empty completion")
	// ErrMissingAPIKey is returned when a client is built without credentials.
	ErrMissingAPIKey = errors.New("llm api key is not configured")
)

const maxRetries = 2

// Request is a single-turn completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
	// JSON asks the provider to answer with a single JSON object.
	JSON bool
	// Schema constrains the JSON object where the provider supports it.
	Schema *Schema
}

// Schema describes a flat JSON object of string and boolean fields.
type Schema struct {
	Properties map[string]Property
	Required   []string
}

// Property is one field of a Schema. Type is "string" or "boolean".
type Property struct {
	Type        string
	Enum        []string
	Description string
}

// Completer turns a prompt into model text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if sent again.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func defaultBackoff(attempt int) time.Duration {
	base := time.Duration(attempt*attempt) * 500 * time.Millisecond
	return base + time.Duration(rand.Int64N(int64(base/2+1)))
}

// doWithRetry sends the request built by buildReq, retrying transport
// failures, 5xx and 429 responses with growing backoff.
func doWithRetry(ctx context.Context, client *http.Client, provider string, backoff func(int) time.Duration,
	log *zap.Logger, buildReq func() (*http.Request, error)) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff(attempt)
			log.Warn("Retrying completion request", zap.Int("attempt", attempt+1), zap.Duration("backoff", wait), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := buildReq()
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
			if !statusErr.Retryable() {
				return nil, statusErr
			}
			lastErr = statusErr
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("%s request failed after %d retries: %w", provider, maxRetries, lastErr)
}
