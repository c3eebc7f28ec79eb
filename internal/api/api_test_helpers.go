package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mythictransfers/supportdesk/internal/auth"
	"github.com/mythictransfers/supportdesk/internal/models"
	"github.com/mythictransfers/supportdesk/internal/orchestrator"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret"

// processorFunc adapts a function to InboundProcessor.
type processorFunc func(ctx context.Context, source string, msg *models.InboundMessage) (*orchestrator.Outcome, error)

func (f processorFunc) HandleInbound(ctx context.Context, source string, msg *models.InboundMessage) (*orchestrator.Outcome, error) {
	return f(ctx, source, msg)
}

// newRequest builds a request with an optional JSON body.
func newRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// withReviewer stores a reviewer in the request context the way RequireAuth does.
func withReviewer(req *http.Request, email string) *http.Request {
	return req.WithContext(auth.WithReviewer(req.Context(), email))
}

func reviewerToken(t *testing.T, authenticator *auth.Authenticator, email string) string {
	t.Helper()
	token, err := authenticator.GenerateToken(email, time.Hour)
	require.NoError(t, err)
	return token
}
