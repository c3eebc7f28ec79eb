package api

import (
	"net/http"

	"github.com/mythictransfers/supportdesk/internal/auth"
	"github.com/mythictransfers/supportdesk/internal/logger"
	ws "github.com/mythictransfers/supportdesk/internal/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterDeps are the collaborators behind the HTTP surface.
type RouterDeps struct {
	Processor       InboundProcessor
	Reviews         ReviewService
	Hub             *ws.Hub
	Auth            *auth.Authenticator
	WebhookUsername string
	WebhookPassword string
	Logger          *zap.Logger
}

// NewRouter wires every route of the server.
func NewRouter(deps RouterDeps) http.Handler {
	log := logger.Named(deps.Logger, "api")

	webhook := NewWebhookHandler(deps.Processor, deps.Logger)
	reviews := NewReviewHandler(deps.Reviews, deps.Logger)
	wsHandler := NewWebSocketHandler(deps.Hub, deps.Auth, deps.Logger)

	mux := http.NewServeMux()
	handle := func(pattern, route string, h http.Handler) {
		mux.Handle(pattern, instrument(route, h))
	}

	handle("POST /webhook/inbound", "/webhook/inbound",
		auth.RequireBasicAuth(deps.WebhookUsername, deps.WebhookPassword, http.HandlerFunc(webhook.HandleInbound)))

	handle("GET /api/review", "/api/review", deps.Auth.RequireAuth(http.HandlerFunc(reviews.List)))
	handle("GET /api/review/{id}", "/api/review/{id}", deps.Auth.RequireAuth(http.HandlerFunc(reviews.Get)))
	handle("POST /api/review/{id}/approve", "/api/review/{id}/approve", deps.Auth.RequireAuth(http.HandlerFunc(reviews.Approve)))
	handle("POST /api/review/{id}/reject", "/api/review/{id}/reject", deps.Auth.RequireAuth(http.HandlerFunc(reviews.Reject)))

	// Authenticates itself from the query string.
	handle("GET /api/ws", "/api/ws", http.HandlerFunc(wsHandler.Handle))

	handle("GET /health", "/health", handleHealth(log))
	handle("GET /dashboard", "/dashboard", http.HandlerFunc(handleDashboard))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{$}", handleRoot)

	return mux
}
