package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/mythictransfers/supportdesk/internal/auth"
	"github.com/mythictransfers/supportdesk/internal/logger"
	ws "github.com/mythictransfers/supportdesk/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler handles /api/ws, which pushes queue changes to open dashboards.
type WebSocketHandler struct {
	hub  *ws.Hub
	auth *auth.Authenticator
	log  *zap.Logger
}

func NewWebSocketHandler(hub *ws.Hub, authenticator *auth.Authenticator, log *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:  hub,
		auth: authenticator,
		log:  logger.Named(log, "ws_handler"),
	}
}

var wsUpgrader = websocket.Upgrader{
	// The dashboard is served from the same origin; deployments sit behind a
	// reverse proxy that terminates TLS.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates and upgrades the connection. Browsers cannot set
// headers on WebSocket requests, so the token comes from ?token= and falls
// back to the Authorization header.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	reviewer := auth.AnonymousReviewer
	if h.auth.Enabled() {
		token := r.URL.Query().Get("token")
		if token == "" {
			token, _ = auth.BearerToken(r.Header.Get("Authorization"))
		}
		if token == "" {
			h.log.Debug("No token provided")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		email, err := h.auth.ValidateToken(token)
		if err != nil {
			h.log.Info("Token validation failed", zap.Error(err))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		reviewer = email
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Failed to upgrade connection", zap.String("reviewer", reviewer), zap.Error(err))
		return
	}

	client := h.hub.Register(reviewer, conn)
	if client == nil {
		return
	}
	h.log.Debug("WebSocket connection established", zap.String("reviewer", reviewer))

	go h.readLoop(reviewer, client)
}

// readLoop drains the connection until it closes, then unregisters it.
// Dashboards never send anything meaningful.
func (h *WebSocketHandler) readLoop(reviewer string, client *ws.Client) {
	conn := client.Conn()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.hub.Unregister(reviewer, client)
}
