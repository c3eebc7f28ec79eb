package api

import (
	"context"
	"net/http"
	"time"

	"github.com/mythictransfers/supportdesk/internal/logger"
	"github.com/mythictransfers/supportdesk/internal/mail"
	"github.com/mythictransfers/supportdesk/internal/models"
	"github.com/mythictransfers/supportdesk/internal/orchestrator"
	"go.uber.org/zap"
)

// maxWebhookBody bounds the inbound payload. Attachment bodies are not needed.
const maxWebhookBody = 10 << 20

// InboundProcessor runs one inbound message through triage.
type InboundProcessor interface {
	HandleInbound(ctx context.Context, source string, msg *models.InboundMessage) (*orchestrator.Outcome, error)
}

// WebhookHandler receives inbound mail from the email provider.
type WebhookHandler struct {
	processor InboundProcessor
	log       *zap.Logger
	now       func() time.Time
}

func NewWebhookHandler(processor InboundProcessor, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		log:       logger.Named(log, "webhook"),
		now:       time.Now,
	}
}

type webhookResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// HandleInbound answers 200 once the message has been sent or queued, so the
// provider only redelivers messages that actually failed.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	payload, err := mail.DecodeWebhook(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.log.Warn("Rejected undecodable webhook payload", zap.Error(err))
		writeError(w, h.log, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	msg := mail.ParseInbound(payload, h.now())
	h.log.Info("Received inbound email",
		zap.String("message_id", msg.MessageID),
		zap.String("from", msg.From),
		zap.String("subject", msg.Subject))

	outcome, err := h.processor.HandleInbound(r.Context(), orchestrator.SourceWebhook, msg)
	if err != nil {
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, h.log, http.StatusOK, webhookResponse{Status: "processed", Duplicate: outcome.Duplicate})
}
