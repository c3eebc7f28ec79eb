package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mythictransfers/supportdesk/internal/models"
)

// ErrNoRecipient is returned when a reply has no destination address.
var ErrNoRecipient = errors.New("reply has no recipient")

// Sender delivers an outbound reply and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg *models.OutboundMessage) (string, error)
}

// ReplySubject prefixes subject with "Re: " unless it already starts with "Re:".
func ReplySubject(subject string) string {
	if strings.HasPrefix(subject, "Re:") {
		return subject
	}
	return "Re: " + subject
}

// NewReply builds the outbound reply to an inbound message.
func NewReply(to *models.InboundMessage, body string) *models.OutboundMessage {
	return &models.OutboundMessage{
		To:        to.From,
		Subject:   ReplySubject(to.Subject),
		TextBody:  body,
		InReplyTo: to.MessageID,
	}
}

// RenderHTML wraps the reply text in the HTML email layout.
func RenderHTML(text string) string {
	return fmt.Sprintf(`<div style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; font-size: 14px; line-height: 1.6; color: #333;">
%s
</div>`, TextToHTML(text))
}

// threadingHeaders returns the In-Reply-To and References values for a reply.
func threadingHeaders(msg *models.OutboundMessage) map[string]string {
	if msg.InReplyTo == "" {
		return nil
	}
	return map[string]string{
		"In-Reply-To": msg.InReplyTo,
		"References":  msg.InReplyTo,
	}
}

func validateOutbound(msg *models.OutboundMessage) error {
	if msg == nil || strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	return nil
}
