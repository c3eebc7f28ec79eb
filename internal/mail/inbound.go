package mail

import (
	"encoding/json"
	"fmt"
	"io"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/mythictransfers/supportdesk/internal/models"
)

// NoSubject is used when an inbound message has an empty subject.
const NoSubject = "(No Subject)"

// WebhookPayload is the inbound-message JSON posted by the mail provider.
type WebhookPayload struct {
	From        string              `json:"From"`
	FromName    string              `json:"FromName"`
	FromFull    *WebhookAddress     `json:"FromFull"`
	To          string              `json:"To"`
	ToFull      []WebhookAddress    `json:"ToFull"`
	Subject     string              `json:"Subject"`
	TextBody    string              `json:"TextBody"`
	HtmlBody    string              `json:"HtmlBody"`
	MessageID   string              `json:"MessageID"`
	Date        string              `json:"Date"`
	Attachments []WebhookAttachment `json:"Attachments"`
	Headers     []WebhookHeader     `json:"Headers"`
}

type WebhookAddress struct {
	Email string `json:"Email"`
	Name  string `json:"Name"`
}

type WebhookAttachment struct {
	Name          string `json:"Name"`
	ContentType   string `json:"ContentType"`
	ContentLength int64  `json:"ContentLength"`
	ContentID     string `json:"ContentID"`
}

type WebhookHeader struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// DecodeWebhook decodes a webhook request body. Only undecodable JSON is an error;
// missing fields are defaulted later by ParseInbound.
func DecodeWebhook(r io.Reader) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	return &payload, nil
}

// ParseInbound normalizes a webhook payload. It never fails: absent fields
// degrade to empty values and the body is always a non-nil string.
func ParseInbound(p *WebhookPayload, now time.Time) *models.InboundMessage {
	if p == nil {
		p = &WebhookPayload{}
	}

	msg := &models.InboundMessage{
		From:        p.From,
		FromName:    p.FromName,
		To:          p.To,
		Subject:     p.Subject,
		HTMLBody:    p.HtmlBody,
		MessageID:   p.MessageID,
		ReceivedAt:  parseDate(p.Date, now),
		Attachments: make([]models.Attachment, 0, len(p.Attachments)),
		Headers:     make([]models.Header, 0, len(p.Headers)),
	}

	if msg.From == "" && p.FromFull != nil {
		msg.From = p.FromFull.Email
	}
	if msg.FromName == "" && p.FromFull != nil {
		msg.FromName = p.FromFull.Name
	}
	if msg.To == "" && len(p.ToFull) > 0 {
		msg.To = p.ToFull[0].Email
	}
	if msg.Subject == "" {
		msg.Subject = NoSubject
	}

	msg.Body = p.TextBody
	if msg.Body == "" {
		msg.Body = StripHTML(p.HtmlBody)
	}

	for _, a := range p.Attachments {
		msg.Attachments = append(msg.Attachments, models.Attachment{
			Name:          a.Name,
			ContentType:   a.ContentType,
			ContentLength: a.ContentLength,
			ContentID:     a.ContentID,
		})
	}
	for _, h := range p.Headers {
		msg.Headers = append(msg.Headers, models.Header{Name: h.Name, Value: h.Value})
	}

	return msg
}

func parseDate(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if t, err := netmail.ParseDate(value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return fallback
}
