// Package events publishes triage and review outcomes to a RabbitMQ topic exchange.
package events

import (
	"context"
	"time"
)

// ExchangeName is the topic exchange events are published to.
const ExchangeName = "supportdesk.events"

// Routing keys.
const (
	TriageAutoSent   = "triage.auto_sent"
	ReviewEnqueued   = "review.enqueued"
	ReviewApproved   = "review.approved"
	ReviewRejected   = "review.rejected"
	ReviewSendFailed = "review.send_failed"
)

// Event is the JSON body of every published message.
type Event struct {
	Type       string    `json:"type"`
	ReviewID   string    `json:"reviewId,omitempty"`
	MessageID  string    `json:"messageId,omitempty"`
	SentID     string    `json:"sentMessageId,omitempty"`
	From       string    `json:"from,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	Route      string    `json:"route,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher sends events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
