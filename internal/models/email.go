package models

import "time"

// InboundMessage is a normalized customer email, produced once per delivery
// and never mutated afterwards.
type InboundMessage struct {
	From        string       `json:"from"`
	FromName    string       `json:"fromName"`
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	HTMLBody    string       `json:"htmlBody,omitempty"`
	MessageID   string       `json:"messageId,omitempty"`
	ReceivedAt  time.Time    `json:"date"`
	Attachments []Attachment `json:"attachments"`
	Headers     []Header     `json:"headers"`
}

type Attachment struct {
	Name          string `json:"name"`
	ContentType   string `json:"contentType"`
	ContentLength int64  `json:"contentLength"`
	ContentID     string `json:"contentId,omitempty"`
}

type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OutboundMessage is a reply handed to a mail sender.
type OutboundMessage struct {
	To        string
	Subject   string
	TextBody  string
	InReplyTo string
}
