package models

import (
	"time"
	"unicode/utf8"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Valid reports whether s is one of the known review states.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// ReviewItem is a drafted reply held for a human decision.
// Items are never deleted; approved and rejected items stay queryable by id.
type ReviewItem struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"timestamp"`
	Email         *InboundMessage `json:"email"`
	Draft         *DraftResponse  `json:"aiResponse"`
	Analysis      *Analysis       `json:"analysis"`
	Status        ReviewStatus    `json:"status"`
	ActionedBy    string          `json:"actionedBy,omitempty"`
	ActionedAt    *time.Time      `json:"actionedAt,omitempty"`
	SentMessageID string          `json:"sentMessageId,omitempty"`
	SendError     string          `json:"sendError,omitempty"`
}

// PreviewLength is the number of characters of the body shown in listings.
const PreviewLength = 200

// ReviewSummary is the listing view of a pending ReviewItem.
type ReviewSummary struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Preview    string    `json:"preview"`
	Intent     Intent    `json:"intent,omitempty"`
	Sentiment  Sentiment `json:"sentiment,omitempty"`
	AIResponse string    `json:"aiResponse"`
}

// ReviewListResponse is the body of GET /api/review.
type ReviewListResponse struct {
	Count int              `json:"count"`
	Items []*ReviewSummary `json:"items"`
}

// Summary builds the listing view of the item.
func (item *ReviewItem) Summary() *ReviewSummary {
	summary := &ReviewSummary{
		ID:        item.ID,
		Timestamp: item.CreatedAt,
	}
	if item.Email != nil {
		summary.From = item.Email.From
		summary.Subject = item.Email.Subject
		summary.Preview = Truncate(item.Email.Body, PreviewLength)
	}
	if item.Analysis != nil {
		summary.Intent = item.Analysis.Intent
		summary.Sentiment = item.Analysis.Sentiment
	}
	if item.Draft != nil {
		summary.AIResponse = item.Draft.Response
	}
	return summary
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
