package mail

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeWebhook(t *testing.T) {
	t.Run("decodes provider payload", func(t *testing.T) {
		body := `{
			"From": "jane@example.com",
			"FromName": "Jane",
			"To": "info@mythicappareltees.com",
			"Subject": "Where is my order?",
			"TextBody": "Hi, where is order #45612?",
			"MessageID": "a8c1-4b2e",
			"Date": "Mon, 2 Jan 2006 15:04:05 -0700",
			"Attachments": [{"Name": "box.jpg", "ContentType": "image/jpeg", "ContentLength": 2048}],
			"Headers": [{"Name": "X-Spam-Score", "Value": "0"}]
		}`
		payload, err := DecodeWebhook(strings.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", payload.From)
		assert.Equal(t, "a8c1-4b2e", payload.MessageID)
		require.Len(t, payload.Attachments, 1)
		assert.Equal(t, int64(2048), payload.Attachments[0].ContentLength)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		_, err := DecodeWebhook(strings.NewReader("{not json"))
		assert.Error(t, err)
	})
}

func TestParseInbound(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("missing text and html bodies yields empty string", func(t *testing.T) {
		msg := ParseInbound(&WebhookPayload{From: "a@example.com"}, now)
		assert.Equal(t, "", msg.Body)
		assert.NotNil(t, msg.Attachments)
		assert.NotNil(t, msg.Headers)
	})

	t.Run("nil payload degrades to defaults", func(t *testing.T) {
		msg := ParseInbound(nil, now)
		assert.Equal(t, "", msg.Body)
		assert.Equal(t, NoSubject, msg.Subject)
		assert.Equal(t, now, msg.ReceivedAt)
	})

	t.Run("prefers text body over html", func(t *testing.T) {
		msg := ParseInbound(&WebhookPayload{TextBody: "plain", HtmlBody: "<p>html</p>"}, now)
		assert.Equal(t, "plain", msg.Body)
		assert.Equal(t, "<p>html</p>", msg.HTMLBody)
	})

	t.Run("derives body from html when text is absent", func(t *testing.T) {
		msg := ParseInbound(&WebhookPayload{HtmlBody: "<p>Hello</p>Order&nbsp;#1234<br>"}, now)
		assert.Equal(t, "Hello\n\nOrder #1234", msg.Body)
	})

	t.Run("falls back to full address fields", func(t *testing.T) {
		msg := ParseInbound(&WebhookPayload{
			FromFull: &WebhookAddress{Email: "full@example.com", Name: "Full Name"},
			ToFull:   []WebhookAddress{{Email: "first@shop.com"}, {Email: "second@shop.com"}},
		}, now)
		assert.Equal(t, "full@example.com", msg.From)
		assert.Equal(t, "Full Name", msg.FromName)
		assert.Equal(t, "first@shop.com", msg.To)
	})

	t.Run("flat fields win over full fields", func(t *testing.T) {
		msg := ParseInbound(&WebhookPayload{
			From:     "flat@example.com",
			FromFull: &WebhookAddress{Email: "full@example.com"},
		}, now)
		assert.Equal(t, "flat@example.com", msg.From)
	})

	t.Run("empty subject gets placeholder", func(t *testing.T) {
		msg := ParseInbound(&WebhookPayload{}, now)
		assert.Equal(t, "(No Subject)", msg.Subject)
	})

	t.Run("parses provider date", func(t *testing.T) {
		msg := ParseInbound(&WebhookPayload{Date: "Mon, 2 Jan 2006 15:04:05 -0700"}, now)
		assert.True(t, msg.ReceivedAt.Equal(time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC)))
	})

	t.Run("unparseable date falls back to now", func(t *testing.T) {
		msg := ParseInbound(&WebhookPayload{Date: "yesterday-ish"}, now)
		assert.Equal(t, now, msg.ReceivedAt)
	})

	t.Run("copies attachment metadata and headers", func(t *testing.T) {
		msg := ParseInbound(&WebhookPayload{
			MessageID:   "abc-123",
			Attachments: []WebhookAttachment{{Name: "photo.png", ContentType: "image/png", ContentLength: 10, ContentID: "cid1"}},
			Headers:     []WebhookHeader{{Name: "Message-ID", Value: "<abc@mail>"}},
		}, now)
		assert.Equal(t, "abc-123", msg.MessageID)
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, "photo.png", msg.Attachments[0].Name)
		assert.Equal(t, "cid1", msg.Attachments[0].ContentID)
		require.Len(t, msg.Headers, 1)
		assert.Equal(t, "<abc@mail>", msg.Headers[0].Value)
	})
}
