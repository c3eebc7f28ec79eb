package mail

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mythictransfers/supportdesk/internal/models"
	"github.com/mythictransfers/supportdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplySubject(t *testing.T) {
	assert.Equal(t, "Re: Where is my order?", ReplySubject("Where is my order?"))
	assert.Equal(t, "Re: already", ReplySubject("Re: already"))
	assert.Equal(t, "Re:tight", ReplySubject("Re:tight"))
	assert.Equal(t, "Re: RE: shouting", ReplySubject("RE: shouting"))
}

func TestNewReply(t *testing.T) {
	inbound := &models.InboundMessage{From: "jane@example.com", Subject: "Hello", MessageID: "pm-1"}
	reply := NewReply(inbound, "Hi Jane")

	assert.Equal(t, "jane@example.com", reply.To)
	assert.Equal(t, "Re: Hello", reply.Subject)
	assert.Equal(t, "Hi Jane", reply.TextBody)
	assert.Equal(t, "pm-1", reply.InReplyTo)
}

func TestPostmarkSender_Send(t *testing.T) {
	t.Run("posts email with threading headers", func(t *testing.T) {
		var received postmarkEmail
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/email", r.URL.Path)
			assert.Equal(t, "pm-token", r.Header.Get("X-Postmark-Server-Token"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			_, _ = w.Write([]byte(`{"To":"jane@example.com","MessageID":"msg-789","ErrorCode":0,"Message":"OK"}`))
		}))
		defer server.Close()

		sender := NewPostmarkSender(server.URL, "pm-token", "info@shop.com", 5*time.Second)
		id, err := sender.Send(context.Background(), &models.OutboundMessage{
			To:        "jane@example.com",
			Subject:   "Re: Hello",
			TextBody:  "Line one\nLine <two>",
			InReplyTo: "orig-1",
		})

		require.NoError(t, err)
		assert.Equal(t, "msg-789", id)
		assert.Equal(t, "info@shop.com", received.From)
		assert.Equal(t, "outbound", received.MessageStream)
		assert.Contains(t, received.HtmlBody, "Line one<br>Line &lt;two&gt;")
		assert.Equal(t, []postmarkHeader{
			{Name: "In-Reply-To", Value: "orig-1"},
			{Name: "References", Value: "orig-1"},
		}, received.Headers)
	})

	t.Run("omits threading headers without a message id", func(t *testing.T) {
		var raw map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
			_, _ = w.Write([]byte(`{"MessageID":"m","ErrorCode":0}`))
		}))
		defer server.Close()

		sender := NewPostmarkSender(server.URL, "t", "info@shop.com", 0)
		_, err := sender.Send(context.Background(), &models.OutboundMessage{To: "a@b.com", Subject: "Re: x"})
		require.NoError(t, err)
		_, hasHeaders := raw["Headers"]
		assert.False(t, hasHeaders)
	})

	t.Run("surfaces provider errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid 'To' address"}`))
		}))
		defer server.Close()

		sender := NewPostmarkSender(server.URL, "t", "info@shop.com", 0)
		_, err := sender.Send(context.Background(), &models.OutboundMessage{To: "bad", Subject: "Re: x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid 'To' address")
	})

	t.Run("rejects empty recipient", func(t *testing.T) {
		sender := NewPostmarkSender("http://unused", "t", "info@shop.com", 0)
		_, err := sender.Send(context.Background(), &models.OutboundMessage{Subject: "Re: x"})
		assert.ErrorIs(t, err, ErrNoRecipient)
	})
}

func TestSMTPSender_Send(t *testing.T) {
	server := testutil.NewTestSMTPServer(t)
	defer server.Close()

	sender := NewSMTPSender(server.Address, "", "", "info@mythicappareltees.com")

	id, err := sender.Send(context.Background(), &models.OutboundMessage{
		To:        "jane@example.com",
		Subject:   "Re: Where is my order?",
		TextBody:  "Your order shipped!",
		InReplyTo: "<orig@example.com>",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(id, "@mythicappareltees.com>"), "unexpected message id %s", id)

	messages := server.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "info@mythicappareltees.com", messages[0].From)
	assert.Equal(t, []string{"jane@example.com"}, messages[0].To)

	data := string(messages[0].Data)
	assert.Contains(t, data, "Subject: Re: Where is my order?")
	assert.Contains(t, data, "In-Reply-To: <orig@example.com>")
	assert.Contains(t, data, "References: <orig@example.com>")
	assert.Contains(t, data, "Your order shipped!")
	assert.Contains(t, data, "text/html")
}

func TestSMTPSender_PlainRelay(t *testing.T) {
	t.Run("delivers to a relay without STARTTLS", func(t *testing.T) {
		server := testutil.NewTestSMTPServer(t)

		sender := NewSMTPSender(server.Address, "", "", "Mythic Support <info@mythicappareltees.com>")
		_, err := sender.Send(context.Background(), &models.OutboundMessage{
			To:       "Jane Doe <jane@example.com>",
			Subject:  "Re: Pressing temperature",
			TextBody: "Press at 300F for 15 seconds.",
		})
		require.NoError(t, err)

		messages := server.GetMessages()
		require.Len(t, messages, 1)
		assert.Equal(t, []string{"jane@example.com"}, messages[0].To)
	})

	t.Run("stops when the context deadline passes", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		t.Cleanup(func() { _ = listener.Close() })

		// Accepts connections but never sends a greeting.
		go func() {
			for {
				conn, err := listener.Accept()
				if err != nil {
					return
				}
				go func() {
					_, _ = io.Copy(io.Discard, conn)
					_ = conn.Close()
				}()
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		sender := NewSMTPSender(listener.Addr().String(), "", "", "info@mythicappareltees.com")
		start := time.Now()
		_, err = sender.Send(ctx, &models.OutboundMessage{To: "jane@example.com", Subject: "Re: x", TextBody: "hi"})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestSplitAddress(t *testing.T) {
	name, addr := splitAddress("Jane Doe <jane@example.com>")
	assert.Equal(t, "Jane Doe", name)
	assert.Equal(t, "jane@example.com", addr)

	name, addr = splitAddress(" jane@example.com ")
	assert.Empty(t, name)
	assert.Equal(t, "jane@example.com", addr)
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "shop.com", domainOf("info@shop.com"))
	assert.Equal(t, "shop.com", domainOf("Shop Support <info@shop.com>"))
	assert.Equal(t, "localhost", domainOf("nobody"))
}
