package imap

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/jhillyerd/enmime"
	"github.com/mythictransfers/supportdesk/internal/mail"
	"github.com/mythictransfers/supportdesk/internal/models"
)

var errNoBody = errors.New("message has no body section")

// ParseMessage converts a fetched IMAP message into an InboundMessage shaped
// like a webhook delivery. The envelope wins for addressing; enmime supplies
// the bodies, attachment metadata and headers.
func ParseMessage(imapMsg *imap.Message, now time.Time) (*models.InboundMessage, error) {
	if imapMsg == nil {
		return nil, fmt.Errorf("imap message is nil")
	}

	msg := &models.InboundMessage{
		ReceivedAt:  now,
		Attachments: make([]models.Attachment, 0),
		Headers:     make([]models.Header, 0),
	}

	if env := imapMsg.Envelope; env != nil {
		if len(env.From) > 0 {
			msg.From = bareAddress(env.From[0])
			msg.FromName = env.From[0].PersonalName
		}
		if len(env.To) > 0 {
			msg.To = bareAddress(env.To[0])
		}
		msg.Subject = env.Subject
		msg.MessageID = env.MessageId
		if !env.Date.IsZero() {
			msg.ReceivedAt = env.Date
		}
	}

	body := messageBody(imapMsg)
	if body == nil {
		return nil, errNoBody
	}
	if err := parseBody(body, msg); err != nil {
		return nil, err
	}

	if msg.Subject == "" {
		msg.Subject = mail.NoSubject
	}
	return msg, nil
}

// messageBody returns the full-message literal. Servers answer BODY.PEEK[]
// as BODY[], so the section is looked up without regard to Peek.
func messageBody(imapMsg *imap.Message) imap.Literal {
	if literal := imapMsg.GetBody(&imap.BodySectionName{}); literal != nil {
		return literal
	}
	for section, literal := range imapMsg.Body {
		if section.Specifier == imap.EntireSpecifier && len(section.Path) == 0 {
			return literal
		}
	}
	return nil
}

// parseBody parses the email body using enmime.
func parseBody(bodyReader io.Reader, msg *models.InboundMessage) error {
	envelope, err := enmime.ReadEnvelope(bodyReader)
	if err != nil {
		return fmt.Errorf("failed to parse email body: %w", err)
	}

	msg.HTMLBody = envelope.HTML
	msg.Body = strings.TrimSpace(envelope.Text)
	if msg.Body == "" {
		msg.Body = mail.StripHTML(envelope.HTML)
	}

	parts := append(append([]*enmime.Part{}, envelope.Attachments...), envelope.Inlines...)
	for _, part := range parts {
		msg.Attachments = append(msg.Attachments, models.Attachment{
			Name:          part.FileName,
			ContentType:   part.ContentType,
			ContentLength: int64(len(part.Content)),
			ContentID:     part.ContentID,
		})
	}

	keys := envelope.GetHeaderKeys()
	sort.Strings(keys)
	for _, key := range keys {
		for _, value := range envelope.GetHeaderValues(key) {
			msg.Headers = append(msg.Headers, models.Header{Name: key, Value: value})
		}
	}

	if msg.MessageID == "" {
		msg.MessageID = envelope.GetHeader("Message-Id")
	}
	return nil
}

// bareAddress formats an IMAP address as local@host, without the display name.
func bareAddress(address *imap.Address) string {
	if address == nil || (address.MailboxName == "" && address.HostName == "") {
		return ""
	}
	return fmt.Sprintf("%s@%s", address.MailboxName, address.HostName)
}
