package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/jhillyerd/enmime"
	"github.com/mythictransfers/supportdesk/internal/models"
)

const defaultSMTPTimeout = 30 * time.Second

// SMTPSender submits replies to an SMTP server. STARTTLS is used when the
// server advertises it; plain relays are spoken to in clear text.
type SMTPSender struct {
	addr     string
	username string
	password string
	from     string
	timeout  time.Duration
	now      func() time.Time
}

func NewSMTPSender(addr, username, password, from string) *SMTPSender {
	return &SMTPSender{
		addr:     addr,
		username: username,
		password: password,
		from:     from,
		timeout:  defaultSMTPTimeout,
		now:      time.Now,
	}
}

// Send builds a multipart text/HTML message and submits it. The returned id is
// the generated Message-ID header.
func (s *SMTPSender) Send(ctx context.Context, msg *models.OutboundMessage) (string, error) {
	if err := validateOutbound(msg); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(s.from))
	toName, toAddr := splitAddress(msg.To)

	builder := enmime.Builder().
		From("", s.from).
		To(toName, toAddr).
		Subject(msg.Subject).
		Date(s.now()).
		Header("Message-ID", messageID).
		Text([]byte(msg.TextBody)).
		HTML([]byte(RenderHTML(msg.TextBody)))
	for name, value := range threadingHeaders(msg) {
		builder = builder.Header(name, value)
	}

	part, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build message: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}

	if err := s.submit(ctx, toAddr, &buf); err != nil {
		return "", fmt.Errorf("failed to send via SMTP: %w", err)
	}

	return messageID, nil
}

func (s *SMTPSender) submit(ctx context.Context, to string, body *bytes.Buffer) error {
	c, release, err := s.dial(ctx, false)
	if err != nil {
		return err
	}
	if ok, _ := c.Extension("STARTTLS"); ok {
		release()
		if c, release, err = s.dial(ctx, true); err != nil {
			return err
		}
	}
	defer release()

	if s.username != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return fmt.Errorf("server %s does not support AUTH", s.addr)
		}
		if err := c.Auth(sasl.NewPlainClient("", s.username, s.password)); err != nil {
			return err
		}
	}
	if err := c.SendMail(s.from, []string{to}, body); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return c.Quit()
}

// dial connects to the server. The connection is closed as soon as ctx ends,
// which unblocks any command in flight. release must be called when done.
func (s *SMTPSender) dial(ctx context.Context, startTLS bool) (*smtp.Client, func(), error) {
	dialer := &net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return nil, nil, err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	var c *smtp.Client
	if startTLS {
		host, _, _ := net.SplitHostPort(s.addr)
		c, err = smtp.NewClientStartTLS(conn, &tls.Config{ServerName: host})
		if err != nil {
			stop()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			return nil, nil, err
		}
	} else {
		c = smtp.NewClient(conn)
	}
	c.CommandTimeout = s.timeout
	c.SubmissionTimeout = s.timeout

	release := func() {
		stop()
		_ = c.Close()
	}
	return c, release, nil
}

func domainOf(address string) string {
	if parsed, err := netmail.ParseAddress(address); err == nil {
		address = parsed.Address
	}
	if at := strings.LastIndex(address, "@"); at >= 0 && at < len(address)-1 {
		return address[at+1:]
	}
	return "localhost"
}

// splitAddress separates "Jane <jane@example.com>" into name and address.
// Unparseable input is used verbatim as the address.
func splitAddress(address string) (string, string) {
	parsed, err := netmail.ParseAddress(address)
	if err != nil {
		return "", strings.TrimSpace(address)
	}
	return parsed.Name, parsed.Address
}
