package testutil

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/backend/memory"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/server"
)

// TestIMAPServer is an in-memory IMAP server. The memory backend has a
// single user "username" with password "password" and an INBOX.
type TestIMAPServer struct {
	Server  *server.Server
	Address string
	Backend *memory.Backend
}

// NewTestIMAPServer starts a server on a random local port and closes it
// when the test ends.
func NewTestIMAPServer(t *testing.T) *TestIMAPServer {
	t.Helper()

	s, err := StartIMAPServer("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start IMAP server: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// StartIMAPServer starts a server on addr. It is used outside tests by the sandbox.
func StartIMAPServer(addr string) (*TestIMAPServer, error) {
	be := memory.New()
	s := server.New(be)
	s.AllowInsecureAuth = true

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	go func() {
		_ = s.Serve(listener)
	}()

	return &TestIMAPServer{
		Server:  s,
		Address: listener.Addr().String(),
		Backend: be,
	}, nil
}

// Close shuts down the server.
func (s *TestIMAPServer) Close() {
	_ = s.Server.Close()
}

// Username returns the default test username.
func (s *TestIMAPServer) Username() string {
	return "username"
}

// Password returns the default test password.
func (s *TestIMAPServer) Password() string {
	return "password"
}

// Connect creates a new logged-in IMAP client.
func (s *TestIMAPServer) Connect(t *testing.T) (*imapclient.Client, func()) {
	t.Helper()

	client, err := imapclient.Dial(s.Address)
	if err != nil {
		t.Fatalf("Failed to connect to test server: %v", err)
	}

	if err := client.Login(s.Username(), s.Password()); err != nil {
		_ = client.Logout()
		t.Fatalf("Failed to login: %v", err)
	}

	return client, func() { _ = client.Logout() }
}

// RawMessage renders a minimal plain-text RFC 5322 message.
func RawMessage(messageID, from, subject, body string, sentAt time.Time) string {
	var b strings.Builder
	if messageID != "" {
		fmt.Fprintf(&b, "Message-ID: %s\r\n", messageID)
	}
	fmt.Fprintf(&b, "Date: %s\r\n", sentAt.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "From: %s\r\n", from)
	b.WriteString("To: info@mythicappareltees.com\r\n")
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.String()
}

// AddMessage appends raw to folder with the given flags.
func (s *TestIMAPServer) AddMessage(t *testing.T, folder, raw string, flags ...string) {
	t.Helper()

	if err := s.Append(folder, raw, flags...); err != nil {
		t.Fatalf("Failed to append message: %v", err)
	}
}

// Append is AddMessage for callers without a *testing.T.
func (s *TestIMAPServer) Append(folder, raw string, flags ...string) error {
	client, err := imapclient.Dial(s.Address)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = client.Logout() }()

	if err := client.Login(s.Username(), s.Password()); err != nil {
		return fmt.Errorf("failed to login: %w", err)
	}
	return client.Append(folder, flags, time.Now(), strings.NewReader(raw))
}

// Flags returns the flags of every message in folder, keyed by UID.
func (s *TestIMAPServer) Flags(t *testing.T, folder string) map[uint32][]string {
	t.Helper()

	client, cleanup := s.Connect(t)
	defer cleanup()

	mbox, err := client.Select(folder, true)
	if err != nil {
		t.Fatalf("Failed to select %s: %v", folder, err)
	}

	result := make(map[uint32][]string)
	if mbox.Messages == 0 {
		return result
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddRange(1, mbox.Messages)

	messages := make(chan *imap.Message, mbox.Messages)
	if err := client.Fetch(seqSet, []imap.FetchItem{imap.FetchUid, imap.FetchFlags}, messages); err != nil {
		t.Fatalf("Failed to fetch flags: %v", err)
	}
	for msg := range messages {
		result[msg.Uid] = msg.Flags
	}
	return result
}
