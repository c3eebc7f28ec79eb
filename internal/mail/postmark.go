package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mythictransfers/supportdesk/internal/models"
)

// PostmarkSender sends replies through the Postmark transactional email API.
type PostmarkSender struct {
	baseURL     string
	serverToken string
	from        string
	httpClient  *http.Client
}

func NewPostmarkSender(baseURL, serverToken, from string, timeout time.Duration) *PostmarkSender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PostmarkSender{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		serverToken: serverToken,
		from:        from,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type postmarkEmail struct {
	From          string           `json:"From"`
	To            string           `json:"To"`
	Subject       string           `json:"Subject"`
	TextBody      string           `json:"TextBody"`
	HtmlBody      string           `json:"HtmlBody"`
	MessageStream string           `json:"MessageStream"`
	Headers       []postmarkHeader `json:"Headers,omitempty"`
}

type postmarkHeader struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type postmarkResponse struct {
	To          string `json:"To"`
	SubmittedAt string `json:"SubmittedAt"`
	MessageID   string `json:"MessageID"`
	ErrorCode   int    `json:"ErrorCode"`
	Message     string `json:"Message"`
}

// Send posts the reply and returns Postmark's MessageID.
func (s *PostmarkSender) Send(ctx context.Context, msg *models.OutboundMessage) (string, error) {
	if err := validateOutbound(msg); err != nil {
		return "", err
	}

	email := postmarkEmail{
		From:          s.from,
		To:            msg.To,
		Subject:       msg.Subject,
		TextBody:      msg.TextBody,
		HtmlBody:      RenderHTML(msg.TextBody),
		MessageStream: "outbound",
	}
	headers := threadingHeaders(msg)
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		email.Headers = append(email.Headers, postmarkHeader{Name: name, Value: headers[name]})
	}

	body, err := json.Marshal(email)
	if err != nil {
		return "", fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/email", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", s.serverToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result postmarkResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("postmark returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode != http.StatusOK || result.ErrorCode != 0 {
		return "", fmt.Errorf("postmark rejected email (status %d, code %d): %s", resp.StatusCode, result.ErrorCode, result.Message)
	}

	return result.MessageID, nil
}
