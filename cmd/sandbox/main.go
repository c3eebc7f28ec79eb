// Command sandbox runs supportdesk against throwaway dependencies: a
// PostgreSQL container, an in-memory IMAP mailbox seeded with customer
// mail, an SMTP sink, and canned LLM and Shopify endpoints.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mythictransfers/supportdesk/internal/app"
	"github.com/mythictransfers/supportdesk/internal/config"
	"github.com/mythictransfers/supportdesk/internal/logger"
	"github.com/mythictransfers/supportdesk/internal/testutil"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const sandboxEncryptionKey = "dGVzdC1rZXktMTIzNDU2Nzg5MDEyMzQ1Njc4OTAxMjM="

func main() {
	log, err := logger.New("development")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Fatal("Sandbox failed", zap.Error(err))
	}
}

func run(ctx context.Context, log *zap.Logger) error {
	pg, err := startPostgres(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := pg.Terminate(context.Background()); err != nil {
			log.Warn("Failed to terminate Postgres container", zap.Error(err))
		}
	}()

	imapServer, err := testutil.StartIMAPServer("127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to start IMAP server: %w", err)
	}
	defer imapServer.Close()
	if err := seedMailbox(imapServer); err != nil {
		return err
	}

	smtpServer, err := testutil.StartSMTPServer("127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to start SMTP server: %w", err)
	}
	defer smtpServer.Close()

	llmServer := httptest.NewServer(http.HandlerFunc(handleCompletion))
	defer llmServer.Close()
	shopify := httptest.NewServer(shopifyHandler())
	defer shopify.Close()

	host, err := pg.Host(ctx)
	if err != nil {
		return fmt.Errorf("failed to get Postgres host: %w", err)
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return fmt.Errorf("failed to get Postgres port: %w", err)
	}

	env := map[string]string{
		"SUPPORTDESK_ENV":                   "sandbox",
		"SUPPORTDESK_STORE":                 config.StorePostgres,
		"SUPPORTDESK_DB_HOST":               host,
		"SUPPORTDESK_DB_PORT":               port.Port(),
		"SUPPORTDESK_DB_USER":               "supportdesk",
		"SUPPORTDESK_DB_PASSWORD":           "supportdesk",
		"SUPPORTDESK_DB_NAME":               "supportdesk",
		"SUPPORTDESK_ENCRYPTION_KEY_BASE64": sandboxEncryptionKey,
		"ANTHROPIC_API_KEY":                 "sandbox",
		"ANTHROPIC_BASE_URL":                llmServer.URL,
		"MAIL_PROVIDER":                     config.MailSMTP,
		"SMTP_ADDR":                         smtpServer.Address,
		"IMAP_SERVER":                       imapServer.Address,
		"IMAP_USERNAME":                     imapServer.Username(),
		"IMAP_PASSWORD":                     imapServer.Password(),
		"IMAP_USE_TLS":                      "false",
		"IMAP_POLL_INTERVAL":                "30s",
		"SHOPIFY_SHOP_NAME":                 "mythic-sandbox",
		"SHOPIFY_ACCESS_TOKEN":              "sandbox",
		"SHOPIFY_BASE_URL":                  shopify.URL,
	}
	for key, value := range env {
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Info("Sandbox ready",
		zap.String("dashboard", "http://localhost:"+cfg.Port+"/dashboard"),
		zap.String("imap", imapServer.Address),
		zap.String("smtp", smtpServer.Address))
	return app.Serve(ctx, cfg, log)
}

func startPostgres(ctx context.Context, log *zap.Logger) (*postgres.PostgresContainer, error) {
	log.Info("Starting Postgres container")
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("supportdesk"),
		postgres.WithUsername("supportdesk"),
		postgres.WithPassword("supportdesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start Postgres container: %w", err)
	}
	return container, nil
}

func seedMailbox(server *testutil.TestIMAPServer) error {
	now := time.Now()
	messages := []string{
		testutil.RawMessage("<sandbox-1@example.com>", "Jane Doe <jane@example.com>",
			"Where is my order?", "Hi, I ordered last week. Order #45612. Any update?", now.Add(-2*time.Hour)),
		testutil.RawMessage("<sandbox-2@example.com>", "Sam Lee <sam@example.com>",
			"Transfers peeling", "My transfers peeled after one wash. I want a refund for order #45613.", now.Add(-time.Hour)),
		testutil.RawMessage("<sandbox-3@example.com>", "Ana Ruiz <ana@example.com>",
			"Pressing temperature", "What temperature should I press the DTF transfers at?", now),
	}
	for _, raw := range messages {
		if err := server.Append("INBOX", raw); err != nil {
			return fmt.Errorf("failed to seed mailbox: %w", err)
		}
	}
	return nil
}

// handleCompletion imitates the Messages API. Drafts that mention refunds
// or damage go to review, everything else is sent automatically.
func handleCompletion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		System   string `json:"system"`
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		http.Error(w, `{"error":{"type":"invalid_request_error","message":"bad request"}}`, http.StatusBadRequest)
		return
	}
	prompt := strings.ToLower(req.Messages[0].Content)
	sensitive := strings.Contains(prompt, "refund") || strings.Contains(prompt, "peel")

	var text string
	switch {
	case req.System == "" && sensitive:
		text = `{"intent":"damage_claim","urgency":"high","sentiment":"frustrated","has_order_number":true}`
	case req.System == "":
		text = `{"intent":"order_status","urgency":"low","sentiment":"neutral"}`
	case sensitive:
		text = `{"reply":"Sorry to hear that. Could you send a photo of the garment so we can make it right?","routing":"HUMAN-REVIEW"}`
	default:
		text = `{"reply":"Thanks for reaching out! Your order is in production and ships within 2 business days.","routing":"AUTO-SEND"}`
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"content":     []map[string]string{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
	})
}

func shopifyHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/api/{version}/orders.json", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "#45612"
		}
		_, _ = fmt.Fprintf(w, `{"orders":[{"id":1,"name":%q,"email":"jane@example.com","created_at":"%s",`+
			`"fulfillment_status":null,"financial_status":"paid","total_price":"42.00",`+
			`"line_items":[{"title":"DTF Gang Sheet 22x60","quantity":1}]}]}`,
			name, time.Now().Add(-72*time.Hour).Format(time.RFC3339))
	})
	mux.HandleFunc("GET /admin/api/{version}/customers/search.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintf(w, `{"customers":[{"id":7,"first_name":"Jane","last_name":"Doe","email":"jane@example.com",`+
			`"orders_count":3,"total_spent":"126.00","created_at":"%s"}]}`,
			time.Now().AddDate(-1, 0, 0).Format(time.RFC3339))
	})
	return mux
}
