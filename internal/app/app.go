// Package app wires configuration into a running supportdesk server.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mythictransfers/supportdesk/internal/api"
	"github.com/mythictransfers/supportdesk/internal/auth"
	"github.com/mythictransfers/supportdesk/internal/commerce"
	"github.com/mythictransfers/supportdesk/internal/config"
	"github.com/mythictransfers/supportdesk/internal/crypto"
	"github.com/mythictransfers/supportdesk/internal/db"
	"github.com/mythictransfers/supportdesk/internal/dedup"
	"github.com/mythictransfers/supportdesk/internal/events"
	"github.com/mythictransfers/supportdesk/internal/imap"
	"github.com/mythictransfers/supportdesk/internal/knowledge"
	"github.com/mythictransfers/supportdesk/internal/llm"
	"github.com/mythictransfers/supportdesk/internal/mail"
	"github.com/mythictransfers/supportdesk/internal/orchestrator"
	"github.com/mythictransfers/supportdesk/internal/review"
	"github.com/mythictransfers/supportdesk/internal/triage"
	ws "github.com/mythictransfers/supportdesk/internal/websocket"
	"go.uber.org/zap"
)

// App is the fully wired server.
type App struct {
	Handler http.Handler
	Service *orchestrator.Service
	Poller  *imap.Poller // nil unless IMAP_SERVER is set
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// New builds every component selected by cfg. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	store, err := newStore(ctx, cfg, log, app)
	if err != nil {
		return nil, err
	}

	kb, err := loadKnowledgeBase(cfg)
	if err != nil {
		return nil, err
	}

	completer, err := llm.FromConfig(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	generator, err := triage.NewGenerator(completer, kb, log)
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub(cfg.WebSocketMaxPerReviewer, log)
	deps := orchestrator.Deps{
		Generator: generator,
		Sender:    newSender(cfg),
		Store:     store,
		Deduper:   newDeduper(cfg, log, app),
		Publisher: newPublisher(cfg, log, app),
		Notifier:  hub,
		Logger:    log,
	}
	if cfg.ShopifyEnabled() {
		client := commerce.NewClient(cfg.ShopifyShopName, cfg.ShopifyAccessToken,
			cfg.ShopifyAPIVersion, cfg.ShopifyBaseURL, cfg.OutboundRequestTimeout)
		deps.Enricher = commerce.NewLookup(client, log)
	} else {
		log.Info("Shopify is not configured, replies will be drafted without order context")
	}

	app.Service = orchestrator.NewService(deps)
	app.Handler = api.NewRouter(api.RouterDeps{
		Processor:       app.Service,
		Reviews:         app.Service,
		Hub:             hub,
		Auth:            auth.NewAuthenticator(cfg.JWTSecret, log),
		WebhookUsername: cfg.WebhookUsername,
		WebhookPassword: cfg.WebhookPassword,
		Logger:          log,
	})

	if cfg.IMAPEnabled() {
		app.Poller = imap.NewPoller(imap.PollerConfig{
			Server:       cfg.IMAPServer,
			Username:     cfg.IMAPUsername,
			Password:     cfg.IMAPPassword,
			Folder:       cfg.IMAPFolder,
			UseTLS:       cfg.IMAPUseTLS,
			PollInterval: cfg.IMAPPollInterval,
		}, app.Service, log)
	}

	ok = true
	return app, nil
}

func newStore(ctx context.Context, cfg *config.Config, log *zap.Logger, app *App) (review.Store, error) {
	var sealer *crypto.Sealer
	if cfg.EncryptionKeyBase64 != "" {
		s, err := crypto.NewSealer(cfg.EncryptionKeyBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to create sealer: %w", err)
		}
		sealer = s
	}

	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.NewConnection(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.closers = append(app.closers, func() { db.CloseConnection(pool) })

		applied, err := db.Migrate(ctx, pool)
		if err != nil {
			return nil, err
		}
		log.Info("Connected to PostgreSQL", zap.Strings("migrations_applied", applied))
		return review.NewPostgresStore(pool, sealer), nil

	case config.StoreSQLite:
		store, err := review.NewSQLiteStore(cfg.SQLitePath, sealer)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = store.Close() })
		log.Info("Opened SQLite review store", zap.String("path", cfg.SQLitePath), zap.Bool("sealed", sealer != nil))
		return store, nil

	default:
		log.Warn("Using in-memory review store, pending items are lost on restart")
		return review.NewMemoryStore(), nil
	}
}

func loadKnowledgeBase(cfg *config.Config) (*knowledge.Base, error) {
	if cfg.KnowledgeBasePath == "" {
		return knowledge.Default()
	}
	kb, err := knowledge.Load(cfg.KnowledgeBasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}
	return kb, nil
}

func newSender(cfg *config.Config) mail.Sender {
	if cfg.MailProvider == config.MailSMTP {
		return mail.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPUsername, cfg.SMTPPassword, cfg.FromEmail)
	}
	return mail.NewPostmarkSender(cfg.PostmarkURL, cfg.PostmarkServerToken, cfg.FromEmail, cfg.OutboundRequestTimeout)
}

func newDeduper(cfg *config.Config, log *zap.Logger, app *App) dedup.Deduper {
	if cfg.RedisAddr == "" {
		return dedup.Nop{}
	}
	rdb := dedup.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	app.closers = append(app.closers, func() { _ = rdb.Close() })
	return dedup.NewRedisDeduper(rdb, cfg.DedupTTL, log)
}

// newPublisher falls back to a no-op publisher when the broker is
// unreachable; events are informational and must not block triage.
func newPublisher(cfg *config.Config, log *zap.Logger, app *App) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.Nop{}
	}
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL)
	if err != nil {
		log.Warn("Event publishing disabled", zap.Error(err))
		return events.Nop{}
	}
	app.closers = append(app.closers, func() { _ = publisher.Close() })
	return publisher
}
