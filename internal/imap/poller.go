package imap

import (
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-imap"
	idle "github.com/emersion/go-imap-idle"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/mythictransfers/supportdesk/internal/logger"
	"github.com/mythictransfers/supportdesk/internal/models"
	"github.com/mythictransfers/supportdesk/internal/orchestrator"
	"go.uber.org/zap"
)

const (
	// retryDelay is the backoff after a connection or protocol error.
	retryDelay = 10 * time.Second
	// RFC 2177: clients should re-issue IDLE at least every 29 minutes.
	maxIdle = 25 * time.Minute
)

// InboundHandler runs one inbound message through triage.
type InboundHandler interface {
	HandleInbound(ctx context.Context, source string, msg *models.InboundMessage) (*orchestrator.Outcome, error)
}

// PollerConfig describes the support mailbox.
type PollerConfig struct {
	Server   string
	Username string
	Password string
	Folder   string
	UseTLS   bool
	// PollInterval bounds how long the poller idles before checking again.
	PollInterval time.Duration
}

// Poller watches a mailbox and feeds unseen messages to the handler. A
// message is marked \Seen only after it has been sent or queued, so a failed
// message is picked up again on the next pass.
type Poller struct {
	cfg     PollerConfig
	handler InboundHandler
	log     *zap.Logger
	now     func() time.Time
	parse   func(*imap.Message, time.Time) (*models.InboundMessage, error)
}

func NewPoller(cfg PollerConfig, handler InboundHandler, log *zap.Logger) *Poller {
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	if cfg.PollInterval <= 0 || cfg.PollInterval > maxIdle {
		cfg.PollInterval = maxIdle
	}
	return &Poller{
		cfg:     cfg,
		handler: handler,
		log:     logger.Named(log, "imap_poller"),
		now:     time.Now,
		parse:   ParseMessage,
	}
}

// Run blocks until ctx is canceled, reconnecting after errors.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("Starting mailbox poller", zap.String("server", p.cfg.Server), zap.String("folder", p.cfg.Folder))
	for {
		err := p.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		p.log.Warn("Mailbox session ended, reconnecting", zap.Error(err), zap.Duration("backoff", retryDelay))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
		}
	}
}

// PollOnce connects, handles every unseen message and logs out.
// It returns the number of messages handled successfully.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	c, err := p.connect()
	if err != nil {
		return 0, err
	}
	defer func() { _ = c.Logout() }()

	return p.processUnseen(ctx, c)
}

// session holds one connection: process what is waiting, then IDLE until
// the mailbox changes or the poll interval elapses, and repeat.
func (p *Poller) session(ctx context.Context) error {
	c, err := p.connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Logout() }()

	// The client blocks on a full Updates channel, so it is drained for the
	// whole session and collapsed into a single wake-up signal.
	updates := make(chan imapclient.Update, 16)
	c.Updates = updates
	wake := make(chan struct{}, 1)
	sessionDone := make(chan struct{})
	defer close(sessionDone)
	go func() {
		for {
			select {
			case <-sessionDone:
				return
			case update := <-updates:
				if mbox, ok := update.(*imapclient.MailboxUpdate); ok && mbox.Mailbox != nil {
					select {
					case wake <- struct{}{}:
					default:
					}
				}
			}
		}
	}()

	idleClient := idle.NewClient(c)
	for {
		if _, err := p.processUnseen(ctx, c); err != nil {
			return err
		}
		if err := p.idle(ctx, idleClient, wake); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (p *Poller) connect() (*imapclient.Client, error) {
	c, err := Connect(p.cfg.Server, p.cfg.UseTLS)
	if err != nil {
		return nil, err
	}
	if err := Login(c, p.cfg.Username, p.cfg.Password); err != nil {
		_ = c.Logout()
		return nil, err
	}
	if _, err := c.Select(p.cfg.Folder, false); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to select %s: %w", p.cfg.Folder, err)
	}
	return c, nil
}

// idle returns when new mail arrives, the poll interval elapses or ctx is done.
func (p *Poller) idle(ctx context.Context, idleClient *idle.Client, wake <-chan struct{}) error {
	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- idleClient.IdleWithFallback(stop, 0)
	}()

	timer := time.NewTimer(p.cfg.PollInterval)
	defer timer.Stop()

	select {
	case err := <-done:
		return wrapIdleErr(err)
	case <-ctx.Done():
	case <-timer.C:
	case <-wake:
		p.log.Debug("Mailbox changed")
	}
	close(stop)
	return wrapIdleErr(<-done)
}

func wrapIdleErr(err error) error {
	if err != nil {
		return fmt.Errorf("idle failed: %w", err)
	}
	return nil
}

func (p *Poller) processUnseen(ctx context.Context, c *imapclient.Client) (int, error) {
	uids, err := SearchUnseen(c)
	if err != nil {
		return 0, err
	}
	if len(uids) == 0 {
		return 0, nil
	}

	messages, err := FetchMessages(c, uids)
	if err != nil {
		return 0, err
	}

	handled := 0
	for _, raw := range messages {
		if ctx.Err() != nil {
			return handled, ctx.Err()
		}

		msg, err := p.parse(raw, p.now())
		if err != nil {
			// Parsing is deterministic, so a retry would fail the same way.
			p.log.Warn("Skipping unparseable message", zap.Uint32("uid", raw.Uid), zap.Error(err))
			if err := MarkSeen(c, raw.Uid); err != nil {
				return handled, err
			}
			continue
		}
		if msg.MessageID == "" {
			msg.MessageID = fmt.Sprintf("imap:%s:%d:%d", p.cfg.Folder, c.Mailbox().UidValidity, raw.Uid)
		}

		if _, err := p.handler.HandleInbound(ctx, orchestrator.SourceIMAP, msg); err != nil {
			// Left unseen for the next pass.
			continue
		}
		if err := MarkSeen(c, raw.Uid); err != nil {
			return handled, err
		}
		handled++
	}
	return handled, nil
}
