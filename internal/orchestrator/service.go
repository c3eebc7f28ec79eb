// Package orchestrator runs each inbound message through classification,
// enrichment and drafting, then either sends the reply or queues it for review.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mythictransfers/supportdesk/internal/commerce"
	"github.com/mythictransfers/supportdesk/internal/dedup"
	"github.com/mythictransfers/supportdesk/internal/events"
	"github.com/mythictransfers/supportdesk/internal/logger"
	"github.com/mythictransfers/supportdesk/internal/mail"
	"github.com/mythictransfers/supportdesk/internal/metrics"
	"github.com/mythictransfers/supportdesk/internal/models"
	"github.com/mythictransfers/supportdesk/internal/review"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Inbound sources.
const (
	SourceWebhook = "webhook"
	SourceIMAP    = "imap"
)

// Generator classifies and drafts replies.
type Generator interface {
	Analyze(ctx context.Context, msg *models.InboundMessage) *models.Analysis
	Draft(ctx context.Context, msg *models.InboundMessage, analysis *models.Analysis,
		order *models.OrderRecord, customer *models.CustomerRecord) (*models.DraftResponse, error)
}

// Enricher looks up store context. Both methods return nil when nothing is found.
type Enricher interface {
	OrderByNumber(ctx context.Context, number string) *models.OrderRecord
	CustomerContext(ctx context.Context, email string) *models.CustomerRecord
}

// Notifier is told whenever the review queue changes.
type Notifier interface {
	NotifyQueueChanged(action, reviewID string)
}

// Deps are the collaborators of a Service. Deduper, Publisher and Notifier are optional.
type Deps struct {
	Generator Generator
	Enricher  Enricher
	Sender    mail.Sender
	Store     review.Store
	Deduper   dedup.Deduper
	Publisher events.Publisher
	Notifier  Notifier
	Logger    *zap.Logger
}

// Outcome describes what happened to one inbound message.
type Outcome struct {
	Duplicate     bool
	Route         models.Route
	RouteReason   string
	ReviewID      string
	SentMessageID string
}

type Service struct {
	generator Generator
	enricher  Enricher
	sender    mail.Sender
	store     review.Store
	deduper   dedup.Deduper
	publisher events.Publisher
	notifier  Notifier
	log       *zap.Logger
	now       func() time.Time
}

func NewService(deps Deps) *Service {
	s := &Service{
		generator: deps.Generator,
		enricher:  deps.Enricher,
		sender:    deps.Sender,
		store:     deps.Store,
		deduper:   deps.Deduper,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		log:       logger.Named(deps.Logger, "orchestrator"),
		now:       time.Now,
	}
	if s.deduper == nil {
		s.deduper = dedup.Nop{}
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	return s
}

// HandleInbound processes one message end to end. A redelivery of a message
// already being handled (same provider id) is reported as a duplicate.
// On failure the dedup claim is released so the provider may retry.
func (s *Service) HandleInbound(ctx context.Context, source string, msg *models.InboundMessage) (*Outcome, error) {
	if !s.deduper.Acquire(ctx, msg.MessageID) {
		metrics.RecordInbound(source, "duplicate")
		return &Outcome{Duplicate: true}, nil
	}

	outcome, err := s.process(ctx, msg)
	if err != nil {
		s.deduper.Release(ctx, msg.MessageID)
		metrics.RecordInbound(source, "failed")
		s.log.Error("Failed to process inbound email",
			zap.String("source", source),
			zap.String("message_id", msg.MessageID),
			zap.String("from", msg.From),
			zap.Error(err))
		return nil, err
	}

	if outcome.Route == models.RouteAutoSend {
		metrics.RecordInbound(source, "auto_sent")
	} else {
		metrics.RecordInbound(source, "enqueued")
	}
	s.log.Info("Processed inbound email",
		zap.String("source", source),
		zap.String("message_id", msg.MessageID),
		zap.String("route", string(outcome.Route)),
		zap.String("reason", outcome.RouteReason),
		zap.String("review_id", outcome.ReviewID))
	return outcome, nil
}

func (s *Service) process(ctx context.Context, msg *models.InboundMessage) (*Outcome, error) {
	analysis := s.generator.Analyze(ctx, msg)
	order, customer := s.enrich(ctx, msg)

	draft, err := s.generator.Draft(ctx, msg, analysis, order, customer)
	if err != nil {
		return nil, err
	}
	metrics.RecordRoute(string(draft.Route), draft.RouteReason)

	outcome := &Outcome{Route: draft.Route, RouteReason: draft.RouteReason}
	if draft.ShouldAutoSend() {
		sentID, err := s.sender.Send(ctx, mail.NewReply(msg, draft.Response))
		if err != nil {
			return nil, fmt.Errorf("failed to send reply: %w", err)
		}
		outcome.SentMessageID = sentID
		s.publish(ctx, events.Event{
			Type:      events.TriageAutoSent,
			MessageID: msg.MessageID,
			SentID:    sentID,
			From:      msg.From,
			Subject:   msg.Subject,
			Route:     string(draft.Route),
			Reason:    draft.RouteReason,
		})
		return outcome, nil
	}

	item := review.NewItem(msg, analysis, draft, s.now())
	if err := s.store.Enqueue(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to enqueue for review: %w", err)
	}
	outcome.ReviewID = item.ID
	s.publish(ctx, events.Event{
		Type:      events.ReviewEnqueued,
		ReviewID:  item.ID,
		MessageID: msg.MessageID,
		From:      msg.From,
		Subject:   msg.Subject,
		Route:     string(draft.Route),
		Reason:    draft.RouteReason,
	})
	s.notify("enqueued", item.ID)
	return outcome, nil
}

// enrich runs the order and customer lookups concurrently. Lookups never fail.
func (s *Service) enrich(ctx context.Context, msg *models.InboundMessage) (*models.OrderRecord, *models.CustomerRecord) {
	if s.enricher == nil {
		return nil, nil
	}

	var (
		order    *models.OrderRecord
		customer *models.CustomerRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	if number := commerce.FindOrderNumber(msg.Body, msg.Subject); number != "" {
		g.Go(func() error {
			order = s.enricher.OrderByNumber(gctx, number)
			metrics.RecordLookup("order", order != nil)
			return nil
		})
	}
	g.Go(func() error {
		customer = s.enricher.CustomerContext(gctx, senderAddress(msg.From))
		metrics.RecordLookup("customer", customer != nil)
		return nil
	})
	_ = g.Wait()
	return order, customer
}

// senderAddress strips a display name such as "Jane <jane@example.com>".
func senderAddress(from string) string {
	if addr := commerce.ExtractEmail(from); addr != "" {
		return addr
	}
	return strings.TrimSpace(from)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("Failed to publish event", zap.String("type", event.Type), zap.Error(err))
	}
}

func (s *Service) notify(action, reviewID string) {
	if s.notifier != nil {
		s.notifier.NotifyQueueChanged(action, reviewID)
	}
}
