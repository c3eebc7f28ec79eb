package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mythictransfers/supportdesk/internal/events"
	"github.com/mythictransfers/supportdesk/internal/models"
	"github.com/mythictransfers/supportdesk/internal/review"
	"github.com/mythictransfers/supportdesk/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// The opencensus view worker is started at init by the genai dependency tree.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type recordingNotifier struct {
	mu      sync.Mutex
	actions []string
}

func (n *recordingNotifier) NotifyQueueChanged(action, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.actions = append(n.actions, action)
}

type fakeDeduper struct {
	mu       sync.Mutex
	seen     map[string]bool
	released []string
}

func (d *fakeDeduper) Acquire(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[id] {
		return false
	}
	d.seen[id] = true
	return true
}

func (d *fakeDeduper) Release(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
	d.released = append(d.released, id)
}

type fixture struct {
	service   *Service
	generator *mocks.Generator
	enricher  *mocks.Enricher
	sender    *mocks.Sender
	store     *review.MemoryStore
	publisher *recordingPublisher
	notifier  *recordingNotifier
	deduper   *fakeDeduper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		generator: mocks.NewGenerator(t),
		enricher:  mocks.NewEnricher(t),
		sender:    mocks.NewSender(t),
		store:     review.NewMemoryStore(),
		publisher: &recordingPublisher{},
		notifier:  &recordingNotifier{},
		deduper:   &fakeDeduper{seen: make(map[string]bool)},
	}
	f.service = NewService(Deps{
		Generator: f.generator,
		Enricher:  f.enricher,
		Sender:    f.sender,
		Store:     f.store,
		Deduper:   f.deduper,
		Publisher: f.publisher,
		Notifier:  f.notifier,
	})
	return f
}

func inbound() *models.InboundMessage {
	return &models.InboundMessage{
		From:      "Jane Doe <jane@example.com>",
		Subject:   "Where is my order?",
		Body:      "Hi, order #45612 has not arrived yet.",
		MessageID: "pm-1",
	}
}

func autoDraft() *models.DraftResponse {
	return &models.DraftResponse{Response: "It shipped yesterday!", AutoSend: true, Route: models.RouteAutoSend, RouteReason: "model_auto_send"}
}

func reviewDraft() *models.DraftResponse {
	return &models.DraftResponse{Response: "Please send photos.", RequiresReview: true, Route: models.RouteHumanReview, RouteReason: "policy:intent_damage_claim"}
}

func TestHandleInbound(t *testing.T) {
	ctx := context.Background()

	t.Run("auto send replies to sender with threading", func(t *testing.T) {
		f := newFixture(t)
		msg := inbound()
		analysis := &models.Analysis{Intent: models.IntentOrderStatus}
		order := &models.OrderRecord{OrderNumber: "#45612"}
		customer := &models.CustomerRecord{Name: "Jane Doe"}

		f.generator.On("Analyze", mock.Anything, msg).Return(analysis).Once()
		f.enricher.On("OrderByNumber", mock.Anything, "45612").Return(order).Once()
		f.enricher.On("CustomerContext", mock.Anything, "jane@example.com").Return(customer).Once()
		f.generator.On("Draft", mock.Anything, msg, analysis, order, customer).Return(autoDraft(), nil).Once()
		f.sender.On("Send", mock.Anything, mock.MatchedBy(func(out *models.OutboundMessage) bool {
			return out.To == msg.From && out.Subject == "Re: Where is my order?" &&
				out.TextBody == "It shipped yesterday!" && out.InReplyTo == "pm-1"
		})).Return("sent-1", nil).Once()

		outcome, err := f.service.HandleInbound(ctx, SourceWebhook, msg)
		require.NoError(t, err)
		assert.Equal(t, models.RouteAutoSend, outcome.Route)
		assert.Equal(t, "sent-1", outcome.SentMessageID)
		assert.Empty(t, outcome.ReviewID)

		pending, err := f.service.ListPending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
		assert.Equal(t, []string{events.TriageAutoSent}, f.publisher.types())
		assert.Empty(t, f.notifier.actions)
	})

	t.Run("review route enqueues without sending", func(t *testing.T) {
		f := newFixture(t)
		msg := inbound()
		msg.Body = "My transfers arrived damaged"
		msg.Subject = "Damaged"

		f.generator.On("Analyze", mock.Anything, msg).Return(nil).Once()
		f.enricher.On("CustomerContext", mock.Anything, "jane@example.com").Return(nil).Once()
		f.generator.On("Draft", mock.Anything, msg, (*models.Analysis)(nil), (*models.OrderRecord)(nil), (*models.CustomerRecord)(nil)).
			Return(reviewDraft(), nil).Once()

		outcome, err := f.service.HandleInbound(ctx, SourceWebhook, msg)
		require.NoError(t, err)
		assert.Equal(t, models.RouteHumanReview, outcome.Route)
		require.NotEmpty(t, outcome.ReviewID)

		item, err := f.service.Get(ctx, outcome.ReviewID)
		require.NoError(t, err)
		assert.Equal(t, models.ReviewStatusPending, item.Status)
		assert.Equal(t, "Please send photos.", item.Draft.Response)
		assert.Nil(t, item.Analysis)
		assert.Equal(t, []string{events.ReviewEnqueued}, f.publisher.types())
		assert.Equal(t, []string{"enqueued"}, f.notifier.actions)
	})

	t.Run("draft failure releases dedup claim", func(t *testing.T) {
		f := newFixture(t)
		msg := inbound()
		msg.Body = "hello"
		msg.Subject = "hi"

		f.generator.On("Analyze", mock.Anything, msg).Return(nil).Once()
		f.enricher.On("CustomerContext", mock.Anything, "jane@example.com").Return(nil).Once()
		f.generator.On("Draft", mock.Anything, msg, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("model unavailable")).Once()

		_, err := f.service.HandleInbound(ctx, SourceWebhook, msg)
		require.Error(t, err)
		assert.Equal(t, []string{"pm-1"}, f.deduper.released)

		pending, _ := f.service.ListPending(ctx)
		assert.Empty(t, pending)
	})

	t.Run("auto send failure is returned", func(t *testing.T) {
		f := newFixture(t)
		msg := inbound()

		f.generator.On("Analyze", mock.Anything, msg).Return(nil).Once()
		f.enricher.On("OrderByNumber", mock.Anything, "45612").Return(nil).Once()
		f.enricher.On("CustomerContext", mock.Anything, "jane@example.com").Return(nil).Once()
		f.generator.On("Draft", mock.Anything, msg, mock.Anything, mock.Anything, mock.Anything).Return(autoDraft(), nil).Once()
		f.sender.On("Send", mock.Anything, mock.Anything).Return("", errors.New("postmark down")).Once()

		_, err := f.service.HandleInbound(ctx, SourceWebhook, msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postmark down")
		assert.Empty(t, f.publisher.types())
	})

	t.Run("redelivery is skipped", func(t *testing.T) {
		f := newFixture(t)
		f.deduper.seen["pm-1"] = true

		outcome, err := f.service.HandleInbound(ctx, SourceWebhook, inbound())
		require.NoError(t, err)
		assert.True(t, outcome.Duplicate)
	})

	t.Run("publish errors do not fail processing", func(t *testing.T) {
		f := newFixture(t)
		f.publisher.err = errors.New("broker gone")
		msg := inbound()
		msg.Body = "question"
		msg.Subject = "q"

		f.generator.On("Analyze", mock.Anything, msg).Return(nil).Once()
		f.enricher.On("CustomerContext", mock.Anything, "jane@example.com").Return(nil).Once()
		f.generator.On("Draft", mock.Anything, msg, mock.Anything, mock.Anything, mock.Anything).Return(reviewDraft(), nil).Once()

		outcome, err := f.service.HandleInbound(ctx, SourceIMAP, msg)
		require.NoError(t, err)
		assert.NotEmpty(t, outcome.ReviewID)
	})
}

func enqueue(t *testing.T, f *fixture) *models.ReviewItem {
	t.Helper()
	item := review.NewItem(inbound(), &models.Analysis{Intent: models.IntentDamageClaim}, reviewDraft(), f.service.now())
	require.NoError(t, f.store.Enqueue(context.Background(), item))
	return item
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("sends modified response once", func(t *testing.T) {
		f := newFixture(t)
		item := enqueue(t, f)

		f.sender.On("Send", mock.Anything, mock.MatchedBy(func(out *models.OutboundMessage) bool {
			return out.TextBody == "Edited reply" && out.To == "Jane Doe <jane@example.com>" && out.InReplyTo == "pm-1"
		})).Return("sent-9", nil).Once()

		sentID, err := f.service.Approve(ctx, item.ID, "Edited reply", "ops@shop.com")
		require.NoError(t, err)
		assert.Equal(t, "sent-9", sentID)

		got, err := f.service.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReviewStatusApproved, got.Status)
		assert.Equal(t, "ops@shop.com", got.ActionedBy)
		assert.Equal(t, "sent-9", got.SentMessageID)

		_, err = f.service.Approve(ctx, item.ID, "", "ops@shop.com")
		assert.ErrorIs(t, err, review.ErrInvalidTransition)

		assert.Equal(t, []string{events.ReviewApproved}, f.publisher.types())
		assert.Equal(t, []string{"approved"}, f.notifier.actions)
	})

	t.Run("blank modification sends the draft", func(t *testing.T) {
		f := newFixture(t)
		item := enqueue(t, f)

		f.sender.On("Send", mock.Anything, mock.MatchedBy(func(out *models.OutboundMessage) bool {
			return out.TextBody == "Please send photos."
		})).Return("sent-1", nil).Once()

		_, err := f.service.Approve(ctx, item.ID, "   ", "ops@shop.com")
		require.NoError(t, err)
	})

	t.Run("unknown id sends nothing", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Approve(ctx, "00000000-0000-4000-8000-000000000000", "", "ops@shop.com")
		assert.ErrorIs(t, err, review.ErrNotFound)
	})

	t.Run("rejected item cannot be approved", func(t *testing.T) {
		f := newFixture(t)
		item := enqueue(t, f)
		require.NoError(t, f.service.Reject(ctx, item.ID, "ops@shop.com"))

		_, err := f.service.Approve(ctx, item.ID, "", "ops@shop.com")
		assert.ErrorIs(t, err, review.ErrInvalidTransition)
	})

	t.Run("send failure keeps item approved with error", func(t *testing.T) {
		f := newFixture(t)
		item := enqueue(t, f)
		f.sender.On("Send", mock.Anything, mock.Anything).Return("", errors.New("smtp: 554")).Once()

		_, err := f.service.Approve(ctx, item.ID, "", "ops@shop.com")
		require.Error(t, err)

		got, err := f.service.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReviewStatusApproved, got.Status)
		assert.Equal(t, "smtp: 554", got.SendError)
		assert.Equal(t, []string{events.ReviewSendFailed}, f.publisher.types())
	})

	t.Run("concurrent approvals send exactly once", func(t *testing.T) {
		f := newFixture(t)
		item := enqueue(t, f)
		f.sender.On("Send", mock.Anything, mock.Anything).Return("sent-1", nil).Once()

		var wg sync.WaitGroup
		errs := make(chan error, 5)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.service.Approve(ctx, item.ID, "", "ops@shop.com")
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, review.ErrInvalidTransition)
			}
		}
		assert.Equal(t, 1, succeeded)
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	item := enqueue(t, f)
	other := enqueue(t, f)

	require.NoError(t, f.service.Reject(ctx, item.ID, "ops@shop.com"))
	assert.ErrorIs(t, f.service.Reject(ctx, item.ID, "ops@shop.com"), review.ErrInvalidTransition)
	assert.ErrorIs(t, f.service.Reject(ctx, "missing", "ops@shop.com"), review.ErrNotFound)

	got, err := f.service.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusRejected, got.Status)

	pending, err := f.service.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, other.ID, pending[0].ID)
	assert.Equal(t, []string{events.ReviewRejected}, f.publisher.types())
}

func TestSenderAddress(t *testing.T) {
	assert.Equal(t, "jane@example.com", senderAddress("Jane Doe <jane@example.com>"))
	assert.Equal(t, "jane@example.com", senderAddress("jane@example.com"))
	assert.Equal(t, "nobody", senderAddress(" nobody "))
}
