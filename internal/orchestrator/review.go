package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/mythictransfers/supportdesk/internal/events"
	"github.com/mythictransfers/supportdesk/internal/mail"
	"github.com/mythictransfers/supportdesk/internal/metrics"
	"github.com/mythictransfers/supportdesk/internal/models"
	"go.uber.org/zap"
)

// ListPending returns pending items, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]*models.ReviewItem, error) {
	return s.store.List(ctx, models.ReviewStatusPending)
}

// Get returns an item in any state.
func (s *Service) Get(ctx context.Context, id string) (*models.ReviewItem, error) {
	return s.store.Get(ctx, id)
}

// Approve claims the item and sends modifiedResponse, or the draft when it is blank.
// review.ErrNotFound and review.ErrInvalidTransition are returned before
// anything is sent. A send failure leaves the item approved with the error recorded.
func (s *Service) Approve(ctx context.Context, id, modifiedResponse, reviewer string) (string, error) {
	item, err := s.store.Transition(ctx, id, models.ReviewStatusPending, models.ReviewStatusApproved, reviewer)
	if err != nil {
		metrics.RecordReviewAction("approve", err)
		return "", err
	}

	body := item.Draft.Response
	if strings.TrimSpace(modifiedResponse) != "" {
		body = modifiedResponse
	}

	sentID, sendErr := s.sender.Send(ctx, mail.NewReply(item.Email, body))
	if err := s.store.RecordDelivery(ctx, id, sentID, sendErr); err != nil {
		s.log.Error("Failed to record delivery", zap.String("review_id", id), zap.Error(err))
	}
	metrics.RecordReviewAction("approve", sendErr)
	s.notify("approved", id)

	event := events.Event{
		ReviewID:  id,
		MessageID: item.Email.MessageID,
		From:      item.Email.From,
		Subject:   item.Email.Subject,
		Actor:     reviewer,
	}
	if sendErr != nil {
		event.Type = events.ReviewSendFailed
		event.Error = sendErr.Error()
		s.publish(ctx, event)
		s.log.Error("Failed to send approved reply", zap.String("review_id", id), zap.Error(sendErr))
		return "", fmt.Errorf("failed to send approved reply: %w", sendErr)
	}

	event.Type = events.ReviewApproved
	event.SentID = sentID
	s.publish(ctx, event)
	s.log.Info("Approved review item",
		zap.String("review_id", id),
		zap.String("reviewer", reviewer),
		zap.Bool("modified", body != item.Draft.Response))
	return sentID, nil
}

// Reject closes the item without sending anything. It cannot be undone.
func (s *Service) Reject(ctx context.Context, id, reviewer string) error {
	item, err := s.store.Transition(ctx, id, models.ReviewStatusPending, models.ReviewStatusRejected, reviewer)
	metrics.RecordReviewAction("reject", err)
	if err != nil {
		return err
	}

	s.notify("rejected", id)
	s.publish(ctx, events.Event{
		Type:      events.ReviewRejected,
		ReviewID:  id,
		MessageID: item.Email.MessageID,
		From:      item.Email.From,
		Subject:   item.Email.Subject,
		Actor:     reviewer,
	})
	s.log.Info("Rejected review item", zap.String("review_id", id), zap.String("reviewer", reviewer))
	return nil
}
