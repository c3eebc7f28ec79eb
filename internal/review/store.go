// Package review holds drafted replies that wait for a human decision.
package review

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mythictransfers/supportdesk/internal/models"
)

var (
	// ErrNotFound is returned for an unknown review id.
	ErrNotFound = errors.New("review item not found")
	// ErrInvalidTransition is returned when an item is not in the expected state,
	// for example when it was already approved or rejected.
	ErrInvalidTransition = errors.New("review item is not in the expected state")
)

// Store persists review items. Transition is an atomic compare-and-set on
// the item's status, so at most one of two concurrent approvals succeeds.
type Store interface {
	Enqueue(ctx context.Context, item *models.ReviewItem) error
	Get(ctx context.Context, id string) (*models.ReviewItem, error)
	// List returns items with the given status, oldest first.
	List(ctx context.Context, status models.ReviewStatus) ([]*models.ReviewItem, error)
	Transition(ctx context.Context, id string, from, to models.ReviewStatus, actor string) (*models.ReviewItem, error)
	// RecordDelivery stores the outcome of sending an approved reply.
	RecordDelivery(ctx context.Context, id, messageID string, sendErr error) error
	Close() error
}

// NewItem builds a pending item with a fresh UUID v4 id.
func NewItem(email *models.InboundMessage, analysis *models.Analysis, draft *models.DraftResponse, now time.Time) *models.ReviewItem {
	return &models.ReviewItem{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
		Email:     email,
		Analysis:  analysis,
		Draft:     draft,
		Status:    models.ReviewStatusPending,
	}
}

// validID reports whether id could have been issued by NewItem.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
