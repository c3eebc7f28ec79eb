package review

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mythictransfers/supportdesk/internal/models"
)

// MemoryStore keeps items in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*models.ReviewItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*models.ReviewItem),
		now:   time.Now,
	}
}

func (s *MemoryStore) Enqueue(_ context.Context, item *models.ReviewItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return fmt.Errorf("review item %s already exists", item.ID)
	}
	stored := *item
	s.items[item.ID] = &stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (s *MemoryStore) List(_ context.Context, status models.ReviewStatus) ([]*models.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.ReviewItem, 0)
	for _, item := range s.items {
		if item.Status == status {
			clone := *item
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) Transition(_ context.Context, id string, from, to models.ReviewStatus, actor string) (*models.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if item.Status != from {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, item.Status)
	}

	now := s.now().UTC()
	item.Status = to
	item.ActionedBy = actor
	item.ActionedAt = &now

	clone := *item
	return &clone, nil
}

func (s *MemoryStore) RecordDelivery(_ context.Context, id, messageID string, sendErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	item.SentMessageID = messageID
	item.SendError = errorText(sendErr)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
