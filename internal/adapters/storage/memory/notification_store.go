package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gviz-app/gviz-api/internal/domain"
)

// NotificationStore is an in-memory implementation of
// domain.NotificationStore.
type NotificationStore struct {
	mu       sync.RWMutex
	byUserID map[domain.UserID][]*domain.Notification
	now      func() time.Time
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		byUserID: make(map[domain.UserID][]*domain.Notification),
		now:      time.Now,
	}
}

func (s *NotificationStore) AppendNotification(ctx context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *n
	if stored.ID == "" {
		stored.ID = domain.NotificationID(uuid.NewString())
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}

	s.byUserID[stored.UserID] = append(s.byUserID[stored.UserID], &stored)
	return nil
}

// ListNotificationsByUser returns up to limit notifications, newest first.
// limit <= 0 returns all.
func (s *NotificationStore) ListNotificationsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byUserID[userID]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}

	out := make([]*domain.Notification, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		n := *all[i]
		out = append(out, &n)
	}
	return out, nil
}
