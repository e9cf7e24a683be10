package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"aqari/internal/domain/notification"
	domainuser "aqari/internal/domain/user"
)

// NotificationRepository keeps the durable notification feed in memory.
type NotificationRepository struct {
	mu     sync.RWMutex
	byID   map[notification.ID]*notification.Notification
	byUser map[domainuser.ID][]notification.ID
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		byID:   make(map[notification.ID]*notification.Notification),
		byUser: make(map[domainuser.ID][]notification.ID),
	}
}

func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	if n == nil || n.ID == "" {
		return notification.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[n.ID]; !exists {
		r.byUser[n.UserID] = append(r.byUser[n.UserID], n.ID)
	}
	r.byID[n.ID] = cloneNotification(n)
	return nil
}

func (r *NotificationRepository) ByID(ctx context.Context, id notification.ID) (*notification.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n, ok := r.byID[id]; ok {
		return cloneNotification(n), nil
	}
	return nil, notification.ErrNotFound
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID domainuser.ID, filter notification.ListFilter) ([]*notification.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*notification.Notification
	for _, id := range r.byUser[userID] {
		n, ok := r.byID[id]
		if !ok {
			continue
		}
		if filter.IsRead != nil && n.IsRead != *filter.IsRead {
			continue
		}
		if filter.Type != nil && n.Type != *filter.Type {
			continue
		}
		out = append(out, cloneNotification(n))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID domainuser.ID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, id := range r.byUser[userID] {
		if n, ok := r.byID[id]; ok && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID domainuser.ID, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.byUser[userID] {
		if n, ok := r.byID[id]; ok {
			n.MarkRead(at)
		}
	}
	return nil
}

func cloneNotification(n *notification.Notification) *notification.Notification {
	if n == nil {
		return nil
	}
	copyNotification := *n
	return &copyNotification
}

var _ notification.Repository = (*NotificationRepository)(nil)
