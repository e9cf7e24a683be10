package notify

import (
	"context"
	"log/slog"
	"time"

	"aqari/internal/app/dto"
	"aqari/internal/domain/notification"
	domainuser "aqari/internal/domain/user"
)

// Service exposes the durable notification feed.
type Service struct {
	Notifications notification.Repository
	Logger        *slog.Logger
}

// Feed returns the filtered page together with the user's global unread
// count. The count ignores the filter so badge totals stay stable.
func (s *Service) Feed(ctx context.Context, userID domainuser.ID, filter notification.ListFilter) (*dto.NotificationFeed, error) {
	list, err := s.Notifications.ListForUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	unread, err := s.Notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.NotificationFeed{
		Notifications: dto.MapNotifications(list),
		UnreadCount:   unread,
	}, nil
}

// MarkRead flips one notification. Non-owners see it as missing.
func (s *Service) MarkRead(ctx context.Context, id notification.ID, userID domainuser.ID) (*notification.Notification, error) {
	n, err := s.Notifications.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, notification.ErrNotFound
	}
	if n.MarkRead(time.Now()) {
		if err := s.Notifications.Save(ctx, n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID domainuser.ID) error {
	if err := s.Notifications.MarkAllRead(ctx, userID, time.Now()); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("notifications marked read", "user_id", userID)
	}
	return nil
}
