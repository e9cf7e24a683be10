package dto

import (
	"time"

	"aqari/internal/domain/notification"
)

type Notification struct {
	ID                string     `json:"notification_id"`
	UserID            string     `json:"user_id"`
	Type              string     `json:"type"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	RelatedPropertyID string     `json:"related_property_id,omitempty"`
	RelatedEntityID   string     `json:"related_entity_id,omitempty"`
	IsRead            bool       `json:"is_read"`
	ReadAt            *time.Time `json:"read_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

// NotificationFeed pairs a filtered page with the global unread count.
type NotificationFeed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

func MapNotification(n *notification.Notification) Notification {
	if n == nil {
		return Notification{}
	}
	return Notification{
		ID:                string(n.ID),
		UserID:            string(n.UserID),
		Type:              string(n.Type),
		Title:             n.Title,
		Message:           n.Message,
		RelatedPropertyID: n.RelatedPropertyID,
		RelatedEntityID:   n.RelatedEntityID,
		IsRead:            n.IsRead,
		ReadAt:            optionalTime(n.ReadAt),
		CreatedAt:         n.CreatedAt,
	}
}

func MapNotifications(list []*notification.Notification) []Notification {
	out := make([]Notification, 0, len(list))
	for _, n := range list {
		out = append(out, MapNotification(n))
	}
	return out
}
