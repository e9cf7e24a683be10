package notification

import (
	"time"

	"aqari/internal/domain/user"
)

type NotificationCreatedEvent struct {
	NotificationID ID
	UserID         user.ID
	Type           Type
	At             time.Time
}

func (e NotificationCreatedEvent) EventName() string     { return "notification.created" }
func (e NotificationCreatedEvent) AggregateID() string   { return string(e.NotificationID) }
func (e NotificationCreatedEvent) OccurredAt() time.Time { return e.At }
