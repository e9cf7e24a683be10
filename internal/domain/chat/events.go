package chat

import (
	"time"

	"aqari/internal/domain/property"
	"aqari/internal/domain/user"
)

type ConversationStartedEvent struct {
	ConversationID ConversationID
	PropertyID     property.ID
	BuyerID        user.ID
	SellerID       user.ID
	At             time.Time
}

func (e ConversationStartedEvent) EventName() string     { return "conversation.started" }
func (e ConversationStartedEvent) AggregateID() string   { return string(e.ConversationID) }
func (e ConversationStartedEvent) OccurredAt() time.Time { return e.At }

type MessageSentEvent struct {
	MessageID      MessageID
	ConversationID ConversationID
	SenderID       user.ID
	RecipientID    user.ID
	Type           MessageType
	At             time.Time
}

func (e MessageSentEvent) EventName() string     { return "message.sent" }
func (e MessageSentEvent) AggregateID() string   { return string(e.ConversationID) }
func (e MessageSentEvent) OccurredAt() time.Time { return e.At }

type MessageReadEvent struct {
	MessageID      MessageID
	ConversationID ConversationID
	ReaderID       user.ID
	At             time.Time
}

func (e MessageReadEvent) EventName() string     { return "message.read" }
func (e MessageReadEvent) AggregateID() string   { return string(e.ConversationID) }
func (e MessageReadEvent) OccurredAt() time.Time { return e.At }
