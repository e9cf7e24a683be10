package chat

import (
	"context"

	"aqari/internal/domain/property"
	"aqari/internal/domain/user"
)

// ConversationFilter narrows a user's conversation listing.
type ConversationFilter struct {
	PropertyID property.ID
	IsArchived bool
}

type ConversationRepository interface {
	ByID(ctx context.Context, id ConversationID) (*Conversation, error)
	// ByTriple locates the unique conversation for (property, buyer, seller)
	// or returns ErrConversationNotFound.
	ByTriple(ctx context.Context, propertyID property.ID, buyerID, sellerID user.ID) (*Conversation, error)
	ListForUser(ctx context.Context, userID user.ID, filter ConversationFilter) ([]*Conversation, error)
	Save(ctx context.Context, conversation *Conversation) error
}

type MessageRepository interface {
	ByID(ctx context.Context, id MessageID) (*Message, error)
	Save(ctx context.Context, message *Message) error
	// ListByConversation returns a newest-first page and the total message
	// count for the conversation.
	ListByConversation(ctx context.Context, id ConversationID, limit, offset int) ([]*Message, int, error)
	// Latest returns the newest message of the conversation, or
	// ErrMessageNotFound when it has none.
	Latest(ctx context.Context, id ConversationID) (*Message, error)
	CountUnread(ctx context.Context, id ConversationID, recipientID user.ID) (int, error)
}
