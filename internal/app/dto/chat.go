package dto

import (
	"time"

	"aqari/internal/domain/chat"
)

// Conversation is the raw thread record.
type Conversation struct {
	ID            string     `json:"conversation_id"`
	PropertyID    string     `json:"property_id"`
	BuyerID       string     `json:"buyer_id"`
	SellerID      string     `json:"seller_id"`
	LastMessageAt *time.Time `json:"last_message_at"`
	IsArchived    bool       `json:"is_archived"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ConversationSummary enriches a thread for inbox listings.
type ConversationSummary struct {
	Conversation
	PropertyTitle    string       `json:"property_title,omitempty"`
	PropertyPrice    float64      `json:"property_price,omitempty"`
	PropertyCurrency string       `json:"property_currency,omitempty"`
	OtherUserID      string       `json:"other_user_id,omitempty"`
	OtherUserName    string       `json:"other_user_name,omitempty"`
	OtherUserPhoto   string       `json:"other_user_photo,omitempty"`
	LastMessage      *ChatMessage `json:"last_message,omitempty"`
	UnreadCount      int          `json:"unread_count"`
}

// ChatMessage carries one ledger entry, enriched with sender details.
type ChatMessage struct {
	ID             string     `json:"message_id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	RecipientID    string     `json:"recipient_id"`
	Content        string     `json:"message_content"`
	Type           string     `json:"message_type"`
	AttachmentURL  string     `json:"attachment_url,omitempty"`
	IsRead         bool       `json:"is_read"`
	ReadAt         *time.Time `json:"read_at"`
	IsSystem       bool       `json:"is_system_message"`
	CreatedAt      time.Time  `json:"created_at"`
	SenderName     string     `json:"sender_name,omitempty"`
	SenderPhoto    string     `json:"sender_photo,omitempty"`
	SenderType     string     `json:"sender_type,omitempty"`
}

// MessagePage is a chronological message slice plus the full ledger size.
type MessagePage struct {
	Messages   []ChatMessage `json:"messages"`
	TotalCount int           `json:"total_count"`
}

func MapConversation(c *chat.Conversation) Conversation {
	if c == nil {
		return Conversation{}
	}
	return Conversation{
		ID:            string(c.ID),
		PropertyID:    string(c.PropertyID),
		BuyerID:       string(c.BuyerID),
		SellerID:      string(c.SellerID),
		LastMessageAt: optionalTime(c.LastMessageAt),
		IsArchived:    c.IsArchived,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func MapChatMessage(m *chat.Message) ChatMessage {
	if m == nil {
		return ChatMessage{}
	}
	return ChatMessage{
		ID:             string(m.ID),
		ConversationID: string(m.ConversationID),
		SenderID:       string(m.SenderID),
		RecipientID:    string(m.RecipientID),
		Content:        m.Content,
		Type:           string(m.Type),
		AttachmentURL:  m.AttachmentURL,
		IsRead:         m.IsRead,
		ReadAt:         optionalTime(m.ReadAt),
		IsSystem:       m.IsSystem,
		CreatedAt:      m.CreatedAt,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
