package chat

import (
	"errors"
	"strings"
	"time"

	"aqari/internal/domain/property"
	"aqari/internal/domain/user"
)

var (
	ErrConversationNotFound = errors.New("chat: conversation not found")
	ErrPropertyRequired     = errors.New("chat: property is required")
	ErrBuyerRequired        = errors.New("chat: buyer is required")
	ErrSellerRequired       = errors.New("chat: seller is required")
	ErrSelfConversation     = errors.New("chat: buyer and seller must differ")
	ErrNotParticipant       = errors.New("chat: not a conversation participant")
)

type ConversationID string

// Conversation is the unique buyer/seller thread for one property. At most
// one conversation exists per (property, buyer, seller) triple.
type Conversation struct {
	ID            ConversationID
	PropertyID    property.ID
	BuyerID       user.ID
	SellerID      user.ID
	LastMessageAt time.Time // zero until the first message lands
	IsArchived    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CreateConversationParams struct {
	ID         ConversationID
	PropertyID property.ID
	BuyerID    user.ID
	SellerID   user.ID
	Now        time.Time
}

func NewConversation(params CreateConversationParams) (*Conversation, error) {
	if strings.TrimSpace(string(params.PropertyID)) == "" {
		return nil, ErrPropertyRequired
	}
	buyer := user.ID(strings.TrimSpace(string(params.BuyerID)))
	if buyer == "" {
		return nil, ErrBuyerRequired
	}
	seller := user.ID(strings.TrimSpace(string(params.SellerID)))
	if seller == "" {
		return nil, ErrSellerRequired
	}
	if buyer == seller {
		return nil, ErrSelfConversation
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Conversation{
		ID:         params.ID,
		PropertyID: params.PropertyID,
		BuyerID:    buyer,
		SellerID:   seller,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (c *Conversation) HasParticipant(id user.ID) bool {
	return id != "" && (id == c.BuyerID || id == c.SellerID)
}

// OtherParticipant returns the counterpart of the given participant.
func (c *Conversation) OtherParticipant(id user.ID) (user.ID, bool) {
	switch id {
	case c.BuyerID:
		return c.SellerID, true
	case c.SellerID:
		return c.BuyerID, true
	default:
		return "", false
	}
}

// RecordMessage advances the activity timestamps after an append.
func (c *Conversation) RecordMessage(at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()
	c.LastMessageAt = at
	c.UpdatedAt = at
}

func (c *Conversation) SetArchived(archived bool, now time.Time) {
	if c.IsArchived == archived {
		return
	}
	c.IsArchived = archived
	if now.IsZero() {
		now = time.Now()
	}
	c.UpdatedAt = now.UTC()
}
