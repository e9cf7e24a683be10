package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"aqari/internal/domain/chat"
	"aqari/internal/domain/property"
	domainuser "aqari/internal/domain/user"
)

// ConversationRepository keeps conversations in memory with a triple index
// so get-or-create lookups stay O(1).
type ConversationRepository struct {
	mu       sync.RWMutex
	byID     map[chat.ConversationID]*chat.Conversation
	byTriple map[tripleKey]chat.ConversationID
}

type tripleKey struct {
	propertyID property.ID
	buyerID    domainuser.ID
	sellerID   domainuser.ID
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		byID:     make(map[chat.ConversationID]*chat.Conversation),
		byTriple: make(map[tripleKey]chat.ConversationID),
	}
}

func (r *ConversationRepository) ByID(ctx context.Context, id chat.ConversationID) (*chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byID[id]; ok {
		return cloneConversation(c), nil
	}
	return nil, chat.ErrConversationNotFound
}

func (r *ConversationRepository) ByTriple(ctx context.Context, propertyID property.ID, buyerID, sellerID domainuser.ID) (*chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byTriple[tripleKey{propertyID, buyerID, sellerID}]
	if !ok {
		return nil, chat.ErrConversationNotFound
	}
	if c, ok := r.byID[id]; ok {
		return cloneConversation(c), nil
	}
	return nil, chat.ErrConversationNotFound
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID domainuser.ID, filter chat.ConversationFilter) ([]*chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*chat.Conversation
	for _, c := range r.byID {
		if !c.HasParticipant(userID) {
			continue
		}
		if filter.PropertyID != "" && c.PropertyID != filter.PropertyID {
			continue
		}
		if c.IsArchived != filter.IsArchived {
			continue
		}
		out = append(out, cloneConversation(c))
	}
	// most recently active first, with fresh conversations sorted by creation
	sort.Slice(out, func(i, j int) bool {
		a, b := activityOf(out[i]), activityOf(out[j])
		if a.Equal(b) {
			return out[i].ID < out[j].ID
		}
		return a.After(b)
	})
	return out, nil
}

func (r *ConversationRepository) Save(ctx context.Context, conversation *chat.Conversation) error {
	if conversation == nil || conversation.ID == "" {
		return chat.ErrConversationNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[conversation.ID] = cloneConversation(conversation)
	r.byTriple[tripleKey{conversation.PropertyID, conversation.BuyerID, conversation.SellerID}] = conversation.ID
	return nil
}

// MessageRepository keeps messages in memory ordered per conversation.
type MessageRepository struct {
	mu             sync.RWMutex
	byID           map[chat.MessageID]*chat.Message
	byConversation map[chat.ConversationID][]chat.MessageID
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		byID:           make(map[chat.MessageID]*chat.Message),
		byConversation: make(map[chat.ConversationID][]chat.MessageID),
	}
}

func (r *MessageRepository) ByID(ctx context.Context, id chat.MessageID) (*chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.byID[id]; ok {
		return cloneMessage(m), nil
	}
	return nil, chat.ErrMessageNotFound
}

func (r *MessageRepository) Save(ctx context.Context, message *chat.Message) error {
	if message == nil || message.ID == "" {
		return chat.ErrMessageNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[message.ID]; !exists {
		r.byConversation[message.ConversationID] = append(r.byConversation[message.ConversationID], message.ID)
	}
	r.byID[message.ID] = cloneMessage(message)
	return nil
}

func (r *MessageRepository) ListByConversation(ctx context.Context, id chat.ConversationID, limit, offset int) ([]*chat.Message, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byConversation[id]
	total := len(ids)
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	// stored in append order; walk backwards for the newest-first page
	var out []*chat.Message
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		if m, ok := r.byID[ids[i]]; ok {
			out = append(out, cloneMessage(m))
		}
	}
	return out, total, nil
}

func (r *MessageRepository) Latest(ctx context.Context, id chat.ConversationID) (*chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byConversation[id]
	if len(ids) == 0 {
		return nil, chat.ErrMessageNotFound
	}
	if m, ok := r.byID[ids[len(ids)-1]]; ok {
		return cloneMessage(m), nil
	}
	return nil, chat.ErrMessageNotFound
}

func (r *MessageRepository) CountUnread(ctx context.Context, id chat.ConversationID, recipientID domainuser.ID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, msgID := range r.byConversation[id] {
		if m, ok := r.byID[msgID]; ok && m.RecipientID == recipientID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func activityOf(c *chat.Conversation) time.Time {
	if !c.LastMessageAt.IsZero() {
		return c.LastMessageAt
	}
	return c.CreatedAt
}

func cloneConversation(c *chat.Conversation) *chat.Conversation {
	if c == nil {
		return nil
	}
	copyConversation := *c
	return &copyConversation
}

func cloneMessage(m *chat.Message) *chat.Message {
	if m == nil {
		return nil
	}
	copyMessage := *m
	return &copyMessage
}

var _ chat.ConversationRepository = (*ConversationRepository)(nil)
var _ chat.MessageRepository = (*MessageRepository)(nil)
