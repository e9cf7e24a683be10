package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"aqari/internal/app/dto"
	appoutbox "aqari/internal/app/outbox"
	domainchat "aqari/internal/domain/chat"
	"aqari/internal/domain/notification"
	"aqari/internal/domain/property"
	"aqari/internal/domain/shared/events"
	domainuser "aqari/internal/domain/user"
)

// Notifier pushes chat happenings to live websocket sessions. Implementations
// must tolerate offline recipients.
type Notifier interface {
	MessageCreated(conversationID string, message any)
	MessageNotification(recipientID, conversationID string, message any)
	MessageRead(conversationID, messageID, readerID string, readAt time.Time)
}

// Archive receives an immutable copy of every appended message, typically a
// wide-column store tuned for history queries.
type Archive interface {
	Append(ctx context.Context, message *domainchat.Message) error
}

// Service owns the conversation directory and the message ledger.
type Service struct {
	Conversations domainchat.ConversationRepository
	Messages      domainchat.MessageRepository
	Properties    property.Directory
	Users         domainuser.Repository
	Notifications notification.Repository
	Outbox        appoutbox.Outbox
	Dispatcher    Notifier
	Archive       Archive
	Logger        *slog.Logger

	// serializes get-or-create per (property, buyer, seller) triple so two
	// concurrent starters cannot both insert
	arenaMu sync.Mutex
	arena   map[string]*arenaLock
}

type arenaLock struct {
	mu   sync.Mutex
	refs int
}

type StartResult struct {
	Conversation *domainchat.Conversation
	Created      bool
}

// Start returns the unique conversation for the buyer and the property's
// owner, creating it when absent.
func (s *Service) Start(ctx context.Context, buyerID domainuser.ID, propertyID property.ID) (*StartResult, error) {
	prop, err := s.Properties.ByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	sellerID := prop.OwnerID
	if buyerID == sellerID {
		return nil, domainchat.ErrSelfConversation
	}

	key := fmt.Sprintf("%s|%s|%s", propertyID, buyerID, sellerID)
	unlock := s.lockTriple(key)
	defer unlock()

	existing, err := s.Conversations.ByTriple(ctx, propertyID, buyerID, sellerID)
	if err == nil {
		return &StartResult{Conversation: existing}, nil
	}
	if !errors.Is(err, domainchat.ErrConversationNotFound) {
		return nil, err
	}

	now := time.Now()
	conversation, err := domainchat.NewConversation(domainchat.CreateConversationParams{
		ID:         domainchat.ConversationID(uuid.NewString()),
		PropertyID: propertyID,
		BuyerID:    buyerID,
		SellerID:   sellerID,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Conversations.Save(ctx, conversation); err != nil {
		return nil, err
	}
	s.record(ctx, domainchat.ConversationStartedEvent{
		ConversationID: conversation.ID,
		PropertyID:     propertyID,
		BuyerID:        buyerID,
		SellerID:       sellerID,
		At:             now.UTC(),
	})
	if s.Logger != nil {
		s.Logger.Info("conversation started", "conversation_id", conversation.ID, "property_id", propertyID, "buyer_id", buyerID)
	}
	return &StartResult{Conversation: conversation, Created: true}, nil
}

type AppendParams struct {
	ConversationID domainchat.ConversationID
	SenderID       domainuser.ID
	Content        string
	Type           domainchat.MessageType
	AttachmentURL  string
}

// Append validates sender membership, persists the message, advances the
// conversation's activity timestamps and fans the message out.
func (s *Service) Append(ctx context.Context, params AppendParams) (*dto.ChatMessage, error) {
	conversation, err := s.Conversations.ByID(ctx, params.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(params.SenderID) {
		return nil, domainchat.ErrNotParticipant
	}
	recipientID, _ := conversation.OtherParticipant(params.SenderID)

	now := time.Now()
	message, err := domainchat.NewMessage(domainchat.CreateMessageParams{
		ID:             domainchat.MessageID(uuid.NewString()),
		ConversationID: conversation.ID,
		SenderID:       params.SenderID,
		RecipientID:    recipientID,
		Content:        params.Content,
		Type:           params.Type,
		AttachmentURL:  params.AttachmentURL,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Messages.Save(ctx, message); err != nil {
		return nil, err
	}
	conversation.RecordMessage(message.CreatedAt)
	if err := s.Conversations.Save(ctx, conversation); err != nil {
		return nil, err
	}
	if s.Archive != nil {
		if err := s.Archive.Append(ctx, message); err != nil && s.Logger != nil {
			s.Logger.Warn("message archive write failed", "message_id", message.ID, "error", err)
		}
	}

	enriched := s.enrichMessage(ctx, message)
	s.storeMessageNotification(ctx, conversation, message, enriched.SenderName)
	s.record(ctx, domainchat.MessageSentEvent{
		MessageID:      message.ID,
		ConversationID: conversation.ID,
		SenderID:       message.SenderID,
		RecipientID:    message.RecipientID,
		Type:           message.Type,
		At:             message.CreatedAt,
	})
	if s.Dispatcher != nil {
		s.Dispatcher.MessageCreated(string(conversation.ID), enriched)
		s.Dispatcher.MessageNotification(string(recipientID), string(conversation.ID), enriched)
	}
	return &enriched, nil
}

// MarkRead flips a message to read. Only the recipient may do so; everyone
// else sees the message as missing.
func (s *Service) MarkRead(ctx context.Context, messageID domainchat.MessageID, readerID domainuser.ID) (*dto.ChatMessage, error) {
	message, err := s.Messages.ByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.RecipientID != readerID {
		return nil, domainchat.ErrMessageNotFound
	}
	if message.MarkRead(time.Now()) {
		if err := s.Messages.Save(ctx, message); err != nil {
			return nil, err
		}
		s.record(ctx, domainchat.MessageReadEvent{
			MessageID:      message.ID,
			ConversationID: message.ConversationID,
			ReaderID:       readerID,
			At:             message.ReadAt,
		})
		if s.Dispatcher != nil {
			s.Dispatcher.MessageRead(string(message.ConversationID), string(message.ID), string(readerID), message.ReadAt)
		}
	}
	mapped := dto.MapChatMessage(message)
	return &mapped, nil
}

// ListMessages returns a chronological page plus the ledger size. Requester
// must be a participant.
func (s *Service) ListMessages(ctx context.Context, conversationID domainchat.ConversationID, requesterID domainuser.ID, limit, offset int) (*dto.MessagePage, error) {
	conversation, err := s.Conversations.ByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(requesterID) {
		return nil, domainchat.ErrNotParticipant
	}
	newestFirst, total, err := s.Messages.ListByConversation(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	page := &dto.MessagePage{Messages: make([]dto.ChatMessage, 0, len(newestFirst)), TotalCount: total}
	// reverse into chronological order for rendering
	for i := len(newestFirst) - 1; i >= 0; i-- {
		page.Messages = append(page.Messages, s.enrichMessage(ctx, newestFirst[i]))
	}
	return page, nil
}

// ListConversations returns the user's inbox, most recently active first,
// enriched with counterpart, property and unread details.
func (s *Service) ListConversations(ctx context.Context, userID domainuser.ID, filter domainchat.ConversationFilter) ([]dto.ConversationSummary, error) {
	conversations, err := s.Conversations.ListForUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		summary := dto.ConversationSummary{Conversation: dto.MapConversation(conversation)}
		if otherID, ok := conversation.OtherParticipant(userID); ok {
			summary.OtherUserID = string(otherID)
			if other, err := s.Users.ByID(ctx, otherID); err == nil {
				summary.OtherUserName = other.Name
				summary.OtherUserPhoto = other.ProfilePhoto
			}
		}
		if prop, err := s.Properties.ByID(ctx, conversation.PropertyID); err == nil {
			summary.PropertyTitle = prop.Title
			summary.PropertyPrice = prop.Price
			summary.PropertyCurrency = prop.Currency
		}
		if last, err := s.Messages.Latest(ctx, conversation.ID); err == nil {
			mapped := s.enrichMessage(ctx, last)
			summary.LastMessage = &mapped
		}
		if unread, err := s.Messages.CountUnread(ctx, conversation.ID, userID); err == nil {
			summary.UnreadCount = unread
		}
		out = append(out, summary)
	}
	return out, nil
}

// SetArchived toggles the shared archive flag for either participant.
func (s *Service) SetArchived(ctx context.Context, conversationID domainchat.ConversationID, requesterID domainuser.ID, archived bool) (*domainchat.Conversation, error) {
	conversation, err := s.Conversations.ByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(requesterID) {
		return nil, domainchat.ErrNotParticipant
	}
	conversation.SetArchived(archived, time.Now())
	if err := s.Conversations.Save(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// Conversation loads a thread for a participant.
func (s *Service) Conversation(ctx context.Context, conversationID domainchat.ConversationID, requesterID domainuser.ID) (*domainchat.Conversation, error) {
	conversation, err := s.Conversations.ByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(requesterID) {
		return nil, domainchat.ErrNotParticipant
	}
	return conversation, nil
}

// IsParticipant reports whether the user belongs to the conversation. Used by
// the websocket room gate.
func (s *Service) IsParticipant(ctx context.Context, conversationID domainchat.ConversationID, userID domainuser.ID) (bool, error) {
	conversation, err := s.Conversations.ByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domainchat.ErrConversationNotFound) {
			return false, nil
		}
		return false, err
	}
	return conversation.HasParticipant(userID), nil
}

func (s *Service) enrichMessage(ctx context.Context, message *domainchat.Message) dto.ChatMessage {
	mapped := dto.MapChatMessage(message)
	if sender, err := s.Users.ByID(ctx, message.SenderID); err == nil {
		mapped.SenderName = sender.Name
		mapped.SenderPhoto = sender.ProfilePhoto
		mapped.SenderType = string(sender.Type)
	}
	return mapped
}

func (s *Service) storeMessageNotification(ctx context.Context, conversation *domainchat.Conversation, message *domainchat.Message, senderName string) {
	if s.Notifications == nil {
		return
	}
	if senderName == "" {
		senderName = "another user"
	}
	n, err := notification.New(notification.CreateParams{
		ID:                notification.ID(uuid.NewString()),
		UserID:            message.RecipientID,
		Type:              notification.TypeNewMessage,
		Title:             "New Message",
		Message:           fmt.Sprintf("You have a new message from %s", senderName),
		RelatedPropertyID: string(conversation.PropertyID),
		RelatedEntityID:   string(conversation.ID),
		Now:               message.CreatedAt,
	})
	if err != nil {
		return
	}
	if err := s.Notifications.Save(ctx, n); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("message notification store failed", "message_id", message.ID, "error", err)
		}
		return
	}
	s.record(ctx, notification.NotificationCreatedEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		At:             n.CreatedAt,
	})
}

func (s *Service) record(ctx context.Context, ev events.DomainEvent) {
	if err := appoutbox.RecordDomainEvents(ctx, s.Outbox, nil, []events.DomainEvent{ev}); err != nil && s.Logger != nil {
		s.Logger.Warn("outbox record failed", "event", ev.EventName(), "error", err)
	}
}

func (s *Service) lockTriple(key string) func() {
	s.arenaMu.Lock()
	if s.arena == nil {
		s.arena = make(map[string]*arenaLock)
	}
	lock, ok := s.arena[key]
	if !ok {
		lock = &arenaLock{}
		s.arena[key] = lock
	}
	lock.refs++
	s.arenaMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.arenaMu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.arena, key)
		}
		s.arenaMu.Unlock()
	}
}
