package chat

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"aqari/internal/domain/user"
)

const maxContentRunes = 5000

var (
	ErrMessageNotFound    = errors.New("chat: message not found")
	ErrContentRequired    = errors.New("chat: message content is required")
	ErrContentTooLong     = errors.New("chat: message content exceeds 5000 characters")
	ErrInvalidMessageType = errors.New("chat: invalid message type")
)

type MessageID string

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

// Message belongs exclusively to its conversation. CreatedAt is immutable and
// the read state only ever moves unread -> read.
type Message struct {
	ID             MessageID
	ConversationID ConversationID
	SenderID       user.ID
	RecipientID    user.ID
	Content        string
	Type           MessageType
	AttachmentURL  string
	IsRead         bool
	ReadAt         time.Time // zero until read
	IsSystem       bool
	CreatedAt      time.Time
}

type CreateMessageParams struct {
	ID             MessageID
	ConversationID ConversationID
	SenderID       user.ID
	RecipientID    user.ID
	Content        string
	Type           MessageType
	AttachmentURL  string
	IsSystem       bool
	Now            time.Time
}

func NewMessage(params CreateMessageParams) (*Message, error) {
	content := strings.TrimSpace(params.Content)
	if content == "" {
		return nil, ErrContentRequired
	}
	if utf8.RuneCountInString(content) > maxContentRunes {
		return nil, ErrContentTooLong
	}
	msgType, err := normalizeMessageType(params.Type)
	if err != nil {
		return nil, err
	}
	if params.SenderID == "" || params.RecipientID == "" {
		return nil, ErrNotParticipant
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Message{
		ID:             params.ID,
		ConversationID: params.ConversationID,
		SenderID:       params.SenderID,
		RecipientID:    params.RecipientID,
		Content:        content,
		Type:           msgType,
		AttachmentURL:  strings.TrimSpace(params.AttachmentURL),
		IsSystem:       params.IsSystem || msgType == MessageSystem,
		CreatedAt:      now.UTC(),
	}, nil
}

// MarkRead flips the read flag once. Returns false when the message was
// already read; ReadAt keeps its original value in that case.
func (m *Message) MarkRead(now time.Time) bool {
	if m.IsRead {
		return false
	}
	if now.IsZero() {
		now = time.Now()
	}
	m.IsRead = true
	m.ReadAt = now.UTC()
	return true
}

func normalizeMessageType(t MessageType) (MessageType, error) {
	switch MessageType(strings.ToLower(strings.TrimSpace(string(t)))) {
	case "":
		return MessageText, nil
	case MessageText:
		return MessageText, nil
	case MessageImage:
		return MessageImage, nil
	case MessageFile:
		return MessageFile, nil
	case MessageSystem:
		return MessageSystem, nil
	default:
		return "", ErrInvalidMessageType
	}
}
