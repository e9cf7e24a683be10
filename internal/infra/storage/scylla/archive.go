package scylla

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gocql/gocql"

	domainchat "aqari/internal/domain/chat"
)

// Archive is a write-through copy of the message ledger, optimized for
// per-conversation history scans. The primary store stays authoritative.
type Archive struct {
	session *gocql.Session
	logger  *slog.Logger
}

func NewArchive(session *gocql.Session, logger *slog.Logger) *Archive {
	return &Archive{session: session, logger: logger}
}

func (a *Archive) Append(ctx context.Context, message *domainchat.Message) error {
	if a.session == nil {
		return errors.New("scylla session not initialized")
	}
	return a.session.
		Query(`INSERT INTO message_archive (conversation_id, message_id, sender_id, recipient_id, message_content, message_type, attachment_url, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			string(message.ConversationID), string(message.ID), string(message.SenderID), string(message.RecipientID),
			message.Content, string(message.Type), message.AttachmentURL, message.CreatedAt).
		WithContext(ctx).
		Consistency(gocql.Quorum).
		Exec()
}

// ArchivedMessage is one archived ledger entry.
type ArchivedMessage struct {
	ConversationID string
	MessageID      string
	SenderID       string
	RecipientID    string
	Content        string
	Type           string
	AttachmentURL  string
	CreatedAt      time.Time
}

// History returns up to limit archived messages for the conversation,
// newest first.
func (a *Archive) History(ctx context.Context, conversationID string, limit int) ([]ArchivedMessage, error) {
	if a.session == nil {
		return nil, errors.New("scylla session not initialized")
	}
	if limit <= 0 {
		limit = 100
	}
	iter := a.session.
		Query(`SELECT conversation_id, message_id, sender_id, recipient_id, message_content, message_type, attachment_url, created_at FROM message_archive WHERE conversation_id = ? LIMIT ?`,
			conversationID, limit).
		WithContext(ctx).
		Consistency(gocql.One).
		Iter()

	var (
		row ArchivedMessage
		out []ArchivedMessage
	)
	for iter.Scan(&row.ConversationID, &row.MessageID, &row.SenderID, &row.RecipientID, &row.Content, &row.Type, &row.AttachmentURL, &row.CreatedAt) {
		out = append(out, row)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}
