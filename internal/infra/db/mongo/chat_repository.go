package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainchat "aqari/internal/domain/chat"
	"aqari/internal/domain/property"
	domainuser "aqari/internal/domain/user"
)

type ConversationRepository struct {
	col *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	col := db.Collection("conversations")
	// the triple is unique; the index also serves get-or-create lookups
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "property_id", Value: 1}, {Key: "buyer_id", Value: 1}, {Key: "seller_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &ConversationRepository{col: col}
}

func (r *ConversationRepository) ByID(ctx context.Context, id domainchat.ConversationID) (*domainchat.Conversation, error) {
	var doc conversationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrConversationNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ConversationRepository) ByTriple(ctx context.Context, propertyID property.ID, buyerID, sellerID domainuser.ID) (*domainchat.Conversation, error) {
	filter := bson.M{"property_id": string(propertyID), "buyer_id": string(buyerID), "seller_id": string(sellerID)}
	var doc conversationDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrConversationNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID domainuser.ID, filter domainchat.ConversationFilter) ([]*domainchat.Conversation, error) {
	query := bson.M{
		"$or":         []bson.M{{"buyer_id": string(userID)}, {"seller_id": string(userID)}},
		"is_archived": filter.IsArchived,
	}
	if filter.PropertyID != "" {
		query["property_id"] = string(filter.PropertyID)
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainchat.Conversation
	for cursor.Next(ctx) {
		var doc conversationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func (r *ConversationRepository) Save(ctx context.Context, conversation *domainchat.Conversation) error {
	doc := newConversationDocument(conversation)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

type conversationDocument struct {
	ID            string `bson:"_id"`
	PropertyID    string `bson:"property_id"`
	BuyerID       string `bson:"buyer_id"`
	SellerID      string `bson:"seller_id"`
	LastMessageAt int64  `bson:"last_message_at"`
	IsArchived    bool   `bson:"is_archived"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
}

func newConversationDocument(c *domainchat.Conversation) conversationDocument {
	return conversationDocument{
		ID:            string(c.ID),
		PropertyID:    string(c.PropertyID),
		BuyerID:       string(c.BuyerID),
		SellerID:      string(c.SellerID),
		LastMessageAt: timeToTimestamp(c.LastMessageAt),
		IsArchived:    c.IsArchived,
		CreatedAt:     c.CreatedAt.UnixMilli(),
		UpdatedAt:     c.UpdatedAt.UnixMilli(),
	}
}

func (d conversationDocument) toAggregate() *domainchat.Conversation {
	return &domainchat.Conversation{
		ID:            domainchat.ConversationID(d.ID),
		PropertyID:    property.ID(d.PropertyID),
		BuyerID:       domainuser.ID(d.BuyerID),
		SellerID:      domainuser.ID(d.SellerID),
		LastMessageAt: timestampToTime(d.LastMessageAt),
		IsArchived:    d.IsArchived,
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
	}
}

type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	col := db.Collection("messages")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &MessageRepository{col: col}
}

func (r *MessageRepository) ByID(ctx context.Context, id domainchat.MessageID) (*domainchat.Message, error) {
	var doc messageDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrMessageNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *MessageRepository) Save(ctx context.Context, message *domainchat.Message) error {
	doc := newMessageDocument(message)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

func (r *MessageRepository) ListByConversation(ctx context.Context, id domainchat.ConversationID, limit, offset int) ([]*domainchat.Message, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	filter := bson.M{"conversation_id": string(id)}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	var out []*domainchat.Message
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, int(total), cursor.Err()
}

func (r *MessageRepository) Latest(ctx context.Context, id domainchat.ConversationID) (*domainchat.Message, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var doc messageDocument
	if err := r.col.FindOne(ctx, bson.M{"conversation_id": string(id)}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrMessageNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, id domainchat.ConversationID, recipientID domainuser.ID) (int, error) {
	filter := bson.M{"conversation_id": string(id), "recipient_id": string(recipientID), "is_read": false}
	count, err := r.col.CountDocuments(ctx, filter)
	return int(count), err
}

type messageDocument struct {
	ID             string `bson:"_id"`
	ConversationID string `bson:"conversation_id"`
	SenderID       string `bson:"sender_id"`
	RecipientID    string `bson:"recipient_id"`
	Content        string `bson:"message_content"`
	Type           string `bson:"message_type"`
	AttachmentURL  string `bson:"attachment_url,omitempty"`
	IsRead         bool   `bson:"is_read"`
	ReadAt         int64  `bson:"read_at"`
	IsSystem       bool   `bson:"is_system_message"`
	CreatedAt      int64  `bson:"created_at"`
}

func newMessageDocument(m *domainchat.Message) messageDocument {
	return messageDocument{
		ID:             string(m.ID),
		ConversationID: string(m.ConversationID),
		SenderID:       string(m.SenderID),
		RecipientID:    string(m.RecipientID),
		Content:        m.Content,
		Type:           string(m.Type),
		AttachmentURL:  m.AttachmentURL,
		IsRead:         m.IsRead,
		ReadAt:         timeToTimestamp(m.ReadAt),
		IsSystem:       m.IsSystem,
		CreatedAt:      m.CreatedAt.UnixMilli(),
	}
}

func (d messageDocument) toAggregate() *domainchat.Message {
	return &domainchat.Message{
		ID:             domainchat.MessageID(d.ID),
		ConversationID: domainchat.ConversationID(d.ConversationID),
		SenderID:       domainuser.ID(d.SenderID),
		RecipientID:    domainuser.ID(d.RecipientID),
		Content:        d.Content,
		Type:           domainchat.MessageType(d.Type),
		AttachmentURL:  d.AttachmentURL,
		IsRead:         d.IsRead,
		ReadAt:         timestampToTime(d.ReadAt),
		IsSystem:       d.IsSystem,
		CreatedAt:      timestampToTime(d.CreatedAt),
	}
}

func timeToTimestamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func timestampToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

var _ domainchat.ConversationRepository = (*ConversationRepository)(nil)
var _ domainchat.MessageRepository = (*MessageRepository)(nil)
