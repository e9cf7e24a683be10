package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"aqari/internal/domain/notification"
	domainuser "aqari/internal/domain/user"
)

type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	col := db.Collection("notifications")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &NotificationRepository{col: col}
}

func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	doc := newNotificationDocument(n)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

func (r *NotificationRepository) ByID(ctx context.Context, id notification.ID) (*notification.Notification, error) {
	var doc notificationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notification.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID domainuser.ID, filter notification.ListFilter) ([]*notification.Notification, error) {
	query := bson.M{"user_id": string(userID)}
	if filter.IsRead != nil {
		query["is_read"] = *filter.IsRead
	}
	if filter.Type != nil {
		query["type"] = string(*filter.Type)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*notification.Notification
	for cursor.Next(ctx) {
		var doc notificationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID domainuser.ID) (int, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{"user_id": string(userID), "is_read": false})
	return int(count), err
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID domainuser.ID, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	filter := bson.M{"user_id": string(userID), "is_read": false}
	update := bson.M{"$set": bson.M{"is_read": true, "read_at": at.UTC().UnixMilli()}}
	_, err := r.col.UpdateMany(ctx, filter, update)
	return err
}

type notificationDocument struct {
	ID                string `bson:"_id"`
	UserID            string `bson:"user_id"`
	Type              string `bson:"type"`
	Title             string `bson:"title"`
	Message           string `bson:"message"`
	RelatedPropertyID string `bson:"related_property_id,omitempty"`
	RelatedEntityID   string `bson:"related_entity_id,omitempty"`
	IsRead            bool   `bson:"is_read"`
	ReadAt            int64  `bson:"read_at"`
	CreatedAt         int64  `bson:"created_at"`
}

func newNotificationDocument(n *notification.Notification) notificationDocument {
	return notificationDocument{
		ID:                string(n.ID),
		UserID:            string(n.UserID),
		Type:              string(n.Type),
		Title:             n.Title,
		Message:           n.Message,
		RelatedPropertyID: n.RelatedPropertyID,
		RelatedEntityID:   n.RelatedEntityID,
		IsRead:            n.IsRead,
		ReadAt:            timeToTimestamp(n.ReadAt),
		CreatedAt:         n.CreatedAt.UnixMilli(),
	}
}

func (d notificationDocument) toAggregate() *notification.Notification {
	return &notification.Notification{
		ID:                notification.ID(d.ID),
		UserID:            domainuser.ID(d.UserID),
		Type:              notification.Type(d.Type),
		Title:             d.Title,
		Message:           d.Message,
		RelatedPropertyID: d.RelatedPropertyID,
		RelatedEntityID:   d.RelatedEntityID,
		IsRead:            d.IsRead,
		ReadAt:            timestampToTime(d.ReadAt),
		CreatedAt:         timestampToTime(d.CreatedAt),
	}
}

var _ notification.Repository = (*NotificationRepository)(nil)
