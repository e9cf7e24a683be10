package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaininquiry "aqari/internal/domain/inquiry"
	"aqari/internal/domain/property"
	domainuser "aqari/internal/domain/user"
)

type InquiryRepository struct {
	col *mongo.Collection
}

func NewInquiryRepository(db *mongo.Database) *InquiryRepository {
	col := db.Collection("inquiries")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "created_at", Value: -1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &InquiryRepository{col: col}
}

func (r *InquiryRepository) ByID(ctx context.Context, id domaininquiry.ID) (*domaininquiry.Inquiry, error) {
	var doc inquiryDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaininquiry.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *InquiryRepository) Save(ctx context.Context, inquiry *domaininquiry.Inquiry) error {
	doc := newInquiryDocument(inquiry)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

func (r *InquiryRepository) ListForInquirer(ctx context.Context, userID domainuser.ID) ([]*domaininquiry.Inquiry, error) {
	return r.list(ctx, bson.M{"inquirer_id": string(userID)})
}

func (r *InquiryRepository) ListForProperty(ctx context.Context, propertyID property.ID) ([]*domaininquiry.Inquiry, error) {
	return r.list(ctx, bson.M{"property_id": string(propertyID)})
}

func (r *InquiryRepository) list(ctx context.Context, query bson.M) ([]*domaininquiry.Inquiry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domaininquiry.Inquiry
	for cursor.Next(ctx) {
		var doc inquiryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type inquiryDocument struct {
	ID                string `bson:"_id"`
	PropertyID        string `bson:"property_id"`
	InquirerID        string `bson:"inquirer_id"`
	Type              string `bson:"inquiry_type"`
	Message           string `bson:"message"`
	ContactPreference string `bson:"contact_preference"`
	PreferredDate     string `bson:"preferred_date,omitempty"`
	Status            string `bson:"status"`
	ResponseMessage   string `bson:"response_message,omitempty"`
	RespondedAt       int64  `bson:"responded_at"`
	CreatedAt         int64  `bson:"created_at"`
	UpdatedAt         int64  `bson:"updated_at"`
}

func newInquiryDocument(i *domaininquiry.Inquiry) inquiryDocument {
	return inquiryDocument{
		ID:                string(i.ID),
		PropertyID:        string(i.PropertyID),
		InquirerID:        string(i.InquirerID),
		Type:              string(i.Type),
		Message:           i.Message,
		ContactPreference: string(i.ContactPreference),
		PreferredDate:     i.PreferredDate,
		Status:            string(i.Status),
		ResponseMessage:   i.ResponseMessage,
		RespondedAt:       timeToTimestamp(i.RespondedAt),
		CreatedAt:         i.CreatedAt.UnixMilli(),
		UpdatedAt:         i.UpdatedAt.UnixMilli(),
	}
}

func (d inquiryDocument) toAggregate() *domaininquiry.Inquiry {
	return &domaininquiry.Inquiry{
		ID:                domaininquiry.ID(d.ID),
		PropertyID:        property.ID(d.PropertyID),
		InquirerID:        domainuser.ID(d.InquirerID),
		Type:              domaininquiry.Type(d.Type),
		Message:           d.Message,
		ContactPreference: domaininquiry.ContactPreference(d.ContactPreference),
		PreferredDate:     d.PreferredDate,
		Status:            domaininquiry.Status(d.Status),
		ResponseMessage:   d.ResponseMessage,
		RespondedAt:       timestampToTime(d.RespondedAt),
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
	}
}

var _ domaininquiry.Repository = (*InquiryRepository)(nil)
