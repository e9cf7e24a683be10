package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"aqari/internal/domain/user"
)

var (
	ErrNotFound        = errors.New("notification: not found")
	ErrUserRequired    = errors.New("notification: user is required")
	ErrTitleRequired   = errors.New("notification: title is required")
	ErrMessageRequired = errors.New("notification: message is required")
	ErrInvalidType     = errors.New("notification: invalid type")
)

type ID string

// Type is the closed set of notification kinds the platform emits.
type Type string

const (
	TypeNewProperty      Type = "new_property"
	TypePriceDrop        Type = "price_drop"
	TypeInquiryResponse  Type = "inquiry_response"
	TypeViewingConfirmed Type = "viewing_confirmed"
	TypeNewMessage       Type = "new_message"
	TypePropertyViewed   Type = "property_viewed"
	TypeInquiryReceived  Type = "inquiry_received"
	TypeFavoriteAdded    Type = "favorite_added"
	TypeMessageReceived  Type = "message_received"
	TypeViewingRequest   Type = "viewing_request"
)

func ParseType(raw string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeNewProperty, TypePriceDrop, TypeInquiryResponse, TypeViewingConfirmed,
		TypeNewMessage, TypePropertyViewed, TypeInquiryReceived, TypeFavoriteAdded,
		TypeMessageReceived, TypeViewingRequest:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

// Notification is the durable backstop behind real-time delivery: it persists
// whether or not the recipient had a live socket when the event fired.
type Notification struct {
	ID                ID
	UserID            user.ID
	Type              Type
	Title             string
	Message           string
	RelatedPropertyID string
	RelatedEntityID   string
	IsRead            bool
	ReadAt            time.Time // zero until read
	CreatedAt         time.Time
}

type CreateParams struct {
	ID                ID
	UserID            user.ID
	Type              Type
	Title             string
	Message           string
	RelatedPropertyID string
	RelatedEntityID   string
	Now               time.Time
}

func New(params CreateParams) (*Notification, error) {
	if strings.TrimSpace(string(params.UserID)) == "" {
		return nil, ErrUserRequired
	}
	typ, err := ParseType(string(params.Type))
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	message := strings.TrimSpace(params.Message)
	if message == "" {
		return nil, ErrMessageRequired
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Notification{
		ID:                params.ID,
		UserID:            params.UserID,
		Type:              typ,
		Title:             title,
		Message:           message,
		RelatedPropertyID: strings.TrimSpace(params.RelatedPropertyID),
		RelatedEntityID:   strings.TrimSpace(params.RelatedEntityID),
		CreatedAt:         now.UTC(),
	}, nil
}

// MarkRead flips the read flag once. Returns false when already read.
func (n *Notification) MarkRead(now time.Time) bool {
	if n.IsRead {
		return false
	}
	if now.IsZero() {
		now = time.Now()
	}
	n.IsRead = true
	n.ReadAt = now.UTC()
	return true
}

// ListFilter narrows a user's notification feed. IsRead and Type are
// optional; Limit caps the page size.
type ListFilter struct {
	IsRead *bool
	Type   *Type
	Limit  int
}

type Repository interface {
	Save(ctx context.Context, n *Notification) error
	ByID(ctx context.Context, id ID) (*Notification, error)
	// ListForUser returns the newest-first feed matching the filter.
	ListForUser(ctx context.Context, userID user.ID, filter ListFilter) ([]*Notification, error)
	// CountUnread counts all unread notifications of the user, ignoring
	// any listing filter.
	CountUnread(ctx context.Context, userID user.ID) (int, error)
	MarkAllRead(ctx context.Context, userID user.ID, at time.Time) error
}
