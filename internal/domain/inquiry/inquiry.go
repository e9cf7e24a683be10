package inquiry

import (
	"context"
	"errors"
	"strings"
	"time"

	"aqari/internal/domain/property"
	"aqari/internal/domain/user"
)

var (
	ErrNotFound              = errors.New("inquiry: not found")
	ErrPropertyRequired      = errors.New("inquiry: property is required")
	ErrInquirerRequired      = errors.New("inquiry: inquirer is required")
	ErrMessageRequired       = errors.New("inquiry: message is required")
	ErrInvalidType           = errors.New("inquiry: invalid type")
	ErrInvalidStatus         = errors.New("inquiry: invalid status")
	ErrInvalidContactChannel = errors.New("inquiry: invalid contact preference")
	ErrNotOwner              = errors.New("inquiry: caller does not own the property")
	ErrNoFields              = errors.New("inquiry: no fields to update")
)

type ID string

type Type string

const (
	TypeViewing      Type = "viewing"
	TypeGeneral      Type = "general"
	TypePrice        Type = "price"
	TypeAvailability Type = "availability"
)

func ParseType(raw string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeViewing, TypeGeneral, TypePrice, TypeAvailability:
		return t, nil
	case "":
		return TypeGeneral, nil
	default:
		return "", ErrInvalidType
	}
}

type ContactPreference string

const (
	ContactPhone    ContactPreference = "phone"
	ContactEmail    ContactPreference = "email"
	ContactWhatsapp ContactPreference = "whatsapp"
	ContactMessage  ContactPreference = "message"
)

func ParseContactPreference(raw string) (ContactPreference, error) {
	switch c := ContactPreference(strings.ToLower(strings.TrimSpace(raw))); c {
	case ContactPhone, ContactEmail, ContactWhatsapp, ContactMessage:
		return c, nil
	case "":
		return ContactMessage, nil
	default:
		return "", ErrInvalidContactChannel
	}
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusResponded Status = "responded"
	StatusClosed    Status = "closed"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusResponded, StatusClosed:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Inquiry is a buyer question about a listing, answered out-of-band by the
// property owner.
type Inquiry struct {
	ID                ID
	PropertyID        property.ID
	InquirerID        user.ID
	Type              Type
	Message           string
	ContactPreference ContactPreference
	PreferredDate     string
	Status            Status
	ResponseMessage   string
	RespondedAt       time.Time // zero until responded
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type CreateParams struct {
	ID                ID
	PropertyID        property.ID
	InquirerID        user.ID
	Type              Type
	Message           string
	ContactPreference ContactPreference
	PreferredDate     string
	Now               time.Time
}

func New(params CreateParams) (*Inquiry, error) {
	if strings.TrimSpace(string(params.PropertyID)) == "" {
		return nil, ErrPropertyRequired
	}
	if strings.TrimSpace(string(params.InquirerID)) == "" {
		return nil, ErrInquirerRequired
	}
	message := strings.TrimSpace(params.Message)
	if message == "" {
		return nil, ErrMessageRequired
	}
	typ, err := ParseType(string(params.Type))
	if err != nil {
		return nil, err
	}
	contact, err := ParseContactPreference(string(params.ContactPreference))
	if err != nil {
		return nil, err
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Inquiry{
		ID:                params.ID,
		PropertyID:        params.PropertyID,
		InquirerID:        params.InquirerID,
		Type:              typ,
		Message:           message,
		ContactPreference: contact,
		PreferredDate:     strings.TrimSpace(params.PreferredDate),
		Status:            StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Respond applies a partial owner update. Either field may be nil; at least
// one must be set or ErrNoFields is returned.
func (i *Inquiry) Respond(status *Status, responseMessage *string, now time.Time) error {
	if status == nil && responseMessage == nil {
		return ErrNoFields
	}
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	if status != nil {
		parsed, err := ParseStatus(string(*status))
		if err != nil {
			return err
		}
		i.Status = parsed
	}
	if responseMessage != nil {
		i.ResponseMessage = strings.TrimSpace(*responseMessage)
		i.RespondedAt = now
		if status == nil && i.Status == StatusPending {
			i.Status = StatusResponded
		}
	}
	i.UpdatedAt = now
	return nil
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Inquiry, error)
	Save(ctx context.Context, inquiry *Inquiry) error
	ListForInquirer(ctx context.Context, userID user.ID) ([]*Inquiry, error)
	ListForProperty(ctx context.Context, propertyID property.ID) ([]*Inquiry, error)
}
