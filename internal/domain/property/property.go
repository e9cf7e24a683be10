package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"aqari/internal/domain/user"
)

var (
	ErrIDRequired    = errors.New("property: id is required")
	ErrOwnerRequired = errors.New("property: owner is required")
	ErrTitleRequired = errors.New("property: title is required")
	ErrNotFound      = errors.New("property: not found")
)

type ID string

// Property is the slice of a listing the messaging core needs: enough to
// resolve the seller, enrich conversations/inquiries, and track counters.
type Property struct {
	ID              ID
	OwnerID         user.ID
	Title           string
	Price           float64
	Currency        string
	TransactionType string
	City            string
	Governorate     string
	InquiryCount    int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateParams struct {
	ID              ID
	OwnerID         user.ID
	Title           string
	Price           float64
	Currency        string
	TransactionType string
	City            string
	Governorate     string
	CreatedAt       time.Time
}

func New(params CreateParams) (*Property, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.OwnerID)) == "" {
		return nil, ErrOwnerRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = "LYD"
	}
	return &Property{
		ID:              ID(id),
		OwnerID:         params.OwnerID,
		Title:           title,
		Price:           params.Price,
		Currency:        currency,
		TransactionType: strings.ToLower(strings.TrimSpace(params.TransactionType)),
		City:            strings.TrimSpace(params.City),
		Governorate:     strings.TrimSpace(params.Governorate),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Directory resolves properties for the messaging core. Full listing
// CRUD/search lives outside this module.
type Directory interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	Save(ctx context.Context, p *Property) error
	IncrementInquiries(ctx context.Context, id ID) error
}
