package dto

import (
	"time"

	"aqari/internal/domain/property"
)

type Property struct {
	ID              string    `json:"property_id"`
	OwnerID         string    `json:"owner_id"`
	Title           string    `json:"title"`
	Price           float64   `json:"price"`
	Currency        string    `json:"currency"`
	TransactionType string    `json:"transaction_type,omitempty"`
	City            string    `json:"city,omitempty"`
	Governorate     string    `json:"governorate,omitempty"`
	InquiryCount    int       `json:"inquiry_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func MapProperty(p *property.Property) Property {
	if p == nil {
		return Property{}
	}
	return Property{
		ID:              string(p.ID),
		OwnerID:         string(p.OwnerID),
		Title:           p.Title,
		Price:           p.Price,
		Currency:        p.Currency,
		TransactionType: p.TransactionType,
		City:            p.City,
		Governorate:     p.Governorate,
		InquiryCount:    p.InquiryCount,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
