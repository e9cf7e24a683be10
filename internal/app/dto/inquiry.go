package dto

import (
	"time"

	"aqari/internal/domain/inquiry"
)

type Inquiry struct {
	ID                string     `json:"inquiry_id"`
	PropertyID        string     `json:"property_id"`
	InquirerID        string     `json:"inquirer_id"`
	Type              string     `json:"inquiry_type"`
	Message           string     `json:"message"`
	ContactPreference string     `json:"contact_preference"`
	PreferredDate     string     `json:"preferred_date,omitempty"`
	Status            string     `json:"status"`
	ResponseMessage   string     `json:"response_message,omitempty"`
	RespondedAt       *time.Time `json:"responded_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// InquirySummary enriches an inquiry for listings.
type InquirySummary struct {
	Inquiry
	PropertyTitle    string  `json:"property_title,omitempty"`
	PropertyPrice    float64 `json:"property_price,omitempty"`
	PropertyCurrency string  `json:"property_currency,omitempty"`
	InquirerName     string  `json:"inquirer_name,omitempty"`
	InquirerPhoto    string  `json:"inquirer_photo,omitempty"`
}

func MapInquiry(i *inquiry.Inquiry) Inquiry {
	if i == nil {
		return Inquiry{}
	}
	return Inquiry{
		ID:                string(i.ID),
		PropertyID:        string(i.PropertyID),
		InquirerID:        string(i.InquirerID),
		Type:              string(i.Type),
		Message:           i.Message,
		ContactPreference: string(i.ContactPreference),
		PreferredDate:     i.PreferredDate,
		Status:            string(i.Status),
		ResponseMessage:   i.ResponseMessage,
		RespondedAt:       optionalTime(i.RespondedAt),
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}
