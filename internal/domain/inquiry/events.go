package inquiry

import (
	"time"

	"aqari/internal/domain/property"
	"aqari/internal/domain/user"
)

type InquiryCreatedEvent struct {
	InquiryID  ID
	PropertyID property.ID
	InquirerID user.ID
	Type       Type
	At         time.Time
}

func (e InquiryCreatedEvent) EventName() string     { return "inquiry.created" }
func (e InquiryCreatedEvent) AggregateID() string   { return string(e.InquiryID) }
func (e InquiryCreatedEvent) OccurredAt() time.Time { return e.At }

type InquiryRespondedEvent struct {
	InquiryID  ID
	PropertyID property.ID
	Status     Status
	At         time.Time
}

func (e InquiryRespondedEvent) EventName() string     { return "inquiry.responded" }
func (e InquiryRespondedEvent) AggregateID() string   { return string(e.InquiryID) }
func (e InquiryRespondedEvent) OccurredAt() time.Time { return e.At }
