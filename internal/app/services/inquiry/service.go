package inquiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"aqari/internal/app/dto"
	appoutbox "aqari/internal/app/outbox"
	domaininquiry "aqari/internal/domain/inquiry"
	"aqari/internal/domain/notification"
	"aqari/internal/domain/property"
	"aqari/internal/domain/shared/events"
	domainuser "aqari/internal/domain/user"
)

// Notifier pushes inquiry happenings to live websocket sessions.
type Notifier interface {
	InquiryCreated(ownerID, inquiryID, propertyID, propertyTitle, inquiryType, message string, createdAt time.Time)
	InquiryResponded(inquirerID, inquiryID, status, responseMessage string)
}

// Service handles buyer inquiries and owner responses.
type Service struct {
	Inquiries     domaininquiry.Repository
	Properties    property.Directory
	Users         domainuser.Repository
	Notifications notification.Repository
	Outbox        appoutbox.Outbox
	Dispatcher    Notifier
	Logger        *slog.Logger
}

// ListFilter narrows inquiry listings by status and type.
type ListFilter struct {
	Status *domaininquiry.Status
	Type   *domaininquiry.Type
}

func (f ListFilter) matches(inq *domaininquiry.Inquiry) bool {
	if f.Status != nil && inq.Status != *f.Status {
		return false
	}
	if f.Type != nil && inq.Type != *f.Type {
		return false
	}
	return true
}

type CreateParams struct {
	PropertyID        property.ID
	InquirerID        domainuser.ID
	Type              domaininquiry.Type
	Message           string
	ContactPreference domaininquiry.ContactPreference
	PreferredDate     string
}

// Create records a new inquiry, bumps the property counter and notifies the
// owner both durably and in real time.
func (s *Service) Create(ctx context.Context, params CreateParams) (*domaininquiry.Inquiry, error) {
	prop, err := s.Properties.ByID(ctx, params.PropertyID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	inq, err := domaininquiry.New(domaininquiry.CreateParams{
		ID:                domaininquiry.ID(uuid.NewString()),
		PropertyID:        params.PropertyID,
		InquirerID:        params.InquirerID,
		Type:              params.Type,
		Message:           params.Message,
		ContactPreference: params.ContactPreference,
		PreferredDate:     params.PreferredDate,
		Now:               now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Inquiries.Save(ctx, inq); err != nil {
		return nil, err
	}
	if err := s.Properties.IncrementInquiries(ctx, prop.ID); err != nil && s.Logger != nil {
		s.Logger.Warn("inquiry counter bump failed", "property_id", prop.ID, "error", err)
	}

	s.storeNotification(ctx, notification.CreateParams{
		ID:                notification.ID(uuid.NewString()),
		UserID:            prop.OwnerID,
		Type:              notification.TypeInquiryReceived,
		Title:             "New Property Inquiry",
		Message:           fmt.Sprintf("You have received a new %s inquiry for your property", inq.Type),
		RelatedPropertyID: string(prop.ID),
		RelatedEntityID:   string(inq.ID),
		Now:               inq.CreatedAt,
	})
	s.record(ctx, domaininquiry.InquiryCreatedEvent{
		InquiryID:  inq.ID,
		PropertyID: inq.PropertyID,
		InquirerID: inq.InquirerID,
		Type:       inq.Type,
		At:         inq.CreatedAt,
	})
	if s.Dispatcher != nil {
		s.Dispatcher.InquiryCreated(string(prop.OwnerID), string(inq.ID), string(prop.ID), prop.Title, string(inq.Type), inq.Message, inq.CreatedAt)
	}
	if s.Logger != nil {
		s.Logger.Info("inquiry created", "inquiry_id", inq.ID, "property_id", prop.ID, "type", inq.Type)
	}
	return inq, nil
}

type RespondParams struct {
	InquiryID       domaininquiry.ID
	CallerID        domainuser.ID
	Status          *domaininquiry.Status
	ResponseMessage *string
}

// Respond lets the property owner update an inquiry. A response message
// additionally notifies the inquirer.
func (s *Service) Respond(ctx context.Context, params RespondParams) (*domaininquiry.Inquiry, error) {
	inq, err := s.Inquiries.ByID(ctx, params.InquiryID)
	if err != nil {
		return nil, err
	}
	prop, err := s.Properties.ByID(ctx, inq.PropertyID)
	if err != nil {
		return nil, err
	}
	if prop.OwnerID != params.CallerID {
		return nil, domaininquiry.ErrNotOwner
	}
	if err := inq.Respond(params.Status, params.ResponseMessage, time.Now()); err != nil {
		return nil, err
	}
	if err := s.Inquiries.Save(ctx, inq); err != nil {
		return nil, err
	}
	if params.ResponseMessage != nil {
		s.storeNotification(ctx, notification.CreateParams{
			ID:                notification.ID(uuid.NewString()),
			UserID:            inq.InquirerID,
			Type:              notification.TypeInquiryResponse,
			Title:             "Inquiry Response Received",
			Message:           "You have received a response to your property inquiry",
			RelatedPropertyID: string(inq.PropertyID),
			RelatedEntityID:   string(inq.ID),
			Now:               inq.UpdatedAt,
		})
		if s.Dispatcher != nil {
			s.Dispatcher.InquiryResponded(string(inq.InquirerID), string(inq.ID), string(inq.Status), inq.ResponseMessage)
		}
	}
	s.record(ctx, domaininquiry.InquiryRespondedEvent{
		InquiryID:  inq.ID,
		PropertyID: inq.PropertyID,
		Status:     inq.Status,
		At:         inq.UpdatedAt,
	})
	return inq, nil
}

// ListForInquirer returns the caller's own inquiries, newest first.
func (s *Service) ListForInquirer(ctx context.Context, userID domainuser.ID, filter ListFilter) ([]dto.InquirySummary, error) {
	list, err := s.Inquiries.ListForInquirer(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, list, filter), nil
}

// ListForProperty returns a property's inquiries to its owner.
func (s *Service) ListForProperty(ctx context.Context, propertyID property.ID, callerID domainuser.ID, filter ListFilter) ([]dto.InquirySummary, error) {
	prop, err := s.Properties.ByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop.OwnerID != callerID {
		return nil, domaininquiry.ErrNotOwner
	}
	list, err := s.Inquiries.ListForProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, list, filter), nil
}

func (s *Service) summarize(ctx context.Context, list []*domaininquiry.Inquiry, filter ListFilter) []dto.InquirySummary {
	out := make([]dto.InquirySummary, 0, len(list))
	for _, inq := range list {
		if !filter.matches(inq) {
			continue
		}
		summary := dto.InquirySummary{Inquiry: dto.MapInquiry(inq)}
		if prop, err := s.Properties.ByID(ctx, inq.PropertyID); err == nil {
			summary.PropertyTitle = prop.Title
			summary.PropertyPrice = prop.Price
			summary.PropertyCurrency = prop.Currency
		}
		if s.Users != nil {
			if inquirer, err := s.Users.ByID(ctx, inq.InquirerID); err == nil {
				summary.InquirerName = inquirer.Name
				summary.InquirerPhoto = inquirer.ProfilePhoto
			}
		}
		out = append(out, summary)
	}
	return out
}

func (s *Service) storeNotification(ctx context.Context, params notification.CreateParams) {
	if s.Notifications == nil {
		return
	}
	n, err := notification.New(params)
	if err != nil {
		return
	}
	if err := s.Notifications.Save(ctx, n); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("inquiry notification store failed", "error", err)
		}
		return
	}
	s.record(ctx, notification.NotificationCreatedEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		At:             n.CreatedAt,
	})
}

func (s *Service) record(ctx context.Context, ev events.DomainEvent) {
	if err := appoutbox.RecordDomainEvents(ctx, s.Outbox, nil, []events.DomainEvent{ev}); err != nil && s.Logger != nil {
		s.Logger.Warn("outbox record failed", "event", ev.EventName(), "error", err)
	}
}
