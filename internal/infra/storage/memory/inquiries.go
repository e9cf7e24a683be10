package memory

import (
	"context"
	"sort"
	"sync"

	"aqari/internal/domain/inquiry"
	"aqari/internal/domain/property"
	domainuser "aqari/internal/domain/user"
)

// InquiryRepository keeps inquiries in memory.
type InquiryRepository struct {
	mu   sync.RWMutex
	byID map[inquiry.ID]*inquiry.Inquiry
}

func NewInquiryRepository() *InquiryRepository {
	return &InquiryRepository{byID: make(map[inquiry.ID]*inquiry.Inquiry)}
}

func (r *InquiryRepository) ByID(ctx context.Context, id inquiry.ID) (*inquiry.Inquiry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.byID[id]; ok {
		return cloneInquiry(i), nil
	}
	return nil, inquiry.ErrNotFound
}

func (r *InquiryRepository) Save(ctx context.Context, i *inquiry.Inquiry) error {
	if i == nil || i.ID == "" {
		return inquiry.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[i.ID] = cloneInquiry(i)
	return nil
}

func (r *InquiryRepository) ListForInquirer(ctx context.Context, userID domainuser.ID) ([]*inquiry.Inquiry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*inquiry.Inquiry
	for _, i := range r.byID {
		if i.InquirerID == userID {
			out = append(out, cloneInquiry(i))
		}
	}
	sortInquiries(out)
	return out, nil
}

func (r *InquiryRepository) ListForProperty(ctx context.Context, propertyID property.ID) ([]*inquiry.Inquiry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*inquiry.Inquiry
	for _, i := range r.byID {
		if i.PropertyID == propertyID {
			out = append(out, cloneInquiry(i))
		}
	}
	sortInquiries(out)
	return out, nil
}

func sortInquiries(list []*inquiry.Inquiry) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func cloneInquiry(i *inquiry.Inquiry) *inquiry.Inquiry {
	if i == nil {
		return nil
	}
	copyInquiry := *i
	return &copyInquiry
}

var _ inquiry.Repository = (*InquiryRepository)(nil)
