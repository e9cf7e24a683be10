package memory

import (
	"context"
	"sync"
	"time"

	"aqari/internal/domain/property"
)

// PropertyDirectory keeps the listing slices in memory, typically loaded
// from fixtures at boot.
type PropertyDirectory struct {
	mu   sync.RWMutex
	byID map[property.ID]*property.Property
}

func NewPropertyDirectory() *PropertyDirectory {
	return &PropertyDirectory{byID: make(map[property.ID]*property.Property)}
}

func (d *PropertyDirectory) ByID(ctx context.Context, id property.ID) (*property.Property, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if p, ok := d.byID[id]; ok {
		return cloneProperty(p), nil
	}
	return nil, property.ErrNotFound
}

func (d *PropertyDirectory) Save(ctx context.Context, p *property.Property) error {
	if p == nil || p.ID == "" {
		return property.ErrIDRequired
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[p.ID] = cloneProperty(p)
	return nil
}

func (d *PropertyDirectory) IncrementInquiries(ctx context.Context, id property.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.byID[id]
	if !ok {
		return property.ErrNotFound
	}
	p.InquiryCount++
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneProperty(p *property.Property) *property.Property {
	if p == nil {
		return nil
	}
	copyProperty := *p
	return &copyProperty
}

var _ property.Directory = (*PropertyDirectory)(nil)
