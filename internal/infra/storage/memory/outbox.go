package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "aqari/internal/app/outbox"
	infraoutbox "aqari/internal/infra/outbox"
)

const (
	outboxStateNew     = "NEW"
	outboxStateClaimed = "CLAIMED"
	outboxStateSent    = "SENT"
	outboxStateFailed  = "FAILED"
)

type outboxEntry struct {
	record      appoutbox.EventRecord
	state       string
	attempts    int
	nextAttempt time.Time
	lastError   string
}

// Outbox buffers domain events in memory and doubles as the worker's event
// store when no Mongo backend is configured.
type Outbox struct {
	mu      sync.Mutex
	entries []*outboxEntry
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, &outboxEntry{
		record:      record,
		state:       outboxStateNew,
		nextAttempt: time.Now().UTC(),
	})
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.PendingEvent, error) {
	now := time.Now().UTC()
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		if e.state != outboxStateNew && e.state != outboxStateFailed {
			continue
		}
		if e.nextAttempt.After(now) {
			continue
		}
		e.state = outboxStateClaimed
		return &infraoutbox.PendingEvent{
			ID:         e.record.ID,
			Name:       e.record.Name,
			Payload:    e.record.Payload,
			OccurredAt: e.record.OccurredAt,
			Aggregate:  e.record.Aggregate,
			Headers:    e.record.Headers,
			Attempts:   e.attempts,
		}, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e := o.find(id); e != nil {
		e.state = outboxStateSent
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e := o.find(id); e != nil {
		e.state = outboxStateFailed
		e.nextAttempt = next
		e.lastError = errMsg
		e.attempts++
	}
	return nil
}

// Pending reports how many entries still await publication. Test helper.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	count := 0
	for _, e := range o.entries {
		if e.state == outboxStateNew || e.state == outboxStateFailed {
			count++
		}
	}
	return count
}

func (o *Outbox) find(id string) *outboxEntry {
	for _, e := range o.entries {
		if e.record.ID == id {
			return e
		}
	}
	return nil
}

var _ appoutbox.Outbox = (*Outbox)(nil)
var _ infraoutbox.EventStore = (*Outbox)(nil)
