package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// PendingEvent is a claimed outbox entry awaiting publication.
type PendingEvent struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
	Attempts   int
}

// EventStore hands out claimable events and records delivery outcomes.
// Backed by Mongo in production and by the in-memory outbox in tests.
type EventStore interface {
	Claim(ctx context.Context, workerID string) (*PendingEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker drains the outbox, wrapping each event in a CloudEvents envelope
// before handing it to the producer.
type Worker struct {
	Store       EventStore
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// ProcessOnce claims and publishes at most one event. Publish failures are
// recorded for retry and do not stop the worker.
func (w *Worker) ProcessOnce(ctx context.Context) error {
	ev, err := w.Store.Claim(ctx, w.workerID())
	if err != nil || ev == nil {
		return err
	}
	topic := w.topicFor(ev.Name)
	payload, headers, err := w.formatPayload(ev)
	if err != nil {
		_ = w.Store.MarkFailed(ctx, ev.ID, w.nextRetry(ev.Attempts), err.Error())
		return nil
	}
	if err := w.Producer.Publish(ctx, topic, ev.Aggregate, payload, headers); err != nil {
		_ = w.Store.MarkFailed(ctx, ev.ID, w.nextRetry(ev.Attempts), err.Error())
		return nil
	}
	return w.Store.MarkSent(ctx, ev.ID)
}

func (w *Worker) formatPayload(ev *PendingEvent) ([]byte, map[string]string, error) {
	if ev.Headers == nil {
		ev.Headers = map[string]string{}
	}
	data := map[string]any{}
	if err := json.Unmarshal(ev.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              uuid.NewString(),
		"type":            ev.Name + ".v1",
		"source":          w.source(),
		"time":            ev.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := ev.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range ev.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if w.TopicPrefix != "" {
		topic = w.TopicPrefix + topic
	}
	return topic
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return uuid.NewString()
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://aqari"
}
