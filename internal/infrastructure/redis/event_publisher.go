package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aabine/flow-inventory/internal/application/ports"
	"github.com/aabine/flow-inventory/pkg/logger"
)

const (
	// eventStream is the Redis stream consumed by the other platform
	// services (order, delivery, notification).
	eventStream = "inventory:events"

	sourceService = "inventory-service"

	// bufferSize bounds the local retry buffer; oldest events drop first
	// when the broker stays down long enough to fill it.
	bufferSize = 1024
)

var _ ports.EventPublisher = (*EventPublisher)(nil)

// EventPublisher emits integration events to a Redis stream with
// at-least-once semantics: an event that cannot reach the broker is kept
// in a bounded local buffer and flushed before the next publish.
type EventPublisher struct {
	client *redis.Client
	log    *logger.Logger

	mu     sync.Mutex
	buffer []envelope
}

// envelope is the wire format of one integration event.
type envelope struct {
	ID            string         `json:"id"`
	EventType     string         `json:"event_type"`
	SourceService string         `json:"source_service"`
	Data          map[string]any `json:"data"`
	Timestamp     time.Time      `json:"timestamp"`
}

// NewEventPublisher builds the publisher.
func NewEventPublisher(client *redis.Client, log *logger.Logger) *EventPublisher {
	return &EventPublisher{client: client, log: log}
}

// Publish sends the event to the stream. On broker failure the event is
// buffered and the error returned so the caller can log it; the buffered
// event retries on the next Publish.
func (p *EventPublisher) Publish(ctx context.Context, eventType string, data map[string]any) error {
	event := envelope{
		ID:            uuid.New().String(),
		EventType:     eventType,
		SourceService: sourceService,
		Data:          data,
		Timestamp:     time.Now().UTC(),
	}

	p.flushBuffered(ctx)

	if err := p.send(ctx, event); err != nil {
		p.bufferEvent(event)
		return err
	}
	return nil
}

func (p *EventPublisher) send(ctx context.Context, event envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: eventStream,
		Values: map[string]any{
			"event_type": event.EventType,
			"payload":    payload,
		},
	}).Err()
}

// flushBuffered retries previously failed events in order, stopping at the
// first failure.
func (p *EventPublisher) flushBuffered(ctx context.Context) {
	p.mu.Lock()
	pending := p.buffer
	p.buffer = nil
	p.mu.Unlock()

	for i, event := range pending {
		if err := p.send(ctx, event); err != nil {
			p.mu.Lock()
			p.buffer = append(pending[i:], p.buffer...)
			p.mu.Unlock()
			return
		}
	}
	if len(pending) > 0 {
		p.log.Info().Int("count", len(pending)).Msg("flushed buffered integration events")
	}
}

func (p *EventPublisher) bufferEvent(event envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buffer) >= bufferSize {
		p.buffer = p.buffer[1:]
		p.log.Warn().Msg("event buffer full, dropping oldest event")
	}
	p.buffer = append(p.buffer, event)
}

// Pending reports the number of events waiting for the broker.
func (p *EventPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}
