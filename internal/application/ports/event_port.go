package ports

import "context"

// Integration event types emitted to the message broker.
const (
	EventCylinderRegistered = "cylinder_registered"
	EventCylindersReserved  = "cylinders_reserved"
	EventCylindersReleased  = "cylinders_released"
)

// EventPublisher is the outbound port to the message-broker collaborator.
// Implementations guarantee at-least-once delivery with local buffering
// while the broker is unreachable; Publish never blocks a use case on
// broker availability.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data map[string]any) error
}
