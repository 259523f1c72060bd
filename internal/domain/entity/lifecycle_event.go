package entity

import "time"

// Lifecycle event types.
const (
	EventRegistered           = "cylinder_registered"
	EventReserved             = "reserved"
	EventReleased             = "released"
	EventStateChanged         = "state_changed"
	EventLocationChanged      = "location_changed"
	EventMaintenanceScheduled = "maintenance_scheduled"
	EventQuarantined          = "quarantined"
)

// LifecycleEvent is an append-only audit record. The event log is the sole
// source of historical truth for state transitions; rows are never updated
// or deleted.
type LifecycleEvent struct {
	ID                 string
	CylinderID         string
	EventType          string
	PreviousState      string
	NewState           string
	PreviousLocationID string
	NewLocationID      string
	OrderID            string
	TriggeredBy        string
	Notes              string
	CreatedAt          time.Time
}
