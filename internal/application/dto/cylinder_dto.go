package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterCylinderRequest body for POST /api/cylinders.
type RegisterCylinderRequest struct {
	VendorID        string          `json:"vendor_id"`
	Actor           string          `json:"actor,omitempty"`
	SerialNumber    string          `json:"serial_number"`
	LocationID      string          `json:"location_id"`
	Size            string          `json:"cylinder_size"`
	CapacityLiters  decimal.Decimal `json:"capacity_liters"`
	ManufactureDate time.Time       `json:"manufacture_date"`
	Condition       string          `json:"condition,omitempty"` // default excellent
	EmergencyReady  bool            `json:"is_emergency_ready,omitempty"`
}

// RecordQualityCheckRequest body for POST /api/cylinders/:id/quality-checks.
type RecordQualityCheckRequest struct {
	VendorID      string  `json:"vendor_id"`
	InspectorID   string  `json:"inspector_id,omitempty"`
	CheckType     string  `json:"check_type"`
	MeasuredValue float64 `json:"measured_value"`
	MinAcceptable float64 `json:"min_acceptable"`
	MaxAcceptable float64 `json:"max_acceptable"`
	Notes         string  `json:"notes,omitempty"`
}

// LifecycleEventDTO is one entry of a cylinder's audit trail.
type LifecycleEventDTO struct {
	EventID          string    `json:"event_id"`
	CylinderID       string    `json:"cylinder_id"`
	EventType        string    `json:"event_type"`
	PreviousState    string    `json:"previous_state,omitempty"`
	NewState         string    `json:"new_state"`
	PreviousLocation string    `json:"previous_location_id,omitempty"`
	NewLocation      string    `json:"new_location_id,omitempty"`
	OrderID          string    `json:"order_id,omitempty"`
	TriggeredBy      string    `json:"triggered_by,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// QualityCheckResultDTO is the evaluated outcome of a recorded check.
type QualityCheckResultDTO struct {
	CheckID          string `json:"check_id"`
	CylinderID       string `json:"cylinder_id"`
	Status           string `json:"status"`
	RequiresFollowUp bool   `json:"requires_follow_up"`
	Quarantined      bool   `json:"quarantined"`
}
