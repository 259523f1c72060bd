package entity

import "time"

// Stock movement types (value object conceptual).
const (
	MovementReceived  = "received"  // inbound from supplier
	MovementRestocked = "restocked" // inbound refill
	MovementSold      = "sold"      // outbound sale
	MovementReserved  = "reserved"  // outbound hold for an order
	MovementAdjusted  = "adjusted"  // manual correction
)

// StockMovement is one change to a location's aggregate stock counter.
// The reliability estimator reads the trailing history per vendor.
type StockMovement struct {
	ID         string
	StockID    string
	LocationID string
	VendorID   string
	Type       string
	Quantity   int // positive inbound, negative outbound
	Reference  string
	Notes      string
	CreatedAt  time.Time
	CreatedBy  string
}

// Inbound reports whether the movement adds stock.
func (m *StockMovement) Inbound() bool {
	return m.Type == MovementReceived || m.Type == MovementRestocked
}

// Outbound reports whether the movement consumes stock.
func (m *StockMovement) Outbound() bool {
	return m.Type == MovementSold || m.Type == MovementReserved
}
