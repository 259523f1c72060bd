package entity

import "time"

// InventoryLocation is a vendor-owned site holding cylinders.
type InventoryLocation struct {
	ID        string
	VendorID  string
	Name      string
	Latitude  float64
	Longitude float64
	IsActive  bool
	UpdatedAt time.Time
}

// CylinderStock is the aggregate counter per (location, size). The allocation
// engine only reads it for vendor availability scoring; the per-unit truth
// lives in the cylinders table.
type CylinderStock struct {
	ID                string
	LocationID        string
	Size              string
	AvailableQuantity int
	MinimumThreshold  int
	UpdatedAt         time.Time
}
