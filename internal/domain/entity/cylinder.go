package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cylinder size classes.
const (
	SizeSmall      = "small"
	SizeMedium     = "medium"
	SizeLarge      = "large"
	SizeExtraLarge = "extra_large"
)

// Physical condition, ordered best to worst.
const (
	ConditionExcellent = "excellent"
	ConditionGood      = "good"
	ConditionFair      = "fair"
	ConditionPoor      = "poor"
	ConditionDamaged   = "damaged"
	ConditionUnsafe    = "unsafe"
)

// Lifecycle states.
const (
	StateNew         = "new"
	StateActive      = "active"
	StateInUse       = "in_use"
	StateMaintenance = "maintenance"
	StateQuarantine  = "quarantine"
	StateRetired     = "retired"
)

// Cylinder is one physical unit tracked individually. Never deleted;
// end of life is the retired lifecycle state.
type Cylinder struct {
	ID             string
	SerialNumber   string
	VendorID       string
	LocationID     string
	Size           string
	CapacityLiters decimal.Decimal
	FillPercentage float64 // 0-100
	Condition      string
	LifecycleState string
	IsAvailable    bool
	CurrentOrderID string // empty when unbound; at most one open order
	EmergencyReady bool

	ManufactureDate     time.Time
	LastInspectionDate  *time.Time
	NextInspectionDue   *time.Time
	NextPressureTestDue *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable reports whether the cylinder's condition admits allocation.
// Poor, damaged and unsafe units are excluded unconditionally.
func (c *Cylinder) Usable() bool {
	switch c.Condition {
	case ConditionExcellent, ConditionGood, ConditionFair:
		return true
	}
	return false
}
