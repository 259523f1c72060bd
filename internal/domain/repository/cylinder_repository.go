package repository

import (
	"context"
	"time"

	"github.com/aabine/flow-inventory/internal/domain/entity"
)

// EligibilityCriteria are the hard constraints of an allocation search.
// Zero-value optional fields are ignored by the query.
type EligibilityCriteria struct {
	Size               string
	MinFillPercentage  float64
	EmergencyReadyOnly bool
	PreferredVendorID  string
	RequiredCheckTypes []string
	CheckWindow        time.Duration // lookback for required quality checks
	Limit              int           // candidate bound, 0 = repository default
}

// CylinderRepository defines the persistence port for Cylinder (DIP).
type CylinderRepository interface {
	Create(ctx context.Context, c *entity.Cylinder) error
	GetByID(ctx context.Context, id string) (*entity.Cylinder, error)
	GetBySerial(ctx context.Context, serial string) (*entity.Cylinder, error)

	// FindEligible returns available, unbound, active cylinders matching the
	// criteria. Condition is always restricted to excellent/good/fair.
	FindEligible(ctx context.Context, criteria EligibilityCriteria) ([]*entity.Cylinder, error)

	// SetInspected records the last inspection date after a quality check.
	SetInspected(ctx context.Context, id string, inspected time.Time) error

	// SetConditionState moves a cylinder to a new condition and lifecycle
	// state (quarantine on failed safety-critical checks).
	SetConditionState(ctx context.Context, id, condition, state string) error

	// ReserveBatch binds the cylinders to the order in one conditional
	// update (available, unbound, active, owned by vendor) and returns the
	// ids actually updated. A shorter list than requested means some unit
	// was not in the expected pre-state.
	ReserveBatch(ctx context.Context, ids []string, vendorID, orderID string) ([]string, error)

	// ReleaseBatchLock locks the bound, unavailable cylinders among ids
	// (row-level, scoped to the enclosing transaction) and returns them
	// with their current order binding.
	ReleaseBatchLock(ctx context.Context, ids []string, vendorID string) ([]*entity.Cylinder, error)

	// ReleaseBatch clears the binding and restores availability for ids.
	ReleaseBatch(ctx context.Context, ids []string) error
}
