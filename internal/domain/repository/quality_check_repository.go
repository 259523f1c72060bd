package repository

import (
	"context"
	"time"

	"github.com/aabine/flow-inventory/internal/domain/entity"
)

// QualityCheckRepository defines the persistence port for QualityCheck (DIP).
// Rows are immutable; there is no update or delete.
type QualityCheckRepository interface {
	Create(ctx context.Context, qc *entity.QualityCheck) error

	// ListByCylindersSince returns checks for the given cylinders with
	// check_date >= since.
	ListByCylindersSince(ctx context.Context, cylinderIDs []string, since time.Time) ([]*entity.QualityCheck, error)

	// ListByVendorSince returns the vendor's most recent checks (newest
	// first, capped at limit) with check_date >= since.
	ListByVendorSince(ctx context.Context, vendorID string, since time.Time, limit int) ([]*entity.QualityCheck, error)
}
