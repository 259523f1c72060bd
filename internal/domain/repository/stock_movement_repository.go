package repository

import (
	"context"
	"time"

	"github.com/aabine/flow-inventory/internal/domain/entity"
)

// StockMovementRepository defines the read port for stock movements (DIP).
// Movements are written by the order pipeline; the engine only consumes
// them to gauge vendor activity.
type StockMovementRepository interface {
	// ListByVendorSince returns the vendor's movements with
	// created_at >= since, newest first.
	ListByVendorSince(ctx context.Context, vendorID string, since time.Time) ([]*entity.StockMovement, error)
}
