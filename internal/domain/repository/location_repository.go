package repository

import (
	"context"

	"github.com/aabine/flow-inventory/internal/domain/entity"
)

// LocationRepository defines the persistence port for InventoryLocation (DIP).
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.InventoryLocation, error)
	ListByVendor(ctx context.Context, vendorID string) ([]*entity.InventoryLocation, error)
}

// StockRepository reads the aggregate stock counters per vendor (DIP).
// Only the reliability estimator consumes these.
type StockRepository interface {
	// ListByVendor returns stock rows for the vendor's active locations.
	ListByVendor(ctx context.Context, vendorID string) ([]*entity.CylinderStock, error)
}
