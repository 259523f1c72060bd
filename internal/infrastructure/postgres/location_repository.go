package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aabine/flow-inventory/internal/domain/entity"
	"github.com/aabine/flow-inventory/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)
var _ repository.StockRepository = (*StockRepo)(nil)

// LocationRepo implements LocationRepository on PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository builds the adapter. Pass a pool or tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// GetByID returns the location or nil when it does not exist.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.InventoryLocation, error) {
	query := `
		SELECT id, vendor_id, name, latitude, longitude, is_active, updated_at
		FROM inventory_locations WHERE id = $1`
	var loc entity.InventoryLocation
	err := r.q.QueryRow(ctx, query, id).Scan(
		&loc.ID, &loc.VendorID, &loc.Name, &loc.Latitude, &loc.Longitude,
		&loc.IsActive, &loc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &loc, nil
}

// ListByVendor returns all of the vendor's locations.
func (r *LocationRepo) ListByVendor(ctx context.Context, vendorID string) ([]*entity.InventoryLocation, error) {
	query := `
		SELECT id, vendor_id, name, latitude, longitude, is_active, updated_at
		FROM inventory_locations WHERE vendor_id = $1`
	rows, err := r.q.Query(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []*entity.InventoryLocation
	for rows.Next() {
		var loc entity.InventoryLocation
		if err := rows.Scan(&loc.ID, &loc.VendorID, &loc.Name, &loc.Latitude,
			&loc.Longitude, &loc.IsActive, &loc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, &loc)
	}
	return out, rows.Err()
}

// StockRepo reads the aggregate stock counters.
type StockRepo struct {
	q Querier
}

// NewStockRepository builds the adapter. Pass a pool or tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// ListByVendor returns stock rows for the vendor's active locations.
func (r *StockRepo) ListByVendor(ctx context.Context, vendorID string) ([]*entity.CylinderStock, error) {
	query := `
		SELECT s.id, s.location_id, s.size, s.available_quantity,
		       s.minimum_threshold, s.updated_at
		FROM cylinder_stock s
		JOIN inventory_locations l ON l.id = s.location_id
		WHERE l.vendor_id = $1 AND l.is_active`
	rows, err := r.q.Query(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()

	var out []*entity.CylinderStock
	for rows.Next() {
		var s entity.CylinderStock
		if err := rows.Scan(&s.ID, &s.LocationID, &s.Size,
			&s.AvailableQuantity, &s.MinimumThreshold, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
