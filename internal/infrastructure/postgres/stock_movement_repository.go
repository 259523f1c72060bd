package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/aabine/flow-inventory/internal/domain/entity"
	"github.com/aabine/flow-inventory/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implements StockMovementRepository on PostgreSQL.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository builds the adapter. Pass a pool or tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// ListByVendorSince returns the vendor's movements in the window, newest
// first.
func (r *StockMovementRepo) ListByVendorSince(ctx context.Context, vendorID string, since time.Time) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, stock_id, location_id, vendor_id, type, quantity,
		       reference, notes, created_at, COALESCE(created_by, '')
		FROM stock_movements
		WHERE vendor_id = $1 AND created_at >= $2
		ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, query, vendorID, since)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var out []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(&m.ID, &m.StockID, &m.LocationID, &m.VendorID,
			&m.Type, &m.Quantity, &m.Reference, &m.Notes, &m.CreatedAt,
			&m.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
