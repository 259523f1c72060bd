package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aabine/flow-inventory/internal/domain"
	"github.com/aabine/flow-inventory/internal/domain/entity"
	"github.com/aabine/flow-inventory/internal/domain/repository"
)

var _ repository.CylinderRepository = (*CylinderRepo)(nil)

// CylinderRepo implements CylinderRepository on PostgreSQL (usable with
// pool or tx).
type CylinderRepo struct {
	q Querier
}

// NewCylinderRepository builds the adapter. Pass a pool or tx (Querier).
func NewCylinderRepository(q Querier) *CylinderRepo {
	return &CylinderRepo{q: q}
}

const cylinderColumns = `
	id, serial_number, vendor_id, location_id, size, capacity_liters,
	fill_percentage, condition, lifecycle_state, is_available,
	current_order_id, is_emergency_ready, manufacture_date,
	last_inspection_date, next_inspection_due, next_pressure_test_due,
	created_at, updated_at`

func scanCylinder(row pgx.Row) (*entity.Cylinder, error) {
	var c entity.Cylinder
	var orderID *string
	err := row.Scan(
		&c.ID, &c.SerialNumber, &c.VendorID, &c.LocationID, &c.Size,
		&c.CapacityLiters, &c.FillPercentage, &c.Condition,
		&c.LifecycleState, &c.IsAvailable, &orderID, &c.EmergencyReady,
		&c.ManufactureDate, &c.LastInspectionDate, &c.NextInspectionDue,
		&c.NextPressureTestDue, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if orderID != nil {
		c.CurrentOrderID = *orderID
	}
	return &c, nil
}

// Create persists a new cylinder. A duplicate serial number maps to
// domain.ErrDuplicate.
func (r *CylinderRepo) Create(ctx context.Context, c *entity.Cylinder) error {
	query := `
		INSERT INTO cylinders (id, serial_number, vendor_id, location_id, size,
			capacity_liters, fill_percentage, condition, lifecycle_state,
			is_available, current_order_id, is_emergency_ready, manufacture_date,
			last_inspection_date, next_inspection_due, next_pressure_test_due,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	orderID := (*string)(nil)
	if c.CurrentOrderID != "" {
		orderID = &c.CurrentOrderID
	}
	_, err := r.q.Exec(ctx, query,
		c.ID, c.SerialNumber, c.VendorID, c.LocationID, c.Size,
		c.CapacityLiters, c.FillPercentage, c.Condition, c.LifecycleState,
		c.IsAvailable, orderID, c.EmergencyReady, c.ManufactureDate,
		c.LastInspectionDate, c.NextInspectionDue, c.NextPressureTestDue,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create cylinder: %w", err)
	}
	return nil
}

// GetByID returns the cylinder or nil when it does not exist.
func (r *CylinderRepo) GetByID(ctx context.Context, id string) (*entity.Cylinder, error) {
	query := `SELECT` + cylinderColumns + ` FROM cylinders WHERE id = $1`
	c, err := scanCylinder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cylinder: %w", err)
	}
	return c, nil
}

// GetBySerial returns the cylinder with the serial number or nil.
func (r *CylinderRepo) GetBySerial(ctx context.Context, serial string) (*entity.Cylinder, error) {
	query := `SELECT` + cylinderColumns + ` FROM cylinders WHERE serial_number = $1`
	c, err := scanCylinder(r.q.QueryRow(ctx, query, serial))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cylinder by serial: %w", err)
	}
	return c, nil
}

// FindEligible builds the hard-constraint candidate query. The condition
// filter is unconditional: poor, damaged and unsafe units never allocate.
func (r *CylinderRepo) FindEligible(ctx context.Context, criteria repository.EligibilityCriteria) ([]*entity.Cylinder, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT` + cylinderColumns + `
		FROM cylinders
		WHERE size = $1
		  AND lifecycle_state = 'active'
		  AND is_available
		  AND current_order_id IS NULL
		  AND fill_percentage >= $2
		  AND condition IN ('excellent', 'good', 'fair')`)
	args := []any{criteria.Size, criteria.MinFillPercentage}

	if criteria.EmergencyReadyOnly {
		sb.WriteString(` AND is_emergency_ready`)
	}
	if criteria.PreferredVendorID != "" {
		args = append(args, criteria.PreferredVendorID)
		fmt.Fprintf(&sb, ` AND vendor_id = $%d`, len(args))
	}
	if len(criteria.RequiredCheckTypes) > 0 {
		args = append(args, entity.CheckPassed)
		statusArg := len(args)
		args = append(args, time.Now().Add(-criteria.CheckWindow))
		sinceArg := len(args)
		args = append(args, criteria.RequiredCheckTypes)
		typesArg := len(args)
		fmt.Fprintf(&sb, `
		  AND id IN (
			SELECT cylinder_id FROM quality_checks
			WHERE status = $%d AND check_date >= $%d AND check_type = ANY($%d)
			GROUP BY cylinder_id
			HAVING COUNT(DISTINCT check_type) >= %d
		  )`, statusArg, sinceArg, typesArg, len(criteria.RequiredCheckTypes))
	}

	limit := criteria.Limit
	if limit <= 0 {
		limit = 500
	}
	args = append(args, limit)
	fmt.Fprintf(&sb, ` ORDER BY id LIMIT $%d`, len(args))

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("find eligible cylinders: %w", err)
	}
	defer rows.Close()

	var out []*entity.Cylinder
	for rows.Next() {
		c, err := scanCylinder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cylinder: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetInspected records the last inspection date.
func (r *CylinderRepo) SetInspected(ctx context.Context, id string, inspected time.Time) error {
	query := `UPDATE cylinders SET last_inspection_date = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, inspected)
	if err != nil {
		return fmt.Errorf("set inspected: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetConditionState moves the cylinder to a new condition and lifecycle
// state; availability follows the state.
func (r *CylinderRepo) SetConditionState(ctx context.Context, id, condition, state string) error {
	query := `
		UPDATE cylinders
		SET condition = $2, lifecycle_state = $3,
		    is_available = ($3 = 'active'), updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, condition, state)
	if err != nil {
		return fmt.Errorf("set condition state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReserveBatch is the conditional batch update guarding against two
// concurrent reservations of the same cylinder: only rows still in the
// expected pre-state (available, unbound, active, vendor-owned) are
// touched. The caller compares the returned ids with the request.
func (r *CylinderRepo) ReserveBatch(ctx context.Context, ids []string, vendorID, orderID string) ([]string, error) {
	query := `
		UPDATE cylinders
		SET is_available = false, current_order_id = $1,
		    lifecycle_state = 'in_use', updated_at = now()
		WHERE id = ANY($2)
		  AND vendor_id = $3
		  AND is_available
		  AND current_order_id IS NULL
		  AND lifecycle_state = 'active'
		RETURNING id`
	rows, err := r.q.Query(ctx, query, orderID, ids, vendorID)
	if err != nil {
		return nil, fmt.Errorf("reserve batch: %w", err)
	}
	defer rows.Close()

	var updated []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reserved id: %w", err)
		}
		updated = append(updated, id)
	}
	return updated, rows.Err()
}

// ReleaseBatchLock locks the bound, unavailable cylinders among ids for
// the duration of the enclosing transaction.
func (r *CylinderRepo) ReleaseBatchLock(ctx context.Context, ids []string, vendorID string) ([]*entity.Cylinder, error) {
	query := `
		SELECT id, current_order_id
		FROM cylinders
		WHERE id = ANY($1)
		  AND vendor_id = $2
		  AND NOT is_available
		  AND current_order_id IS NOT NULL
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, ids, vendorID)
	if err != nil {
		return nil, fmt.Errorf("lock release batch: %w", err)
	}
	defer rows.Close()

	var out []*entity.Cylinder
	for rows.Next() {
		var c entity.Cylinder
		if err := rows.Scan(&c.ID, &c.CurrentOrderID); err != nil {
			return nil, fmt.Errorf("scan locked cylinder: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ReleaseBatch clears the binding and returns the cylinders to the pool.
func (r *CylinderRepo) ReleaseBatch(ctx context.Context, ids []string) error {
	query := `
		UPDATE cylinders
		SET is_available = true, current_order_id = NULL,
		    lifecycle_state = 'active', updated_at = now()
		WHERE id = ANY($1)`
	if _, err := r.q.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("release batch: %w", err)
	}
	return nil
}
