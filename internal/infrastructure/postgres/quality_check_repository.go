package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aabine/flow-inventory/internal/domain/entity"
	"github.com/aabine/flow-inventory/internal/domain/repository"
)

var _ repository.QualityCheckRepository = (*QualityCheckRepo)(nil)

// QualityCheckRepo implements QualityCheckRepository on PostgreSQL.
// Rows are insert-only.
type QualityCheckRepo struct {
	q Querier
}

// NewQualityCheckRepository builds the adapter. Pass a pool or tx (Querier).
func NewQualityCheckRepository(q Querier) *QualityCheckRepo {
	return &QualityCheckRepo{q: q}
}

const qualityCheckColumns = `
	id, cylinder_id, check_type, check_date, measured_value,
	min_acceptable, max_acceptable, status, requires_follow_up,
	inspector_id, notes, created_at`

func scanQualityCheck(rows pgx.Rows) (*entity.QualityCheck, error) {
	var qc entity.QualityCheck
	err := rows.Scan(
		&qc.ID, &qc.CylinderID, &qc.CheckType, &qc.CheckDate,
		&qc.MeasuredValue, &qc.MinAcceptable, &qc.MaxAcceptable,
		&qc.Status, &qc.RequiresFollowUp, &qc.InspectorID, &qc.Notes,
		&qc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &qc, nil
}

// Create persists one immutable quality check.
func (r *QualityCheckRepo) Create(ctx context.Context, qc *entity.QualityCheck) error {
	query := `
		INSERT INTO quality_checks (id, cylinder_id, check_type, check_date,
			measured_value, min_acceptable, max_acceptable, status,
			requires_follow_up, inspector_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		qc.ID, qc.CylinderID, qc.CheckType, qc.CheckDate,
		qc.MeasuredValue, qc.MinAcceptable, qc.MaxAcceptable, qc.Status,
		qc.RequiresFollowUp, qc.InspectorID, qc.Notes, qc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create quality check: %w", err)
	}
	return nil
}

// ListByCylindersSince returns checks for the given cylinders in the
// window.
func (r *QualityCheckRepo) ListByCylindersSince(ctx context.Context, cylinderIDs []string, since time.Time) ([]*entity.QualityCheck, error) {
	query := `
		SELECT` + qualityCheckColumns + `
		FROM quality_checks
		WHERE cylinder_id = ANY($1) AND check_date >= $2
		ORDER BY check_date DESC`
	rows, err := r.q.Query(ctx, query, cylinderIDs, since)
	if err != nil {
		return nil, fmt.Errorf("list quality checks: %w", err)
	}
	defer rows.Close()
	return collectQualityChecks(rows)
}

// ListByVendorSince returns the vendor's most recent checks, newest first,
// capped at limit.
func (r *QualityCheckRepo) ListByVendorSince(ctx context.Context, vendorID string, since time.Time, limit int) ([]*entity.QualityCheck, error) {
	query := `
		SELECT` + vendorCheckColumns + `
		FROM quality_checks qc
		JOIN cylinders c ON c.id = qc.cylinder_id
		WHERE c.vendor_id = $1 AND qc.check_date >= $2
		ORDER BY qc.check_date DESC
		LIMIT $3`
	rows, err := r.q.Query(ctx, query, vendorID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list vendor quality checks: %w", err)
	}
	defer rows.Close()
	return collectQualityChecks(rows)
}

const vendorCheckColumns = `
	qc.id, qc.cylinder_id, qc.check_type, qc.check_date, qc.measured_value,
	qc.min_acceptable, qc.max_acceptable, qc.status, qc.requires_follow_up,
	qc.inspector_id, qc.notes, qc.created_at`

func collectQualityChecks(rows pgx.Rows) ([]*entity.QualityCheck, error) {
	var out []*entity.QualityCheck
	for rows.Next() {
		qc, err := scanQualityCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quality check: %w", err)
		}
		out = append(out, qc)
	}
	return out, rows.Err()
}
