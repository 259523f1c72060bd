package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aabine/flow-inventory/internal/domain/entity"
	"github.com/aabine/flow-inventory/internal/domain/repository"
)

var _ repository.LifecycleEventRepository = (*LifecycleEventRepo)(nil)

// LifecycleEventRepo implements the append-only audit log on PostgreSQL.
// There is deliberately no update or delete.
type LifecycleEventRepo struct {
	q Querier
}

// NewLifecycleEventRepository builds the adapter. Pass a pool or tx (Querier).
func NewLifecycleEventRepository(q Querier) *LifecycleEventRepo {
	return &LifecycleEventRepo{q: q}
}

// Append inserts one lifecycle event.
func (r *LifecycleEventRepo) Append(ctx context.Context, e *entity.LifecycleEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	query := `
		INSERT INTO lifecycle_events (id, cylinder_id, event_type,
			previous_state, new_state, previous_location_id, new_location_id,
			order_id, triggered_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.CylinderID, e.EventType, e.PreviousState, e.NewState,
		nullable(e.PreviousLocationID), nullable(e.NewLocationID),
		nullable(e.OrderID), e.TriggeredBy, e.Notes, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append lifecycle event: %w", err)
	}
	return nil
}

// ListByCylinder returns the cylinder's audit trail, newest first.
func (r *LifecycleEventRepo) ListByCylinder(ctx context.Context, cylinderID string, limit int) ([]*entity.LifecycleEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, cylinder_id, event_type, previous_state, new_state,
		       COALESCE(previous_location_id, ''), COALESCE(new_location_id, ''),
		       COALESCE(order_id, ''), triggered_by, notes, created_at
		FROM lifecycle_events
		WHERE cylinder_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, cylinderID, limit)
	if err != nil {
		return nil, fmt.Errorf("list lifecycle events: %w", err)
	}
	defer rows.Close()

	var out []*entity.LifecycleEvent
	for rows.Next() {
		var e entity.LifecycleEvent
		if err := rows.Scan(&e.ID, &e.CylinderID, &e.EventType,
			&e.PreviousState, &e.NewState, &e.PreviousLocationID,
			&e.NewLocationID, &e.OrderID, &e.TriggeredBy, &e.Notes,
			&e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lifecycle event: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
