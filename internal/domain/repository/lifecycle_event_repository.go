package repository

import (
	"context"

	"github.com/aabine/flow-inventory/internal/domain/entity"
)

// LifecycleEventRepository defines the append-only port for the cylinder
// audit log (DIP). Events are never updated or deleted.
type LifecycleEventRepository interface {
	Append(ctx context.Context, event *entity.LifecycleEvent) error
	ListByCylinder(ctx context.Context, cylinderID string, limit int) ([]*entity.LifecycleEvent, error)
}
