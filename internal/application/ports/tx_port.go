package ports

import (
	"context"

	"github.com/aabine/flow-inventory/internal/domain/repository"
)

// TxRunner executes a function inside one database transaction, handing it
// repositories bound to that transaction. Writes that must land together
// (state change plus its audit row) go through it: any error rolls the
// whole batch back.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		cylinderRepo repository.CylinderRepository,
		eventRepo repository.LifecycleEventRepository,
	) error) error
}
