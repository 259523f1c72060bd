package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aabine/flow-inventory/internal/application/ports"
	"github.com/aabine/flow-inventory/internal/domain"
	"github.com/aabine/flow-inventory/internal/domain/entity"
	"github.com/aabine/flow-inventory/internal/domain/repository"
	"github.com/aabine/flow-inventory/pkg/logger"
)

// UseCase binds a chosen cylinder set to an order (Reserve) or returns a
// previously bound set to the pool (Release). State changes and lifecycle
// events commit in one transaction; the integration event goes out only
// after commit.
type UseCase struct {
	txRunner  ports.TxRunner
	publisher ports.EventPublisher
	log       *logger.Logger
}

// NewUseCase builds the reservation use case.
func NewUseCase(txRunner ports.TxRunner, publisher ports.EventPublisher, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, publisher: publisher, log: log}
}

// ReserveInput identifies the cylinders, the owning vendor, the order to
// bind and the acting user.
type ReserveInput struct {
	CylinderIDs []string
	VendorID    string
	OrderID     string
	Actor       string
}

// ReleaseInput identifies the cylinders to unbind and the reason.
type ReleaseInput struct {
	CylinderIDs []string
	VendorID    string
	Actor       string
	Reason      string
}

// Reserve marks every cylinder unavailable and bound to the order, in one
// conditional batch update. If any requested cylinder is not available,
// unbound, active and owned by the vendor, nothing changes and
// ErrInsufficientAvailability is returned.
func (uc *UseCase) Reserve(ctx context.Context, in ReserveInput) error {
	if len(in.CylinderIDs) == 0 || in.VendorID == "" || in.OrderID == "" || in.Actor == "" {
		return domain.ErrInvalidInput
	}

	err := uc.txRunner.Run(ctx, func(
		cylinderRepo repository.CylinderRepository,
		eventRepo repository.LifecycleEventRepository,
	) error {
		updated, err := cylinderRepo.ReserveBatch(ctx, in.CylinderIDs, in.VendorID, in.OrderID)
		if err != nil {
			return fmt.Errorf("reserve batch: %w", err)
		}
		if len(updated) != len(in.CylinderIDs) {
			return domain.ErrInsufficientAvailability
		}
		now := time.Now()
		for _, id := range updated {
			event := &entity.LifecycleEvent{
				ID:            uuid.New().String(),
				CylinderID:    id,
				EventType:     entity.EventReserved,
				PreviousState: entity.StateActive,
				NewState:      entity.StateInUse,
				OrderID:       in.OrderID,
				TriggeredBy:   in.Actor,
				Notes:         "Reserved for order " + in.OrderID,
				CreatedAt:     now,
			}
			if err := eventRepo.Append(ctx, event); err != nil {
				return fmt.Errorf("append lifecycle event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.publish(ctx, ports.EventCylindersReserved, map[string]any{
		"order_id":     in.OrderID,
		"cylinder_ids": in.CylinderIDs,
		"vendor_id":    in.VendorID,
		"quantity":     len(in.CylinderIDs),
		"reserved_by":  in.Actor,
	})
	uc.log.Info().Int("count", len(in.CylinderIDs)).Str("order_id", in.OrderID).Msg("cylinders reserved")
	return nil
}

// Release is the inverse of Reserve: every cylinder in the batch must be
// bound and unavailable, or the whole batch aborts with ErrConflict.
func (uc *UseCase) Release(ctx context.Context, in ReleaseInput) error {
	if len(in.CylinderIDs) == 0 || in.VendorID == "" || in.Actor == "" {
		return domain.ErrInvalidInput
	}
	reason := in.Reason
	if reason == "" {
		reason = "order cancelled"
	}

	err := uc.txRunner.Run(ctx, func(
		cylinderRepo repository.CylinderRepository,
		eventRepo repository.LifecycleEventRepository,
	) error {
		bound, err := cylinderRepo.ReleaseBatchLock(ctx, in.CylinderIDs, in.VendorID)
		if err != nil {
			return fmt.Errorf("lock release batch: %w", err)
		}
		if len(bound) != len(in.CylinderIDs) {
			return domain.ErrConflict
		}
		if err := cylinderRepo.ReleaseBatch(ctx, in.CylinderIDs); err != nil {
			return fmt.Errorf("release batch: %w", err)
		}
		now := time.Now()
		for _, c := range bound {
			event := &entity.LifecycleEvent{
				ID:            uuid.New().String(),
				CylinderID:    c.ID,
				EventType:     entity.EventReleased,
				PreviousState: entity.StateInUse,
				NewState:      entity.StateActive,
				OrderID:       c.CurrentOrderID,
				TriggeredBy:   in.Actor,
				Notes:         "Released: " + reason,
				CreatedAt:     now,
			}
			if err := eventRepo.Append(ctx, event); err != nil {
				return fmt.Errorf("append lifecycle event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.publish(ctx, ports.EventCylindersReleased, map[string]any{
		"cylinder_ids": in.CylinderIDs,
		"vendor_id":    in.VendorID,
		"quantity":     len(in.CylinderIDs),
		"released_by":  in.Actor,
		"reason":       reason,
	})
	uc.log.Info().Int("count", len(in.CylinderIDs)).Msg("cylinders released")
	return nil
}

// publish sends the integration event; broker problems are logged, never
// surfaced, since the publisher buffers for at-least-once delivery.
func (uc *UseCase) publish(ctx context.Context, eventType string, data map[string]any) {
	if err := uc.publisher.Publish(ctx, eventType, data); err != nil {
		uc.log.Warn().Err(err).Str("event_type", eventType).Msg("integration event buffered")
	}
}
