package cylinder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aabine/flow-inventory/internal/application/dto"
	"github.com/aabine/flow-inventory/internal/application/ports"
	"github.com/aabine/flow-inventory/internal/domain"
	"github.com/aabine/flow-inventory/internal/domain/entity"
	"github.com/aabine/flow-inventory/internal/domain/repository"
	"github.com/aabine/flow-inventory/pkg/logger"
)

// UseCase manages cylinder registration, quality-check recording and the
// audit trail.
type UseCase struct {
	cylinders repository.CylinderRepository
	checks    repository.QualityCheckRepository
	locations repository.LocationRepository
	events    repository.LifecycleEventRepository
	txRunner  ports.TxRunner
	publisher ports.EventPublisher
	log       *logger.Logger
}

// NewUseCase builds the use case.
func NewUseCase(
	cylinders repository.CylinderRepository,
	checks repository.QualityCheckRepository,
	locations repository.LocationRepository,
	events repository.LifecycleEventRepository,
	txRunner ports.TxRunner,
	publisher ports.EventPublisher,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		cylinders: cylinders,
		checks:    checks,
		locations: locations,
		events:    events,
		txRunner:  txRunner,
		publisher: publisher,
		log:       log,
	}
}

// Register creates a cylinder at one of the vendor's locations, appends
// the registration lifecycle event and announces it to the broker.
func (uc *UseCase) Register(ctx context.Context, vendorID, actor string, in dto.RegisterCylinderRequest) (*entity.Cylinder, error) {
	if in.SerialNumber == "" || in.LocationID == "" || vendorID == "" {
		return nil, domain.ErrInvalidInput
	}
	switch in.Size {
	case entity.SizeSmall, entity.SizeMedium, entity.SizeLarge, entity.SizeExtraLarge:
	default:
		return nil, domain.ErrInvalidInput
	}
	if !in.CapacityLiters.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	loc, err := uc.locations.GetByID(ctx, in.LocationID)
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	if loc == nil {
		return nil, domain.ErrNotFound
	}
	if loc.VendorID != vendorID {
		return nil, domain.ErrForbidden
	}

	if existing, err := uc.cylinders.GetBySerial(ctx, in.SerialNumber); err != nil {
		return nil, fmt.Errorf("check serial: %w", err)
	} else if existing != nil {
		return nil, domain.ErrDuplicate
	}

	condition := in.Condition
	if condition == "" {
		condition = entity.ConditionExcellent
	}
	now := time.Now()
	c := &entity.Cylinder{
		ID:              uuid.New().String(),
		SerialNumber:    in.SerialNumber,
		VendorID:        vendorID,
		LocationID:      in.LocationID,
		Size:            in.Size,
		CapacityLiters:  in.CapacityLiters,
		Condition:       condition,
		LifecycleState:  entity.StateNew,
		IsAvailable:     true,
		EmergencyReady:  in.EmergencyReady,
		ManufactureDate: in.ManufactureDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	event := &entity.LifecycleEvent{
		ID:            uuid.New().String(),
		CylinderID:    c.ID,
		EventType:     entity.EventRegistered,
		NewState:      entity.StateNew,
		NewLocationID: c.LocationID,
		TriggeredBy:   actor,
		Notes:         "Cylinder registered in system",
		CreatedAt:     now,
	}

	// The cylinder row and its registration event commit together.
	err = uc.txRunner.Run(ctx, func(cylRepo repository.CylinderRepository, eventRepo repository.LifecycleEventRepository) error {
		if err := cylRepo.Create(ctx, c); err != nil {
			return err
		}
		if err := eventRepo.Append(ctx, event); err != nil {
			return fmt.Errorf("append lifecycle event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := uc.publisher.Publish(ctx, ports.EventCylinderRegistered, map[string]any{
		"cylinder_id":   c.ID,
		"vendor_id":     vendorID,
		"serial_number": c.SerialNumber,
		"cylinder_size": c.Size,
		"location_id":   c.LocationID,
	}); err != nil {
		uc.log.Warn().Err(err).Msg("integration event buffered")
	}

	uc.log.Info().Str("cylinder_id", c.ID).Str("serial", c.SerialNumber).Msg("cylinder registered")
	return c, nil
}

// RecordQualityCheck evaluates the measured parameter against its
// acceptable range, persists the immutable check row and updates the
// cylinder's inspection date. A failed safety-critical check quarantines
// the cylinder.
func (uc *UseCase) RecordQualityCheck(ctx context.Context, cylinderID, vendorID, inspector string, in dto.RecordQualityCheckRequest) (*dto.QualityCheckResultDTO, error) {
	switch in.CheckType {
	case entity.CheckPressure, entity.CheckPurity, entity.CheckValve,
		entity.CheckVisual, entity.CheckLeak, entity.CheckHydrostatic:
	default:
		return nil, domain.ErrInvalidInput
	}
	if in.MinAcceptable > in.MaxAcceptable {
		return nil, domain.ErrInvalidInput
	}

	c, err := uc.cylinders.GetByID(ctx, cylinderID)
	if err != nil {
		return nil, fmt.Errorf("get cylinder: %w", err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if c.VendorID != vendorID {
		return nil, domain.ErrForbidden
	}

	status := entity.CheckPassed
	if in.MeasuredValue < in.MinAcceptable || in.MeasuredValue > in.MaxAcceptable {
		status = entity.CheckFailed
	}
	now := time.Now()
	qc := &entity.QualityCheck{
		ID:               uuid.New().String(),
		CylinderID:       cylinderID,
		CheckType:        in.CheckType,
		CheckDate:        now,
		MeasuredValue:    in.MeasuredValue,
		MinAcceptable:    in.MinAcceptable,
		MaxAcceptable:    in.MaxAcceptable,
		Status:           status,
		RequiresFollowUp: status == entity.CheckFailed,
		InspectorID:      inspector,
		Notes:            in.Notes,
		CreatedAt:        now,
	}
	if err := uc.checks.Create(ctx, qc); err != nil {
		return nil, fmt.Errorf("create quality check: %w", err)
	}
	if err := uc.cylinders.SetInspected(ctx, cylinderID, now); err != nil {
		return nil, fmt.Errorf("set inspected: %w", err)
	}

	quarantined := false
	if status == entity.CheckFailed && qc.SafetyCritical() {
		if err := uc.cylinders.SetConditionState(ctx, cylinderID, entity.ConditionUnsafe, entity.StateQuarantine); err != nil {
			return nil, fmt.Errorf("quarantine cylinder: %w", err)
		}
		event := &entity.LifecycleEvent{
			ID:            uuid.New().String(),
			CylinderID:    cylinderID,
			EventType:     entity.EventQuarantined,
			PreviousState: c.LifecycleState,
			NewState:      entity.StateQuarantine,
			TriggeredBy:   inspector,
			Notes:         "Failed " + in.CheckType,
			CreatedAt:     now,
		}
		if err := uc.events.Append(ctx, event); err != nil {
			return nil, fmt.Errorf("append lifecycle event: %w", err)
		}
		quarantined = true
		uc.log.Warn().Str("cylinder_id", cylinderID).Str("check_type", in.CheckType).Msg("cylinder quarantined")
	}

	return &dto.QualityCheckResultDTO{
		CheckID:          qc.ID,
		CylinderID:       cylinderID,
		Status:           status,
		RequiresFollowUp: qc.RequiresFollowUp,
		Quarantined:      quarantined,
	}, nil
}

// Events returns a cylinder's lifecycle history, newest first. The caller
// must own the cylinder.
func (uc *UseCase) Events(ctx context.Context, cylinderID, vendorID string, limit int) ([]*entity.LifecycleEvent, error) {
	if cylinderID == "" {
		return nil, domain.ErrInvalidInput
	}
	c, err := uc.cylinders.GetByID(ctx, cylinderID)
	if err != nil {
		return nil, fmt.Errorf("get cylinder: %w", err)
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if vendorID != "" && c.VendorID != vendorID {
		return nil, domain.ErrForbidden
	}
	return uc.events.ListByCylinder(ctx, cylinderID, limit)
}
