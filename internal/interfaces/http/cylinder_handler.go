package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	appcylinder "github.com/aabine/flow-inventory/internal/application/cylinder"
	"github.com/aabine/flow-inventory/internal/application/dto"
	"github.com/aabine/flow-inventory/internal/domain"
)

// CylinderHandler serves cylinder registration and quality checks.
type CylinderHandler struct {
	uc *appcylinder.UseCase
}

// NewCylinderHandler builds the handler.
func NewCylinderHandler(uc *appcylinder.UseCase) *CylinderHandler {
	return &CylinderHandler{uc: uc}
}

// Register godoc
// @Summary      Register a new cylinder at a vendor location
// @Tags         cylinders
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterCylinderRequest  true  "vendor_id, serial_number, location_id, cylinder_size, capacity_liters, manufacture_date"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/cylinders [post]
func (h *CylinderHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterCylinderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	created, err := h.uc.Register(c.Context(), in.VendorID, in.Actor, in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invalid cylinder data"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "location not found"})
		case errors.Is(err, domain.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "location belongs to another vendor"})
		case errors.Is(err, domain.ErrDuplicate):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_SERIAL", Message: "serial number already registered"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"cylinder_id": created.ID})
}

// RecordQualityCheck godoc
// @Summary      Record a quality check for a cylinder
// @Tags         cylinders
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "cylinder id"
// @Param        body  body  dto.RecordQualityCheckRequest  true  "vendor_id, check_type, measured_value, min_acceptable, max_acceptable"
// @Success      201   {object}  dto.QualityCheckResultDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/cylinders/{id}/quality-checks [post]
func (h *CylinderHandler) RecordQualityCheck(c *fiber.Ctx) error {
	cylinderID := c.Params("id")
	var in dto.RecordQualityCheckRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	result, err := h.uc.RecordQualityCheck(c.Context(), cylinderID, in.VendorID, in.InspectorID, in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invalid quality check data"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "cylinder not found"})
		case errors.Is(err, domain.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "cylinder belongs to another vendor"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// ListEvents godoc
// @Summary      Get a cylinder's lifecycle audit trail
// @Tags         cylinders
// @Produce      json
// @Param        id         path   string  true   "cylinder id"
// @Param        vendor_id  query  string  false  "restrict to the owning vendor"
// @Param        limit      query  int     false  "max events, default 50"
// @Success      200   {array}   dto.LifecycleEventDTO
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/cylinders/{id}/events [get]
func (h *CylinderHandler) ListEvents(c *fiber.Ctx) error {
	cylinderID := c.Params("id")
	vendorID := c.Query("vendor_id")
	limit := c.QueryInt("limit")

	events, err := h.uc.Events(c.Context(), cylinderID, vendorID, limit)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invalid cylinder id"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "cylinder not found"})
		case errors.Is(err, domain.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "cylinder belongs to another vendor"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}

	out := make([]dto.LifecycleEventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, dto.LifecycleEventDTO{
			EventID:          e.ID,
			CylinderID:       e.CylinderID,
			EventType:        e.EventType,
			PreviousState:    e.PreviousState,
			NewState:         e.NewState,
			PreviousLocation: e.PreviousLocationID,
			NewLocation:      e.NewLocationID,
			OrderID:          e.OrderID,
			TriggeredBy:      e.TriggeredBy,
			Notes:            e.Notes,
			CreatedAt:        e.CreatedAt,
		})
	}
	return c.JSON(out)
}
