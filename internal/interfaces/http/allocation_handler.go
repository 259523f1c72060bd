package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/aabine/flow-inventory/internal/application/allocation"
	"github.com/aabine/flow-inventory/internal/application/dto"
	"github.com/aabine/flow-inventory/internal/application/reservation"
	"github.com/aabine/flow-inventory/internal/domain"
)

// AllocationHandler serves allocation search, reserve and release.
type AllocationHandler struct {
	allocate *allocation.AllocateUseCase
	reserve  *reservation.UseCase
}

// NewAllocationHandler builds the handler.
func NewAllocationHandler(allocate *allocation.AllocateUseCase, reserve *reservation.UseCase) *AllocationHandler {
	return &AllocationHandler{allocate: allocate, reserve: reserve}
}

// Search godoc
// @Summary      Search and rank cylinder allocation options
// @Tags         allocation
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AllocationSearchRequest  true  "cylinder_size, quantity, delivery coordinates, max_distance_km, is_emergency, min_fill_percentage"
// @Success      200   {object}  dto.AllocationSearchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/allocation/search [post]
func (h *AllocationHandler) Search(c *fiber.Ctx) error {
	var in dto.AllocationSearchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	resp, err := h.allocate.Allocate(c.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invalid allocation request"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resp)
}

// Reserve godoc
// @Summary      Reserve a cylinder set for an order (all-or-nothing)
// @Tags         allocation
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "cylinder_ids, vendor_id, order_id, actor"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/allocation/reserve [post]
func (h *AllocationHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	err := h.reserve.Reserve(c.Context(), reservation.ReserveInput{
		CylinderIDs: in.CylinderIDs,
		VendorID:    in.VendorID,
		OrderID:     in.OrderID,
		Actor:       in.Actor,
	})
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(fiber.Map{"message": "cylinders reserved"})
}

// Release godoc
// @Summary      Release a reserved cylinder set back to the pool
// @Tags         allocation
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReleaseRequest  true  "cylinder_ids, vendor_id, actor, reason"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/allocation/release [post]
func (h *AllocationHandler) Release(c *fiber.Ctx) error {
	var in dto.ReleaseRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
	}
	err := h.reserve.Release(c.Context(), reservation.ReleaseInput{
		CylinderIDs: in.CylinderIDs,
		VendorID:    in.VendorID,
		Actor:       in.Actor,
		Reason:      in.Reason,
	})
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(fiber.Map{"message": "cylinders released"})
}

func reservationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invalid request"})
	case errors.Is(err, domain.ErrInsufficientAvailability):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_AVAILABILITY", Message: "some cylinders are not available for reservation"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "some cylinders are not in a releasable state"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "cylinder not found"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "access denied"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
