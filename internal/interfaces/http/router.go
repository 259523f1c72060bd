package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aabine/flow-inventory/internal/application/allocation"
	appcylinder "github.com/aabine/flow-inventory/internal/application/cylinder"
	"github.com/aabine/flow-inventory/internal/application/reservation"
)

// RouterDeps dependencies for the router.
type RouterDeps struct {
	AllocateUC    *allocation.AllocateUseCase
	ReservationUC *reservation.UseCase
	CylinderUC    *appcylinder.UseCase
}

// Router registers the API routes.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Allocation engine
	alloc := api.Group("/allocation")
	allocationHandler := NewAllocationHandler(deps.AllocateUC, deps.ReservationUC)
	alloc.Post("/search", allocationHandler.Search)
	alloc.Post("/reserve", allocationHandler.Reserve)
	alloc.Post("/release", allocationHandler.Release)

	// Cylinder registry
	cylinders := api.Group("/cylinders")
	cylinderHandler := NewCylinderHandler(deps.CylinderUC)
	cylinders.Post("/", cylinderHandler.Register)
	cylinders.Post("/:id/quality-checks", cylinderHandler.RecordQualityCheck)
	cylinders.Get("/:id/events", cylinderHandler.ListEvents)
}
