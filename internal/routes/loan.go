package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kifaa-platform/kifaa/internal/loan"
)

// RegisterLoanRoutes wires customer-facing loan endpoints.
func RegisterLoanRoutes(r fiber.Router, h *loan.Handler) {
	group := r.Group("/loans")
	group.Post("", h.Apply)
	group.Get("", h.List)
	group.Get("/:id", h.Get)
	group.Get("/:id/schedule", h.Schedule)
	group.Post("/:id/repay", h.Repay)
}
