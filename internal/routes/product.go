package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kifaa-platform/kifaa/internal/product"
)

// RegisterProductRoutes wires catalog endpoints.
func RegisterProductRoutes(r fiber.Router, h *product.Handler) {
	group := r.Group("/products")
	group.Get("", h.List)
	group.Get("/eligible", h.ListEligible)
	group.Get("/:id", h.Get)
}
