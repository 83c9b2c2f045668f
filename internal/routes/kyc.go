package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kifaa-platform/kifaa/internal/kyc"
)

// RegisterKYCRoutes wires document submission endpoints.
func RegisterKYCRoutes(r fiber.Router, h *kyc.Handler) {
	group := r.Group("/kyc")
	group.Post("/documents", h.Submit)
	group.Get("/documents", h.List)
}
