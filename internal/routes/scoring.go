package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kifaa-platform/kifaa/internal/scoring"
)

// RegisterScoringRoutes wires the score endpoint.
func RegisterScoringRoutes(r fiber.Router, h *scoring.Handler) {
	r.Get("/score", h.Get)
}
