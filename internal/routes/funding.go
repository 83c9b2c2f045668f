package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kifaa-platform/kifaa/internal/funding"
)

// RegisterFundingRoutes wires mobile money cash-in/cash-out endpoints.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler) {
	r.Post("/wallet/cash-in", h.CashIn)
	r.Post("/wallet/cash-out", h.CashOut)
}
