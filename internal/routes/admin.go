package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kifaa-platform/kifaa/internal/kyc"
	"github.com/kifaa-platform/kifaa/internal/loan"
	"github.com/kifaa-platform/kifaa/internal/product"
)

// RegisterAdminRoutes wires administrator-only endpoints: loan review,
// catalog management and KYC review.
func RegisterAdminRoutes(r fiber.Router, loans *loan.Handler, products *product.Handler, docs *kyc.Handler) {
	r.Post("/loans/:id/approve", loans.Approve)
	r.Post("/loans/:id/reject", loans.Reject)
	r.Post("/loans/:id/default", loans.MarkDefaulted)
	r.Post("/products", products.Create)
	r.Post("/kyc/documents/:id/review", docs.Review)
}
