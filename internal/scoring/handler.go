package scoring

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/kifaa-platform/kifaa/internal/product"
)

// Handler exposes score HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a scoring HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get returns the authenticated user's score, tier and the catalog
// categories that score unlocks.
func (h *Handler) Get(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	res, err := h.service.Compute(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"score":               res.Score,
		"tier":                res.Tier,
		"eligible_categories": product.EligibleCategories(res.Score),
	})
}
