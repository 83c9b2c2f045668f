package product

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ScoreProvider resolves the caller's current credit score.
type ScoreProvider interface {
	CurrentScore(ctx context.Context, userID string) (int, error)
}

// Handler exposes catalog HTTP endpoints.
type Handler struct {
	service *Service
	scores  ScoreProvider
}

// NewHandler builds a product HTTP handler. The score provider backs the
// eligibility-filtered listing.
func NewHandler(service *Service, scores ScoreProvider) *Handler {
	return &Handler{service: service, scores: scores}
}

type productRequest struct {
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	MinLoanAmount decimal.Decimal `json:"min_loan_amount"`
	MaxLoanAmount decimal.Decimal `json:"max_loan_amount"`
	MinTermMonths int             `json:"min_term_months"`
	MaxTermMonths int             `json:"max_term_months"`
	Available     bool            `json:"available"`
}

type productResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	MinLoanAmount decimal.Decimal `json:"min_loan_amount"`
	MaxLoanAmount decimal.Decimal `json:"max_loan_amount"`
	MinTermMonths int             `json:"min_term_months"`
	MaxTermMonths int             `json:"max_term_months"`
	Available     bool            `json:"available"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toProductResponse(p Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Category:      p.Category,
		Price:         p.Price,
		MinLoanAmount: p.MinLoanAmount,
		MaxLoanAmount: p.MaxLoanAmount,
		MinTermMonths: p.MinTermMonths,
		MaxTermMonths: p.MaxTermMonths,
		Available:     p.Available,
		CreatedAt:     p.CreatedAt,
	}
}

// Create adds a product to the catalog. Administrators only.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	p, err := h.service.Create(c.UserContext(), Product{
		Name:          req.Name,
		Category:      req.Category,
		Price:         req.Price,
		MinLoanAmount: req.MinLoanAmount,
		MaxLoanAmount: req.MaxLoanAmount,
		MinTermMonths: req.MinTermMonths,
		MaxTermMonths: req.MaxTermMonths,
		Available:     req.Available,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toProductResponse(p))
}

// Get returns one catalog product.
func (h *Handler) Get(c *fiber.Ctx) error {
	p, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toProductResponse(p))
}

// List returns the full catalog.
func (h *Handler) List(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"products": out})
}

// ListEligible returns the available products the authenticated user's score
// unlocks.
func (h *Handler) ListEligible(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	score, err := h.scores.CurrentScore(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	products, err := h.service.ListEligible(c.UserContext(), score)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"score":    score,
		"products": out,
	})
}
