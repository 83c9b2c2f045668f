package kyc

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes KYC HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a KYC HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type submitRequest struct {
	Kind       string `json:"kind"`
	StorageKey string `json:"storage_key"`
}

type documentResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	ReviewedBy string    `json:"reviewed_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toDocumentResponse(d Document) documentResponse {
	return documentResponse{
		ID:         d.ID,
		UserID:     d.UserID,
		Kind:       d.Kind,
		Status:     d.Status,
		ReviewedBy: d.ReviewedBy,
		CreatedAt:  d.CreatedAt,
	}
}

// Submit records an identity document for review.
func (h *Handler) Submit(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	doc, err := h.service.Submit(c.UserContext(), uid, req.Kind, req.StorageKey)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toDocumentResponse(doc))
}

// List returns the authenticated user's submitted documents.
func (h *Handler) List(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	docs, err := h.service.ListByUser(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"documents": out})
}

type reviewRequest struct {
	Approve bool `json:"approve"`
}

// Review approves or rejects a pending document. Administrators only.
func (h *Handler) Review(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	doc, err := h.service.Review(c.UserContext(), c.Params("id"), uid, req.Approve)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrAlreadyReviewed):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(toDocumentResponse(doc))
}
