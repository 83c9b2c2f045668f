package funding

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/kifaa-platform/kifaa/internal/ledger"
)

// Handler exposes HTTP endpoints for mobile money funding flows.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CashIn processes wallet top-ups funded by mobile money.
func (h *Handler) CashIn(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req CashRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	result, err := h.service.CashIn(c.UserContext(), CashInput{
		UserID:     uid,
		Phone:      req.Phone,
		Amount:     amount,
		Currency:   req.Currency,
		ClientTxID: req.ClientTxID,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateTransaction) {
			return c.Status(http.StatusOK).JSON(toResponse(result, req.Currency))
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(toResponse(result, req.Currency))
}

// CashOut processes wallet withdrawals to mobile money.
func (h *Handler) CashOut(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req CashRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	result, err := h.service.CashOut(c.UserContext(), CashInput{
		UserID:     uid,
		Phone:      req.Phone,
		Amount:     amount,
		Currency:   req.Currency,
		ClientTxID: req.ClientTxID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrDuplicateTransaction):
			return c.Status(http.StatusOK).JSON(toResponse(result, req.Currency))
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(toResponse(result, req.Currency))
}

func toResponse(result Result, currency string) CashResponse {
	return CashResponse{
		TransactionID:     result.TransactionID,
		WalletBalance:     result.WalletBalance.StringFixed(2),
		Currency:          currency,
		ProviderReference: result.ProviderReference,
	}
}
