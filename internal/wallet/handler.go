package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/kifaa-platform/kifaa/internal/ledger"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type postRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	ClientTxID string          `json:"client_tx_id"`
}

type postResponse struct {
	TransactionID string          `json:"transaction_id"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
}

func requestorID(c *fiber.Ctx) (string, error) {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return uid, nil
}

func statusFor(err error) *fiber.Error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}

// Deposit credits the authenticated user's wallet.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	uid, err := requestorID(c)
	if err != nil {
		return err
	}
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Deposit(c.UserContext(), PostInput{
		UserID: uid, Amount: req.Amount, Currency: req.Currency, ClientTxID: req.ClientTxID,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateTransaction) {
			return c.Status(http.StatusOK).JSON(postResponse{TransactionID: res.TransactionID, Balance: res.Balance, Currency: req.Currency})
		}
		return statusFor(err)
	}
	return c.Status(http.StatusCreated).JSON(postResponse{TransactionID: res.TransactionID, Balance: res.Balance, Currency: req.Currency})
}

// Withdraw debits the authenticated user's wallet.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	uid, err := requestorID(c)
	if err != nil {
		return err
	}
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Withdraw(c.UserContext(), PostInput{
		UserID: uid, Amount: req.Amount, Currency: req.Currency, ClientTxID: req.ClientTxID,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateTransaction) {
			return c.Status(http.StatusOK).JSON(postResponse{TransactionID: res.TransactionID, Balance: res.Balance, Currency: req.Currency})
		}
		return statusFor(err)
	}
	return c.Status(http.StatusCreated).JSON(postResponse{TransactionID: res.TransactionID, Balance: res.Balance, Currency: req.Currency})
}

type transferRequest struct {
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	ClientTxID string          `json:"client_tx_id"`
}

// Transfer moves funds from the authenticated user to another user.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	uid, err := requestorID(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Transfer(c.UserContext(), TransferInput{
		FromUserID: uid, ToUserID: req.ToUserID, Amount: req.Amount,
		Currency: req.Currency, ClientTxID: req.ClientTxID,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateTransaction) {
			return c.Status(http.StatusOK).JSON(fiber.Map{
				"transaction_id": res.TransactionID,
				"balance":        res.FromBalance,
			})
		}
		return statusFor(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id": res.TransactionID,
		"balance":        res.FromBalance,
	})
}

// Balance returns the authenticated user's wallet balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	uid, err := requestorID(c)
	if err != nil {
		return err
	}
	currency := c.Query("currency", h.service.DefaultCurrency())
	balance, err := h.service.Balance(c.UserContext(), uid, currency)
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			// A user with no transactions yet simply has a zero balance.
			return c.Status(http.StatusOK).JSON(fiber.Map{"balance": decimal.Zero, "currency": currency})
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"balance": balance, "currency": currency})
}

// History returns the authenticated user's recent transactions.
func (h *Handler) History(c *fiber.Ctx) error {
	uid, err := requestorID(c)
	if err != nil {
		return err
	}
	currency := c.Query("currency", h.service.DefaultCurrency())
	limit := c.QueryInt("limit", 50)
	txs, err := h.service.History(c.UserContext(), uid, currency, limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]fiber.Map, 0, len(txs))
	for _, t := range txs {
		entry := fiber.Map{
			"id":         t.ID,
			"amount":     t.Amount,
			"currency":   t.Currency,
			"type":       t.Type,
			"status":     t.Status,
			"created_at": t.CreatedAt,
		}
		if t.RecipientID != "" {
			entry["recipient_id"] = t.RecipientID
		}
		if t.ReferenceID != "" {
			entry["reference_id"] = t.ReferenceID
		}
		out = append(out, entry)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}
