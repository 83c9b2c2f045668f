package loan

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/kifaa-platform/kifaa/internal/ledger"
)

// Handler exposes loan HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a loan HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type applyRequest struct {
	ProductID    string          `json:"product_id"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	TermMonths   int             `json:"term_months"`
	Currency     string          `json:"currency"`
}

type loanResponse struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	ProductID       string          `json:"product_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	TermMonths      int             `json:"term_months"`
	Status          string          `json:"status"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	TotalPayment    decimal.Decimal `json:"total_payment"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Currency        string          `json:"currency"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toLoanResponse(l Loan) loanResponse {
	return loanResponse{
		ID:              l.ID,
		UserID:          l.UserID,
		ProductID:       l.ProductID,
		Amount:          l.Amount,
		InterestRate:    l.InterestRate,
		TermMonths:      l.TermMonths,
		Status:          l.Status,
		MonthlyPayment:  l.MonthlyPayment,
		TotalPayment:    l.TotalPayment,
		RemainingAmount: l.RemainingAmount,
		Currency:        l.Currency,
		DueDate:         l.DueDate,
		ApprovedAt:      l.ApprovedAt,
		CreatedAt:       l.CreatedAt,
	}
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
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidStateTransition), errors.Is(err, ErrLoanNotRepayable):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}

// Apply submits a loan application for the authenticated user.
func (h *Handler) Apply(c *fiber.Ctx) error {
	uid, err := requestorID(c)
	if err != nil {
		return err
	}
	var req applyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	l, err := h.service.Apply(c.UserContext(), ApplyInput{
		UserID:       uid,
		ProductID:    req.ProductID,
		Amount:       req.Amount,
		InterestRate: req.InterestRate,
		TermMonths:   req.TermMonths,
		Currency:     req.Currency,
	})
	if err != nil {
		return statusFor(err)
	}
	return c.Status(http.StatusCreated).JSON(toLoanResponse(l))
}

// List returns the authenticated user's loans.
func (h *Handler) List(c *fiber.Ctx) error {
	uid, err := requestorID(c)
	if err != nil {
		return err
	}
	loans, err := h.service.ListByUser(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]loanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, toLoanResponse(l))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"loans": out})
}

// Get returns one loan. Customers can only read their own.
func (h *Handler) Get(c *fiber.Ctx) error {
	uid, err := requestorID(c)
	if err != nil {
		return err
	}
	l, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return statusFor(err)
	}
	role, _ := c.Locals("user_role").(string)
	if l.UserID != uid && role != "administrator" {
		return fiber.NewError(http.StatusForbidden, "not your loan")
	}
	return c.Status(http.StatusOK).JSON(toLoanResponse(l))
}

// Schedule returns the loan's repayment schedule in due-date order.
func (h *Handler) Schedule(c *fiber.Ctx) error {
	uid, err := requestorID(c)
	if err != nil {
		return err
	}
	l, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return statusFor(err)
	}
	role, _ := c.Locals("user_role").(string)
	if l.UserID != uid && role != "administrator" {
		return fiber.NewError(http.StatusForbidden, "not your loan")
	}
	schedule, err := h.service.Schedule(c.UserContext(), l.ID)
	if err != nil {
		return statusFor(err)
	}
	out := make([]fiber.Map, 0, len(schedule))
	for _, p := range schedule {
		out = append(out, fiber.Map{
			"sequence":    p.Sequence,
			"amount":      p.Amount,
			"due_date":    p.DueDate,
			"status":      p.Status,
			"paid_amount": p.PaidAmount,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"loan_id": l.ID, "schedule": out})
}

type repayRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	ClientTxID string          `json:"client_tx_id"`
}

// Repay debits the authenticated user's wallet and applies the payment to the
// loan.
func (h *Handler) Repay(c *fiber.Ctx) error {
	uid, err := requestorID(c)
	if err != nil {
		return err
	}
	var req repayRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Repay(c.UserContext(), RepayInput{
		LoanID:     c.Params("id"),
		UserID:     uid,
		Amount:     req.Amount,
		ClientTxID: req.ClientTxID,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateTransaction) {
			return c.Status(http.StatusOK).JSON(repayResponse(res))
		}
		return statusFor(err)
	}
	return c.Status(http.StatusCreated).JSON(repayResponse(res))
}

func repayResponse(res RepayResult) fiber.Map {
	return fiber.Map{
		"loan":           toLoanResponse(res.Loan),
		"wallet_balance": res.WalletBalance,
		"unallocated":    res.Unallocated,
	}
}

// Approve transitions a pending loan to active and disburses the principal.
// Administrators only.
func (h *Handler) Approve(c *fiber.Ctx) error {
	uid, err := requestorID(c)
	if err != nil {
		return err
	}
	l, err := h.service.Approve(c.UserContext(), c.Params("id"), uid)
	if err != nil {
		return statusFor(err)
	}
	return c.Status(http.StatusOK).JSON(toLoanResponse(l))
}

// MarkDefaulted declares a disbursed loan defaulted and flags missed
// installments overdue. Administrators only.
func (h *Handler) MarkDefaulted(c *fiber.Ctx) error {
	if _, err := requestorID(c); err != nil {
		return err
	}
	l, err := h.service.MarkDefaulted(c.UserContext(), c.Params("id"))
	if err != nil {
		return statusFor(err)
	}
	return c.Status(http.StatusOK).JSON(toLoanResponse(l))
}

// Reject declines a pending loan. Administrators only.
func (h *Handler) Reject(c *fiber.Ctx) error {
	uid, err := requestorID(c)
	if err != nil {
		return err
	}
	l, err := h.service.Reject(c.UserContext(), c.Params("id"), uid)
	if err != nil {
		return statusFor(err)
	}
	return c.Status(http.StatusOK).JSON(toLoanResponse(l))
}
