package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Loan statuses. Completed, rejected and defaulted are terminal.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusRepaying  = "repaying"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
	StatusDefaulted = "defaulted"
)

// Schedule entry statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentOverdue = "overdue"
)

var (
	// ErrNotFound occurs when a loan lookup misses.
	ErrNotFound = errors.New("loan not found")

	// ErrInvalidStateTransition occurs when approve or reject targets a loan
	// that is not pending.
	ErrInvalidStateTransition = errors.New("invalid loan state transition")

	// ErrLoanNotRepayable occurs when a repayment targets a loan that is not
	// active or repaying.
	ErrLoanNotRepayable = errors.New("loan is not in a repayable state")

	// ErrValidation occurs when an application violates product bounds.
	ErrValidation = errors.New("loan application invalid")

	// ErrNotOwner occurs when a caller operates on another user's loan.
	ErrNotOwner = errors.New("not the loan owner")
)

// Loan is a credit facility owned by one user, optionally backed by a catalog
// product. Term is always expressed in months.
type Loan struct {
	ID              string
	UserID          string
	ProductID       string
	Amount          decimal.Decimal
	InterestRate    decimal.Decimal // annual percentage, e.g. 12 for 12%
	TermMonths      int
	Status          string
	MonthlyPayment  decimal.Decimal
	TotalPayment    decimal.Decimal
	RemainingAmount decimal.Decimal
	Currency        string
	DueDate         *time.Time
	ApprovedBy      string
	ApprovedAt      *time.Time
	CreatedAt       time.Time
}

// Terminal reports whether no further transitions are allowed.
func (l Loan) Terminal() bool {
	switch l.Status {
	case StatusCompleted, StatusRejected, StatusDefaulted:
		return true
	default:
		return false
	}
}

// Repayable reports whether a repayment may be applied.
func (l Loan) Repayable() bool {
	return l.Status == StatusActive || l.Status == StatusRepaying
}

// Payment is one installment of a loan's schedule.
type Payment struct {
	ID         string
	LoanID     string
	Sequence   int
	Amount     decimal.Decimal
	DueDate    time.Time
	Status     string
	PaidAmount decimal.Decimal
}

// Outstanding returns the unpaid portion of the installment.
func (p Payment) Outstanding() decimal.Decimal {
	return p.Amount.Sub(p.PaidAmount)
}
