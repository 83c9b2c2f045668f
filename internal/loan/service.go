package loan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kifaa-platform/kifaa/internal/ledger"
	"github.com/kifaa-platform/kifaa/internal/notification"
	"github.com/kifaa-platform/kifaa/internal/product"
)

// ScoreCache invalidates cached score derivations after loan state changes.
type ScoreCache interface {
	Invalidate(ctx context.Context, userID string) error
}

// Service drives the loan lifecycle: application, approval with disbursement,
// rejection, and repayment with schedule allocation.
type Service struct {
	repo     Repository
	products product.Repository
	ledger   ledger.Ledger
	notifier notification.Notifier
	scores   ScoreCache
	currency string
}

// NewService builds a loan service. Products, notifier and score cache are
// optional.
func NewService(repo Repository, products product.Repository, l ledger.Ledger, notifier notification.Notifier, scores ScoreCache, defaultCurrency string) *Service {
	if defaultCurrency == "" {
		defaultCurrency = "KES"
	}
	return &Service{repo: repo, products: products, ledger: l, notifier: notifier, scores: scores, currency: defaultCurrency}
}

// ApplyInput captures a loan application.
type ApplyInput struct {
	UserID       string
	ProductID    string
	Amount       decimal.Decimal
	InterestRate decimal.Decimal // annual percentage
	TermMonths   int
	Currency     string
}

// Apply validates the application, computes the amortized installment and
// creates a pending loan.
func (s *Service) Apply(ctx context.Context, input ApplyInput) (Loan, error) {
	if !input.Amount.IsPositive() {
		return Loan{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if input.TermMonths <= 0 {
		return Loan{}, fmt.Errorf("%w: term must be at least one month", ErrValidation)
	}
	if input.InterestRate.IsNegative() {
		return Loan{}, fmt.Errorf("%w: interest rate cannot be negative", ErrValidation)
	}
	currency := input.Currency
	if currency == "" {
		currency = s.currency
	}

	if input.ProductID != "" {
		if s.products == nil {
			return Loan{}, fmt.Errorf("%w: product financing not available", ErrValidation)
		}
		p, err := s.products.Get(ctx, input.ProductID)
		if err != nil {
			return Loan{}, fmt.Errorf("%w: unknown product", ErrValidation)
		}
		if !p.Available {
			return Loan{}, fmt.Errorf("%w: product unavailable", ErrValidation)
		}
		if input.Amount.LessThan(p.MinLoanAmount) || input.Amount.GreaterThan(p.MaxLoanAmount) {
			return Loan{}, fmt.Errorf("%w: amount outside product bounds %s-%s",
				ErrValidation, p.MinLoanAmount.StringFixed(2), p.MaxLoanAmount.StringFixed(2))
		}
		if input.TermMonths < p.MinTermMonths || input.TermMonths > p.MaxTermMonths {
			return Loan{}, fmt.Errorf("%w: term outside product bounds %d-%d months",
				ErrValidation, p.MinTermMonths, p.MaxTermMonths)
		}
	}

	monthly := MonthlyPayment(input.Amount, input.InterestRate, input.TermMonths)
	total := monthly.Mul(decimal.NewFromInt(int64(input.TermMonths)))

	l := Loan{
		ID:              uuid.NewString(),
		UserID:          input.UserID,
		ProductID:       input.ProductID,
		Amount:          input.Amount,
		InterestRate:    input.InterestRate,
		TermMonths:      input.TermMonths,
		Status:          StatusPending,
		MonthlyPayment:  monthly,
		TotalPayment:    total,
		RemainingAmount: input.Amount,
		Currency:        currency,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return Loan{}, err
	}
	return l, nil
}

// Approve transitions a pending loan to active, stamps the approver, builds
// the payment schedule and disburses the principal to the borrower's wallet.
func (s *Service) Approve(ctx context.Context, loanID, approverID string) (Loan, error) {
	l, err := s.repo.Get(ctx, loanID)
	if err != nil {
		return Loan{}, err
	}
	if l.Status != StatusPending {
		return Loan{}, fmt.Errorf("%w: cannot approve loan in status %s", ErrInvalidStateTransition, l.Status)
	}

	now := time.Now().UTC()
	due := now.AddDate(0, l.TermMonths, 0)
	l.Status = StatusActive
	l.ApprovedBy = approverID
	l.ApprovedAt = &now
	l.DueDate = &due

	// The disbursement client tx id is derived from the loan id so a retried
	// approval cannot credit the borrower twice.
	if _, err := s.ledger.Credit(ctx, ledger.PostInput{
		UserID:      l.UserID,
		Amount:      l.Amount,
		Currency:    l.Currency,
		Type:        ledger.TypeDisbursement,
		ClientTxID:  "disburse:" + l.ID,
		ReferenceID: l.ID,
	}); err != nil && err != ledger.ErrDuplicateTransaction {
		return Loan{}, err
	}

	if err := s.repo.Update(ctx, l); err != nil {
		return Loan{}, err
	}
	if err := s.repo.CreateSchedule(ctx, BuildSchedule(l.ID, l.MonthlyPayment, l.TermMonths, now)); err != nil {
		return Loan{}, err
	}

	s.invalidate(ctx, l.UserID)
	s.notify(ctx, notification.KindLoanApproved, l.UserID,
		fmt.Sprintf("Your loan of %s %s was approved and disbursed", l.Amount.StringFixed(2), l.Currency))
	return l, nil
}

// Reject transitions a pending loan to rejected. Nothing was disbursed, so no
// compensating posting is needed.
func (s *Service) Reject(ctx context.Context, loanID, approverID string) (Loan, error) {
	l, err := s.repo.Get(ctx, loanID)
	if err != nil {
		return Loan{}, err
	}
	if l.Status != StatusPending {
		return Loan{}, fmt.Errorf("%w: cannot reject loan in status %s", ErrInvalidStateTransition, l.Status)
	}
	l.Status = StatusRejected
	l.ApprovedBy = approverID
	if err := s.repo.Update(ctx, l); err != nil {
		return Loan{}, err
	}
	s.notify(ctx, notification.KindLoanRejected, l.UserID, "Your loan application was rejected")
	return l, nil
}

// RepayInput captures a repayment request.
type RepayInput struct {
	LoanID     string
	UserID     string
	Amount     decimal.Decimal
	ClientTxID string
}

// RepayResult reports the loan state after a repayment.
type RepayResult struct {
	Loan          Loan
	WalletBalance decimal.Decimal
	// Unallocated is the portion of the payment exceeding all scheduled
	// installments. remaining_amount already reflects it; it is surfaced so
	// callers can see the schedule absorbed less than the payment.
	Unallocated decimal.Decimal
}

// Repay debits the borrower's wallet, reduces the remaining amount, advances
// the loan status and applies the payment oldest-due-first across the
// schedule.
func (s *Service) Repay(ctx context.Context, input RepayInput) (RepayResult, error) {
	l, err := s.repo.Get(ctx, input.LoanID)
	if err != nil {
		return RepayResult{}, err
	}
	if l.UserID != input.UserID {
		return RepayResult{}, ErrNotOwner
	}
	if !l.Repayable() {
		return RepayResult{}, fmt.Errorf("%w: status %s", ErrLoanNotRepayable, l.Status)
	}
	if !input.Amount.IsPositive() {
		return RepayResult{}, ledger.ErrInvalidAmount
	}

	clientTxID := input.ClientTxID
	if clientTxID == "" {
		clientTxID = uuid.NewString()
	}
	post, err := s.ledger.Debit(ctx, ledger.PostInput{
		UserID:      l.UserID,
		Amount:      input.Amount,
		Currency:    l.Currency,
		Type:        ledger.TypeRepayment,
		ClientTxID:  clientTxID,
		ReferenceID: l.ID,
	})
	if err != nil {
		if err == ledger.ErrDuplicateTransaction {
			// The loan already reflects the first attempt; report it as-is.
			return RepayResult{Loan: l, WalletBalance: post.Balance}, err
		}
		return RepayResult{}, err
	}

	l.RemainingAmount = l.RemainingAmount.Sub(input.Amount)
	if l.RemainingAmount.LessThanOrEqual(decimal.Zero) {
		l.Status = StatusCompleted
	} else {
		l.Status = StatusRepaying
	}
	if err := s.repo.Update(ctx, l); err != nil {
		return RepayResult{}, err
	}

	schedule, err := s.repo.Schedule(ctx, l.ID)
	if err != nil {
		return RepayResult{}, err
	}
	updated, remainder := Allocate(schedule, input.Amount)
	for i := range updated {
		if updated[i].PaidAmount.Equal(schedule[i].PaidAmount) && updated[i].Status == schedule[i].Status {
			continue
		}
		if err := s.repo.UpdatePayment(ctx, updated[i]); err != nil {
			return RepayResult{}, err
		}
	}

	s.invalidate(ctx, l.UserID)
	if l.Status == StatusCompleted {
		s.notify(ctx, notification.KindLoanCompleted, l.UserID, "Your loan is fully repaid")
	}

	return RepayResult{Loan: l, WalletBalance: post.Balance, Unallocated: remainder}, nil
}

// MarkDefaulted transitions a disbursed loan to defaulted and flags missed
// installments as overdue. Defaults are declared by operators, never by the
// request path.
func (s *Service) MarkDefaulted(ctx context.Context, loanID string) (Loan, error) {
	l, err := s.repo.Get(ctx, loanID)
	if err != nil {
		return Loan{}, err
	}
	if !l.Repayable() {
		return Loan{}, fmt.Errorf("%w: cannot default loan in status %s", ErrInvalidStateTransition, l.Status)
	}
	if _, err := s.repo.MarkOverdue(ctx, l.ID, time.Now().UTC()); err != nil {
		return Loan{}, err
	}
	l.Status = StatusDefaulted
	if err := s.repo.Update(ctx, l); err != nil {
		return Loan{}, err
	}
	s.invalidate(ctx, l.UserID)
	return l, nil
}

// Get fetches a loan by identifier.
func (s *Service) Get(ctx context.Context, id string) (Loan, error) {
	return s.repo.Get(ctx, id)
}

// ListByUser fetches a user's loans.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Loan, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Schedule fetches a loan's installment plan in due-date order.
func (s *Service) Schedule(ctx context.Context, loanID string) ([]Payment, error) {
	return s.repo.Schedule(ctx, loanID)
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.scores != nil {
		_ = s.scores.Invalidate(ctx, userID)
	}
}

func (s *Service) notify(ctx context.Context, kind, userID, body string) {
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: userID, Body: body})
	}
}
