package loan

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kifaa-platform/kifaa/internal/ledger"
)

func newTestService(t *testing.T) (*Service, ledger.Ledger) {
	t.Helper()
	ledgerBackend := ledger.NewInMemory()
	svc := NewService(NewMemoryRepository(), nil, ledgerBackend, nil, nil, "KES")
	return svc, ledgerBackend
}

func TestLoanLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, ledgerBackend := newTestService(t)

	userID := uuid.NewString()
	ledger.SeedBalance(ledgerBackend, userID, "KES", dec("10000"))

	l, err := svc.Apply(ctx, ApplyInput{
		UserID:       userID,
		Amount:       dec("5000"),
		InterestRate: dec("12"),
		TermMonths:   6,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if l.Status != StatusPending {
		t.Fatalf("expected pending, got %s", l.Status)
	}
	if !l.MonthlyPayment.Equal(dec("862.74")) {
		t.Fatalf("monthly payment %s, want 862.74", l.MonthlyPayment)
	}
	if !l.TotalPayment.Equal(dec("5176.44")) {
		t.Fatalf("total payment %s, want 5176.44", l.TotalPayment)
	}
	if !l.RemainingAmount.Equal(dec("5000")) {
		t.Fatalf("remaining %s, want 5000", l.RemainingAmount)
	}

	approved, err := svc.Approve(ctx, l.ID, "admin-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != StatusActive {
		t.Fatalf("expected active, got %s", approved.Status)
	}
	if approved.ApprovedAt == nil || approved.DueDate == nil {
		t.Fatal("approval timestamps missing")
	}

	balance, err := ledgerBackend.Balance(ctx, userID, "KES")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(dec("15000")) {
		t.Fatalf("balance after disbursement %s, want 15000", balance)
	}

	schedule, err := svc.Schedule(ctx, l.ID)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(schedule) != 6 {
		t.Fatalf("expected 6 installments, got %d", len(schedule))
	}

	res, err := svc.Repay(ctx, RepayInput{LoanID: l.ID, UserID: userID, Amount: dec("1000")})
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if res.Loan.Status != StatusRepaying {
		t.Fatalf("expected repaying, got %s", res.Loan.Status)
	}
	if !res.Loan.RemainingAmount.Equal(dec("4000")) {
		t.Fatalf("remaining %s, want 4000", res.Loan.RemainingAmount)
	}
	if !res.WalletBalance.Equal(dec("14000")) {
		t.Fatalf("wallet balance %s, want 14000", res.WalletBalance)
	}
	if !res.Unallocated.IsZero() {
		t.Fatalf("unexpected unallocated %s", res.Unallocated)
	}

	schedule, err = svc.Schedule(ctx, l.ID)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if schedule[0].Status != PaymentPaid || !schedule[0].PaidAmount.Equal(dec("862.74")) {
		t.Fatalf("first installment %s %s", schedule[0].Status, schedule[0].PaidAmount)
	}
	if schedule[1].Status != PaymentPending || !schedule[1].PaidAmount.Equal(dec("137.26")) {
		t.Fatalf("second installment %s %s", schedule[1].Status, schedule[1].PaidAmount)
	}
}

func TestRepayCompletesLoan(t *testing.T) {
	ctx := context.Background()
	svc, ledgerBackend := newTestService(t)

	userID := uuid.NewString()
	ledger.SeedBalance(ledgerBackend, userID, "KES", dec("10000"))

	l, err := svc.Apply(ctx, ApplyInput{UserID: userID, Amount: dec("1000"), InterestRate: dec("0"), TermMonths: 2})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(ctx, l.ID, "admin-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	res, err := svc.Repay(ctx, RepayInput{LoanID: l.ID, UserID: userID, Amount: dec("1000")})
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if res.Loan.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", res.Loan.Status)
	}
	if !res.Loan.RemainingAmount.IsZero() {
		t.Fatalf("remaining %s", res.Loan.RemainingAmount)
	}

	// Completed is terminal.
	if _, err := svc.Repay(ctx, RepayInput{LoanID: l.ID, UserID: userID, Amount: dec("1")}); !errors.Is(err, ErrLoanNotRepayable) {
		t.Fatalf("expected not repayable, got %v", err)
	}
}

func TestRepayDuplicateClientTxID(t *testing.T) {
	ctx := context.Background()
	svc, ledgerBackend := newTestService(t)

	userID := uuid.NewString()
	ledger.SeedBalance(ledgerBackend, userID, "KES", dec("5000"))

	l, err := svc.Apply(ctx, ApplyInput{UserID: userID, Amount: dec("2000"), InterestRate: dec("12"), TermMonths: 4})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(ctx, l.ID, "admin-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	first, err := svc.Repay(ctx, RepayInput{LoanID: l.ID, UserID: userID, Amount: dec("500"), ClientTxID: "retry"})
	if err != nil {
		t.Fatalf("repay: %v", err)
	}

	replay, err := svc.Repay(ctx, RepayInput{LoanID: l.ID, UserID: userID, Amount: dec("500"), ClientTxID: "retry"})
	if !errors.Is(err, ledger.ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if !replay.Loan.RemainingAmount.Equal(first.Loan.RemainingAmount) {
		t.Fatalf("replay remaining %s, first %s", replay.Loan.RemainingAmount, first.Loan.RemainingAmount)
	}
	if !replay.WalletBalance.Equal(first.WalletBalance) {
		t.Fatalf("replay balance %s, first %s", replay.WalletBalance, first.WalletBalance)
	}
}

func TestMarkDefaulted(t *testing.T) {
	ctx := context.Background()
	svc, ledgerBackend := newTestService(t)

	userID := uuid.NewString()
	ledger.SeedBalance(ledgerBackend, userID, "KES", dec("1000"))

	l, err := svc.Apply(ctx, ApplyInput{UserID: userID, Amount: dec("600"), InterestRate: dec("12"), TermMonths: 3})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(ctx, l.ID, "admin-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	defaulted, err := svc.MarkDefaulted(ctx, l.ID)
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if defaulted.Status != StatusDefaulted {
		t.Fatalf("expected defaulted, got %s", defaulted.Status)
	}

	// Terminal: no repayment, no second default.
	if _, err := svc.Repay(ctx, RepayInput{LoanID: l.ID, UserID: userID, Amount: dec("100")}); !errors.Is(err, ErrLoanNotRepayable) {
		t.Fatalf("expected not repayable, got %v", err)
	}
	if _, err := svc.MarkDefaulted(ctx, l.ID); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	// Pending loans cannot default; nothing was disbursed.
	pending, err := svc.Apply(ctx, ApplyInput{UserID: userID, Amount: dec("100"), InterestRate: dec("12"), TermMonths: 2})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.MarkDefaulted(ctx, pending.ID); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestApproveRequiresPending(t *testing.T) {
	ctx := context.Background()
	svc, ledgerBackend := newTestService(t)

	userID := uuid.NewString()
	ledger.SeedBalance(ledgerBackend, userID, "KES", dec("1000"))

	l, err := svc.Apply(ctx, ApplyInput{UserID: userID, Amount: dec("500"), InterestRate: dec("10"), TermMonths: 3})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(ctx, l.ID, "admin-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Approve(ctx, l.ID, "admin-1"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if _, err := svc.Reject(ctx, l.ID, "admin-1"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestRejectIsTerminal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	userID := uuid.NewString()
	l, err := svc.Apply(ctx, ApplyInput{UserID: userID, Amount: dec("500"), InterestRate: dec("10"), TermMonths: 3})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	rejected, err := svc.Reject(ctx, l.ID, "admin-1")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if _, err := svc.Approve(ctx, l.ID, "admin-1"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if _, err := svc.Repay(ctx, RepayInput{LoanID: l.ID, UserID: userID, Amount: dec("1")}); !errors.Is(err, ErrLoanNotRepayable) {
		t.Fatalf("expected not repayable, got %v", err)
	}
}

func TestRepayRejectsForeignLoan(t *testing.T) {
	ctx := context.Background()
	svc, ledgerBackend := newTestService(t)

	owner := uuid.NewString()
	other := uuid.NewString()
	ledger.SeedBalance(ledgerBackend, owner, "KES", dec("1000"))

	l, err := svc.Apply(ctx, ApplyInput{UserID: owner, Amount: dec("500"), InterestRate: dec("10"), TermMonths: 3})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(ctx, l.ID, "admin-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := svc.Repay(ctx, RepayInput{LoanID: l.ID, UserID: other, Amount: dec("100")}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ownership error, got %v", err)
	}
}

func TestRepayInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	userID := uuid.NewString()
	l, err := svc.Apply(ctx, ApplyInput{UserID: userID, Amount: dec("500"), InterestRate: dec("10"), TermMonths: 3})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Approve(ctx, l.ID, "admin-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// The disbursed 500 is all the user has.
	if _, err := svc.Repay(ctx, RepayInput{LoanID: l.ID, UserID: userID, Amount: dec("600")}); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// A failed debit leaves the loan untouched.
	got, err := svc.Get(ctx, l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusActive || !got.RemainingAmount.Equal(dec("500")) {
		t.Fatalf("loan mutated by failed repayment: %s %s", got.Status, got.RemainingAmount)
	}
}

func TestApplyValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	cases := []struct {
		name  string
		input ApplyInput
	}{
		{"zero amount", ApplyInput{UserID: "u", Amount: decimal.Zero, InterestRate: dec("10"), TermMonths: 3}},
		{"negative amount", ApplyInput{UserID: "u", Amount: dec("-5"), InterestRate: dec("10"), TermMonths: 3}},
		{"zero term", ApplyInput{UserID: "u", Amount: dec("100"), InterestRate: dec("10"), TermMonths: 0}},
		{"negative rate", ApplyInput{UserID: "u", Amount: dec("100"), InterestRate: dec("-1"), TermMonths: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Apply(ctx, tc.input); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
