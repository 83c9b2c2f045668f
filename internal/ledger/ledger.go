package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds occurs when a debit or transfer exceeds the
	// available wallet balance at posting time.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateTransaction indicates the provided client transaction
	// identifier already exists; the stored outcome is returned alongside so
	// retried postings stay idempotent.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrWalletNotFound occurs when a debit or balance lookup targets a
	// wallet that was never created for the (user, currency) pair.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInvalidAmount occurs when a posting amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Transaction types recorded in the ledger log.
const (
	TypeDeposit      = "deposit"
	TypeWithdrawal   = "withdrawal"
	TypeTransfer     = "transfer"
	TypeRepayment    = "repayment"
	TypeDisbursement = "loan_disbursement"
	TypeFee          = "fee"
)

// Transaction statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Wallet is a per-user, per-currency stored value account. The balance column
// is a read cache over the transaction log; both are mutated in one atomic
// unit so they cannot diverge.
type Wallet struct {
	ID        string
	UserID    string
	Currency  string
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// Transaction is an immutable ledger row. Amounts are stored positive; the
// type carries the sign when the log is folded into a balance.
type Transaction struct {
	ID          string
	UserID      string
	Amount      decimal.Decimal
	Currency    string
	Type        string
	Status      string
	RecipientID string
	ReferenceID string
	ClientTxID  string
	CreatedAt   time.Time
}

// PostInput captures a single-wallet posting (credit or debit).
type PostInput struct {
	UserID      string
	Amount      decimal.Decimal
	Currency    string
	Type        string
	ClientTxID  string
	ReferenceID string
}

// PostResult is the outcome of a credit or debit.
type PostResult struct {
	TransactionID string
	Balance       decimal.Decimal
}

// TransferInput captures a wallet-to-wallet movement in one currency.
type TransferInput struct {
	FromUserID string
	ToUserID   string
	Amount     decimal.Decimal
	Currency   string
	ClientTxID string
}

// TransferResult is the outcome of a transfer.
type TransferResult struct {
	TransactionID string
	FromBalance   decimal.Decimal
	ToBalance     decimal.Decimal
}

// Stats counts completed transactions by type for one user, feeding score
// derivation.
type Stats struct {
	Deposits   int
	Repayments int
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
// Every mutating call appends a completed transaction row and adjusts the
// cached wallet balance atomically.
type Ledger interface {
	EnsureWallet(ctx context.Context, userID, currency string) (Wallet, error)
	Balance(ctx context.Context, userID, currency string) (decimal.Decimal, error)
	Credit(ctx context.Context, input PostInput) (PostResult, error)
	Debit(ctx context.Context, input PostInput) (PostResult, error)
	Transfer(ctx context.Context, input TransferInput) (TransferResult, error)
	History(ctx context.Context, userID, currency string, limit int) ([]Transaction, error)
	Stats(ctx context.Context, userID string) (Stats, error)
}

func creditType(kind string) bool {
	return kind == TypeDeposit || kind == TypeDisbursement
}

func debitType(kind string) bool {
	return kind == TypeWithdrawal || kind == TypeRepayment || kind == TypeFee
}

func validatePost(input PostInput, wantCredit bool) error {
	if !input.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if input.Currency == "" {
		return errors.New("currency is required")
	}
	if wantCredit && !creditType(input.Type) {
		return errors.New("not a credit transaction type")
	}
	if !wantCredit && !debitType(input.Type) {
		return errors.New("not a debit transaction type")
	}
	return nil
}
