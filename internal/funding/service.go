package funding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kifaa-platform/kifaa/internal/wallet"
)

// Service coordinates mobile money cash-in and cash-out against the wallet
// ledger through a provider connector.
type Service struct {
	wallets  *wallet.Service
	provider Provider
}

// NewService builds a funding service.
func NewService(wallets *wallet.Service, provider Provider) (*Service, error) {
	if wallets == nil {
		return nil, fmt.Errorf("wallet service is required")
	}
	if provider == nil {
		provider = StaticProvider{}
	}
	return &Service{wallets: wallets, provider: provider}, nil
}

// CashInput captures the data for a mobile money movement.
type CashInput struct {
	UserID     string
	Phone      string
	Amount     decimal.Decimal
	Currency   string
	ClientTxID string
}

// Result represents the domain outcome of a cash operation.
type Result struct {
	TransactionID     string
	WalletBalance     decimal.Decimal
	ProviderReference string
	CompletedAt       time.Time
}

// CashIn authorizes a mobile money top-up and credits the wallet.
func (s *Service) CashIn(ctx context.Context, input CashInput) (Result, error) {
	if err := validatePhone(input.Phone); err != nil {
		return Result{}, err
	}
	if !input.Amount.IsPositive() {
		return Result{}, fmt.Errorf("amount must be positive")
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}

	decision, err := s.provider.AuthorizeCashIn(ctx, CashAuthorization{
		Phone: input.Phone, Amount: input.Amount, Currency: input.Currency,
	})
	if err != nil {
		return Result{}, err
	}

	post, err := s.wallets.Deposit(ctx, wallet.PostInput{
		UserID: input.UserID, Amount: input.Amount, Currency: input.Currency, ClientTxID: input.ClientTxID,
	})
	if err != nil {
		return Result{TransactionID: post.TransactionID, WalletBalance: post.Balance, ProviderReference: decision.Reference}, err
	}

	return Result{
		TransactionID:     post.TransactionID,
		WalletBalance:     post.Balance,
		ProviderReference: decision.Reference,
		CompletedAt:       time.Now().UTC(),
	}, nil
}

// CashOut authorizes a mobile money payout and debits the wallet.
func (s *Service) CashOut(ctx context.Context, input CashInput) (Result, error) {
	if err := validatePhone(input.Phone); err != nil {
		return Result{}, err
	}
	if !input.Amount.IsPositive() {
		return Result{}, fmt.Errorf("amount must be positive")
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}

	decision, err := s.provider.AuthorizeCashOut(ctx, CashAuthorization{
		Phone: input.Phone, Amount: input.Amount, Currency: input.Currency,
	})
	if err != nil {
		return Result{}, err
	}

	post, err := s.wallets.Withdraw(ctx, wallet.PostInput{
		UserID: input.UserID, Amount: input.Amount, Currency: input.Currency, ClientTxID: input.ClientTxID,
	})
	if err != nil {
		return Result{TransactionID: post.TransactionID, WalletBalance: post.Balance, ProviderReference: decision.Reference}, err
	}

	return Result{
		TransactionID:     post.TransactionID,
		WalletBalance:     post.Balance,
		ProviderReference: decision.Reference,
		CompletedAt:       time.Now().UTC(),
	}, nil
}

func validatePhone(phone string) error {
	trimmed := strings.TrimPrefix(strings.ReplaceAll(phone, " ", ""), "+")
	if len(trimmed) < 9 || len(trimmed) > 15 {
		return fmt.Errorf("phone number must be between 9 and 15 digits")
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return fmt.Errorf("phone number must be numeric")
		}
	}
	return nil
}
