package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kifaa-platform/kifaa/internal/ledger"
	"github.com/kifaa-platform/kifaa/internal/notification"
)

// ScoreCache invalidates cached score derivations after ledger writes.
type ScoreCache interface {
	Invalidate(ctx context.Context, userID string) error
}

// Service exposes wallet operations backed by the ledger.
type Service struct {
	ledger   ledger.Ledger
	notifier notification.Notifier
	scores   ScoreCache
	currency string
}

// NewService builds a wallet service. The notifier and score cache are
// optional.
func NewService(l ledger.Ledger, notifier notification.Notifier, scores ScoreCache, defaultCurrency string) *Service {
	if defaultCurrency == "" {
		defaultCurrency = "KES"
	}
	return &Service{ledger: l, notifier: notifier, scores: scores, currency: defaultCurrency}
}

// DefaultCurrency returns the currency assumed when requests omit one.
func (s *Service) DefaultCurrency() string {
	return s.currency
}

// PostInput captures a deposit or withdrawal request.
type PostInput struct {
	UserID     string
	Amount     decimal.Decimal
	Currency   string
	ClientTxID string
}

// TransferInput captures a wallet-to-wallet transfer request.
type TransferInput struct {
	FromUserID string
	ToUserID   string
	Amount     decimal.Decimal
	Currency   string
	ClientTxID string
}

func (s *Service) normalize(currency, clientTxID string) (string, string) {
	if currency == "" {
		currency = s.currency
	}
	if clientTxID == "" {
		clientTxID = uuid.NewString()
	}
	return currency, clientTxID
}

// Deposit credits the user's wallet, creating it on first use.
func (s *Service) Deposit(ctx context.Context, input PostInput) (ledger.PostResult, error) {
	currency, txID := s.normalize(input.Currency, input.ClientTxID)
	res, err := s.ledger.Credit(ctx, ledger.PostInput{
		UserID:     input.UserID,
		Amount:     input.Amount,
		Currency:   currency,
		Type:       ledger.TypeDeposit,
		ClientTxID: txID,
	})
	if err != nil {
		return res, err
	}
	s.invalidate(ctx, input.UserID)
	return res, nil
}

// Withdraw debits the user's wallet; fails when the amount exceeds the balance.
func (s *Service) Withdraw(ctx context.Context, input PostInput) (ledger.PostResult, error) {
	currency, txID := s.normalize(input.Currency, input.ClientTxID)
	res, err := s.ledger.Debit(ctx, ledger.PostInput{
		UserID:     input.UserID,
		Amount:     input.Amount,
		Currency:   currency,
		Type:       ledger.TypeWithdrawal,
		ClientTxID: txID,
	})
	if err != nil {
		return res, err
	}
	s.invalidate(ctx, input.UserID)
	return res, nil
}

// Transfer moves funds between two users in the same currency, creating the
// recipient wallet on demand.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (ledger.TransferResult, error) {
	currency, txID := s.normalize(input.Currency, input.ClientTxID)
	res, err := s.ledger.Transfer(ctx, ledger.TransferInput{
		FromUserID: input.FromUserID,
		ToUserID:   input.ToUserID,
		Amount:     input.Amount,
		Currency:   currency,
		ClientTxID: txID,
	})
	if err != nil {
		return res, err
	}

	s.invalidate(ctx, input.FromUserID)
	s.invalidate(ctx, input.ToUserID)

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: input.ToUserID,
			Body:        fmt.Sprintf("You received %s %s", input.Amount.StringFixed(2), currency),
		})
	}
	return res, nil
}

// Balance returns the wallet balance for the user in the given currency.
func (s *Service) Balance(ctx context.Context, userID, currency string) (decimal.Decimal, error) {
	if currency == "" {
		currency = s.currency
	}
	return s.ledger.Balance(ctx, userID, currency)
}

// History returns the user's recent transactions, newest first.
func (s *Service) History(ctx context.Context, userID, currency string, limit int) ([]ledger.Transaction, error) {
	if currency == "" {
		currency = s.currency
	}
	return s.ledger.History(ctx, userID, currency, limit)
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.scores != nil {
		_ = s.scores.Invalidate(ctx, userID)
	}
}
