package funding

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kifaa-platform/kifaa/internal/ledger"
	"github.com/kifaa-platform/kifaa/internal/wallet"
)

func TestServiceCashIn(t *testing.T) {
	ctx := context.Background()
	ledgerBackend := ledger.NewInMemory()
	walletSvc := wallet.NewService(ledgerBackend, nil, nil, "KES")

	service, err := NewService(walletSvc, StaticProvider{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	userID := uuid.NewString()
	clientTxID := "dup"
	res, err := service.CashIn(ctx, CashInput{
		UserID:     userID,
		Phone:      "+254712345678",
		Amount:     decimal.NewFromInt(10_000),
		ClientTxID: clientTxID,
	})
	if err != nil {
		t.Fatalf("cash in: %v", err)
	}
	if !res.WalletBalance.Equal(decimal.NewFromInt(10_000)) {
		t.Fatalf("expected balance 10000, got %s", res.WalletBalance)
	}
	if res.ProviderReference == "" {
		t.Fatal("expected provider reference")
	}

	if _, err := service.CashIn(ctx, CashInput{
		UserID:     userID,
		Phone:      "+254712345678",
		Amount:     decimal.NewFromInt(10_000),
		ClientTxID: clientTxID,
	}); !errors.Is(err, ledger.ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestServiceCashOut(t *testing.T) {
	ctx := context.Background()
	ledgerBackend := ledger.NewInMemory()
	walletSvc := wallet.NewService(ledgerBackend, nil, nil, "KES")

	userID := uuid.NewString()
	ledger.SeedBalance(ledgerBackend, userID, "KES", decimal.NewFromInt(5_000))

	service, err := NewService(walletSvc, StaticProvider{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	res, err := service.CashOut(ctx, CashInput{
		UserID: userID,
		Phone:  "254712345678",
		Amount: decimal.NewFromInt(2_000),
	})
	if err != nil {
		t.Fatalf("cash out: %v", err)
	}
	if !res.WalletBalance.Equal(decimal.NewFromInt(3_000)) {
		t.Fatalf("expected balance 3000, got %s", res.WalletBalance)
	}

	_, err = service.CashOut(ctx, CashInput{
		UserID:     userID,
		Phone:      "254712345678",
		Amount:     decimal.NewFromInt(10_000),
		ClientTxID: "excess",
	})
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}

func TestServiceRejectsBadPhone(t *testing.T) {
	ctx := context.Background()
	walletSvc := wallet.NewService(ledger.NewInMemory(), nil, nil, "KES")
	service, err := NewService(walletSvc, StaticProvider{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	for _, phone := range []string{"", "12345", "07abc123456"} {
		if _, err := service.CashIn(ctx, CashInput{
			UserID: uuid.NewString(),
			Phone:  phone,
			Amount: decimal.NewFromInt(100),
		}); err == nil {
			t.Fatalf("expected validation error for phone %q", phone)
		}
	}
}
