package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kifaa-platform/kifaa/internal/ledger"
	"github.com/kifaa-platform/kifaa/internal/notification"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type recordingCache struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingCache) Invalidate(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (r *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func TestDepositCreatesWalletOnFirstUse(t *testing.T) {
	ctx := context.Background()
	cache := &recordingCache{}
	svc := NewService(ledger.NewInMemory(), nil, cache, "KES")

	userID := uuid.NewString()
	res, err := svc.Deposit(ctx, PostInput{UserID: userID, Amount: dec("2500")})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if !res.Balance.Equal(dec("2500")) {
		t.Fatalf("balance %s, want 2500", res.Balance)
	}
	if res.TransactionID == "" {
		t.Fatal("missing transaction id")
	}
	if len(cache.users) != 1 || cache.users[0] != userID {
		t.Fatalf("score cache not invalidated: %v", cache.users)
	}
}

func TestWithdrawRequiresFunds(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ledger.NewInMemory(), nil, nil, "KES")

	userID := uuid.NewString()
	if _, err := svc.Deposit(ctx, PostInput{UserID: userID, Amount: dec("100")}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if _, err := svc.Withdraw(ctx, PostInput{UserID: userID, Amount: dec("150")}); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// Withdrawing the exact balance succeeds.
	res, err := svc.Withdraw(ctx, PostInput{UserID: userID, Amount: dec("100")})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !res.Balance.IsZero() {
		t.Fatalf("balance %s, want 0", res.Balance)
	}
}

func TestTransferNotifiesRecipient(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	cache := &recordingCache{}
	svc := NewService(ledger.NewInMemory(), notifier, cache, "KES")

	from := uuid.NewString()
	to := uuid.NewString()
	if _, err := svc.Deposit(ctx, PostInput{UserID: from, Amount: dec("1000")}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	res, err := svc.Transfer(ctx, TransferInput{FromUserID: from, ToUserID: to, Amount: dec("400")})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !res.FromBalance.Equal(dec("600")) || !res.ToBalance.Equal(dec("400")) {
		t.Fatalf("balances %s/%s", res.FromBalance, res.ToBalance)
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.messages))
	}
	msg := notifier.messages[0]
	if msg.Kind != notification.KindTransferReceived || msg.Destination != to {
		t.Fatalf("unexpected notification %+v", msg)
	}

	// Both sides get their scores invalidated: deposit, then sender and
	// recipient on transfer.
	if len(cache.users) != 3 {
		t.Fatalf("expected 3 invalidations, got %v", cache.users)
	}
}

func TestDepositDuplicateClientTxID(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ledger.NewInMemory(), nil, nil, "KES")

	userID := uuid.NewString()
	first, err := svc.Deposit(ctx, PostInput{UserID: userID, Amount: dec("300"), ClientTxID: "once"})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}

	replay, err := svc.Deposit(ctx, PostInput{UserID: userID, Amount: dec("300"), ClientTxID: "once"})
	if !errors.Is(err, ledger.ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if replay.TransactionID != first.TransactionID {
		t.Fatalf("replay returned a different transaction: %s vs %s", replay.TransactionID, first.TransactionID)
	}

	balance, err := svc.Balance(ctx, userID, "")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(dec("300")) {
		t.Fatalf("balance %s, want 300", balance)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ledger.NewInMemory(), nil, nil, "KES")

	userID := uuid.NewString()
	for _, amount := range []string{"100", "200", "300"} {
		if _, err := svc.Deposit(ctx, PostInput{UserID: userID, Amount: dec(amount)}); err != nil {
			t.Fatalf("deposit %s: %v", amount, err)
		}
	}

	txs, err := svc.History(ctx, userID, "", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(txs))
	}
	if !txs[0].Amount.Equal(dec("300")) || !txs[1].Amount.Equal(dec("200")) {
		t.Fatalf("unexpected order: %s, %s", txs[0].Amount, txs[1].Amount)
	}
}
