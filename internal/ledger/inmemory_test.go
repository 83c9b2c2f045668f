package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestInMemoryLedger_BalanceMatchesLog(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	user := uuid.NewString()

	steps := []struct {
		kind   string
		amount string
		credit bool
	}{
		{TypeDeposit, "10000", true},
		{TypeWithdrawal, "2500", false},
		{TypeDisbursement, "5000", true},
		{TypeRepayment, "1000", false},
		{TypeFee, "50", false},
	}

	for i, step := range steps {
		input := PostInput{
			UserID:     user,
			Amount:     dec(step.amount),
			Currency:   "KES",
			Type:       step.kind,
			ClientTxID: fmt.Sprintf("tx-%d", i),
		}
		var err error
		if step.credit {
			_, err = l.Credit(ctx, input)
		} else {
			_, err = l.Debit(ctx, input)
		}
		if err != nil {
			t.Fatalf("step %d (%s): %v", i, step.kind, err)
		}
	}

	balance, err := l.Balance(ctx, user, "KES")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	// Fold the history with type-derived signs and compare.
	history, err := l.History(ctx, user, "KES", 100)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	folded := decimal.Zero
	for _, tx := range history {
		switch tx.Type {
		case TypeDeposit, TypeDisbursement:
			folded = folded.Add(tx.Amount)
		case TypeWithdrawal, TypeRepayment, TypeFee:
			folded = folded.Sub(tx.Amount)
		}
	}
	if !balance.Equal(folded) {
		t.Fatalf("balance %s diverged from folded log %s", balance, folded)
	}
	if !balance.Equal(dec("11450")) {
		t.Fatalf("expected balance 11450, got %s", balance)
	}
}

func TestInMemoryLedger_DebitInsufficientFunds(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	user := uuid.NewString()
	SeedBalance(l, user, "KES", dec("100"))

	_, err := l.Debit(ctx, PostInput{UserID: user, Amount: dec("100.01"), Currency: "KES", Type: TypeWithdrawal, ClientTxID: "w1"})
	if err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	res, err := l.Debit(ctx, PostInput{UserID: user, Amount: dec("100"), Currency: "KES", Type: TypeWithdrawal, ClientTxID: "w2"})
	if err != nil {
		t.Fatalf("exact-balance debit failed: %v", err)
	}
	if !res.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", res.Balance)
	}
}

func TestInMemoryLedger_DebitUnknownWallet(t *testing.T) {
	l := NewInMemory()
	_, err := l.Debit(context.Background(), PostInput{
		UserID: uuid.NewString(), Amount: dec("10"), Currency: "KES", Type: TypeWithdrawal, ClientTxID: "x",
	})
	if err != ErrWalletNotFound {
		t.Fatalf("expected wallet not found, got %v", err)
	}
}

func TestInMemoryLedger_DuplicateClientTxID(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	user := uuid.NewString()

	first, err := l.Credit(ctx, PostInput{UserID: user, Amount: dec("500"), Currency: "KES", Type: TypeDeposit, ClientTxID: "dup"})
	if err != nil {
		t.Fatalf("initial credit failed: %v", err)
	}
	replay, err := l.Credit(ctx, PostInput{UserID: user, Amount: dec("500"), Currency: "KES", Type: TypeDeposit, ClientTxID: "dup"})
	if err != ErrDuplicateTransaction {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if replay.TransactionID != first.TransactionID {
		t.Fatalf("replay returned different transaction id")
	}

	balance, _ := l.Balance(ctx, user, "KES")
	if !balance.Equal(dec("500")) {
		t.Fatalf("duplicate credit was applied twice, balance %s", balance)
	}
}

func TestInMemoryLedger_TransferMaintainsTotal(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	alice, bob := uuid.NewString(), uuid.NewString()
	SeedBalance(l, alice, "KES", dec("10000"))

	res, err := l.Transfer(ctx, TransferInput{FromUserID: alice, ToUserID: bob, Amount: dec("1500"), Currency: "KES", ClientTxID: "t1"})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if !res.FromBalance.Equal(dec("8500")) || !res.ToBalance.Equal(dec("1500")) {
		t.Fatalf("unexpected balances after transfer: %s / %s", res.FromBalance, res.ToBalance)
	}

	a, _ := l.Balance(ctx, alice, "KES")
	b, _ := l.Balance(ctx, bob, "KES")
	if !a.Add(b).Equal(dec("10000")) {
		t.Fatalf("ledger not balanced, total=%s", a.Add(b))
	}
}

func TestInMemoryLedger_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	user := uuid.NewString()
	SeedBalance(l, user, "KES", dec("1000"))

	const workers = 20
	amount := dec("100")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.Debit(ctx, PostInput{
				UserID: user, Amount: amount, Currency: "KES",
				Type: TypeWithdrawal, ClientTxID: fmt.Sprintf("c-%d", i),
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if err != ErrInsufficientFunds {
				t.Errorf("debit %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 10 {
		t.Fatalf("expected exactly 10 debits to succeed, got %d", succeeded)
	}
	balance, _ := l.Balance(ctx, user, "KES")
	if !balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", balance)
	}
}

func TestInMemoryLedger_RejectsWrongTypeClass(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	user := uuid.NewString()

	if _, err := l.Credit(ctx, PostInput{UserID: user, Amount: dec("10"), Currency: "KES", Type: TypeWithdrawal}); err == nil {
		t.Fatal("credit accepted a debit type")
	}
	if _, err := l.Debit(ctx, PostInput{UserID: user, Amount: dec("10"), Currency: "KES", Type: TypeDeposit}); err == nil {
		t.Fatal("debit accepted a credit type")
	}
	if _, err := l.Credit(ctx, PostInput{UserID: user, Amount: dec("-1"), Currency: "KES", Type: TypeDeposit}); err != ErrInvalidAmount {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}
