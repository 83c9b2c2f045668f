package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type inMemoryLedger struct {
	mu           sync.Mutex
	wallets      map[string]*Wallet // keyed user|currency
	transactions []Transaction
	postResults  map[string]PostResult     // keyed type:clientTxID
	transferRes  map[string]TransferResult // keyed clientTxID
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and dev mode.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		wallets:     make(map[string]*Wallet),
		postResults: make(map[string]PostResult),
		transferRes: make(map[string]TransferResult),
	}
}

func walletKey(userID, currency string) string {
	return userID + "|" + currency
}

func (l *inMemoryLedger) ensureLocked(userID, currency string) *Wallet {
	key := walletKey(userID, currency)
	w, ok := l.wallets[key]
	if !ok {
		w = &Wallet{
			ID:        uuid.NewString(),
			UserID:    userID,
			Currency:  currency,
			Balance:   decimal.Zero,
			CreatedAt: time.Now().UTC(),
		}
		l.wallets[key] = w
	}
	return w
}

func (l *inMemoryLedger) EnsureWallet(_ context.Context, userID, currency string) (Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.ensureLocked(userID, currency), nil
}

func (l *inMemoryLedger) Balance(_ context.Context, userID, currency string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.wallets[walletKey(userID, currency)]
	if !ok {
		return decimal.Zero, ErrWalletNotFound
	}
	return w.Balance, nil
}

func (l *inMemoryLedger) Credit(_ context.Context, input PostInput) (PostResult, error) {
	if err := validatePost(input, true); err != nil {
		return PostResult{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.postResults[input.Type+":"+input.ClientTxID]; ok && input.ClientTxID != "" {
		return res, ErrDuplicateTransaction
	}

	w := l.ensureLocked(input.UserID, input.Currency)
	w.Balance = w.Balance.Add(input.Amount)
	res := l.recordPost(input, w.Balance)
	return res, nil
}

func (l *inMemoryLedger) Debit(_ context.Context, input PostInput) (PostResult, error) {
	if err := validatePost(input, false); err != nil {
		return PostResult{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.postResults[input.Type+":"+input.ClientTxID]; ok && input.ClientTxID != "" {
		return res, ErrDuplicateTransaction
	}

	w, ok := l.wallets[walletKey(input.UserID, input.Currency)]
	if !ok {
		return PostResult{}, ErrWalletNotFound
	}
	if w.Balance.LessThan(input.Amount) {
		return PostResult{}, ErrInsufficientFunds
	}
	w.Balance = w.Balance.Sub(input.Amount)
	res := l.recordPost(input, w.Balance)
	return res, nil
}

func (l *inMemoryLedger) recordPost(input PostInput, balance decimal.Decimal) PostResult {
	txID := uuid.NewString()
	l.transactions = append(l.transactions, Transaction{
		ID:          txID,
		UserID:      input.UserID,
		Amount:      input.Amount,
		Currency:    input.Currency,
		Type:        input.Type,
		Status:      StatusCompleted,
		ReferenceID: input.ReferenceID,
		ClientTxID:  input.ClientTxID,
		CreatedAt:   time.Now().UTC(),
	})
	res := PostResult{TransactionID: txID, Balance: balance}
	if input.ClientTxID != "" {
		l.postResults[input.Type+":"+input.ClientTxID] = res
	}
	return res
}

func (l *inMemoryLedger) Transfer(_ context.Context, input TransferInput) (TransferResult, error) {
	if !input.Amount.IsPositive() {
		return TransferResult{}, ErrInvalidAmount
	}
	if input.Currency == "" {
		return TransferResult{}, errors.New("currency is required")
	}
	if input.FromUserID == input.ToUserID {
		return TransferResult{}, errors.New("cannot transfer to the same user")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.transferRes[input.ClientTxID]; ok && input.ClientTxID != "" {
		return res, ErrDuplicateTransaction
	}

	from, ok := l.wallets[walletKey(input.FromUserID, input.Currency)]
	if !ok {
		return TransferResult{}, ErrWalletNotFound
	}
	if from.Balance.LessThan(input.Amount) {
		return TransferResult{}, ErrInsufficientFunds
	}
	to := l.ensureLocked(input.ToUserID, input.Currency)

	from.Balance = from.Balance.Sub(input.Amount)
	to.Balance = to.Balance.Add(input.Amount)

	txID := uuid.NewString()
	l.transactions = append(l.transactions, Transaction{
		ID:          txID,
		UserID:      input.FromUserID,
		Amount:      input.Amount,
		Currency:    input.Currency,
		Type:        TypeTransfer,
		Status:      StatusCompleted,
		RecipientID: input.ToUserID,
		ClientTxID:  input.ClientTxID,
		CreatedAt:   time.Now().UTC(),
	})

	res := TransferResult{TransactionID: txID, FromBalance: from.Balance, ToBalance: to.Balance}
	if input.ClientTxID != "" {
		l.transferRes[input.ClientTxID] = res
	}
	return res, nil
}

func (l *inMemoryLedger) History(_ context.Context, userID, currency string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Transaction
	for _, t := range l.transactions {
		if t.Currency != currency {
			continue
		}
		if t.UserID == userID || t.RecipientID == userID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *inMemoryLedger) Stats(_ context.Context, userID string) (Stats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var stats Stats
	for _, t := range l.transactions {
		if t.UserID != userID || t.Status != StatusCompleted {
			continue
		}
		switch t.Type {
		case TypeDeposit:
			stats.Deposits++
		case TypeRepayment:
			stats.Repayments++
		}
	}
	return stats, nil
}
