package ledger

import "github.com/shopspring/decimal"

// SeedBalance is a test helper that sets the balance for a wallet when using
// the in-memory ledger.
func SeedBalance(l Ledger, userID, currency string, amount decimal.Decimal) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		w := mem.ensureLocked(userID, currency)
		w.Balance = amount
	}
}
