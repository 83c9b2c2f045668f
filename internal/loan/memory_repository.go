package loan

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	loans    map[string]Loan
	payments map[string][]Payment // keyed by loan id, due-date order
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		loans:    make(map[string]Loan),
		payments: make(map[string][]Payment),
	}
}

func (r *memoryRepository) Create(_ context.Context, loan Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.loans[loan.ID]; exists {
		return errors.New("loan exists")
	}
	r.loans[loan.ID] = loan
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loan, ok := r.loans[id]
	if !ok {
		return Loan{}, ErrNotFound
	}
	return loan, nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID string) ([]Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Loan
	for _, l := range r.loans {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) Update(_ context.Context, loan Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loans[loan.ID]; !ok {
		return ErrNotFound
	}
	r.loans[loan.ID] = loan
	return nil
}

func (r *memoryRepository) CreateSchedule(_ context.Context, entries []Payment) error {
	if len(entries) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	loanID := entries[0].LoanID
	existing := r.payments[loanID]
	existing = append(existing, entries...)
	sort.SliceStable(existing, func(i, j int) bool {
		if existing[i].DueDate.Equal(existing[j].DueDate) {
			return existing[i].Sequence < existing[j].Sequence
		}
		return existing[i].DueDate.Before(existing[j].DueDate)
	})
	r.payments[loanID] = existing
	return nil
}

func (r *memoryRepository) Schedule(_ context.Context, loanID string) ([]Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.payments[loanID]
	out := make([]Payment, len(entries))
	copy(out, entries)
	return out, nil
}

func (r *memoryRepository) UpdatePayment(_ context.Context, payment Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.payments[payment.LoanID]
	for i := range entries {
		if entries[i].ID == payment.ID {
			entries[i] = payment
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepository) MarkOverdue(_ context.Context, loanID string, asOf time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := 0
	entries := r.payments[loanID]
	for i := range entries {
		if entries[i].Status == PaymentPending && entries[i].DueDate.Before(asOf) {
			entries[i].Status = PaymentOverdue
			changed++
		}
	}
	return changed, nil
}
