package loan

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// MonthlyPayment computes the standard amortization installment
// M = P*r*(1+r)^n / ((1+r)^n - 1) where r is the periodic rate
// annualRate/12/100 and n the term in months. A zero rate degenerates to
// straight division. The result is rounded to two decimal places.
func MonthlyPayment(principal, annualRate decimal.Decimal, termMonths int) decimal.Decimal {
	n := decimal.NewFromInt(int64(termMonths))
	r := annualRate.Div(twelve).Div(hundred)
	if r.IsZero() {
		return principal.Div(n).Round(2)
	}
	compound := r.Add(decimal.New(1, 0)).Pow(n)
	return principal.Mul(r).Mul(compound).Div(compound.Sub(decimal.New(1, 0))).Round(2)
}

// BuildSchedule produces the installment plan for a disbursed loan: one entry
// of the monthly payment per month, due on the monthly anniversary of the
// disbursement.
func BuildSchedule(loanID string, monthly decimal.Decimal, termMonths int, disbursedAt time.Time) []Payment {
	entries := make([]Payment, 0, termMonths)
	for i := 1; i <= termMonths; i++ {
		entries = append(entries, Payment{
			ID:         uuid.NewString(),
			LoanID:     loanID,
			Sequence:   i,
			Amount:     monthly,
			DueDate:    disbursedAt.AddDate(0, i, 0),
			Status:     PaymentPending,
			PaidAmount: decimal.Zero,
		})
	}
	return entries
}

// Allocate applies a paid amount across schedule entries oldest-due-first.
// Only pending and overdue entries receive funds; an entry flips to paid once
// its cumulative paid amount reaches the installment. The input slice is not
// mutated; the updated copy and any unallocated remainder are returned.
// Re-running with the same inputs always yields the same per-entry amounts.
func Allocate(entries []Payment, amount decimal.Decimal) ([]Payment, decimal.Decimal) {
	out := make([]Payment, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})

	remaining := amount
	for i := range out {
		if remaining.IsZero() || !remaining.IsPositive() {
			break
		}
		if out[i].Status == PaymentPaid {
			continue
		}
		outstanding := out[i].Outstanding()
		if !outstanding.IsPositive() {
			out[i].Status = PaymentPaid
			continue
		}
		applied := decimal.Min(outstanding, remaining)
		out[i].PaidAmount = out[i].PaidAmount.Add(applied)
		remaining = remaining.Sub(applied)
		if out[i].PaidAmount.GreaterThanOrEqual(out[i].Amount) {
			out[i].Status = PaymentPaid
		}
	}
	return out, remaining
}
