package product

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Catalog categories. Eligibility unlocks them by score.
const (
	CategoryAppliance   = "appliance"
	CategoryElectronics = "electronics"
	CategorySmartphone  = "smartphone"
	CategoryMotorbike   = "motorbike"
	CategoryOther       = "other"
)

// ErrNotFound occurs when a product lookup misses.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item that can back an asset-financing loan.
type Product struct {
	ID            string
	Name          string
	Category      string
	Price         decimal.Decimal
	MinLoanAmount decimal.Decimal
	MaxLoanAmount decimal.Decimal
	MinTermMonths int
	MaxTermMonths int
	Available     bool
	CreatedAt     time.Time
}

// EligibleCategories returns the catalog categories a score unlocks. The
// ladder is additive: each threshold keeps everything below it, and "other"
// is always available.
func EligibleCategories(score int) []string {
	categories := []string{CategoryOther}
	if score > 500 {
		categories = append(categories, CategoryAppliance)
	}
	if score > 600 {
		categories = append(categories, CategoryElectronics)
	}
	if score > 700 {
		categories = append(categories, CategorySmartphone)
	}
	if score > 800 {
		categories = append(categories, CategoryMotorbike)
	}
	return categories
}

// Eligible reports whether a category is unlocked at the given score.
func Eligible(score int, category string) bool {
	for _, c := range EligibleCategories(score) {
		if c == category {
			return true
		}
	}
	return false
}
