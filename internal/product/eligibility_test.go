package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEligibleCategories(t *testing.T) {
	cases := []struct {
		score int
		want  []string
	}{
		{300, []string{CategoryOther}},
		{500, []string{CategoryOther}},
		{501, []string{CategoryOther, CategoryAppliance}},
		{600, []string{CategoryOther, CategoryAppliance}},
		{601, []string{CategoryOther, CategoryAppliance, CategoryElectronics}},
		{700, []string{CategoryOther, CategoryAppliance, CategoryElectronics}},
		{701, []string{CategoryOther, CategoryAppliance, CategoryElectronics, CategorySmartphone}},
		{801, []string{CategoryOther, CategoryAppliance, CategoryElectronics, CategorySmartphone, CategoryMotorbike}},
		{850, []string{CategoryOther, CategoryAppliance, CategoryElectronics, CategorySmartphone, CategoryMotorbike}},
	}
	for _, tc := range cases {
		got := EligibleCategories(tc.score)
		if len(got) != len(tc.want) {
			t.Fatalf("score %d: expected %v, got %v", tc.score, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("score %d: expected %v, got %v", tc.score, tc.want, got)
			}
		}
	}
}

func TestListEligibleFiltersCatalog(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	seed := []Product{
		{Name: "Solar Kit", Category: CategoryOther, Available: true},
		{Name: "Fridge", Category: CategoryAppliance, Available: true},
		{Name: "Laptop", Category: CategoryElectronics, Available: true},
		{Name: "Phone X", Category: CategorySmartphone, Available: true},
		{Name: "Boda", Category: CategoryMotorbike, Available: true},
		{Name: "Broken TV", Category: CategoryElectronics, Available: false},
	}
	for _, p := range seed {
		p.Price = decimal.NewFromInt(1000)
		p.MinLoanAmount = decimal.NewFromInt(100)
		p.MaxLoanAmount = decimal.NewFromInt(10000)
		p.MinTermMonths = 1
		p.MaxTermMonths = 24
		if _, err := svc.Create(ctx, p); err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}

	got, err := svc.ListEligible(ctx, 650)
	if err != nil {
		t.Fatalf("list eligible: %v", err)
	}
	// other + appliance + electronics, excluding the unavailable TV.
	if len(got) != 3 {
		t.Fatalf("expected 3 products at score 650, got %d", len(got))
	}
	for _, p := range got {
		if p.Category == CategorySmartphone || p.Category == CategoryMotorbike {
			t.Fatalf("score 650 should not unlock %s", p.Category)
		}
		if !p.Available {
			t.Fatalf("unavailable product leaked into eligibility")
		}
	}
}
