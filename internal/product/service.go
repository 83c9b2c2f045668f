package product

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service exposes catalog reads filtered by score eligibility.
type Service struct {
	repo Repository
}

// NewService builds a product service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a catalog item (privileged).
func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Get fetches one product.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return s.repo.Get(ctx, id)
}

// List fetches the full catalog.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// ListEligible returns available products in categories the score unlocks.
// Eligibility has no hysteresis: a score drop revokes access on the next read.
func (s *Service) ListEligible(ctx context.Context, score int) ([]Product, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Product
	for _, p := range all {
		if p.Available && Eligible(score, p.Category) {
			out = append(out, p)
		}
	}
	return out, nil
}
