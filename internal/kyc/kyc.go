package kyc

import (
	"context"
	"errors"
	"time"
)

// Document review states.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	// ErrNotFound occurs when a document lookup misses.
	ErrNotFound = errors.New("kyc document not found")

	// ErrAlreadyReviewed occurs when review targets a non-pending document.
	ErrAlreadyReviewed = errors.New("kyc document already reviewed")
)

// Document records KYC evidence metadata. The file bytes live in external
// storage; only the storage key is kept here.
type Document struct {
	ID         string
	UserID     string
	Kind       string // national_id, passport, payslip, utility_bill
	StorageKey string
	Status     string
	ReviewedBy string
	CreatedAt  time.Time
}

// Repository persists KYC document metadata.
type Repository interface {
	Create(ctx context.Context, doc Document) error
	Get(ctx context.Context, id string) (Document, error)
	ListByUser(ctx context.Context, userID string) ([]Document, error)
	Update(ctx context.Context, doc Document) error
	CountApproved(ctx context.Context, userID string) (int, error)
}
