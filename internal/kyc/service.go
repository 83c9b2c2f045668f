package kyc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kifaa-platform/kifaa/internal/identity"
)

// ScoreCache invalidates cached score derivations after KYC review.
type ScoreCache interface {
	Invalidate(ctx context.Context, userID string) error
}

// Service manages KYC document submission and review.
type Service struct {
	repo   Repository
	users  identity.Repository
	scores ScoreCache
}

// NewService builds a KYC service. The score cache is optional.
func NewService(repo Repository, users identity.Repository, scores ScoreCache) *Service {
	return &Service{repo: repo, users: users, scores: scores}
}

// Submit records an uploaded document as pending review.
func (s *Service) Submit(ctx context.Context, userID, kind, storageKey string) (Document, error) {
	if kind == "" {
		return Document{}, errors.New("document kind is required")
	}
	if storageKey == "" {
		return Document{}, errors.New("storage key is required")
	}
	doc := Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		Kind:       kind,
		StorageKey: storageKey,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Review approves or rejects a pending document. Approving the first document
// flips the user's identity KYC status to approved.
func (s *Service) Review(ctx context.Context, docID, reviewerID string, approve bool) (Document, error) {
	doc, err := s.repo.Get(ctx, docID)
	if err != nil {
		return Document{}, err
	}
	if doc.Status != StatusPending {
		return Document{}, fmt.Errorf("%w: status %s", ErrAlreadyReviewed, doc.Status)
	}

	if approve {
		doc.Status = StatusApproved
	} else {
		doc.Status = StatusRejected
	}
	doc.ReviewedBy = reviewerID
	if err := s.repo.Update(ctx, doc); err != nil {
		return Document{}, err
	}

	if approve {
		if err := s.users.SetKYCStatus(ctx, doc.UserID, identity.KYCApproved); err != nil {
			return Document{}, err
		}
		if s.scores != nil {
			_ = s.scores.Invalidate(ctx, doc.UserID)
		}
	}
	return doc, nil
}

// ListByUser fetches a user's documents.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Document, error) {
	return s.repo.ListByUser(ctx, userID)
}
