package kyc

import (
	"context"
	"errors"
	"testing"

	"github.com/kifaa-platform/kifaa/internal/identity"
)

func registerUser(t *testing.T, repo identity.Repository) identity.User {
	t.Helper()
	svc := identity.NewService(repo)
	user, err := svc.Register(context.Background(), identity.Credentials{
		Phone:    "254700000001",
		Password: "s3cretpass",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func TestSubmitAndApprove(t *testing.T) {
	ctx := context.Background()
	userRepo := identity.NewMemoryRepository()
	user := registerUser(t, userRepo)
	svc := NewService(NewMemoryRepository(), userRepo, nil)

	doc, err := svc.Submit(ctx, user.ID, "national_id", "uploads/id-front.jpg")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if doc.Status != StatusPending {
		t.Fatalf("expected pending, got %s", doc.Status)
	}

	reviewed, err := svc.Review(ctx, doc.ID, "admin-1", true)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != StatusApproved || reviewed.ReviewedBy != "admin-1" {
		t.Fatalf("unexpected review result %+v", reviewed)
	}

	refreshed, err := userRepo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if refreshed.KYCStatus != identity.KYCApproved {
		t.Fatalf("user kyc status %s, want approved", refreshed.KYCStatus)
	}
}

func TestRejectLeavesUserPending(t *testing.T) {
	ctx := context.Background()
	userRepo := identity.NewMemoryRepository()
	user := registerUser(t, userRepo)
	svc := NewService(NewMemoryRepository(), userRepo, nil)

	doc, err := svc.Submit(ctx, user.ID, "passport", "uploads/passport.jpg")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Review(ctx, doc.ID, "admin-1", false); err != nil {
		t.Fatalf("review: %v", err)
	}

	refreshed, err := userRepo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if refreshed.KYCStatus != identity.KYCPending {
		t.Fatalf("user kyc status %s, want pending", refreshed.KYCStatus)
	}
}

func TestReviewIsFinal(t *testing.T) {
	ctx := context.Background()
	userRepo := identity.NewMemoryRepository()
	user := registerUser(t, userRepo)
	svc := NewService(NewMemoryRepository(), userRepo, nil)

	doc, err := svc.Submit(ctx, user.ID, "national_id", "uploads/id.jpg")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Review(ctx, doc.ID, "admin-1", true); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := svc.Review(ctx, doc.ID, "admin-2", false); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("expected already reviewed, got %v", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), identity.NewMemoryRepository(), nil)

	if _, err := svc.Submit(ctx, "u", "", "uploads/x.jpg"); err == nil {
		t.Fatal("expected error for missing kind")
	}
	if _, err := svc.Submit(ctx, "u", "national_id", ""); err == nil {
		t.Fatal("expected error for missing storage key")
	}
}
