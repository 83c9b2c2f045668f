package identity

import (
	"context"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Phone: "+254700000001", FullName: "Jane Wanjiku", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != RoleCustomer {
		t.Fatalf("expected customer role, got %s", user.Role)
	}
	if user.KifaaScore != 500 || user.Tier != "basic" {
		t.Fatalf("expected base score 500/basic, got %d/%s", user.KifaaScore, user.Tier)
	}
	if user.KYCStatus != KYCPending {
		t.Fatalf("expected pending kyc, got %s", user.KYCStatus)
	}

	got, err := svc.Authenticate(ctx, "+254700000001", "correct-horse")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("authenticated wrong user")
	}

	if _, err := svc.Authenticate(ctx, "+254700000001", "wrong-password"); err != ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "+254799999999", "correct-horse"); err != ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials for unknown phone, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Phone: "", Password: "long-enough"}); err == nil {
		t.Fatal("expected error for missing phone")
	}
	if _, err := svc.Register(ctx, Credentials{Phone: "+254700000002", Password: "short"}); err == nil {
		t.Fatal("expected error for short password")
	}

	if _, err := svc.Register(ctx, Credentials{Phone: "+254700000003", Password: "long-enough"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Phone: "+254700000003", Password: "long-enough"}); err == nil {
		t.Fatal("expected error for duplicate phone")
	}
}
