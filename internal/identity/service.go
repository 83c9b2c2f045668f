package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	baseScore = 500
	baseTier  = "basic"
)

// ErrInvalidCredentials occurs when sign-in fails verification.
var ErrInvalidCredentials = errors.New("invalid phone or password")

// Service manages identity lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new customer with the base score and tier and stores a
// hashed password.
func (s *Service) Register(ctx context.Context, creds Credentials) (User, error) {
	if creds.Phone == "" {
		return User{}, errors.New("phone is required")
	}
	if len(creds.Password) < 8 {
		return User{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		Phone:        creds.Phone,
		Email:        creds.Email,
		FullName:     creds.FullName,
		Role:         RoleCustomer,
		PasswordHash: hash,
		KYCStatus:    KYCPending,
		KifaaScore:   baseScore,
		Tier:         baseTier,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies phone and password.
func (s *Service) Authenticate(ctx context.Context, phone, password string) (User, error) {
	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Get fetches a user by identifier.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}
