package funding

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider represents a connector to an external mobile money network.
type Provider interface {
	AuthorizeCashIn(ctx context.Context, input CashAuthorization) (AuthorizationDecision, error)
	AuthorizeCashOut(ctx context.Context, input CashAuthorization) (AuthorizationDecision, error)
}

// AuthorizationDecision captures the provider's response.
type AuthorizationDecision struct {
	Reference string
	Status    string
}

// CashAuthorization encapsulates details for a mobile money movement.
type CashAuthorization struct {
	Phone    string
	Amount   decimal.Decimal
	Currency string
}

// StaticProvider simulates a successful mobile money integration.
type StaticProvider struct{}

// AuthorizeCashIn approves the top-up with a synthetic reference.
func (StaticProvider) AuthorizeCashIn(_ context.Context, _ CashAuthorization) (AuthorizationDecision, error) {
	return AuthorizationDecision{Reference: uuid.NewString(), Status: "approved"}, nil
}

// AuthorizeCashOut approves the payout with a synthetic reference.
func (StaticProvider) AuthorizeCashOut(_ context.Context, _ CashAuthorization) (AuthorizationDecision, error) {
	return AuthorizationDecision{Reference: uuid.NewString(), Status: "approved"}, nil
}
