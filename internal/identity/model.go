package identity

import "time"

// Roles assignable to a user.
const (
	RoleCustomer      = "customer"
	RoleAgent         = "agent"
	RoleAdministrator = "administrator"
)

// KYC verification states.
const (
	KYCPending  = "pending"
	KYCApproved = "approved"
	KYCRejected = "rejected"
)

// User represents a registered Kifaa account holder.
type User struct {
	ID           string
	Phone        string
	Email        string
	FullName     string
	Role         string
	PasswordHash []byte
	KYCStatus    string
	KifaaScore   int
	Tier         string
	TokenVersion int
	CreatedAt    time.Time
}

// Credentials is the sign-up / sign-in request payload.
type Credentials struct {
	Phone    string
	Email    string
	FullName string
	Password string
}
