package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound occurs when a user lookup misses.
var ErrNotFound = errors.New("user not found")

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByPhone(ctx context.Context, phone string) (User, error)
	UpdateScore(ctx context.Context, id string, score int, tier string) error
	UpdateTokenVersion(ctx context.Context, id string, version int) error
	SetKYCStatus(ctx context.Context, id, status string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users
        (id, phone, email, full_name, role, password_hash, kyc_status, kifaa_score, tier, token_version, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		userID, user.Phone, user.Email, user.FullName, user.Role, user.PasswordHash,
		user.KYCStatus, user.KifaaScore, user.Tier, user.TokenVersion, user.CreatedAt.UTC())
	return err
}

const userColumns = `id, phone, email, full_name, role, password_hash, kyc_status, kifaa_score, tier, token_version, created_at`

func scanUser(row pgx.Row) (User, error) {
	var (
		u         User
		id        uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &u.Phone, &u.Email, &u.FullName, &u.Role, &u.PasswordHash,
		&u.KYCStatus, &u.KifaaScore, &u.Tier, &u.TokenVersion, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.ID = id.String()
	u.CreatedAt = createdAt.UTC()
	return u, nil
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

// FindByPhone fetches a user by phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
}

// UpdateScore stores a recomputed kifaa score and tier.
func (r *PostgresRepository) UpdateScore(ctx context.Context, id string, score int, tier string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET kifaa_score = $1, tier = $2 WHERE id = $3`, score, tier, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTokenVersion bumps the version used to invalidate issued tokens.
func (r *PostgresRepository) UpdateTokenVersion(ctx context.Context, id string, version int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET token_version = $1 WHERE id = $2`, version, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetKYCStatus records the outcome of KYC review.
func (r *PostgresRepository) SetKYCStatus(ctx context.Context, id, status string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET kyc_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
