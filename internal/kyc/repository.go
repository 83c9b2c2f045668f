package kyc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores KYC documents in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a document record.
func (r *PostgresRepository) Create(ctx context.Context, doc Document) error {
	docID, err := uuid.Parse(doc.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO kyc_documents (id, user_id, kind, storage_key, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		docID, doc.UserID, doc.Kind, doc.StorageKey, doc.Status, doc.CreatedAt.UTC())
	return err
}

const docColumns = `id, user_id, kind, storage_key, status, COALESCE(reviewed_by::text, ''), created_at`

func scanDoc(row pgx.Row) (Document, error) {
	var (
		d         Document
		id, uid   uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &uid, &d.Kind, &d.StorageKey, &d.Status, &d.ReviewedBy, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	d.ID = id.String()
	d.UserID = uid.String()
	d.CreatedAt = createdAt.UTC()
	return d, nil
}

// Get fetches a document by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Document, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		return Document{}, ErrNotFound
	}
	return scanDoc(r.db.QueryRow(ctx, `SELECT `+docColumns+` FROM kyc_documents WHERE id = $1`, docID))
}

// ListByUser fetches a user's documents, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Document, error) {
	rows, err := r.db.Query(ctx, `SELECT `+docColumns+` FROM kyc_documents
        WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update persists review outcome fields.
func (r *PostgresRepository) Update(ctx context.Context, doc Document) error {
	var reviewedBy any
	if doc.ReviewedBy != "" {
		parsed, err := uuid.Parse(doc.ReviewedBy)
		if err != nil {
			return err
		}
		reviewedBy = parsed
	}
	cmd, err := r.db.Exec(ctx, `UPDATE kyc_documents SET status = $1, reviewed_by = $2 WHERE id = $3`,
		doc.Status, reviewedBy, doc.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountApproved counts a user's approved documents for score derivation.
func (r *PostgresRepository) CountApproved(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM kyc_documents WHERE user_id = $1 AND status = $2`,
		userID, StatusApproved).Scan(&count)
	return count, err
}
