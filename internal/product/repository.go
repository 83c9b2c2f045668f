package product

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists catalog products. Read-mostly.
type Repository interface {
	Create(ctx context.Context, p Product) error
	Get(ctx context.Context, id string) (Product, error)
	List(ctx context.Context) ([]Product, error)
}

// PostgresRepository stores products in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a product.
func (r *PostgresRepository) Create(ctx context.Context, p Product) error {
	productID, err := uuid.Parse(p.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO products
        (id, name, category, price, min_loan_amount, max_loan_amount, min_term_months, max_term_months, available, created_at)
        VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8, $9, $10)`,
		productID, p.Name, p.Category, p.Price.String(), p.MinLoanAmount.String(), p.MaxLoanAmount.String(),
		p.MinTermMonths, p.MaxTermMonths, p.Available, p.CreatedAt.UTC())
	return err
}

const productColumns = `id, name, category, price::text, min_loan_amount::text, max_loan_amount::text,
    min_term_months, max_term_months, available, created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p                     Product
		id                    uuid.UUID
		price, minAmt, maxAmt string
		createdAt             time.Time
	)
	if err := row.Scan(&id, &p.Name, &p.Category, &price, &minAmt, &maxAmt,
		&p.MinTermMonths, &p.MaxTermMonths, &p.Available, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	p.ID = id.String()
	p.CreatedAt = createdAt.UTC()
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return Product{}, err
	}
	if p.MinLoanAmount, err = decimal.NewFromString(minAmt); err != nil {
		return Product{}, err
	}
	if p.MaxLoanAmount, err = decimal.NewFromString(maxAmt); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Get fetches a product by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return Product{}, ErrNotFound
	}
	return scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, productID))
}

// List fetches the full catalog.
func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
