package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists loans and their payment schedules.
type Repository interface {
	Create(ctx context.Context, loan Loan) error
	Get(ctx context.Context, id string) (Loan, error)
	ListByUser(ctx context.Context, userID string) ([]Loan, error)
	Update(ctx context.Context, loan Loan) error
	CreateSchedule(ctx context.Context, entries []Payment) error
	Schedule(ctx context.Context, loanID string) ([]Payment, error)
	UpdatePayment(ctx context.Context, payment Payment) error
	MarkOverdue(ctx context.Context, loanID string, asOf time.Time) (int, error)
}

// PostgresRepository stores loans in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a loan record.
func (r *PostgresRepository) Create(ctx context.Context, loan Loan) error {
	loanID, err := uuid.Parse(loan.ID)
	if err != nil {
		return err
	}
	var productID any
	if loan.ProductID != "" {
		parsed, err := uuid.Parse(loan.ProductID)
		if err != nil {
			return fmt.Errorf("parse product id: %w", err)
		}
		productID = parsed
	}
	_, err = r.db.Exec(ctx, `INSERT INTO loans
        (id, user_id, product_id, amount, interest_rate, term_months, status,
         monthly_payment, total_payment, remaining_amount, currency, created_at)
        VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8::numeric, $9::numeric, $10::numeric, $11, $12)`,
		loanID, loan.UserID, productID, loan.Amount.String(), loan.InterestRate.String(),
		loan.TermMonths, loan.Status, loan.MonthlyPayment.String(), loan.TotalPayment.String(),
		loan.RemainingAmount.String(), loan.Currency, loan.CreatedAt.UTC())
	return err
}

const loanColumns = `id, user_id, COALESCE(product_id::text, ''), amount::text, interest_rate::text,
    term_months, status, monthly_payment::text, total_payment::text, remaining_amount::text,
    currency, due_date, COALESCE(approved_by::text, ''), approved_at, created_at`

func scanLoan(row pgx.Row) (Loan, error) {
	var (
		l                                       Loan
		id, userID                              uuid.UUID
		amount, rate, monthly, total, remaining string
		dueDate, approvedAt                     *time.Time
		createdAt                               time.Time
	)
	if err := row.Scan(&id, &userID, &l.ProductID, &amount, &rate, &l.TermMonths, &l.Status,
		&monthly, &total, &remaining, &l.Currency, &dueDate, &l.ApprovedBy, &approvedAt, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, ErrNotFound
		}
		return Loan{}, err
	}
	l.ID = id.String()
	l.UserID = userID.String()
	l.DueDate = dueDate
	l.ApprovedAt = approvedAt
	l.CreatedAt = createdAt.UTC()

	var err error
	if l.Amount, err = decimal.NewFromString(amount); err != nil {
		return Loan{}, err
	}
	if l.InterestRate, err = decimal.NewFromString(rate); err != nil {
		return Loan{}, err
	}
	if l.MonthlyPayment, err = decimal.NewFromString(monthly); err != nil {
		return Loan{}, err
	}
	if l.TotalPayment, err = decimal.NewFromString(total); err != nil {
		return Loan{}, err
	}
	if l.RemainingAmount, err = decimal.NewFromString(remaining); err != nil {
		return Loan{}, err
	}
	return l, nil
}

// Get fetches a loan by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Loan, error) {
	loanID, err := uuid.Parse(id)
	if err != nil {
		return Loan{}, ErrNotFound
	}
	return scanLoan(r.db.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, loanID))
}

// ListByUser fetches all loans for one user, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Loan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+loanColumns+` FROM loans WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Update persists mutable loan fields (status, remaining, approval stamps).
func (r *PostgresRepository) Update(ctx context.Context, loan Loan) error {
	var approvedBy any
	if loan.ApprovedBy != "" {
		parsed, err := uuid.Parse(loan.ApprovedBy)
		if err != nil {
			return fmt.Errorf("parse approver id: %w", err)
		}
		approvedBy = parsed
	}
	cmd, err := r.db.Exec(ctx, `UPDATE loans SET status = $1, remaining_amount = $2::numeric,
        due_date = $3, approved_by = $4, approved_at = $5 WHERE id = $6`,
		loan.Status, loan.RemainingAmount.String(), loan.DueDate, approvedBy, loan.ApprovedAt, loan.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateSchedule inserts the installment plan for a loan.
func (r *PostgresRepository) CreateSchedule(ctx context.Context, entries []Payment) error {
	batch := &pgx.Batch{}
	for _, p := range entries {
		batch.Queue(`INSERT INTO loan_payments (id, loan_id, sequence, amount, due_date, status, paid_amount)
            VALUES ($1, $2, $3, $4::numeric, $5, $6, $7::numeric)`,
			p.ID, p.LoanID, p.Sequence, p.Amount.String(), p.DueDate.UTC(), p.Status, p.PaidAmount.String())
	}
	results := r.db.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Schedule fetches a loan's installments in due-date order.
func (r *PostgresRepository) Schedule(ctx context.Context, loanID string) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, loan_id, sequence, amount::text, due_date, status, paid_amount::text
        FROM loan_payments WHERE loan_id = $1 ORDER BY due_date, sequence`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var (
			p            Payment
			id, lid      uuid.UUID
			amount, paid string
			dueDate      time.Time
		)
		if err := rows.Scan(&id, &lid, &p.Sequence, &amount, &dueDate, &p.Status, &paid); err != nil {
			return nil, err
		}
		p.ID = id.String()
		p.LoanID = lid.String()
		p.DueDate = dueDate.UTC()
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if p.PaidAmount, err = decimal.NewFromString(paid); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePayment persists one installment's paid amount and status.
func (r *PostgresRepository) UpdatePayment(ctx context.Context, payment Payment) error {
	cmd, err := r.db.Exec(ctx, `UPDATE loan_payments SET status = $1, paid_amount = $2::numeric WHERE id = $3`,
		payment.Status, payment.PaidAmount.String(), payment.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkOverdue flips pending installments past their due date to overdue and
// returns how many rows changed. Called when a loan is declared defaulted and
// usable by a reconciliation job.
func (r *PostgresRepository) MarkOverdue(ctx context.Context, loanID string, asOf time.Time) (int, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE loan_payments SET status = $1
        WHERE loan_id = $2 AND status = $3 AND due_date < $4`,
		PaymentOverdue, loanID, PaymentPending, asOf.UTC())
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}
