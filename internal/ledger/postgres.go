package ledger

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

// PostgresLedger persists the transaction log and cached wallet balances in
// PostgreSQL. Log append and balance mutation always commit in one
// transaction, with the wallet row locked FOR UPDATE, so the sufficient-funds
// check cannot race with a concurrent debit.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureWallet creates the wallet for (user, currency) if it does not exist
// and returns it.
func (l *PostgresLedger) EnsureWallet(ctx context.Context, userID, currency string) (Wallet, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Wallet{}, err
	}
	_, err = l.db.Exec(ctx, `INSERT INTO wallets (id, user_id, currency, balance, created_at)
        VALUES ($1, $2, $3, 0, $4)
        ON CONFLICT (user_id, currency) DO NOTHING`, uuid.New(), uid, currency, time.Now().UTC())
	if err != nil {
		return Wallet{}, err
	}
	return l.getWallet(ctx, l.db, userID, currency, false)
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (l *PostgresLedger) getWallet(ctx context.Context, q queryer, userID, currency string, forUpdate bool) (Wallet, error) {
	query := `SELECT id, user_id, currency, balance::text, created_at
        FROM wallets WHERE user_id = $1 AND currency = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var (
		w         Wallet
		id, uid   uuid.UUID
		balance   string
		createdAt time.Time
	)
	if err := q.QueryRow(ctx, query, userID, currency).Scan(&id, &uid, &w.Currency, &balance, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.UserID = uid.String()
	w.CreatedAt = createdAt.UTC()
	bal, err := decimal.NewFromString(balance)
	if err != nil {
		return Wallet{}, fmt.Errorf("parse balance: %w", err)
	}
	w.Balance = bal
	return w, nil
}

// Balance returns the cached balance for the wallet.
func (l *PostgresLedger) Balance(ctx context.Context, userID, currency string) (decimal.Decimal, error) {
	w, err := l.getWallet(ctx, l.db, userID, currency, false)
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

// Credit appends a deposit or disbursement row and raises the wallet balance,
// creating the wallet lazily on first use.
func (l *PostgresLedger) Credit(ctx context.Context, input PostInput) (PostResult, error) {
	if err := validatePost(input, true); err != nil {
		return PostResult{}, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return PostResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO wallets (id, user_id, currency, balance, created_at)
        VALUES ($1, $2, $3, 0, $4)
        ON CONFLICT (user_id, currency) DO NOTHING`, uuid.New(), input.UserID, input.Currency, time.Now().UTC()); err != nil {
		return PostResult{}, err
	}

	w, err := l.getWallet(ctx, tx, input.UserID, input.Currency, true)
	if err != nil {
		return PostResult{}, err
	}

	if res, err := existingTransaction(ctx, tx, input.ClientTxID, input.Type, w.Balance); err != nil {
		return PostResult{}, err
	} else if res != nil {
		return *res, ErrDuplicateTransaction
	}

	txID := uuid.New()
	if err := insertTransaction(ctx, tx, txID, input, ""); err != nil {
		return PostResult{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = balance + $1::numeric WHERE id = $2`,
		input.Amount.String(), w.ID); err != nil {
		return PostResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return PostResult{}, err
	}
	return PostResult{TransactionID: txID.String(), Balance: w.Balance.Add(input.Amount)}, nil
}

// Debit appends a withdrawal, repayment or fee row and lowers the wallet
// balance. Fails with ErrInsufficientFunds when the amount exceeds the locked
// balance.
func (l *PostgresLedger) Debit(ctx context.Context, input PostInput) (PostResult, error) {
	if err := validatePost(input, false); err != nil {
		return PostResult{}, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return PostResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	w, err := l.getWallet(ctx, tx, input.UserID, input.Currency, true)
	if err != nil {
		return PostResult{}, err
	}

	if res, err := existingTransaction(ctx, tx, input.ClientTxID, input.Type, w.Balance); err != nil {
		return PostResult{}, err
	} else if res != nil {
		return *res, ErrDuplicateTransaction
	}

	if w.Balance.LessThan(input.Amount) {
		return PostResult{}, ErrInsufficientFunds
	}

	txID := uuid.New()
	if err := insertTransaction(ctx, tx, txID, input, ""); err != nil {
		return PostResult{}, err
	}
	// Conditional update backs the locked check; zero rows means a logic bug
	// rather than a race, since the row is held FOR UPDATE.
	cmd, err := tx.Exec(ctx, `UPDATE wallets SET balance = balance - $1::numeric
        WHERE id = $2 AND balance >= $1::numeric`, input.Amount.String(), w.ID)
	if err != nil {
		return PostResult{}, err
	}
	if cmd.RowsAffected() == 0 {
		return PostResult{}, ErrInsufficientFunds
	}

	if err := tx.Commit(ctx); err != nil {
		return PostResult{}, err
	}
	return PostResult{TransactionID: txID.String(), Balance: w.Balance.Sub(input.Amount)}, nil
}

// Transfer debits the sender and credits the recipient for the same currency
// and amount inside one transaction, creating the recipient wallet on demand.
// Wallet rows are locked in user-id order to avoid deadlocks between
// crossing transfers.
func (l *PostgresLedger) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	if !input.Amount.IsPositive() {
		return TransferResult{}, ErrInvalidAmount
	}
	if input.Currency == "" {
		return TransferResult{}, errors.New("currency is required")
	}
	if input.FromUserID == input.ToUserID {
		return TransferResult{}, errors.New("cannot transfer to the same user")
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransferResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO wallets (id, user_id, currency, balance, created_at)
        VALUES ($1, $2, $3, 0, $4)
        ON CONFLICT (user_id, currency) DO NOTHING`, uuid.New(), input.ToUserID, input.Currency, time.Now().UTC()); err != nil {
		return TransferResult{}, err
	}

	first, second := input.FromUserID, input.ToUserID
	if first > second {
		first, second = second, first
	}
	var from, to Wallet
	for _, uid := range []string{first, second} {
		w, err := l.getWallet(ctx, tx, uid, input.Currency, true)
		if err != nil {
			return TransferResult{}, err
		}
		if uid == input.FromUserID {
			from = w
		} else {
			to = w
		}
	}

	if res, err := existingTransfer(ctx, tx, input.ClientTxID, from.Balance, to.Balance); err != nil {
		return TransferResult{}, err
	} else if res != nil {
		return *res, ErrDuplicateTransaction
	}

	if from.Balance.LessThan(input.Amount) {
		return TransferResult{}, ErrInsufficientFunds
	}

	txID := uuid.New()
	if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, user_id, amount, currency, type, status, recipient_id, client_tx_id, created_at)
        VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9)`,
		txID, input.FromUserID, input.Amount.String(), input.Currency, TypeTransfer, StatusCompleted,
		input.ToUserID, input.ClientTxID, time.Now().UTC()); err != nil {
		return TransferResult{}, err
	}

	cmd, err := tx.Exec(ctx, `UPDATE wallets SET balance = balance - $1::numeric
        WHERE id = $2 AND balance >= $1::numeric`, input.Amount.String(), from.ID)
	if err != nil {
		return TransferResult{}, err
	}
	if cmd.RowsAffected() == 0 {
		return TransferResult{}, ErrInsufficientFunds
	}
	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = balance + $1::numeric WHERE id = $2`,
		input.Amount.String(), to.ID); err != nil {
		return TransferResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransferResult{}, err
	}

	return TransferResult{
		TransactionID: txID.String(),
		FromBalance:   from.Balance.Sub(input.Amount),
		ToBalance:     to.Balance.Add(input.Amount),
	}, nil
}

// History lists completed transactions touching the user's wallet in the
// given currency, newest first. Transfers received show up through the
// recipient column.
func (l *PostgresLedger) History(ctx context.Context, userID, currency string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(ctx, `SELECT id, user_id, amount::text, currency, type, status,
            COALESCE(recipient_id::text, ''), COALESCE(reference_id::text, ''), client_tx_id, created_at
        FROM transactions
        WHERE (user_id = $1 OR recipient_id = $1) AND currency = $2
        ORDER BY created_at DESC
        LIMIT $3`, userID, currency, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			t       Transaction
			id, uid uuid.UUID
			amount  string
			created time.Time
		)
		if err := rows.Scan(&id, &uid, &amount, &t.Currency, &t.Type, &t.Status, &t.RecipientID, &t.ReferenceID, &t.ClientTxID, &created); err != nil {
			return nil, err
		}
		t.ID = id.String()
		t.UserID = uid.String()
		t.CreatedAt = created.UTC()
		amt, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		t.Amount = amt
		out = append(out, t)
	}
	return out, rows.Err()
}

// Stats counts completed deposits and repayments for score derivation.
func (l *PostgresLedger) Stats(ctx context.Context, userID string) (Stats, error) {
	rows, err := l.db.Query(ctx, `SELECT type, COUNT(*) FROM transactions
        WHERE user_id = $1 AND status = $2 AND type IN ($3, $4)
        GROUP BY type`, userID, StatusCompleted, TypeDeposit, TypeRepayment)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return Stats{}, err
		}
		switch kind {
		case TypeDeposit:
			stats.Deposits = count
		case TypeRepayment:
			stats.Repayments = count
		}
	}
	return stats, rows.Err()
}

func existingTransaction(ctx context.Context, tx pgx.Tx, clientTxID, kind string, balance decimal.Decimal) (*PostResult, error) {
	if clientTxID == "" {
		return nil, nil
	}
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM transactions WHERE client_tx_id = $1 AND type = $2`,
		clientTxID, kind).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &PostResult{TransactionID: id.String(), Balance: balance}, nil
}

func existingTransfer(ctx context.Context, tx pgx.Tx, clientTxID string, fromBalance, toBalance decimal.Decimal) (*TransferResult, error) {
	if clientTxID == "" {
		return nil, nil
	}
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM transactions WHERE client_tx_id = $1 AND type = $2`,
		clientTxID, TypeTransfer).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &TransferResult{TransactionID: id.String(), FromBalance: fromBalance, ToBalance: toBalance}, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, id uuid.UUID, input PostInput, recipientID string) error {
	var refID any
	if input.ReferenceID != "" {
		parsed, err := uuid.Parse(input.ReferenceID)
		if err != nil {
			return fmt.Errorf("parse reference id: %w", err)
		}
		refID = parsed
	}
	var recID any
	if recipientID != "" {
		parsed, err := uuid.Parse(recipientID)
		if err != nil {
			return fmt.Errorf("parse recipient id: %w", err)
		}
		recID = parsed
	}
	_, err := tx.Exec(ctx, `INSERT INTO transactions (id, user_id, amount, currency, type, status, recipient_id, reference_id, client_tx_id, created_at)
        VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10)`,
		id, input.UserID, input.Amount.String(), input.Currency, input.Type, StatusCompleted,
		recID, refID, input.ClientTxID, time.Now().UTC())
	return err
}
