package infra

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates tables and indexes idempotently at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            UUID         PRIMARY KEY,
			phone         VARCHAR(32)  NOT NULL UNIQUE,
			email         VARCHAR(255) NOT NULL DEFAULT '',
			full_name     VARCHAR(255) NOT NULL DEFAULT '',
			role          VARCHAR(32)  NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			kyc_status    VARCHAR(32)  NOT NULL,
			kifaa_score   INT          NOT NULL,
			tier          VARCHAR(32)  NOT NULL,
			token_version INT          NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			id         UUID          PRIMARY KEY,
			user_id    UUID          NOT NULL,
			currency   VARCHAR(8)    NOT NULL,
			balance    NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, currency)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id           UUID          PRIMARY KEY,
			user_id      UUID          NOT NULL,
			amount       NUMERIC(20,2) NOT NULL,
			currency     VARCHAR(8)    NOT NULL,
			type         VARCHAR(32)   NOT NULL,
			status       VARCHAR(32)   NOT NULL,
			recipient_id UUID,
			reference_id UUID,
			client_tx_id VARCHAR(255)  NOT NULL,
			created_at   TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_client_tx
			ON transactions(client_tx_id, type)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_id
			ON transactions(user_id, currency)`,
		`CREATE TABLE IF NOT EXISTS loans (
			id               UUID          PRIMARY KEY,
			user_id          UUID          NOT NULL,
			product_id       UUID,
			amount           NUMERIC(20,2) NOT NULL,
			interest_rate    NUMERIC(8,4)  NOT NULL,
			term_months      INT           NOT NULL,
			status           VARCHAR(32)   NOT NULL,
			monthly_payment  NUMERIC(20,2) NOT NULL,
			total_payment    NUMERIC(20,2) NOT NULL,
			remaining_amount NUMERIC(20,2) NOT NULL,
			currency         VARCHAR(8)    NOT NULL,
			due_date         TIMESTAMPTZ,
			approved_by      UUID,
			approved_at      TIMESTAMPTZ,
			created_at       TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loans_user_id ON loans(user_id)`,
		`CREATE TABLE IF NOT EXISTS loan_payments (
			id          UUID          PRIMARY KEY,
			loan_id     UUID          NOT NULL REFERENCES loans(id),
			sequence    INT           NOT NULL,
			amount      NUMERIC(20,2) NOT NULL,
			due_date    TIMESTAMPTZ   NOT NULL,
			status      VARCHAR(32)   NOT NULL,
			paid_amount NUMERIC(20,2) NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loan_payments_loan_id ON loan_payments(loan_id)`,
		`CREATE TABLE IF NOT EXISTS kyc_documents (
			id          UUID         PRIMARY KEY,
			user_id     UUID         NOT NULL,
			kind        VARCHAR(32)  NOT NULL,
			storage_key VARCHAR(512) NOT NULL,
			status      VARCHAR(32)  NOT NULL,
			reviewed_by UUID,
			created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_kyc_documents_user_id ON kyc_documents(user_id)`,
		`CREATE TABLE IF NOT EXISTS products (
			id              UUID          PRIMARY KEY,
			name            VARCHAR(255)  NOT NULL,
			category        VARCHAR(32)   NOT NULL,
			price           NUMERIC(20,2) NOT NULL,
			min_loan_amount NUMERIC(20,2) NOT NULL,
			max_loan_amount NUMERIC(20,2) NOT NULL,
			min_term_months INT           NOT NULL,
			max_term_months INT           NOT NULL,
			available       BOOLEAN       NOT NULL DEFAULT TRUE,
			created_at      TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		)`,
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	logger.Info("migrations completed")
	return nil
}
