package store

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS calculations (
		id                  UUID PRIMARY KEY,
		bank                TEXT NOT NULL,
		outstanding_amount  NUMERIC(14,2) NOT NULL CHECK (outstanding_amount >= 0),
		minimum_due_amount  NUMERIC(14,2) NOT NULL CHECK (minimum_due_amount >= 0),
		minimum_due_paid    BOOLEAN NOT NULL,
		due_date            DATE NOT NULL,
		payment_date        DATE NOT NULL,
		entries             JSONB NOT NULL,
		calculated_interest NUMERIC(14,2) NOT NULL CHECK (calculated_interest >= 0),
		late_fee            NUMERIC(14,2) NOT NULL CHECK (late_fee >= 0),
		total_amount        NUMERIC(14,2) NOT NULL,
		payment_status      TEXT NOT NULL DEFAULT 'PENDING' CHECK (payment_status IN ('PENDING', 'COMPLETED')),
		gateway_order_id    TEXT,
		gateway_payment_id  TEXT,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT total_is_sum CHECK (total_amount = calculated_interest + late_fee)
	)`,
	`DROP INDEX IF EXISTS calculations_gateway_order_idx`,
	`CREATE UNIQUE INDEX IF NOT EXISTS calculations_gateway_order_key ON calculations (gateway_order_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id                 UUID PRIMARY KEY,
		name               TEXT NOT NULL,
		email              TEXT NOT NULL UNIQUE,
		password_hash      TEXT NOT NULL,
		email_verified     BOOLEAN NOT NULL DEFAULT false,
		verification_token TEXT UNIQUE,
		reset_token        TEXT UNIQUE,
		reset_expires_at   TIMESTAMPTZ,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i+1, err)
		}
	}
	return nil
}
