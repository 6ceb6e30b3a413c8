package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/punchamoorthee/cardfees/internal/domain"
)

const transactionColumns = `id, bank, outstanding_amount, minimum_due_amount, minimum_due_paid,
	due_date, payment_date, entries, calculated_interest, late_fee, total_amount,
	payment_status, gateway_order_id, gateway_payment_id, created_at`

// CreateTransaction persists a freshly calculated record in a single insert.
func (s *Store) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO calculations (`+transactionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULL, NULL, $13)`,
		t.ID, string(t.Bank), t.OutstandingAmount, t.MinimumDueAmount, t.MinimumDuePaid,
		t.DueDate.Time, t.PaymentDate.Time, t.Entries, t.CalculatedInterest, t.LateFee, t.TotalAmount,
		string(t.PaymentStatus), t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("calculation insert failed: %w", err)
	}
	return nil
}

// GetTransaction reads one record by id.
func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var (
		t                  domain.Transaction
		bank, status       string
		dueDate, payDate   time.Time
		orderID, paymentID *string
	)
	err := s.db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM calculations WHERE id = $1`, id,
	).Scan(
		&t.ID, &bank, &t.OutstandingAmount, &t.MinimumDueAmount, &t.MinimumDuePaid,
		&dueDate, &payDate, &t.Entries, &t.CalculatedInterest, &t.LateFee, &t.TotalAmount,
		&status, &orderID, &paymentID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("calculation query failed: %w", err)
	}

	t.Bank = domain.Bank(bank)
	t.PaymentStatus = domain.PaymentStatus(status)
	t.DueDate = domain.DateOf(dueDate)
	t.PaymentDate = domain.DateOf(payDate)
	if orderID != nil {
		t.GatewayOrderID = *orderID
	}
	if paymentID != nil {
		t.GatewayPaymentID = *paymentID
	}
	return &t, nil
}

// AttachOrder records the gateway order raised for a pending record. An order
// id already attached to another record is rejected with ErrDuplicate.
func (s *Store) AttachOrder(ctx context.Context, id uuid.UUID, orderID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE calculations SET gateway_order_id = $2 WHERE id = $1 AND payment_status = 'PENDING'`,
		id, orderID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("order attach failed: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	status, _, err := s.paymentState(ctx, id)
	if err != nil {
		return err
	}
	if status == domain.PaymentCompleted {
		return ErrCompleted
	}
	return fmt.Errorf("order attach matched no rows for %s", id)
}

// CompletePayment flips a record from PENDING to COMPLETED with a single
// conditional update, so concurrent callers cannot both win. Only the order
// attached to the record can complete it; a record without an order, or with
// a different one, yields ErrOrderMismatch. It reports whether this call made
// the transition. Repeating the completing order on a completed record
// returns false with no error.
func (s *Store) CompletePayment(ctx context.Context, id uuid.UUID, orderID, paymentID string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE calculations
		    SET payment_status = 'COMPLETED',
		        gateway_payment_id = $3
		  WHERE id = $1
		    AND payment_status = 'PENDING'
		    AND gateway_order_id = $2`,
		id, orderID, paymentID,
	)
	if err != nil {
		return false, fmt.Errorf("payment completion failed: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	status, attached, err := s.paymentState(ctx, id)
	if err != nil {
		return false, err
	}
	if status == domain.PaymentCompleted && attached == orderID {
		return false, nil
	}
	return false, ErrOrderMismatch
}

func (s *Store) paymentState(ctx context.Context, id uuid.UUID) (domain.PaymentStatus, string, error) {
	var (
		status  string
		orderID *string
	)
	err := s.db.QueryRow(ctx,
		`SELECT payment_status, gateway_order_id FROM calculations WHERE id = $1`, id,
	).Scan(&status, &orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrNotFound
		}
		return "", "", fmt.Errorf("payment state query failed: %w", err)
	}
	if orderID == nil {
		return domain.PaymentStatus(status), "", nil
	}
	return domain.PaymentStatus(status), *orderID, nil
}
