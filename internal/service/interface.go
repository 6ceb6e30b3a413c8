package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/punchamoorthee/cardfees/internal/domain"
	"github.com/punchamoorthee/cardfees/internal/payment"
)

// TransactionStore persists calculations. CompletePayment must be a single
// conditional update on PENDING and report whether it made the transition.
//
//go:generate mockgen -destination=mocks/mock_service.go -source=interface.go
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	AttachOrder(ctx context.Context, id uuid.UUID, orderID string) error
	CompletePayment(ctx context.Context, id uuid.UUID, orderID, paymentID string) (bool, error)
}

// UserStore persists accounts and their one-time tokens.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) error
	SetResetToken(ctx context.Context, userID uuid.UUID, token string, expires time.Time) error
	ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error
}

// OrderGateway raises checkout orders with the payment provider.
type OrderGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*payment.Order, error)
	KeyID() string
}

// Mailer delivers a plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
