package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the unlock state of a calculation.
// It only ever moves from PENDING to COMPLETED.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
)

// Entry is one card transaction that accrues interest on a late payment.
// Days and Interest are filled in when the calculation is created.
type Entry struct {
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate Date            `json:"transactionDate"`
	Days            int             `json:"days"`
	Interest        decimal.Decimal `json:"interest"`
}

// Transaction is the persisted result of one fee/interest calculation.
// Inputs and derived figures are immutable; only the payment fields change,
// and TotalAmount always equals CalculatedInterest + LateFee.
type Transaction struct {
	ID                 uuid.UUID       `json:"id"`
	Bank               Bank            `json:"bank"`
	Entries            []Entry         `json:"entries"`
	DueDate            Date            `json:"dueDate"`
	PaymentDate        Date            `json:"paymentDate"`
	OutstandingAmount  decimal.Decimal `json:"outstandingAmount"`
	MinimumDueAmount   decimal.Decimal `json:"minimumDueAmount"`
	MinimumDuePaid     bool            `json:"minimumDuePaid"`
	CalculatedInterest decimal.Decimal `json:"calculatedInterest"`
	LateFee            decimal.Decimal `json:"lateFee"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	PaymentStatus      PaymentStatus   `json:"paymentStatus"`
	GatewayOrderID     string          `json:"gatewayOrderId,omitempty"`
	GatewayPaymentID   string          `json:"gatewayPaymentId,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// EntryAmount returns the sum of all entry amounts.
func (t *Transaction) EntryAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range t.Entries {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// EntryInput is a single transaction line as submitted by the caller,
// either typed in or extracted from a statement.
type EntryInput struct {
	Amount *decimal.Decimal `json:"amount"`
	Date   *Date            `json:"date"`
}

// CalculationRequest is the DTO for a create-and-calculate call.
// Pointer fields distinguish "missing" from zero.
type CalculationRequest struct {
	Bank              string           `json:"bank"`
	OutstandingAmount *decimal.Decimal `json:"outstandingAmount"`
	MinimumDueAmount  *decimal.Decimal `json:"minimumDueAmount"`
	MinimumDuePaid    bool             `json:"minimumDuePaid"`
	DueDate           *Date            `json:"dueDate"`
	PaymentDate       *Date            `json:"paymentDate"`
	Transactions      []EntryInput     `json:"transactions"`
}

// PaymentOrder is a gateway order raised to unlock a calculation.
type PaymentOrder struct {
	OrderID       string    `json:"orderId"`
	TransactionID uuid.UUID `json:"transactionId"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	KeyID         string    `json:"keyId"`
}

// PaymentVerification is the completion callback delivered by the gateway checkout.
type PaymentVerification struct {
	OrderID       string `json:"orderId"`
	PaymentID     string `json:"paymentId"`
	Signature     string `json:"signature"`
	TransactionID string `json:"transactionId"`
}

// User is a registered account.
type User struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	EmailVerified     bool       `json:"emailVerified"`
	VerificationToken string     `json:"-"`
	ResetToken        string     `json:"-"`
	ResetExpiresAt    *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
}
