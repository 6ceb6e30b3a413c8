package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/punchamoorthee/cardfees/internal/domain"
	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

type entryView struct {
	Amount   json.Number `json:"amount"`
	Date     domain.Date `json:"date"`
	Days     *int        `json:"days,omitempty"`
	Interest json.Number `json:"interest,omitempty"`
}

// calculationView is the wire shape of a stored calculation. Totals are always
// present; per-entry days and interest only once the record is paid for.
type calculationView struct {
	TransactionID     uuid.UUID            `json:"transactionId"`
	Bank              domain.Bank          `json:"bank"`
	OutstandingAmount json.Number          `json:"outstandingAmount"`
	MinimumDueAmount  json.Number          `json:"minimumDueAmount"`
	MinimumDuePaid    bool                 `json:"minimumDuePaid"`
	DueDate           domain.Date          `json:"dueDate"`
	PaymentDate       domain.Date          `json:"paymentDate"`
	Interest          json.Number          `json:"interest"`
	LateFee           json.Number          `json:"lateFee"`
	TotalAmount       json.Number          `json:"totalAmount"`
	PaymentStatus     domain.PaymentStatus `json:"paymentStatus"`
	BreakdownUnlocked bool                 `json:"breakdownUnlocked"`
	Entries           []entryView          `json:"entries"`
	CreatedAt         time.Time            `json:"createdAt"`
}

func newCalculationView(t *domain.Transaction) calculationView {
	unlocked := t.PaymentStatus == domain.PaymentCompleted
	v := calculationView{
		TransactionID:     t.ID,
		Bank:              t.Bank,
		OutstandingAmount: money(t.OutstandingAmount),
		MinimumDueAmount:  money(t.MinimumDueAmount),
		MinimumDuePaid:    t.MinimumDuePaid,
		DueDate:           t.DueDate,
		PaymentDate:       t.PaymentDate,
		Interest:          money(t.CalculatedInterest),
		LateFee:           money(t.LateFee),
		TotalAmount:       money(t.TotalAmount),
		PaymentStatus:     t.PaymentStatus,
		BreakdownUnlocked: unlocked,
		Entries:           make([]entryView, len(t.Entries)),
		CreatedAt:         t.CreatedAt,
	}
	for i, e := range t.Entries {
		ev := entryView{Amount: money(e.Amount), Date: e.TransactionDate}
		if unlocked {
			days := e.Days
			ev.Days = &days
			ev.Interest = money(e.Interest)
		}
		v.Entries[i] = ev
	}
	return v
}

type userView struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newUserView(u *domain.User) userView {
	return userView{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}
