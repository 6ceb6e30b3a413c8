// Package calculator holds the pure credit-card interest and late-fee math.
// Nothing in here performs I/O.
package calculator

import (
	"time"

	"github.com/punchamoorthee/cardfees/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	monthlyRatePct = decimal.RequireFromString("3.75")
	monthsPerYear  = decimal.NewFromInt(12)
	yearBasis      = decimal.NewFromInt(100 * 365)
)

// DaysBetween counts calendar days from one date to another, inclusive of
// both endpoints. Time-of-day is ignored and order does not matter, so the
// result is always at least 1.
func DaysBetween(from, to time.Time) int {
	a := domain.DateOf(from).Time
	b := domain.DateOf(to).Time
	days := int(b.Sub(a) / (24 * time.Hour))
	if days < 0 {
		days = -days
	}
	return days + 1
}

// Interest prorates the 3.75% monthly finance charge over days on a 365-day year:
// amount × 3.75 × days × 12 / 36500. Non-positive day counts accrue nothing.
func Interest(amount decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return amount.
		Mul(monthlyRatePct).
		Mul(decimal.NewFromInt(int64(days))).
		Mul(monthsPerYear).
		Div(yearBasis)
}

// Input is everything a calculation needs. Entries only need Amount and
// TransactionDate set.
type Input struct {
	Bank              domain.Bank
	OutstandingAmount decimal.Decimal
	Entries           []domain.Entry
	DueDate           domain.Date
	PaymentDate       domain.Date
	MinimumDuePaid    bool
}

// Result carries the derived figures, rounded to paise.
type Result struct {
	Entries  []domain.Entry
	Interest decimal.Decimal
	LateFee  decimal.Decimal
	Total    decimal.Decimal
}

// Calculate applies the charges for one statement.
//
// Paying on or before the due date costs nothing. A late payment accrues
// interest per entry from its own transaction date. Each entry's interest is
// rounded to paise for display; the statement interest rounds the exact sum
// once. The bank's late fee is charged once for the statement unless the
// minimum due was paid.
func Calculate(in Input) Result {
	res := Result{
		Entries:  make([]domain.Entry, len(in.Entries)),
		Interest: decimal.Zero,
		LateFee:  decimal.Zero,
	}

	late := in.PaymentDate.After(in.DueDate)
	accrued := decimal.Zero
	for i, e := range in.Entries {
		out := domain.Entry{
			Amount:          e.Amount,
			TransactionDate: e.TransactionDate,
			Interest:        decimal.Zero,
		}
		if late {
			out.Days = DaysBetween(e.TransactionDate.Time, in.PaymentDate.Time)
			raw := Interest(e.Amount, out.Days)
			accrued = accrued.Add(raw)
			out.Interest = raw.Round(2)
		}
		res.Entries[i] = out
	}
	res.Interest = accrued.Round(2)

	if late && !in.MinimumDuePaid {
		res.LateFee = LateFee(in.Bank, in.OutstandingAmount).Round(2)
	}
	res.Total = res.Interest.Add(res.LateFee)
	return res
}
