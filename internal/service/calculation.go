package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/punchamoorthee/cardfees/internal/calculator"
	"github.com/punchamoorthee/cardfees/internal/domain"
	"github.com/punchamoorthee/cardfees/internal/statement"
	"github.com/shopspring/decimal"
)

// maxAmount is the first value the NUMERIC(14,2) amount columns cannot hold.
var maxAmount = decimal.New(1, 12)

// CalculationService creates and reads fee/interest calculations.
type CalculationService struct {
	store TransactionStore
	now   func() time.Time
	newID func() uuid.UUID
}

func NewCalculationService(s TransactionStore) *CalculationService {
	return &CalculationService{store: s, now: time.Now, newID: uuid.New}
}

// Calculate validates the request, computes the charges and persists a new
// PENDING record. Nothing is written when validation fails.
func (s *CalculationService) Calculate(ctx context.Context, req domain.CalculationRequest) (*domain.Transaction, error) {
	in, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	res := calculator.Calculate(in)
	if res.Total.GreaterThanOrEqual(maxAmount) {
		return nil, invalid("total amount %s is out of range", res.Total.StringFixed(2))
	}
	t := &domain.Transaction{
		ID:                 s.newID(),
		Bank:               in.Bank,
		Entries:            res.Entries,
		DueDate:            in.DueDate,
		PaymentDate:        in.PaymentDate,
		OutstandingAmount:  in.OutstandingAmount,
		MinimumDueAmount:   *req.MinimumDueAmount,
		MinimumDuePaid:     in.MinimumDuePaid,
		CalculatedInterest: res.Interest,
		LateFee:            res.LateFee,
		TotalAmount:        res.Total,
		PaymentStatus:      domain.PaymentPending,
		CreatedAt:          s.now().UTC(),
	}

	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return nil, storeErr(err, "calculation "+t.ID.String())
	}

	calculationsTotal.WithLabelValues(string(t.Bank), strconv.FormatBool(in.PaymentDate.After(in.DueDate))).Inc()
	return t, nil
}

// CalculateStatement extracts entries from an uploaded PDF statement and runs
// the normal calculation with them. Any entries already on req are replaced.
func (s *CalculationService) CalculateStatement(ctx context.Context, req domain.CalculationRequest, r io.ReaderAt, size int64) (*domain.Transaction, error) {
	pages, err := statement.ExtractText(r, size)
	if err != nil {
		return nil, invalid("%v", err)
	}
	req.Transactions = statement.ParseEntries(pages)
	if len(req.Transactions) == 0 {
		return nil, invalid("no transactions found in statement")
	}
	return s.Calculate(ctx, req)
}

// Get reads a stored calculation without recomputing anything.
func (s *CalculationService) Get(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	id, err := parseID(transactionID)
	if err != nil {
		return nil, err
	}
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, storeErr(err, "transaction "+transactionID)
	}
	return t, nil
}

func parseID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, invalid("transactionId is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalid("transactionId %q is not a valid id", raw)
	}
	return id, nil
}

func validateRequest(req domain.CalculationRequest) (calculator.Input, error) {
	var in calculator.Input

	if req.Bank == "" {
		return in, invalid("bank is required")
	}
	bank, ok := domain.ParseBank(req.Bank)
	if !ok {
		return in, invalid("unsupported bank %q", req.Bank)
	}
	if req.OutstandingAmount == nil {
		return in, invalid("outstandingAmount is required")
	}
	if err := checkAmount("outstandingAmount", *req.OutstandingAmount); err != nil {
		return in, err
	}
	if req.MinimumDueAmount == nil {
		return in, invalid("minimumDueAmount is required")
	}
	if err := checkAmount("minimumDueAmount", *req.MinimumDueAmount); err != nil {
		return in, err
	}
	if req.DueDate == nil || req.DueDate.IsZero() {
		return in, invalid("dueDate is required")
	}
	if req.PaymentDate == nil || req.PaymentDate.IsZero() {
		return in, invalid("paymentDate is required")
	}
	if len(req.Transactions) == 0 {
		return in, invalid("at least one transaction is required")
	}

	in.Bank = bank
	in.OutstandingAmount = *req.OutstandingAmount
	in.DueDate = *req.DueDate
	in.PaymentDate = *req.PaymentDate
	in.MinimumDuePaid = req.MinimumDuePaid
	in.Entries = make([]domain.Entry, 0, len(req.Transactions))

	for i, e := range req.Transactions {
		if e.Amount == nil {
			return in, invalid("transactions[%d].amount is required", i)
		}
		if err := checkAmount(fmt.Sprintf("transactions[%d].amount", i), *e.Amount); err != nil {
			return in, err
		}
		if e.Date == nil || e.Date.IsZero() {
			return in, invalid("transactions[%d].date is required", i)
		}
		in.Entries = append(in.Entries, domain.Entry{Amount: *e.Amount, TransactionDate: *e.Date})
	}

	total := (&domain.Transaction{Entries: in.Entries}).EntryAmount()
	if total.GreaterThan(in.OutstandingAmount) {
		return in, invalid("transaction total %s exceeds outstanding amount %s",
			total.StringFixed(2), in.OutstandingAmount.StringFixed(2))
	}
	return in, nil
}

// checkAmount accepts non-negative amounts in whole paise that fit the
// amount columns.
func checkAmount(field string, d decimal.Decimal) error {
	switch {
	case d.IsNegative():
		return invalid("%s must not be negative", field)
	case !d.Equal(d.Round(2)):
		return invalid("%s must have at most 2 decimal places", field)
	case d.GreaterThanOrEqual(maxAmount):
		return invalid("%s must be less than %s", field, maxAmount.String())
	}
	return nil
}
