package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/punchamoorthee/cardfees/internal/domain"
	"github.com/punchamoorthee/cardfees/internal/service"
	mock_service "github.com/punchamoorthee/cardfees/internal/service/mocks"
	"github.com/punchamoorthee/cardfees/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func datePtr(y, m, d int) *domain.Date {
	v := domain.NewDate(y, time.Month(m), d)
	return &v
}

func validRequest() domain.CalculationRequest {
	return domain.CalculationRequest{
		Bank:              "HDFC",
		OutstandingAmount: decPtr("5000"),
		MinimumDueAmount:  decPtr("250"),
		DueDate:           datePtr(2024, 1, 15),
		PaymentDate:       datePtr(2024, 2, 1),
		Transactions: []domain.EntryInput{
			{Amount: decPtr("2000"), Date: datePtr(2024, 1, 1)},
		},
	}
}

func TestCalculationService_Calculate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockTransactionStore(ctrl)
	svc := service.NewCalculationService(repo)

	var saved *domain.Transaction
	repo.EXPECT().
		CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *domain.Transaction) error {
			saved = tx
			return nil
		})

	got, err := svc.Calculate(context.Background(), validRequest())
	require.NoError(t, err)
	require.Same(t, saved, got)

	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, domain.BankHDFC, got.Bank)
	assert.Equal(t, domain.PaymentPending, got.PaymentStatus)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, 32, got.Entries[0].Days)
	assert.True(t, got.CalculatedInterest.Equal(decimal.RequireFromString("78.90")), got.CalculatedInterest.String())
	assert.True(t, got.LateFee.Equal(decimal.NewFromInt(500)), got.LateFee.String())
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("578.90")), got.TotalAmount.String())
	assert.True(t, got.MinimumDueAmount.Equal(decimal.NewFromInt(250)))
	assert.Empty(t, got.GatewayOrderID)
}

func TestCalculationService_CalculateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *domain.CalculationRequest)
	}{
		{"missing bank", func(r *domain.CalculationRequest) { r.Bank = "" }},
		{"unsupported bank", func(r *domain.CalculationRequest) { r.Bank = "Monzo" }},
		{"missing outstanding", func(r *domain.CalculationRequest) { r.OutstandingAmount = nil }},
		{"negative outstanding", func(r *domain.CalculationRequest) { r.OutstandingAmount = decPtr("-1") }},
		{"missing minimum due", func(r *domain.CalculationRequest) { r.MinimumDueAmount = nil }},
		{"negative minimum due", func(r *domain.CalculationRequest) { r.MinimumDueAmount = decPtr("-0.01") }},
		{"missing due date", func(r *domain.CalculationRequest) { r.DueDate = nil }},
		{"missing payment date", func(r *domain.CalculationRequest) { r.PaymentDate = nil }},
		{"no transactions", func(r *domain.CalculationRequest) { r.Transactions = nil }},
		{"entry without amount", func(r *domain.CalculationRequest) { r.Transactions[0].Amount = nil }},
		{"entry with negative amount", func(r *domain.CalculationRequest) { r.Transactions[0].Amount = decPtr("-5") }},
		{"entry without date", func(r *domain.CalculationRequest) { r.Transactions[0].Date = nil }},
		{"entries exceed outstanding", func(r *domain.CalculationRequest) {
			r.Transactions = append(r.Transactions, domain.EntryInput{Amount: decPtr("3000.01"), Date: datePtr(2024, 1, 2)})
		}},
		{"outstanding below a paisa", func(r *domain.CalculationRequest) {
			r.OutstandingAmount = decPtr("100.004")
			r.Transactions[0].Amount = decPtr("100.004")
		}},
		{"minimum due below a paisa", func(r *domain.CalculationRequest) { r.MinimumDueAmount = decPtr("0.001") }},
		{"entry below a paisa", func(r *domain.CalculationRequest) { r.Transactions[0].Amount = decPtr("10.005") }},
		{"outstanding too large to store", func(r *domain.CalculationRequest) { r.OutstandingAmount = decPtr("1000000000000") }},
		{"entry too large to store", func(r *domain.CalculationRequest) { r.Transactions[0].Amount = decPtr("1000000000000.00") }},
		{"total too large to store", func(r *domain.CalculationRequest) {
			r.OutstandingAmount = decPtr("999999999999.99")
			r.Transactions[0].Amount = decPtr("999999999999.99")
			r.PaymentDate = datePtr(2027, 1, 1)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No CreateTransaction expectation: a rejected request must not be persisted.
			repo := mock_service.NewMockTransactionStore(ctrl)
			svc := service.NewCalculationService(repo)

			req := validRequest()
			tt.mutate(&req)

			got, err := svc.Calculate(context.Background(), req)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, service.ErrValidation)
			assert.Equal(t, "validation", service.Kind(err))
		})
	}
}

func TestCalculationService_CalculateEntriesEqualOutstanding(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockTransactionStore(ctrl)
	repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
	svc := service.NewCalculationService(repo)

	req := validRequest()
	req.Transactions[0].Amount = decPtr("5000")

	_, err := svc.Calculate(context.Background(), req)
	assert.NoError(t, err)
}

func TestCalculationService_CalculateTrailingZeros(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockTransactionStore(ctrl)
	repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
	svc := service.NewCalculationService(repo)

	req := validRequest()
	req.OutstandingAmount = decPtr("5000.000")
	req.Transactions[0].Amount = decPtr("2000.0000")

	got, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "578.90", got.TotalAmount.StringFixed(2))
}

func TestCalculationService_CalculateStorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockTransactionStore(ctrl)
	repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
	svc := service.NewCalculationService(repo)

	_, err := svc.Calculate(context.Background(), validRequest())
	assert.ErrorIs(t, err, service.ErrStorage)
	assert.Equal(t, "storage", service.Kind(err))
}

func TestCalculationService_Get(t *testing.T) {
	id := uuid.New()
	stored := &domain.Transaction{
		ID:            id,
		Bank:          domain.BankSBI,
		TotalAmount:   decimal.RequireFromString("120.50"),
		PaymentStatus: domain.PaymentPending,
	}

	tests := []struct {
		name     string
		id       string
		setup    func(m *mock_service.MockTransactionStore)
		want     *domain.Transaction
		wantKind string
	}{
		{
			name: "found",
			id:   id.String(),
			setup: func(m *mock_service.MockTransactionStore) {
				m.EXPECT().GetTransaction(gomock.Any(), id).Return(stored, nil)
			},
			want: stored,
		},
		{
			name: "not found",
			id:   id.String(),
			setup: func(m *mock_service.MockTransactionStore) {
				m.EXPECT().GetTransaction(gomock.Any(), id).Return(nil, store.ErrNotFound)
			},
			wantKind: "not_found",
		},
		{
			name:     "empty id",
			id:       "",
			setup:    func(m *mock_service.MockTransactionStore) {},
			wantKind: "validation",
		},
		{
			name:     "malformed id",
			id:       "not-a-uuid",
			setup:    func(m *mock_service.MockTransactionStore) {},
			wantKind: "validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mock_service.NewMockTransactionStore(ctrl)
			tt.setup(repo)
			svc := service.NewCalculationService(repo)

			got, err := svc.Get(context.Background(), tt.id)
			if tt.wantKind != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, service.Kind(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculationService_CalculateStatementUnreadable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockTransactionStore(ctrl)
	svc := service.NewCalculationService(repo)

	data := []byte("this is not a pdf")
	_, err := svc.CalculateStatement(context.Background(), validRequest(), bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, service.ErrValidation)
}
