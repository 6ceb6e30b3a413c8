package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/punchamoorthee/cardfees/internal/domain"
	"github.com/punchamoorthee/cardfees/internal/payment"
	"github.com/punchamoorthee/cardfees/internal/store"
)

// PaymentService raises unlock orders and completes them once the gateway
// callback is proven authentic.
type PaymentService struct {
	store    TransactionStore
	gateway  OrderGateway
	secret   string
	fee      int64
	currency string
}

func NewPaymentService(s TransactionStore, gw OrderGateway, secret string, feeMinor int64, currency string) *PaymentService {
	return &PaymentService{store: s, gateway: gw, secret: secret, fee: feeMinor, currency: currency}
}

// CreateOrder raises a gateway order for unlocking transactionID. The
// transaction id goes out as the receipt so the order can be traced back.
func (s *PaymentService) CreateOrder(ctx context.Context, transactionID string) (*domain.PaymentOrder, error) {
	id, err := parseID(transactionID)
	if err != nil {
		return nil, err
	}

	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, storeErr(err, "transaction "+transactionID)
	}
	if t.PaymentStatus == domain.PaymentCompleted {
		return nil, invalid("transaction %s is already unlocked", transactionID)
	}

	order, err := s.gateway.CreateOrder(ctx, s.fee, s.currency, id.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	if err := s.store.AttachOrder(ctx, id, order.ID); err != nil {
		if errors.Is(err, store.ErrCompleted) {
			return nil, invalid("transaction %s is already unlocked", transactionID)
		}
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: order %s is already attached to another transaction", ErrGateway, order.ID)
		}
		return nil, storeErr(err, "transaction "+transactionID)
	}

	return &domain.PaymentOrder{
		OrderID:       order.ID,
		TransactionID: id,
		Amount:        s.fee,
		Currency:      s.currency,
		KeyID:         s.gateway.KeyID(),
	}, nil
}

// Verify checks the checkout signature and marks the transaction COMPLETED.
// The order must be the one raised for this transaction by CreateOrder, so a
// signed payment cannot unlock any other record. A repeat verification of an
// already completed transaction succeeds without touching the record. The
// returned flag reports whether this call completed it.
func (s *PaymentService) Verify(ctx context.Context, v domain.PaymentVerification) (bool, error) {
	if v.OrderID == "" || v.PaymentID == "" || v.Signature == "" {
		return false, invalid("orderId, paymentId and signature are required")
	}
	id, err := parseID(v.TransactionID)
	if err != nil {
		return false, err
	}

	if !payment.VerifySignature(s.secret, v.OrderID, v.PaymentID, v.Signature) {
		verificationsTotal.WithLabelValues("bad_signature").Inc()
		return false, fmt.Errorf("%w: payment signature mismatch", ErrAuthentication)
	}

	changed, err := s.store.CompletePayment(ctx, id, v.OrderID, v.PaymentID)
	if err != nil {
		if errors.Is(err, store.ErrOrderMismatch) {
			verificationsTotal.WithLabelValues("order_mismatch").Inc()
			return false, fmt.Errorf("%w: order %s does not belong to transaction", ErrAuthentication, v.OrderID)
		}
		verificationsTotal.WithLabelValues("error").Inc()
		return false, storeErr(err, "transaction "+v.TransactionID)
	}

	if changed {
		verificationsTotal.WithLabelValues("completed").Inc()
	} else {
		verificationsTotal.WithLabelValues("replayed").Inc()
	}
	return changed, nil
}
