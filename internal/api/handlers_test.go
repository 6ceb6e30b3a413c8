package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/punchamoorthee/cardfees/internal/domain"
	"github.com/punchamoorthee/cardfees/internal/payment"
	"github.com/punchamoorthee/cardfees/internal/service"
	mock_service "github.com/punchamoorthee/cardfees/internal/service/mocks"
	"github.com/punchamoorthee/cardfees/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testPaymentSecret = "gateway-secret"
	testJWTSecret     = "jwt-secret"
)

type testServer struct {
	router  http.Handler
	txs     *mock_service.MockTransactionStore
	users   *mock_service.MockUserStore
	gateway *mock_service.MockOrderGateway
	mail    *mock_service.MockMailer
	auth    *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	ctrl := gomock.NewController(t)
	ts := &testServer{
		txs:     mock_service.NewMockTransactionStore(ctrl),
		users:   mock_service.NewMockUserStore(ctrl),
		gateway: mock_service.NewMockOrderGateway(ctrl),
		mail:    mock_service.NewMockMailer(ctrl),
	}
	ts.auth = service.NewAuthService(ts.users, ts.mail, service.AuthConfig{
		JWTSecret:  testJWTSecret,
		BaseURL:    "http://localhost:8080",
		BcryptCost: bcrypt.MinCost,
	})
	h := NewHandler(
		service.NewCalculationService(ts.txs),
		service.NewPaymentService(ts.txs, ts.gateway, testPaymentSecret, 4900, "INR"),
		ts.auth,
	)
	ts.router = NewRouter(h, 5*time.Second)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string, header ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		dec := json.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
		dec.UseNumber()
		require.NoError(t, dec.Decode(&out), rec.Body.String())
	}
	return rec, out
}

func storedTransaction(status domain.PaymentStatus) *domain.Transaction {
	return &domain.Transaction{
		ID:   uuid.New(),
		Bank: domain.BankHDFC,
		Entries: []domain.Entry{{
			Amount:          decimal.NewFromInt(2000),
			TransactionDate: domain.NewDate(2024, 1, 1),
			Days:            32,
			Interest:        decimal.RequireFromString("78.90"),
		}},
		DueDate:            domain.NewDate(2024, 1, 15),
		PaymentDate:        domain.NewDate(2024, 2, 1),
		OutstandingAmount:  decimal.NewFromInt(5000),
		MinimumDueAmount:   decimal.NewFromInt(250),
		CalculatedInterest: decimal.RequireFromString("78.90"),
		LateFee:            decimal.NewFromInt(500),
		TotalAmount:        decimal.RequireFromString("578.90"),
		PaymentStatus:      status,
		GatewayOrderID:     "order_1",
	}
}

const calculationBody = `{
	"bank": "HDFC",
	"outstandingAmount": 5000,
	"minimumDueAmount": "250",
	"minimumDuePaid": false,
	"dueDate": "2024-01-15",
	"paymentDate": "2024-02-01",
	"transactions": [{"amount": 2000, "date": "2024-01-01"}]
}`

func TestCreateCalculationHandler(t *testing.T) {
	ts := newTestServer(t)
	ts.txs.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)

	rec, body := ts.do(t, http.MethodPost, "/api/v1/calculations", calculationBody)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Location"), "/api/v1/calculations/")
	assert.Equal(t, json.Number("78.90"), body["interest"])
	assert.Equal(t, json.Number("500.00"), body["lateFee"])
	assert.Equal(t, json.Number("578.90"), body["totalAmount"])
	assert.Equal(t, "PENDING", body["paymentStatus"])
	assert.Equal(t, false, body["breakdownUnlocked"])

	entries := body["entries"].([]interface{})
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, json.Number("2000.00"), entry["amount"])
	assert.Equal(t, "2024-01-01", entry["date"])
	assert.NotContains(t, entry, "days")
	assert.NotContains(t, entry, "interest")
}

func TestCreateCalculationHandlerErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantKind string
	}{
		{"malformed json", `{"bank":`, http.StatusBadRequest, "validation"},
		{"malformed date", strings.Replace(calculationBody, "2024-01-15", "15/01/2024", 1), http.StatusBadRequest, "validation"},
		{"unsupported bank", strings.Replace(calculationBody, "HDFC", "Chase", 1), http.StatusUnprocessableEntity, "validation"},
		{"entries exceed outstanding", strings.Replace(calculationBody, `"outstandingAmount": 5000`, `"outstandingAmount": 1000`, 1), http.StatusUnprocessableEntity, "validation"},
		{"outstanding below a paisa", strings.Replace(calculationBody, `"outstandingAmount": 5000`, `"outstandingAmount": 5000.004`, 1), http.StatusUnprocessableEntity, "validation"},
		{"outstanding too large to store", strings.Replace(calculationBody, `"outstandingAmount": 5000`, `"outstandingAmount": 1000000000000`, 1), http.StatusUnprocessableEntity, "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec, body := ts.do(t, http.MethodPost, "/api/v1/calculations", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantKind, body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCreateCalculationHandlerStorageDown(t *testing.T) {
	ts := newTestServer(t)
	ts.txs.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(assert.AnError)

	rec, body := ts.do(t, http.MethodPost, "/api/v1/calculations", calculationBody)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "storage unavailable", body["error"])
}

func TestGetCalculationHandler(t *testing.T) {
	t.Run("pending hides breakdown", func(t *testing.T) {
		ts := newTestServer(t)
		tx := storedTransaction(domain.PaymentPending)
		ts.txs.EXPECT().GetTransaction(gomock.Any(), tx.ID).Return(tx, nil)

		rec, body := ts.do(t, http.MethodGet, "/api/v1/calculations/"+tx.ID.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, json.Number("578.90"), body["totalAmount"])
		assert.Equal(t, false, body["breakdownUnlocked"])
		entry := body["entries"].([]interface{})[0].(map[string]interface{})
		assert.NotContains(t, entry, "days")
	})

	t.Run("completed shows breakdown", func(t *testing.T) {
		ts := newTestServer(t)
		tx := storedTransaction(domain.PaymentCompleted)
		ts.txs.EXPECT().GetTransaction(gomock.Any(), tx.ID).Return(tx, nil)

		rec, body := ts.do(t, http.MethodGet, "/api/v1/calculations/"+tx.ID.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["breakdownUnlocked"])
		entry := body["entries"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, json.Number("32"), entry["days"])
		assert.Equal(t, json.Number("78.90"), entry["interest"])
	})

	t.Run("unknown id", func(t *testing.T) {
		ts := newTestServer(t)
		id := uuid.New()
		ts.txs.EXPECT().GetTransaction(gomock.Any(), id).Return(nil, store.ErrNotFound)

		rec, body := ts.do(t, http.MethodGet, "/api/v1/calculations/"+id.String(), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", body["kind"])
	})

	t.Run("malformed id", func(t *testing.T) {
		ts := newTestServer(t)
		rec, _ := ts.do(t, http.MethodGet, "/api/v1/calculations/abc", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestVerifyPaymentHandler(t *testing.T) {
	tx := storedTransaction(domain.PaymentPending)
	sig := payment.Sign(testPaymentSecret, "order_1", "pay_1")
	body := func(signature string) string {
		b, _ := json.Marshal(domain.PaymentVerification{
			OrderID:       "order_1",
			PaymentID:     "pay_1",
			Signature:     signature,
			TransactionID: tx.ID.String(),
		})
		return string(b)
	}

	t.Run("valid signature", func(t *testing.T) {
		ts := newTestServer(t)
		ts.txs.EXPECT().CompletePayment(gomock.Any(), tx.ID, "order_1", "pay_1").Return(true, nil)

		rec, out := ts.do(t, http.MethodPost, "/api/v1/payments/verify", body(sig))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "COMPLETED", out["status"])
		assert.Equal(t, tx.ID.String(), out["transactionId"])
	})

	t.Run("replay", func(t *testing.T) {
		ts := newTestServer(t)
		ts.txs.EXPECT().CompletePayment(gomock.Any(), tx.ID, "order_1", "pay_1").Return(false, nil)

		rec, out := ts.do(t, http.MethodPost, "/api/v1/payments/verify", body(sig))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "COMPLETED", out["status"])
	})

	t.Run("bad signature never reaches the store", func(t *testing.T) {
		ts := newTestServer(t)

		rec, out := ts.do(t, http.MethodPost, "/api/v1/payments/verify", body(strings.Repeat("0", 64)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "authentication", out["kind"])
		assert.NotContains(t, rec.Body.String(), sig)
	})
}

func TestCreateOrderHandler(t *testing.T) {
	ts := newTestServer(t)
	tx := storedTransaction(domain.PaymentPending)
	tx.GatewayOrderID = ""
	ts.txs.EXPECT().GetTransaction(gomock.Any(), tx.ID).Return(tx, nil)
	ts.gateway.EXPECT().CreateOrder(gomock.Any(), int64(4900), "INR", tx.ID.String()).
		Return(&payment.Order{ID: "order_9"}, nil)
	ts.txs.EXPECT().AttachOrder(gomock.Any(), tx.ID, "order_9").Return(nil)
	ts.gateway.EXPECT().KeyID().Return("rzp_test")

	rec, out := ts.do(t, http.MethodPost, "/api/v1/payments/orders", `{"transactionId":"`+tx.ID.String()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "order_9", out["orderId"])
	assert.Equal(t, json.Number("4900"), out["amount"])
	assert.Equal(t, "INR", out["currency"])
	assert.Equal(t, "rzp_test", out["keyId"])
}

func TestListBanksHandler(t *testing.T) {
	ts := newTestServer(t)
	rec, out := ts.do(t, http.MethodGet, "/api/v1/banks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["banks"], len(domain.Banks))
}

func TestUploadStatementHandler(t *testing.T) {
	upload := func(filename string, content []byte) *http.Request {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for k, v := range map[string]string{
			"bank":              "SBI",
			"outstandingAmount": "5000",
			"minimumDueAmount":  "250",
			"dueDate":           "2024-01-15",
			"paymentDate":       "2024-02-01",
		} {
			require.NoError(t, mw.WriteField(k, v))
		}
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/calculations/statement", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req
	}

	tests := []struct {
		name     string
		req      func() *http.Request
		wantCode int
	}{
		{"not a pdf file name", func() *http.Request { return upload("statement.csv", []byte("a,b")) }, http.StatusUnprocessableEntity},
		{"unreadable pdf", func() *http.Request { return upload("statement.pdf", []byte("plain text")) }, http.StatusUnprocessableEntity},
		{"no file", func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/calculations/statement", strings.NewReader("bank=SBI"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return req
		}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := httptest.NewRecorder()
			ts.router.ServeHTTP(rec, tt.req())
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestMeHandler(t *testing.T) {
	u := &domain.User{
		ID:            uuid.New(),
		Name:          "Asha",
		Email:         "asha@example.com",
		EmailVerified: true,
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	u.PasswordHash = string(hash)

	ts := newTestServer(t)
	ts.users.EXPECT().GetUserByEmail(gomock.Any(), u.Email).Return(u, nil)
	token, _, err := ts.auth.Login(context.Background(), u.Email, "correct-horse")
	require.NoError(t, err)

	rec, _ := ts.do(t, http.MethodGet, "/api/v1/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/auth/me", "", "Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts.users.EXPECT().GetUserByID(gomock.Any(), u.ID).Return(u, nil)
	rec, out := ts.do(t, http.MethodGet, "/api/v1/auth/me", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.Email, out["email"])
	assert.NotContains(t, out, "passwordHash")
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name     string
		user     *domain.User
		lookup   error
		wantCode int
	}{
		{"unknown account", nil, store.ErrNotFound, http.StatusUnauthorized},
		{"unverified account", &domain.User{ID: uuid.New(), Email: "a@example.com"}, nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			if tt.user != nil {
				hash, err := bcrypt.GenerateFromPassword([]byte("longenough"), bcrypt.MinCost)
				require.NoError(t, err)
				tt.user.PasswordHash = string(hash)
			}
			ts.users.EXPECT().GetUserByEmail(gomock.Any(), "a@example.com").Return(tt.user, tt.lookup)

			rec, _ := ts.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"a@example.com","password":"longenough"}`)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestRegisterHandlerDuplicate(t *testing.T) {
	ts := newTestServer(t)
	ts.users.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(store.ErrDuplicate)

	rec, out := ts.do(t, http.MethodPost, "/api/v1/auth/register", `{"name":"A","email":"a@example.com","password":"longenough"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", out["kind"])
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec, out := ts.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	ts.router.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusOK, mrec.Code)
	assert.Contains(t, mrec.Body.String(), "cardfees_http_requests_total")
}
