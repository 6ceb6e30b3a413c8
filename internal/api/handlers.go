package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/punchamoorthee/cardfees/internal/domain"
	"github.com/shopspring/decimal"
)

const maxStatementSize = 10 << 20

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListBanksHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string][]domain.Bank{"banks": domain.Banks})
}

func (h *Handler) CreateCalculationHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CalculationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "validation", "Malformed JSON body")
		return
	}

	t, err := h.calculations.Calculate(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/calculations/%s", t.ID))
	respondWithJSON(w, http.StatusCreated, newCalculationView(t))
}

func (h *Handler) GetCalculationHandler(w http.ResponseWriter, r *http.Request) {
	t, err := h.calculations.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newCalculationView(t))
}

// UploadStatementHandler accepts a multipart form with the PDF under "file"
// and the scalar calculation fields as form values.
func (h *Handler) UploadStatementHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxStatementSize+1<<20)
	if err := r.ParseMultipartForm(maxStatementSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "validation", "Malformed multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "validation", "No file uploaded. Use form field 'file'.")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		respondWithError(w, http.StatusUnprocessableEntity, "validation", "Only PDF statements are supported")
		return
	}

	req, err := formRequest(r)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "validation", err.Error())
		return
	}

	t, err := h.calculations.CalculateStatement(r.Context(), req, file, header.Size)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/calculations/%s", t.ID))
	respondWithJSON(w, http.StatusCreated, newCalculationView(t))
}

// formRequest reads the scalar calculation fields from a parsed form. Absent
// fields stay nil so the service reports them as missing.
func formRequest(r *http.Request) (domain.CalculationRequest, error) {
	req := domain.CalculationRequest{
		Bank:           r.FormValue("bank"),
		MinimumDuePaid: strings.EqualFold(r.FormValue("minimumDuePaid"), "true"),
	}

	amounts := []struct {
		field string
		dst   **decimal.Decimal
	}{
		{"outstandingAmount", &req.OutstandingAmount},
		{"minimumDueAmount", &req.MinimumDueAmount},
	}
	for _, a := range amounts {
		raw := strings.TrimSpace(r.FormValue(a.field))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return req, fmt.Errorf("%s %q is not a number", a.field, raw)
		}
		*a.dst = &d
	}

	dates := []struct {
		field string
		dst   **domain.Date
	}{
		{"dueDate", &req.DueDate},
		{"paymentDate", &req.PaymentDate},
	}
	for _, f := range dates {
		raw := strings.TrimSpace(r.FormValue(f.field))
		if raw == "" {
			continue
		}
		d, err := domain.ParseDate(raw)
		if err != nil {
			return req, fmt.Errorf("%s: %v", f.field, err)
		}
		*f.dst = &d
	}
	return req, nil
}

type createOrderRequest struct {
	TransactionID string `json:"transactionId"`
}

func (h *Handler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "validation", "Malformed JSON body")
		return
	}

	order, err := h.payments.CreateOrder(r.Context(), req.TransactionID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, order)
}

func (h *Handler) VerifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentVerification
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "validation", "Malformed JSON body")
		return
	}

	if _, err := h.payments.Verify(r.Context(), req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":        string(domain.PaymentCompleted),
		"transactionId": req.TransactionID,
	})
}
