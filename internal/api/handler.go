package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/punchamoorthee/cardfees/internal/service"
)

type Handler struct {
	calculations *service.CalculationService
	payments     *service.PaymentService
	auth         *service.AuthService
}

func NewHandler(calc *service.CalculationService, pay *service.PaymentService, auth *service.AuthService) *Handler {
	return &Handler{calculations: calc, payments: pay, auth: auth}
}

// statusFor maps a service error kind onto an HTTP status.
func statusFor(err error) int {
	switch service.Kind(err) {
	case "validation":
		return http.StatusUnprocessableEntity
	case "not_found":
		return http.StatusNotFound
	case "authentication":
		return http.StatusUnauthorized
	case "email_not_verified":
		return http.StatusForbidden
	case "conflict":
		return http.StatusConflict
	case "gateway":
		return http.StatusBadGateway
	case "storage":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes err with its mapped status. Infrastructure
// failures are logged and answered with a generic message.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	kind := service.Kind(err)
	msg := err.Error()
	switch kind {
	case "storage":
		msg = service.ErrStorage.Error()
	case "gateway":
		msg = service.ErrGateway.Error()
	case "internal":
		msg = "Internal Server Error"
	}
	if code >= http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	respondWithJSON(w, code, errorBody{Error: msg, Kind: kind})
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, kind, message string) {
	respondWithJSON(w, code, errorBody{Error: message, Kind: kind})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
