package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cardfees_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cardfees_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "endpoint"})
)

// NewRouter wires every route. Each request runs under requestTimeout.
func NewRouter(h *Handler, requestTimeout time.Duration) *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument, withTimeout(requestTimeout))

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", h.HealthCheckHandler).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/banks", h.ListBanksHandler).Methods("GET")
	v1.HandleFunc("/calculations", h.CreateCalculationHandler).Methods("POST")
	v1.HandleFunc("/calculations/statement", h.UploadStatementHandler).Methods("POST")
	v1.HandleFunc("/calculations/{id}", h.GetCalculationHandler).Methods("GET")
	v1.HandleFunc("/payments/orders", h.CreateOrderHandler).Methods("POST")
	v1.HandleFunc("/payments/verify", h.VerifyPaymentHandler).Methods("POST")

	auth := v1.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", h.RegisterHandler).Methods("POST")
	auth.HandleFunc("/verify", h.VerifyEmailHandler).Methods("GET")
	auth.HandleFunc("/login", h.LoginHandler).Methods("POST")
	auth.HandleFunc("/forgot-password", h.ForgotPasswordHandler).Methods("POST")
	auth.HandleFunc("/reset-password", h.ResetPasswordHandler).Methods("POST")
	auth.Handle("/me", h.requireAuth(http.HandlerFunc(h.MeHandler))).Methods("GET")

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument logs each request and records its status and latency under the
// route template, so ids in the path do not explode label cardinality.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(elapsed.Seconds())
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, elapsed)
	})
}

func withTimeout(d time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
