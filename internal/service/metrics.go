package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	calculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cardfees_calculations_total",
		Help: "Calculations persisted, labeled by bank and whether the payment was late",
	}, []string{"bank", "late"})

	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cardfees_payment_verifications_total",
		Help: "Payment verification attempts, labeled by outcome",
	}, []string{"outcome"})

	signupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cardfees_signups_total",
		Help: "Accounts registered",
	})
)
