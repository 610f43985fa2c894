package activation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricAttemptsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "premium_activation_attempts_started_total",
		Help: "Number of payment attempts started.",
	})
	metricVerificationPolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "premium_activation_verification_polls_total",
		Help: "Number of verification polls issued.",
	})
	metricOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "premium_activation_outcomes_total",
		Help: "Payment attempt outcomes by result.",
	}, []string{"result"})
)
