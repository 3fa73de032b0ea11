package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "jobbridge", Name: "bot_events_total", Help: "Inbound conversation events by step and outcome."},
		[]string{"step", "outcome"},
	)
	Finalizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "jobbridge", Name: "bot_finalizations_total", Help: "Registration finalization attempts by outcome."},
		[]string{"outcome"},
	)
	DocumentsStaged = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "jobbridge", Name: "bot_documents_staged_total", Help: "Documents downloaded and staged into session payloads."},
	)
	SessionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "jobbridge", Name: "bot_sessions_expired_total", Help: "Sessions removed by the retention sweep."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "jobbridge", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "jobbridge", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(EventsProcessed)
	reg.MustRegister(Finalizations)
	reg.MustRegister(DocumentsStaged)
	reg.MustRegister(SessionsExpired)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
