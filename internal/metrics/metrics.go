package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Registrations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackhub_registrations_total", Help: "Total successful registrations"},
	)
	RegistrationsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hackhub_registrations_rejected_total", Help: "Registrations rejected, by error kind"},
		[]string{"kind"},
	)
	PaymentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hackhub_payment_transitions_total", Help: "Payment state transitions, by target state"},
		[]string{"to"},
	)
	CounterRepairs = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackhub_counter_recomputes_total", Help: "Idempotent participant counter recomputations"},
	)
	ReviewFlags = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackhub_team_review_flags_total", Help: "Teams flagged for coordinator review"},
	)
)

func Register() {
	prometheus.MustRegister(Registrations, RegistrationsRejected, PaymentTransitions, CounterRepairs, ReviewFlags)
}
