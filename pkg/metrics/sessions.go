package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sessionsCreated,
		sessionsExpired,
		sessionsDropped,
		chatRequests,
	)
}

var (
	sessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "patient_sessions_created_total",
			Help: "Sessions created.",
		},
	)

	sessionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "patient_sessions_expired_total",
			Help: "Sessions removed after reaching the interaction ceiling.",
		},
	)

	sessionsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patient_sessions_dropped_total",
			Help: "Sessions discarded by a store on read, by reason (idle, unreadable).",
		},
		[]string{"reason"},
	)

	chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patient_chat_requests_total",
			Help: "Handled doctor requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)
)

// SessionCreated records a new session
func SessionCreated() {
	sessionsCreated.Inc()
}

// SessionExpired records a session removed at its ceiling
func SessionExpired() {
	sessionsExpired.Inc()
}

// Drop reasons
const (
	DropIdle       = "idle"
	DropUnreadable = "unreadable"
)

// SessionDropped records a session a store discarded when it was read back
func SessionDropped(reason string) {
	sessionsDropped.WithLabelValues(reason).Inc()
}

// ObserveRequest records the outcome of one HTTP request (ok, bad_request, error)
func ObserveRequest(endpoint, outcome string) {
	chatRequests.WithLabelValues(endpoint, outcome).Inc()
}
