package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Provider labels
const (
	ProviderCompletion = "completion"
	ProviderSpeech     = "speech"
)

func init() {
	register(
		upstreamCalls,
		upstreamLatency,
		upstreamRetries,
		completionFallbacks,
		completionTokens,
	)
}

var (
	upstreamCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patient_upstream_calls_total",
			Help: "Outbound provider calls by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	upstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "patient_upstream_latency_seconds",
			Help:    "Outbound provider call latency, retries included.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"provider"},
	)

	upstreamRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patient_upstream_retries_total",
			Help: "Retries issued after transient provider failures.",
		},
		[]string{"provider"},
	)

	completionFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patient_completion_fallbacks_total",
			Help: "Canned replies returned instead of a model reply.",
		},
		[]string{"kind"},
	)

	completionTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patient_completion_tokens_total",
			Help: "Tokens reported by the completion provider, by call kind and token type.",
		},
		[]string{"kind", "type"},
	)
)

// ObserveUpstream records one provider call
func ObserveUpstream(provider string, started time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	upstreamCalls.WithLabelValues(provider, outcome).Inc()
	upstreamLatency.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}

// IncUpstreamRetry counts one retry against provider
func IncUpstreamRetry(provider string) {
	upstreamRetries.WithLabelValues(provider).Inc()
}

// IncCompletionFallback counts a canned reply of the given kind (chat, palpation, label)
func IncCompletionFallback(kind string) {
	completionFallbacks.WithLabelValues(kind).Inc()
}

// ObserveTokens adds the usage reported for one completion call of the given kind
func ObserveTokens(kind string, prompt, completion int) {
	addTokens(kind, "prompt", prompt)
	addTokens(kind, "completion", completion)
}

func addTokens(kind, tokenType string, n int) {
	if n > 0 {
		completionTokens.WithLabelValues(kind, tokenType).Add(float64(n))
	}
}
