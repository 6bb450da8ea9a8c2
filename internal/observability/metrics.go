package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	httpRequestsTotal       *prometheus.CounterVec
	httpLatencySeconds      *prometheus.HistogramVec
	httpErrorsTotal         *prometheus.CounterVec
	submissionsCreated      prometheus.Counter
	submissionsBlocked      *prometheus.CounterVec
	decisionsTotal          *prometheus.CounterVec
	decisionEmailsTotal     *prometheus.CounterVec
	eventSubscribersCurrent prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the portal.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_submissions_created_total",
			Help: "Total number of application submissions persisted.",
		})

		submissionsBlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_submissions_blocked_total",
			Help: "Submissions aborted before persistence, by reason.",
		}, []string{"reason"})

		decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_decisions_total",
			Help: "Evaluator decisions committed, by verdict.",
		}, []string{"verdict"})

		decisionEmailsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_decision_emails_total",
			Help: "Decision notification emails, by outcome.",
		}, []string{"outcome"})

		eventSubscribersCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portal_event_subscribers",
			Help: "Currently connected submission event stream subscribers.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsCreated,
			submissionsBlocked,
			decisionsTotal,
			decisionEmailsTotal,
			eventSubscribersCurrent,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SubmissionsCreated exposes the persisted-submission counter.
func SubmissionsCreated() prometheus.Counter {
	RegisterMetrics()
	return submissionsCreated
}

// SubmissionsBlocked exposes the aborted-submission counter.
func SubmissionsBlocked() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsBlocked
}

// Decisions exposes the committed-decision counter.
func Decisions() *prometheus.CounterVec {
	RegisterMetrics()
	return decisionsTotal
}

// DecisionEmails exposes the notification-delivery counter.
func DecisionEmails() *prometheus.CounterVec {
	RegisterMetrics()
	return decisionEmailsTotal
}

// EventSubscribers exposes the live event stream subscriber gauge.
func EventSubscribers() prometheus.Gauge {
	RegisterMetrics()
	return eventSubscribersCurrent
}
