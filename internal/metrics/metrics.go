// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "solarboard"

var (
	documentLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "document_loads_total",
		Help:      "Dashboard document loads by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	rangeUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "range_updates_total",
		Help:      "Panel range updates by outcome",
	}, []string{"outcome"}) // outcome=success|invalid|not_found|failure

	documentChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "document_changes_total",
		Help:      "Dashboard document changes published to subscribers",
	}, []string{"source"}) // source=api|file

	subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "event_subscribers",
		Help:      "Currently connected change-event subscribers",
	})

	// HTTP
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latencies in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "Current number of HTTP requests being served",
	})
)

// Outcome labels for range updates.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
)

// RecordDocumentLoad counts a document load.
func RecordDocumentLoad(ok bool) {
	if ok {
		documentLoads.WithLabelValues(OutcomeSuccess).Inc()
		return
	}
	documentLoads.WithLabelValues(OutcomeFailure).Inc()
}

// RecordRangeUpdate counts a range update with the given outcome label.
func RecordRangeUpdate(outcome string) {
	rangeUpdates.WithLabelValues(outcome).Inc()
}

// RecordDocumentChange counts a published change event.
func RecordDocumentChange(source string) {
	documentChanges.WithLabelValues(source).Inc()
}

// SubscriberAdded counts a new change-event subscriber.
func SubscriberAdded() { subscribers.Inc() }

// SubscriberRemoved counts a subscriber going away.
func SubscriberRemoved() { subscribers.Dec() }

// ObserveHTTPRequest records one finished request.
func ObserveHTTPRequest(method, path, status string, seconds float64) {
	httpRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}

// HTTPRequestStarted marks a request in flight.
func HTTPRequestStarted() { httpRequestsInFlight.Inc() }

// HTTPRequestFinished marks an in-flight request as done.
func HTTPRequestFinished() { httpRequestsInFlight.Dec() }
