// Package observability owns the prometheus collectors for the signup service.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Origin labels for activity source loads.
const (
	OriginRemote   = "remote"
	OriginFallback = "fallback"
)

// Outcome labels for signup attempts.
const (
	OutcomeAdded             = "added"
	OutcomeAlreadyRegistered = "already_registered"
	OutcomeInvalid           = "invalid"
	OutcomeNotFound          = "not_found"
)

var (
	signupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mergington",
		Subsystem: "roster",
		Name:      "signups_total",
		Help:      "Signup attempts by outcome.",
	}, []string{"outcome"})
	sourceLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mergington",
		Subsystem: "source",
		Name:      "loads_total",
		Help:      "Activity source resolutions by origin.",
	}, []string{"origin"})
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mergington",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "status"})
	queryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mergington",
		Subsystem: "journal",
		Name:      "query_duration_seconds",
		Help:      "Signup journal query latency by operation.",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(signupsTotal, sourceLoadsTotal, requestDuration, queryDuration)
}

// RecordSignup counts one signup attempt.
func RecordSignup(outcome string) {
	signupsTotal.WithLabelValues(outcome).Inc()
}

// RecordSourceLoad counts one activity source resolution.
func RecordSourceLoad(origin string) {
	sourceLoadsTotal.WithLabelValues(origin).Inc()
}

// ObserveRequest records one HTTP request.
func ObserveRequest(method string, status int, d time.Duration) {
	requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveQuery records one journal query.
func ObserveQuery(op string, d time.Duration) {
	queryDuration.WithLabelValues(op).Observe(d.Seconds())
}
