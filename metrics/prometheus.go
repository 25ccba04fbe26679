// Package metrics exposes Prometheus counters for workflow transitions,
// approval decisions and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	workflowTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeservice_workflow_transitions_total",
			Help: "Total number of workflow execution transitions",
		},
		[]string{"workflow", "transition"},
	)

	stepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homeservice_workflow_step_duration_seconds",
			Help:    "Workflow step execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"workflow", "step"},
	)

	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeservice_decisions_total",
			Help: "Total number of operator decisions by outcome and delivery path",
		},
		[]string{"decision", "path"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homeservice_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homeservice_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordTransition counts a workflow execution transition.
func RecordTransition(workflow, transition string) {
	workflowTransitions.WithLabelValues(workflow, transition).Inc()
}

// ObserveStep records a step execution duration.
func ObserveStep(workflow, step string, durationSeconds float64) {
	stepDuration.WithLabelValues(workflow, step).Observe(durationSeconds)
}

// RecordDecision counts an operator decision.
func RecordDecision(decision, path string) {
	decisionsTotal.WithLabelValues(decision, path).Inc()
}

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, durationSeconds float64) {
	status := "unknown"
	if statusCode >= 100 {
		status = strconv.Itoa(statusCode/100) + "xx"
	}
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
