// Package metrics holds the Prometheus series exported at /metrics.
package metrics

import (
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LeaveRequestsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leave_requests_created_total",
		Help: "Leave requests persisted in Pending state.",
	})

	WorkflowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_workflow_transitions_total",
		Help: "Status transitions applied to leave and approval requests.",
	}, []string{"entity", "status"})

	WorkflowErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_workflow_errors_total",
		Help: "Failed workflow operations by error kind.",
	}, []string{"operation", "kind"})

	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_access_decisions_total",
		Help: "Access policy decisions by action and result.",
	}, []string{"action", "result"})

	OutboxDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_outbox_dispatched_total",
		Help: "Outbox events handled by the dispatcher by result.",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveError counts a failed operation under its error kind.
func ObserveError(operation string, err error) {
	if err == nil {
		return
	}
	WorkflowErrors.WithLabelValues(operation, string(apperror.KindOf(err))).Inc()
}
