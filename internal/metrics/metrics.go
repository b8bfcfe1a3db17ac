// Package metrics defines the service's Prometheus collectors. HTTP request
// metrics come from the echoprometheus middleware wired in the router; the
// collectors here cover authentication and user lifecycle events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "usermanager"

// Login results.
const (
	ResultSuccess       = "success"
	ResultUserNotFound  = "user_not_found"
	ResultBadPassword   = "bad_password"
	ResultInvalidToken  = "invalid_token"
	ResultInternalError = "error"
)

// LoginAttemptsTotal counts authentication attempts.
// Labels:
//   - method: "password" or "token"
//   - result: one of the Result* constants
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts by method and result.",
	},
	[]string{"method", "result"},
)

// UserOperationsTotal counts user management operations.
// Labels:
//   - operation: create, update, update_password, remove
//   - result: "success" or "error"
var UserOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_operations_total",
		Help:      "Total number of user management operations by result.",
	},
	[]string{"operation", "result"},
)

// PolicyDenialsTotal counts requests blocked by a policy handler.
var PolicyDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_denials_total",
		Help:      "Total number of requests denied by the authorization policy.",
	},
	[]string{"operation"},
)

// ObserveUserOperation records the outcome of a user management operation.
func ObserveUserOperation(operation string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultInternalError
	}
	UserOperationsTotal.WithLabelValues(operation, result).Inc()
}
