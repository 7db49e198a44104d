// Package metrics defines and registers the custom Prometheus metrics of the
// auth service. Metrics are registered with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// ── RPC metrics ───────────────────────────────────────────────────────────────

// RPCRequestsTotal counts handled commands.
// Labels:
//   - command: the command name (e.g. "login-user")
//   - transport: "redis" or "http"
//   - code: "ok" on success, otherwise the error code (e.g. "invalid-credentials")
var RPCRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "Total number of RPC commands handled, by outcome code.",
	},
	[]string{"command", "transport", "code"},
)

// RPCRequestDuration measures handler latency per command.
var RPCRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_request_duration_seconds",
		Help:      "Duration of RPC command handling.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"command"},
)

// RPCInflightRequests tracks commands currently being handled.
var RPCInflightRequests = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rpc_inflight_requests",
		Help:      "Number of RPC commands currently being handled.",
	},
)

// RPCClaimsTotal counts request claim decisions on the Redis transport.
// Label:
//   - result: "won", "lost" (handled by another replica) or "error"
var RPCClaimsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_claims_total",
		Help:      "Total number of request claim attempts, by result.",
	},
	[]string{"result"},
)
