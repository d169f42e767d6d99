// Package metrics defines and registers the custom Prometheus metrics of the
// workboard API. It is the single source of truth for metric names, labels
// and help strings.
//
// All collectors are created with promauto against the default registry, so
// importing the package is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "workboard"

// ── Authentication ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - outcome: "success", "invalid_credentials", "throttled" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// RequestAuthTotal counts the result of the per-request authenticator.
// Label:
//   - result: "authenticated", "anonymous", "rejected" (bad token or unknown
//     principal, demoted to anonymous) or "error"
var RequestAuthTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_authentications_total",
		Help:      "Total number of requests seen by the authenticator, by result.",
	},
	[]string{"result"},
)

// ── Authorization ────────────────────────────────────────────────────────────

// AccessDeniedTotal counts requests rejected by an access gate.
// Label:
//   - gate: "route" for the static role gate, "resource" for ownership checks
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of requests denied by an access gate.",
	},
	[]string{"gate"},
)

// ── Budget ───────────────────────────────────────────────────────────────────

// BudgetRejectionsTotal counts task creations refused because the project
// budget would be exceeded.
var BudgetRejectionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "budget_rejections_total",
		Help:      "Total number of task creations rejected by the project budget.",
	},
)

// ── Audit ────────────────────────────────────────────────────────────────────

// AuditEventsDroppedTotal counts audit events discarded because their
// dispatcher shard was full or already closed.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit events dropped before reaching storage.",
	},
)
