// Package metrics defines and registers all custom Prometheus metrics for the
// RoomzIO API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics register with the default Prometheus registry on package init, so
// importing the package is enough; /metrics serves them alongside the echo
// request metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "roomzio"

// ── Authentication metrics ───────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts by result.
// Label:
//   - result: "success", "invalid_credentials", "throttled", "invalid_request" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration attempts.
// Labels:
//   - role: requested role ("admin", "manager", "staff" or "invalid")
//   - result: "success", "conflict", "forbidden", "invalid_request" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by role and result.",
	},
	[]string{"role", "result"},
)

// SessionRejectionsTotal counts requests rejected at session resolution.
// Label:
//   - reason: "missing_cookie", "unknown_token" or "store_error"
var SessionRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_rejections_total",
		Help:      "Total number of requests whose session could not be resolved.",
	},
	[]string{"reason"},
)

// ── Authorization metrics ────────────────────────────────────────────────────

// AuthorizationDenialsTotal counts requests denied by an authorization guard.
// Label:
//   - guard: "role", "any_role" or "owner"
var AuthorizationDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denials_total",
		Help:      "Total number of requests denied by an authorization guard.",
	},
	[]string{"guard"},
)

// ── Audit trail metrics ──────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by what happened to them.
// Label:
//   - result: "written", "dropped" or "failed"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events, by delivery result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditWriteDuration measures how long persisting one audit event takes.
var AuditWriteDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_write_duration_seconds",
		Help:      "Duration of a single audit trail write.",
		Buckets:   prometheus.DefBuckets,
	},
)
