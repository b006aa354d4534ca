// Package metrics defines and registers the custom Prometheus metrics of the
// CMS API. It is the single source of truth for metric names, labels and help
// strings.
//
// Metrics are registered with the default registry through promauto when the
// package is imported; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cms"

// ── Access guard ──────────────────────────────────────────────────────────────

// AuthFailuresTotal counts requests rejected by the guard chain.
// Labels:
//   - stage: "authenticate" or "authorize"
//   - reason: short failure reason (e.g. "missing_header", "invalid_token", "role")
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected by authentication or authorization.",
	},
	[]string{"stage", "reason"},
)

// LoginsTotal counts login attempts by result ("success", "invalid_credentials", "rate_limited").
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Content ───────────────────────────────────────────────────────────────────

// ContentMutationsTotal counts committed content mutations.
// Label:
//   - op: "create", "update" or "delete"
var ContentMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_mutations_total",
		Help:      "Total number of committed content mutations, by operation.",
	},
	[]string{"op"},
)

// AssetCleanupErrorsTotal counts storage objects that could not be deleted
// while removing a content document.
var AssetCleanupErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "asset_cleanup_errors_total",
		Help:      "Total number of storage deletions that failed during content removal.",
	},
)

// UploadsTotal counts files relayed to object storage.
// Label:
//   - type: resulting block type, "image" or "video"
var UploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Total number of files uploaded to object storage, by block type.",
	},
	[]string{"type"},
)

// ── Realtime ──────────────────────────────────────────────────────────────────

// RealtimeConnections tracks the number of open websocket connections.
var RealtimeConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_connections",
		Help:      "Current number of open realtime connections.",
	},
)

// RealtimeMessagesTotal counts messages queued to connections.
// Label:
//   - event: "contentUpdated", "contentDeleted" or "contentListUpdated"
var RealtimeMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_messages_total",
		Help:      "Total number of realtime messages queued to connections, by event.",
	},
	[]string{"event"},
)

// RealtimeDroppedTotal counts messages dropped because a connection or the
// dispatcher queue was full.
// Label:
//   - stage: "connection" or "dispatch"
var RealtimeDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_dropped_total",
		Help:      "Total number of realtime messages dropped, by stage.",
	},
	[]string{"stage"},
)

// NotificationQueueDepth tracks the number of content events waiting in each
// dispatcher worker channel.
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of content events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
