// Package metrics defines the custom Prometheus metrics of the support
// marketplace API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "support"

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// RequestsCreatedTotal counts newly created service requests.
// Label:
//   - domain: "repair" or "academic"
var RequestsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_created_total",
		Help:      "Total number of service requests created, by domain.",
	},
	[]string{"domain"},
)

// RequestTransitionsTotal counts successful lifecycle transitions.
// Labels:
//   - domain: "repair" or "academic"
//   - status: the status the request moved to (e.g. "assigned")
var RequestTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_transitions_total",
		Help:      "Total number of service request status transitions.",
	},
	[]string{"domain", "status"},
)

// ReviewsSubmittedTotal counts accepted reviews.
// Label:
//   - service_type: "repair" or "academic"
var ReviewsSubmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reviews_submitted_total",
		Help:      "Total number of reviews submitted, by service type.",
	},
	[]string{"service_type"},
)

// ── Chat metrics ──────────────────────────────────────────────────────────────

// ChatMessagesTotal counts frames relayed to subscribers.
// Label:
//   - kind: "message" or "typing"
var ChatMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_messages_total",
		Help:      "Total number of chat frames relayed, by kind.",
	},
	[]string{"kind"},
)

// ChatRelayErrorsTotal counts frames the relay dropped.
// Label:
//   - reason: "persist_failed", "publish_failed", "unknown_type" or "queue_full"
var ChatRelayErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_relay_errors_total",
		Help:      "Total number of chat frames dropped by the relay.",
	},
	[]string{"reason"},
)

// ChatQueueDepth tracks the number of frames waiting in each relay worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ChatQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "chat_queue_depth",
		Help:      "Current number of chat frames pending in each relay worker channel.",
	},
	[]string{"worker_id"},
)
