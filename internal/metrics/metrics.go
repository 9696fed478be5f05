// Package metrics defines and registers all custom Prometheus metrics for the
// FitStride client core. It is the single source of truth for metric names,
// labels, and help strings; metrics register with the default registry at
// package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fitstride"

// GatewayRequestsTotal counts requests issued to the remote data gateway.
// Labels:
//   - operation: gateway operation name (e.g. "sign_in", "list_public_workouts")
//   - result: "ok" or "error"
var GatewayRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Total number of remote data gateway requests, by operation and result.",
	},
	[]string{"operation", "result"},
)

// GatewayRequestDuration measures end-to-end latency of gateway requests.
// Label:
//   - operation: gateway operation name
var GatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of remote data gateway requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// SessionEventsTotal counts session-change feed events applied by the store.
// Label:
//   - event: "signed_in", "token_refreshed", or "signed_out"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session-change events applied to the session store.",
	},
	[]string{"event"},
)

// ScreenFetchesTotal counts screen-level fetch cycles.
// Labels:
//   - screen: controller name (e.g. "home", "search", "profile")
//   - trigger: "focus" or "refresh"
//   - result: "ok", "error", or "discarded" (superseded/unmounted)
var ScreenFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "screen_fetches_total",
		Help:      "Total number of screen fetch cycles, by screen, trigger, and result.",
	},
	[]string{"screen", "trigger", "result"},
)

// LikeTogglesTotal counts like toggles issued by the workout façade.
// Label:
//   - result: "liked", "unliked", "conflict", or "error"
var LikeTogglesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "like_toggles_total",
		Help:      "Total number of workout like toggles, by outcome.",
	},
	[]string{"result"},
)
