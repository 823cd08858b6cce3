// Package metrics defines and registers the custom Prometheus metrics of the
// learner runtime. It is the single source of truth for metric names, labels
// and help strings. All metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "learner"

// ── Query cache ───────────────────────────────────────────────────────────────

// QueryFetchesTotal counts remote fetches started by the query cache.
// Labels:
//   - resource: first element of the query key (e.g. "course-details")
//   - result: "success", "error" or "cancelled"
var QueryFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_fetches_total",
		Help:      "Total number of remote fetches executed by the query cache.",
	},
	[]string{"resource", "result"},
)

// QueryRequestsTotal counts Fetch calls by how they were served.
// Labels:
//   - resource: first element of the query key
//   - served: "fresh" (cached, no network), "joined" (attached to an in-flight
//     request), "started" (new request), "disabled"
var QueryRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_requests_total",
		Help:      "Total number of query cache reads, labelled by how they were served.",
	},
	[]string{"resource", "served"},
)

// QueryStaleDiscardsTotal counts fetch results dropped because a newer fetch
// for the same key had already committed.
var QueryStaleDiscardsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_stale_discards_total",
		Help:      "Total number of out-of-order fetch results discarded.",
	},
	[]string{"resource"},
)

// QueryInvalidationsTotal counts invalidated cache entries.
// Label:
//   - origin: "local" or "remote" (received from the invalidation bus)
var QueryInvalidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_invalidations_total",
		Help:      "Total number of cache entries invalidated.",
	},
	[]string{"origin"},
)

// QueryEntries tracks the current number of cache entries.
var QueryEntries = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "query_entries",
		Help:      "Current number of entries held by the query cache.",
	},
)

// QueryFetchDuration measures remote fetch latency per resource.
var QueryFetchDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_fetch_duration_seconds",
		Help:      "Duration of remote fetches executed by the query cache.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"resource"},
)

// ── Writes ────────────────────────────────────────────────────────────────────

// WritesTotal counts write actions.
// Labels:
//   - action: e.g. "enroll", "post_review", "create_course"
//   - result: "success", "invalid" (rejected locally), "error"
var WritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "writes_total",
		Help:      "Total number of write actions, by outcome.",
	},
	[]string{"action", "result"},
)

// RefetchQueueDepth tracks pending background refetch jobs per worker.
var RefetchQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "refetch_queue_depth",
		Help:      "Current number of refetch jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
