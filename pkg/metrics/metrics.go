package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Object table metrics
	ObjectsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tinymux_objects_total",
			Help: "Total number of live objects by type",
		},
		[]string{"type"},
	)

	DbTop = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tinymux_db_top",
			Help: "Current size of the object table (db_top)",
		},
	)

	// Attribute store / cache metrics
	AttrCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tinymux_attr_cache_hits_total",
			Help: "Attribute cache lookups satisfied without a pager read",
		},
	)

	AttrCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tinymux_attr_cache_misses_total",
			Help: "Attribute cache lookups that required a pager read",
		},
	)

	AttrCacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tinymux_attr_cache_evictions_total",
			Help: "Attribute cache entries evicted to make room",
		},
	)

	AttrStoreSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tinymux_attr_store_entries",
			Help: "Number of (dbref, attr_num) entries in the attribute store",
		},
	)

	// Slab buffer pool metrics
	SlabInUse = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tinymux_slab_buffers_in_use",
			Help: "Buffers currently checked out, by size class",
		},
		[]string{"class"},
	)

	SlabExhaustions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tinymux_slab_exhaustions_total",
			Help: "Times a size class's free list was empty and had to grow or fail",
		},
		[]string{"class"},
	)

	// Evaluator metrics
	EvalInvocations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tinymux_eval_invocations_total",
			Help: "Total function invocations evaluated",
		},
	)

	EvalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tinymux_eval_duration_seconds",
			Help:    "Time taken to evaluate one top-level expression",
			Buckets: prometheus.DefBuckets,
		},
	)

	EvalRecursionLimitHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tinymux_eval_recursion_limit_total",
			Help: "Evaluations aborted for exceeding the recursion/invocation limit",
		},
	)

	// Deferred-command queue metrics
	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tinymux_queue_depth",
			Help: "Number of pending deferred-command entries, by collection",
		},
		[]string{"collection"}, // "heap", "semaphore", "fifo"
	)

	QueueTickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tinymux_queue_tick_duration_seconds",
			Help:    "Time taken to run one tick of the deferred-command queue",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueueFiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tinymux_queue_fired_total",
			Help: "Total deferred-command entries executed",
		},
	)

	// Dispatcher metrics
	CommandsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tinymux_commands_dispatched_total",
			Help: "Commands dispatched by name and outcome",
		},
		[]string{"command", "outcome"},
	)

	// Persistence metrics
	CheckpointDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tinymux_checkpoint_duration_seconds",
			Help:    "Time taken to write a full checkpoint",
			Buckets: prometheus.DefBuckets,
		},
	)

	CheckpointsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tinymux_checkpoints_total",
			Help: "Total checkpoints written",
		},
	)

	// Notification delivery metrics
	NotifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tinymux_notify_total",
			Help: "Text messages routed through pkg/notify, by outcome",
		},
		[]string{"outcome"}, // "delivered", "dropped"
	)
)

func init() {
	prometheus.MustRegister(
		ObjectsTotal,
		DbTop,
		AttrCacheHits,
		AttrCacheMisses,
		AttrCacheEvictions,
		AttrStoreSize,
		SlabInUse,
		SlabExhaustions,
		EvalInvocations,
		EvalDuration,
		EvalRecursionLimitHits,
		QueueDepth,
		QueueTickDuration,
		QueueFiredTotal,
		CommandsDispatched,
		CheckpointDuration,
		CheckpointsTotal,
		NotifyTotal,
	)
}

// Handler returns the Prometheus HTTP handler for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations and recording them to a histogram.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer, starting now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
