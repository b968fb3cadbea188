// Package metrics provides Prometheus instrumentation for the import
// pipeline.
//
// The importer and reconciler record into the pre-defined collectors below;
// internal/server mounts Handler() on GET /metrics so a Prometheus instance
// can scrape a long-running import.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─────────────────────────────────────────────
// Import pipeline metrics
// ─────────────────────────────────────────────

var (
	// RowsRead counts feed rows consumed from the source, per vendor profile.
	RowsRead = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vastra",
			Subsystem: "import",
			Name:      "rows_read_total",
			Help:      "Total feed rows read from the source.",
		},
		[]string{"profile"},
	)

	// UnitsProcessed counts units of work by outcome.
	UnitsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vastra",
			Subsystem: "import",
			Name:      "units_processed_total",
			Help:      "Total units of work processed.",
		},
		[]string{"profile", "status"}, // "ok" | "failed"
	)

	// UnitsInFlight tracks units dispatched to the pool and not yet finished.
	UnitsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vastra",
		Subsystem: "import",
		Name:      "units_in_flight",
		Help:      "Units of work currently queued or being reconciled.",
	})

	// UnitDuration tracks how long one unit takes end to end
	// (transform + reconcile transaction).
	UnitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vastra",
			Subsystem: "import",
			Name:      "unit_duration_seconds",
			Help:      "Duration of unit-of-work processing in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"profile"},
	)

	// ProductsCreated / VariantsCreated count new catalog rows (updates in
	// place are deliberately not counted; the delta between runs shows how
	// much of a feed was genuinely new).
	ProductsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vastra",
		Subsystem: "import",
		Name:      "products_created_total",
		Help:      "Products inserted by reconciliation.",
	})
	VariantsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vastra",
		Subsystem: "import",
		Name:      "variants_created_total",
		Help:      "Variants inserted by reconciliation.",
	})

	// LedgerEntries counts inventory ledger appends.
	LedgerEntries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vastra",
		Subsystem: "import",
		Name:      "ledger_entries_total",
		Help:      "Inventory ledger entries written.",
	})

	// CategoryCacheHits / Misses track the resolver's Redis fast path.
	CategoryCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vastra",
		Subsystem: "category",
		Name:      "cache_hits_total",
		Help:      "Category path resolutions answered from cache.",
	})
	CategoryCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vastra",
		Subsystem: "category",
		Name:      "cache_misses_total",
		Help:      "Category path resolutions that went to the database.",
	})

	// SlugCollisions counts numeric-suffix retries in the resolver.
	SlugCollisions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vastra",
		Subsystem: "category",
		Name:      "slug_collisions_total",
		Help:      "Category slug collisions resolved with a numeric suffix.",
	})

	// QueueJobsProcessed counts background import jobs by status.
	QueueJobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vastra",
			Subsystem: "queue",
			Name:      "jobs_processed_total",
			Help:      "Total queue jobs processed.",
		},
		[]string{"status"}, // "success" | "failed"
	)
)

// ─────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────

// DefaultRegistry holds every collector this package defines, plus the
// standard Go runtime and process collectors.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		RowsRead,
		UnitsProcessed,
		UnitsInFlight,
		UnitDuration,
		ProductsCreated,
		VariantsCreated,
		LedgerEntries,
		CategoryCacheHits,
		CategoryCacheMisses,
		SlugCollisions,
		QueueJobsProcessed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// MustRegister panics if registration fails.
func MustRegister(c ...prometheus.Collector) {
	DefaultRegistry.MustRegister(c...)
}

// Handler returns an http.HandlerFunc that exposes the Prometheus metrics
// page. Mounted on GET /metrics by internal/server.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}
