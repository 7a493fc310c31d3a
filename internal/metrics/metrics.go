package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decoder metrics
var (
	DecodeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocull_decode_total",
			Help: "Total number of decode-and-resize operations",
		},
		[]string{"format", "status"}, // status: "success", "error"
	)

	DecodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photocull_decode_duration_seconds",
			Help:    "Decode-and-resize duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"format", "quality"},
	)
)

// Disk decode cache metrics
var (
	DiskCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photocull_disk_cache_hits_total",
			Help: "Total number of disk decode cache hits",
		},
	)

	DiskCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photocull_disk_cache_misses_total",
			Help: "Total number of disk decode cache misses",
		},
	)

	DiskCacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocull_disk_cache_errors_total",
			Help: "Total number of disk decode cache read or write errors",
		},
		[]string{"operation"}, // "read", "write"
	)
)

// Preload manager metrics
var (
	PreloadLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocull_preload_lookups_total",
			Help: "Total number of image lookups by where they were served from",
		},
		[]string{"source"}, // "memory", "sync"
	)

	PreloadDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocull_preload_decoded_total",
			Help: "Total number of images decoded ahead of time by the worker",
		},
		[]string{"window"}, // "current", "next"
	)

	PreloadWorkerRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photocull_preload_worker_running",
			Help: "Whether the preload worker is running (1 = running, 0 = stopped)",
		},
	)

	PreloadResidentEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photocull_preload_resident_entries",
			Help: "Number of decoded buffers and tombstones held in memory",
		},
	)

	PreloadRestarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photocull_preload_restarts_total",
			Help: "Total number of window restarts",
		},
	)

	PreloadJoinTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photocull_preload_join_timeouts_total",
			Help: "Total number of times a stopping worker did not exit within the join timeout",
		},
	)
)

// Navigation metrics
var (
	NavigationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocull_navigation_actions_total",
			Help: "Total number of user actions by kind",
		},
		[]string{"action"},
	)

	NavigationSkippedUnreadable = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photocull_navigation_unreadable_total",
			Help: "Total number of slots skipped because the image could not be decoded",
		},
	)

	MoveErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocull_move_errors_total",
			Help: "Total number of failed file moves",
		},
		[]string{"action"},
	)
)

// Session totals, refreshed by the Collector from the action journal
var (
	SessionFilesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photocull_journal_files_total",
			Help: "Number of files recorded in the action journal by action",
		},
		[]string{"action"},
	)
)

// Journal metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocull_db_query_total",
			Help: "Total number of journal queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photocull_db_query_duration_seconds",
			Help:    "Journal query duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photocull_db_connections_open",
			Help: "Number of open journal database connections",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photocull_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocull_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocull_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retries after a stale file handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocull_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocull_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocull_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photocull_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photocull_memory_paused",
			Help: "Whether background preloading is paused due to memory pressure",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photocull_memory_gc_pauses_total",
			Help: "Total number of times preloading paused and forced a GC",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photocull_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
