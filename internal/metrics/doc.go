// Package metrics provides Prometheus instrumentation for photocull.
//
// All metrics are prefixed with "photocull_" and registered on the default
// registry through promauto, so they exist as soon as the package is
// imported. They are only exported over HTTP when METRICS_ENABLED=true.
//
// # Metric Categories
//
// ## Decoder Metrics
//
//   - DecodeTotal: Counter by format (raw/raster) and status
//   - DecodeDuration: Histogram by format and quality tier
//
// ## Disk Cache Metrics
//
//   - DiskCacheHits / DiskCacheMisses: lookups against the on-disk RAW cache
//   - DiskCacheErrors: Counter of unreadable or unwritable entries by operation
//
// ## Preload Metrics
//
//   - PreloadLookups: Counter of GetImage calls by source (memory, sync)
//   - PreloadDecoded: Counter of ahead-of-time decodes by window
//   - PreloadWorkerRunning: Gauge, 1 while the worker goroutine runs
//   - PreloadResidentEntries: Gauge of in-memory entries
//   - PreloadRestarts / PreloadJoinTimeouts: window transitions and slow stops
//
// ## Navigation Metrics
//
//   - NavigationActions: Counter by action (back, keep, delete, skip, quit)
//   - NavigationSkippedUnreadable: Counter of silently skipped slots
//   - MoveErrors: Counter of failed keep/delete moves
//   - SessionFilesTotal: Gauge of journal totals, refreshed by Collector
//
// ## Filesystem and Memory Metrics
//
// Filesystem timings and ESTALE retries are recorded through the
// filesystem.Observer returned by NewFilesystemObserver. Memory pressure
// gauges are driven by the memory.Monitor.
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
