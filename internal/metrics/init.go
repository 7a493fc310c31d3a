package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, format := range []string{"raw", "raster", "unknown"} {
		DecodeTotal.WithLabelValues(format, "success")
		DecodeTotal.WithLabelValues(format, "error")
		for _, quality := range []string{"low", "normal", "high"} {
			DecodeDuration.WithLabelValues(format, quality)
		}
	}

	for _, op := range []string{"read", "write"} {
		DiskCacheErrors.WithLabelValues(op)
	}

	for _, source := range []string{"memory", "sync"} {
		PreloadLookups.WithLabelValues(source)
	}
	for _, window := range []string{"current", "next"} {
		PreloadDecoded.WithLabelValues(window)
	}

	for _, action := range []string{"back", "keep", "delete", "skip", "quit"} {
		NavigationActions.WithLabelValues(action)
	}
	for _, action := range []string{"keep", "delete"} {
		MoveErrors.WithLabelValues(action)
		SessionFilesTotal.WithLabelValues(action)
	}

	for _, op := range []string{"record", "stats", "recent", "clear"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	volumes := []string{"input", "output", "cache", "unknown"}
	fsOps := []string{"read", "stat", "rename"}
	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}
}
