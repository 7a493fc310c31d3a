/*
Package workers sizes worker pools from GOMAXPROCS rather than
runtime.NumCPU, so that pools respect container CPU limits (Go 1.19+).

# Usage

	import "photocull/internal/workers"

	// Capture-date reads for one navigation window
	g.SetLimit(workers.ForIO(len(window)))

	// Corruption probes during the prefilter pass
	numWorkers := workers.ForIO(len(paths))

ForCPU, ForIO and ForMixed apply multipliers of 1.0, 2.0 and 1.5 per
available CPU. Count takes an explicit multiplier. A positive limit caps
the result; 0 means no cap.

# Environment Variable Override

All functions respect PHOTOCULL_WORKERS, still capped by limit:

	PHOTOCULL_WORKERS=2 photocull --check-corrupt ~/Pictures/import

This is useful on NAS mounts where many concurrent reads slow everything
down.
*/
package workers
