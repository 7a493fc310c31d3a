package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins the worker count.
const EnvOverride = "PHOTOCULL_WORKERS"

// Count returns multiplier workers per available CPU, at least one.
// A positive limit caps the result. A valid PHOTOCULL_WORKERS value
// replaces the computed count but is still capped by limit.
func Count(multiplier float64, limit int) int {
	n := override()
	if n == 0 {
		// GOMAXPROCS follows the container CPU limit
		n = int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	}

	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

func override() int {
	v := os.Getenv(EnvOverride)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed returns worker count for mixed tasks (1.5 per CPU).
func ForMixed(limit int) int {
	return Count(1.5, limit)
}
