package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"photocull/internal/logging"
)

// DefaultMemoryRatio is the share of the memory budget given to the Go heap.
// libvips allocates outside the Go heap and gets the rest.
const DefaultMemoryRatio = 0.85

// Environment variables read by ConfigureFromEnv, most specific first.
var (
	limitVars = []string{"PHOTOCULL_MEMORY_LIMIT", "MEMORY_LIMIT"}
	ratioVars = []string{"PHOTOCULL_MEMORY_RATIO", "MEMORY_RATIO"}
)

// ConfigResult reports what ConfigureFromEnv did.
type ConfigResult struct {
	Configured bool
	// Source is "GOMEMLIMIT", the budget variable that was used, or "none".
	Source string
	// Budget is the total memory budget in bytes, 0 when not set.
	Budget int64
	// GoMemLimit is the applied heap limit in bytes, 0 when not set.
	GoMemLimit int64
	Ratio      float64
}

// ConfigureFromEnv derives GOMEMLIMIT from a memory budget unless GOMEMLIMIT
// is already set. Call it early in main, before decoding starts.
//
// The budget comes from PHOTOCULL_MEMORY_LIMIT or MEMORY_LIMIT and accepts
// plain bytes or a size such as 4GiB or 1500MB. PHOTOCULL_MEMORY_RATIO or
// MEMORY_RATIO picks the heap share (default 0.85).
func ConfigureFromEnv() ConfigResult {
	if v := os.Getenv("GOMEMLIMIT"); v != "" {
		result := ConfigResult{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", v)
		return result
	}

	name, raw := firstEnv(limitVars)
	if raw == "" {
		logging.Debug("No memory budget set, GOMEMLIMIT will not be configured")
		return ConfigResult{Source: "none"}
	}

	budget, err := parseSize(raw)
	if err != nil {
		logging.Warn("Ignoring %s: %v", name, err)
		return ConfigResult{Source: "none"}
	}

	ratio := parseRatio()
	limit := int64(float64(budget) * ratio)
	debug.SetMemoryLimit(limit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s from %s)",
		formatBytes(limit), ratio*100, formatBytes(budget), name)

	return ConfigResult{
		Configured: true,
		Source:     name,
		Budget:     budget,
		GoMemLimit: limit,
		Ratio:      ratio,
	}
}

func firstEnv(names []string) (string, string) {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return n, v
		}
	}
	return "", ""
}

func parseRatio() float64 {
	name, raw := firstEnv(ratioVars)
	if raw == "" {
		return DefaultMemoryRatio
	}
	r, err := strconv.ParseFloat(raw, 64)
	if err != nil || r <= 0 || r > 1 {
		logging.Warn("%s %q must be in (0, 1], using default %.2f", name, raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return r
}

var sizeUnits = []struct {
	suffix string
	mult   int64
}{
	{"KIB", 1 << 10}, {"MIB", 1 << 20}, {"GIB", 1 << 30}, {"TIB", 1 << 40},
	{"KB", 1e3}, {"MB", 1e6}, {"GB", 1e9}, {"TB", 1e12},
	{"K", 1 << 10}, {"M", 1 << 20}, {"G", 1 << 30}, {"T", 1 << 40},
	{"B", 1},
}

// parseSize reads a positive byte count with an optional unit suffix.
func parseSize(s string) (int64, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	mult := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(upper, u.suffix) {
			upper = strings.TrimSpace(strings.TrimSuffix(upper, u.suffix))
			mult = u.mult
			break
		}
	}
	n, err := strconv.ParseFloat(upper, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("size %q must be positive", s)
	}
	if n*float64(mult) >= math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", s)
	}
	return int64(n * float64(mult)), nil
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
