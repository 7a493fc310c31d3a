package media

import (
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// Quality selects the decode and resample tradeoff.
type Quality int

// Quality levels
const (
	QualityLow Quality = iota
	QualityNormal
	QualityHigh
)

func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityNormal:
		return "normal"
	case QualityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseQuality parses "low", "normal" or "high" (case-insensitive).
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return QualityLow, nil
	case "normal", "":
		return QualityNormal, nil
	case "high":
		return QualityHigh, nil
	default:
		return QualityNormal, fmt.Errorf("invalid quality %q (want low, normal or high)", s)
	}
}

// Raster quality only changes the resample filter.
func (q Quality) resampleFilter() imaging.ResampleFilter {
	if q == QualityLow {
		return imaging.Linear
	}
	return imaging.Lanczos
}
