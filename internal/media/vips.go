package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"photocull/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// ErrVipsUnavailable is returned by VipsRawDecoder before InitVips has run.
var ErrVipsUnavailable = errors.New("libvips not available")

// InitVips initializes the libvips library.
// This should be called once at startup, before any RAW file is decoded.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Configure vips logging BEFORE Startup() so LOG_LEVEL is respected
	vips.LoggingSettings(vipsLogHandler(logging.GetLevel()))

	// RAW decode is memory hungry; keep libvips single threaded and its
	// operation cache small. Parallelism comes from the preload worker.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

func vipsLogHandler(appLevel logging.LogLevel) (func(string, vips.LogLevel, string), vips.LogLevel) {
	switch appLevel {
	case logging.LevelDebug:
		return func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			case vips.LogLevelMessage, vips.LogLevelInfo, vips.LogLevelDebug:
				logging.Debug("[%s] %s", domain, msg)
			}
		}, vips.LogLevelInfo
	case logging.LevelInfo:
		return func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			}
		}, vips.LogLevelWarning
	case logging.LevelWarn:
		return func(domain string, level vips.LogLevel, msg string) {
			if level >= vips.LogLevelError {
				logging.Error("[%s] %s", domain, msg)
			}
		}, vips.LogLevelError
	default:
		return func(domain string, level vips.LogLevel, msg string) {
			if level >= vips.LogLevelCritical {
				logging.Error("[%s] %s", domain, msg)
			}
		}, vips.LogLevelCritical
	}
}

// ShutdownVips cleans up libvips resources.
// govips cannot be started again in the same process afterwards.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// VipsRawDecoder decodes camera RAW files with libvips.
//
//   - low: shrink-on-load thumbnail, the cheapest path
//   - normal: full load followed by a thumbnail resize
//   - high: full load, 16-bit processing, light blur and Lanczos3 resize
//
// The result fits inside width x height but is not letterboxed.
type VipsRawDecoder struct{}

// DecodeRaw implements RawDecoder.
func (VipsRawDecoder) DecodeRaw(data []byte, width, height int, q Quality) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, ErrVipsUnavailable
	}

	var (
		encoded []byte
		err     error
	)
	switch q {
	case QualityLow:
		encoded, err = vipsRawLow(data, width, height)
	case QualityHigh:
		encoded, err = vipsRawHigh(data, width, height)
	default:
		encoded, err = vipsRawNormal(data, width, height)
	}
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(encoded), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}

func vipsRawLow(data []byte, width, height int) ([]byte, error) {
	ref, err := vips.NewThumbnailFromBuffer(data, width, height, vips.InterestingNone)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load raw: %w", err)
	}
	defer ref.Close()

	return exportJpeg(ref, 85)
}

func vipsRawNormal(data []byte, width, height int) ([]byte, error) {
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load raw: %w", err)
	}
	defer ref.Close()

	logging.Debug("Vips loaded raw: %dx%d, shrinking to %dx%d", ref.Width(), ref.Height(), width, height)

	if err := ref.Thumbnail(width, height, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}
	return exportJpeg(ref, 95)
}

func vipsRawHigh(data []byte, width, height int) ([]byte, error) {
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load raw: %w", err)
	}
	defer ref.Close()

	scale := math.Min(float64(width)/float64(ref.Width()), float64(height)/float64(ref.Height()))

	if err := ref.Cast(vips.BandFormatUshort); err != nil {
		return nil, fmt.Errorf("vips cast failed: %w", err)
	}
	if err := ref.GaussianBlur(0.5); err != nil {
		return nil, fmt.Errorf("vips blur failed: %w", err)
	}
	if err := ref.Resize(scale, vips.KernelLanczos3); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}
	if err := ref.Cast(vips.BandFormatUchar); err != nil {
		return nil, fmt.Errorf("vips cast failed: %w", err)
	}

	encoded, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}
	return encoded, nil
}

func exportJpeg(ref *vips.ImageRef, quality int) ([]byte, error) {
	encoded, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        quality,
		StripMetadata:  false,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}
	return encoded, nil
}
