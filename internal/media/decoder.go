package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"photocull/internal/filesystem"
	"photocull/internal/logging"
	"photocull/internal/mediatypes"
	"photocull/internal/metrics"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// RawDecoder turns the bytes of a camera RAW file into an image that fits
// inside width x height.
type RawDecoder interface {
	DecodeRaw(data []byte, width, height int, q Quality) (image.Image, error)
}

// BufferCache stores finished display buffers between sessions.
type BufferCache interface {
	Lookup(path string) (*image.RGBA, error)
	Store(path string, buf *image.RGBA) error
}

// Decoder produces display-ready buffers from image files.
// It holds no per-call state and is safe for concurrent use.
type Decoder struct {
	raw   RawDecoder
	cache BufferCache
	retry filesystem.RetryConfig
}

// NewDecoder creates a Decoder. raw may be nil when RAW support is not
// available; cache may be nil to disable the disk cache.
func NewDecoder(raw RawDecoder, cache BufferCache) *Decoder {
	return &Decoder{
		raw:   raw,
		cache: cache,
		retry: filesystem.DefaultRetryConfig(),
	}
}

// DecodeAndResize decodes path and letterboxes it to exactly maxW x maxH.
// RAW results are served from and written to the disk cache when one is set.
func (d *Decoder) DecodeAndResize(path string, maxW, maxH int, q Quality) (buf *image.RGBA, err error) {
	format := mediatypes.DetectFormat(path)
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.DecodeTotal.WithLabelValues(format.String(), status).Inc()
		if err == nil {
			metrics.DecodeDuration.WithLabelValues(format.String(), q.String()).Observe(time.Since(start).Seconds())
		}
	}()

	if maxW <= 0 || maxH <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", maxW, maxH)
	}

	switch format {
	case mediatypes.FormatRaster:
		return d.decodeRaster(path, maxW, maxH, q)
	case mediatypes.FormatRaw:
		return d.decodeRaw(path, maxW, maxH, q)
	default:
		return nil, &DecodeError{Path: path, Format: format.String(), Err: ErrUnsupportedFormat}
	}
}

func (d *Decoder) decodeRaster(path string, maxW, maxH int, q Quality) (*image.RGBA, error) {
	data, err := filesystem.ReadFileWithRetry(path, d.retry)
	if err != nil {
		return nil, &DecodeError{Path: path, Format: mediatypes.FormatRaster.String(), Err: err}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		logging.Debug("imaging.Decode failed for %s: %v", filepath.Base(path), err)
		return nil, &DecodeError{Path: path, Format: mediatypes.FormatRaster.String(), Err: fmt.Errorf("%w: %v", ErrDecode, err)}
	}

	return Letterbox(img, maxW, maxH, q), nil
}

func (d *Decoder) decodeRaw(path string, maxW, maxH int, q Quality) (*image.RGBA, error) {
	if d.cache != nil {
		if buf, err := d.cache.Lookup(path); err == nil {
			return buf, nil
		}
	}

	if d.raw == nil {
		return nil, &DecodeError{Path: path, Format: mediatypes.FormatRaw.String(), Err: ErrVipsUnavailable}
	}

	data, err := filesystem.ReadFileWithRetry(path, d.retry)
	if err != nil {
		return nil, &DecodeError{Path: path, Format: mediatypes.FormatRaw.String(), Err: err}
	}

	start := time.Now()
	img, err := d.raw.DecodeRaw(data, maxW, maxH, q)
	if err != nil {
		if !errors.Is(err, ErrVipsUnavailable) {
			err = fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return nil, &DecodeError{Path: path, Format: mediatypes.FormatRaw.String(), Err: err}
	}
	logging.Debug("Decoded RAW %s in %v", filepath.Base(path), time.Since(start))

	buf := Letterbox(img, maxW, maxH, q)

	if d.cache != nil {
		if err := d.cache.Store(path, buf); err != nil {
			logging.Warn("Failed to cache decoded RAW %s: %v", path, err)
		}
	}
	return buf, nil
}
