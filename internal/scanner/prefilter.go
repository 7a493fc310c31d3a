package scanner

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"photocull/internal/logging"
	"photocull/internal/workers"
)

// Prober reports whether a file decodes.
type Prober interface {
	Probe(path string) error
}

// ProbeFunc adapts a function to Prober.
type ProbeFunc func(path string) error

// Probe calls f(path).
func (f ProbeFunc) Probe(path string) error {
	return f(path)
}

// Mover relocates a rejected file into dir and returns its new path.
type Mover interface {
	MoveTo(path, dir string) (string, error)
}

// Result is the outcome of a prefilter pass.
type Result struct {
	// Kept are the surviving paths in input order.
	Kept []string
	// Moved maps each rejected path to where it went.
	Moved map[string]string
	// Errors counts rejects that could not be moved. They stay in Kept.
	Errors int
}

// CheckCorrupt probes every path and moves the ones that fail into dir.
func CheckCorrupt(ctx context.Context, paths []string, prober Prober, mover Mover, dir string) (Result, error) {
	start := time.Now()
	failed := make([]bool, len(paths))

	err := forEach(ctx, workers.ForMixed(len(paths)), len(paths), func(i int) {
		if err := prober.Probe(paths[i]); err != nil {
			logging.Debug("Corrupt file %s: %v", paths[i], err)
			failed[i] = true
		}
	})
	if err != nil {
		return Result{}, err
	}

	result := reject(paths, failed, mover, dir)
	logging.Info("Corruption check complete: %d moved of %d in %v", len(result.Moved), len(paths), time.Since(start))
	return result, nil
}

// Thumbnailer decodes a small rendition of an image for comparison.
type Thumbnailer interface {
	Thumbnail(path string) (*image.RGBA, error)
}

// ThumbnailFunc adapts a function to Thumbnailer.
type ThumbnailFunc func(path string) (*image.RGBA, error)

// Thumbnail calls f(path).
func (f ThumbnailFunc) Thumbnail(path string) (*image.RGBA, error) {
	return f(path)
}

// fingerprint identifies an image's content. Pixel and byte fingerprints
// never compare equal to each other.
type fingerprint struct {
	pixels bool
	sum    uint64
	size   int64
}

// Dedupe groups paths by decoded content and moves every copy after the
// first into dir. Each file is compared by the grayscale pixels of its
// thumbnail, so re-encodes of the same picture match. Files thumbs cannot
// decode, or every file when thumbs is nil, are compared by their bytes.
// Files that cannot be read at all are kept.
func Dedupe(ctx context.Context, paths []string, thumbs Thumbnailer, mover Mover, dir string) (Result, error) {
	start := time.Now()
	prints := make([]fingerprint, len(paths))
	readable := make([]bool, len(paths))

	err := forEach(ctx, workers.ForMixed(len(paths)), len(paths), func(i int) {
		fp, err := fingerprintFile(paths[i], thumbs)
		if err != nil {
			logging.Warn("Failed to hash %s: %v", paths[i], err)
			return
		}
		prints[i], readable[i] = fp, true
	})
	if err != nil {
		return Result{}, err
	}

	seen := make(map[fingerprint]bool, len(paths))
	dup := make([]bool, len(paths))
	for i := range paths {
		if !readable[i] {
			continue
		}
		if seen[prints[i]] {
			dup[i] = true
			continue
		}
		seen[prints[i]] = true
	}

	result := reject(paths, dup, mover, dir)
	logging.Info("Duplicate check complete: %d moved of %d in %v", len(result.Moved), len(paths), time.Since(start))
	return result, nil
}

func fingerprintFile(path string, thumbs Thumbnailer) (fingerprint, error) {
	if thumbs != nil {
		img, err := thumbs.Thumbnail(path)
		if err == nil {
			return fingerprint{pixels: true, sum: hashPixels(img), size: int64(len(img.Pix))}, nil
		}
		logging.Debug("No thumbnail for %s, comparing bytes: %v", path, err)
	}
	sum, size, err := hashFile(path)
	if err != nil {
		return fingerprint{}, err
	}
	return fingerprint{sum: sum, size: size}, nil
}

// hashPixels digests the luma of img along with its dimensions.
func hashPixels(img *image.RGBA) uint64 {
	b := img.Bounds()
	h := xxhash.New()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[:4], uint32(b.Dx())) //nolint:gosec // image sizes fit in uint32
	binary.LittleEndian.PutUint32(dims[4:], uint32(b.Dy())) //nolint:gosec // image sizes fit in uint32
	_, _ = h.Write(dims[:])

	row := make([]byte, b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			row[x-b.Min.X] = color.GrayModel.Convert(c).(color.Gray).Y
		}
		_, _ = h.Write(row)
	}
	return h.Sum64()
}

// reject moves the flagged paths sequentially so that name collisions in
// dir resolve deterministically.
func reject(paths []string, flagged []bool, mover Mover, dir string) Result {
	result := Result{
		Kept:  make([]string, 0, len(paths)),
		Moved: make(map[string]string),
	}
	for i, p := range paths {
		if !flagged[i] {
			result.Kept = append(result.Kept, p)
			continue
		}
		dst, err := mover.MoveTo(p, dir)
		if err != nil {
			logging.Warn("Failed to move %s to %s: %v", p, dir, err)
			result.Errors++
			result.Kept = append(result.Kept, p)
			continue
		}
		result.Moved[p] = dst
	}
	return result
}

func hashFile(path string) (uint64, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return h.Sum64(), n, nil
}

// forEach runs fn for every index in [0, n) with at most limit running at
// once. It stops scheduling when ctx is done and returns ctx.Err().
func forEach(ctx context.Context, limit, n int, fn func(i int)) error {
	if n == 0 {
		return nil
	}

	var processed atomic.Int64
	logging.Debug("Starting prefilter pool with %d workers for %d files", limit, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			fn(i)
			processed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	logging.Debug("Prefilter pool finished: %d/%d processed", processed.Load(), n)
	return ctx.Err()
}
