package diskcache

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"photocull/internal/filesystem"
	"photocull/internal/logging"
	"photocull/internal/metrics"

	"github.com/cespare/xxhash/v2"
)

// ErrMiss is returned by Lookup when no usable entry exists for a path.
var ErrMiss = errors.New("disk cache miss")

const entryExt = ".png"

// Variant namespaces entries by the decode parameters that shape the stored
// buffer, so a run with a different display size never reads a stale size.
type Variant struct {
	Width   int
	Height  int
	Quality string
}

// Cache is a content-addressed on-disk store of already-resized buffers.
// It is safe for concurrent use; writes go through a temp file and rename.
type Cache struct {
	dir     string
	variant Variant
	retry   filesystem.RetryConfig
	encoder png.Encoder
}

// New creates the cache directory if needed.
func New(dir string, variant Variant) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	logging.Debug("Disk cache ready: %s (%dx%d, %s)", dir, variant.Width, variant.Height, variant.Quality)
	return &Cache{
		dir:     dir,
		variant: variant,
		retry:   filesystem.DefaultRetryConfig(),
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Key returns the entry name for path. It changes whenever the file's
// modification time changes.
func (c *Cache) Key(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := filesystem.StatWithRetry(absPath, c.retry)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(absPath)
	b.WriteByte(0)
	b.WriteString(strconv.FormatInt(info.ModTime().UnixNano(), 10))
	b.WriteByte(0)
	fmt.Fprintf(&b, "%dx%d:%s", c.variant.Width, c.variant.Height, c.variant.Quality)

	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String())), nil
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+entryExt)
}

// Lookup returns the stored buffer for path. Unreadable or mismatched
// entries are removed and reported as ErrMiss.
func (c *Cache) Lookup(path string) (*image.RGBA, error) {
	key, err := c.Key(path)
	if err != nil {
		metrics.DiskCacheMisses.Inc()
		return nil, ErrMiss
	}

	entry := c.entryPath(key)
	data, err := os.ReadFile(entry)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("Disk cache read failed for %s: %v", entry, err)
			metrics.DiskCacheErrors.WithLabelValues("read").Inc()
		}
		metrics.DiskCacheMisses.Inc()
		return nil, ErrMiss
	}

	buf, err := c.decode(data)
	if err != nil {
		logging.Warn("Discarding corrupt disk cache entry %s: %v", entry, err)
		metrics.DiskCacheErrors.WithLabelValues("read").Inc()
		metrics.DiskCacheMisses.Inc()
		if rmErr := os.Remove(entry); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.Debug("failed to remove corrupt entry %s: %v", entry, rmErr)
		}
		return nil, ErrMiss
	}

	metrics.DiskCacheHits.Inc()
	logging.Debug("Disk cache hit: %s", path)
	return buf, nil
}

func (c *Cache) decode(data []byte) (*image.RGBA, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() != c.variant.Width || b.Dy() != c.variant.Height {
		return nil, fmt.Errorf("entry is %dx%d, want %dx%d", b.Dx(), b.Dy(), c.variant.Width, c.variant.Height)
	}

	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba, nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return rgba, nil
}

// Store writes buf as the entry for path.
func (c *Cache) Store(path string, buf *image.RGBA) error {
	key, err := c.Key(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		metrics.DiskCacheErrors.WithLabelValues("write").Inc()
		return fmt.Errorf("failed to create cache entry: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	encErr := c.encoder.Encode(w, buf)
	if encErr == nil {
		encErr = w.Flush()
	}
	closeErr := tmp.Close()
	if encErr == nil {
		encErr = closeErr
	}
	if encErr != nil {
		metrics.DiskCacheErrors.WithLabelValues("write").Inc()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", encErr)
	}

	if err := os.Rename(tmpName, c.entryPath(key)); err != nil {
		metrics.DiskCacheErrors.WithLabelValues("write").Inc()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}

	logging.Debug("Disk cache stored: %s", path)
	return nil
}

// Stats returns the number of entries and their total size in bytes.
func (c *Cache) Stats() (count int, size int64, err error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != entryExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		count++
		size += info.Size()
	}
	return count, size, nil
}

// Clear deletes every entry and leftover temp file. The directory itself is kept.
func (c *Cache) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) != entryExt && filepath.Ext(name) != ".tmp" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed++
	}
	logging.Info("Disk cache cleared: %d entries removed from %s", removed, c.dir)
	return removed, nil
}
