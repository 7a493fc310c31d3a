package capture

import (
	"os"
	"sort"
	"sync"
	"time"

	"photocull/internal/filesystem"
	"photocull/internal/logging"
	"photocull/internal/mediatypes"

	"github.com/rwcarlsen/goexif/exif"
)

// DateLayout is the display and sort format of a capture date.
const DateLayout = "2006-01-02"

// Source reads capture dates from image files. Dates are remembered per
// path, so each file is parsed at most once. Safe for concurrent use.
type Source struct {
	retry filesystem.RetryConfig

	mu    sync.RWMutex
	dates map[string]time.Time
}

// NewSource creates a Source with the default filesystem retry policy.
func NewSource() *Source {
	return &Source{
		retry: filesystem.DefaultRetryConfig(),
		dates: make(map[string]time.Time),
	}
}

// Date returns when the image was taken. EXIF DateTimeOriginal wins for
// formats that carry EXIF; otherwise the older of the file's change and
// modification times is used. ok is false when the file cannot be read;
// such misses are not remembered.
func (s *Source) Date(path string) (time.Time, bool) {
	s.mu.RLock()
	t, ok := s.dates[path]
	s.mu.RUnlock()
	if ok {
		return t, true
	}

	t, ok = s.read(path)
	if ok {
		s.mu.Lock()
		s.dates[path] = t
		s.mu.Unlock()
	}
	return t, ok
}

// Len returns how many dates are remembered.
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dates)
}

func (s *Source) read(path string) (time.Time, bool) {
	if mediatypes.HasExif(path) {
		t, err := exifDate(path)
		if err == nil {
			return t, true
		}
		logging.Debug("No EXIF date for %s: %v", path, err)
	}

	info, err := filesystem.StatWithRetry(path, s.retry)
	if err != nil {
		return time.Time{}, false
	}

	mod := info.ModTime()
	if changed, ok := changeTime(info); ok && changed.Before(mod) {
		return changed, true
	}
	return mod, true
}

func exifDate(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", path, err)
		}
	}()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, err
	}
	value, err := tag.StringVal()
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation("2006:01:02 15:04:05", value, time.Local)
}

// Format renders a capture date, or "" when ok is false.
func Format(t time.Time, ok bool) string {
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}

// Dated pairs a path with its capture date.
type Dated struct {
	Path string
	Date time.Time
	OK   bool
}

// Sort orders items by calendar day, dated items first, undated last.
// Items on the same day keep their relative order.
func Sort(items []Dated) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.OK != b.OK {
			return a.OK
		}
		if !a.OK {
			return false
		}
		return a.Date.Format(DateLayout) < b.Date.Format(DateLayout)
	})
}
