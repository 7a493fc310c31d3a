package organize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"photocull/internal/filesystem"
	"photocull/internal/logging"
)

// Subdirectories of the output directory.
const (
	DeletedDir    = "Deleted"
	NoDateDir     = "No Date"
	CorruptedDir  = "Corrupted"
	DuplicatesDir = "Duplicates"
)

// Status badges.
const (
	StatusSaved   = "Saved"
	StatusDeleted = "Deleted"
)

// ErrSourceMissing is returned when the file to move no longer exists.
var ErrSourceMissing = errors.New("source file does not exist")

// DateFunc returns the capture date of a file.
type DateFunc func(path string) (time.Time, bool)

// Organizer moves culled files into the output tree.
type Organizer struct {
	outputDir string
	dates     DateFunc
	retry     filesystem.RetryConfig
}

// New creates an Organizer. outputDir may be empty, in which case deleted
// files go to a Deleted directory relative to the working directory and
// Keep is unavailable.
func New(outputDir string, dates DateFunc) *Organizer {
	return &Organizer{
		outputDir: outputDir,
		dates:     dates,
		retry:     filesystem.DefaultRetryConfig(),
	}
}

// OutputDir returns the configured output directory.
func (o *Organizer) OutputDir() string {
	return o.outputDir
}

// DatedDir returns <output>/<Year>/<Mon> for a dated file and
// <output>/No Date otherwise.
func DatedDir(outputDir string, t time.Time, ok bool) string {
	if !ok {
		return filepath.Join(outputDir, NoDateDir)
	}
	return filepath.Join(outputDir, strconv.Itoa(t.Year()), t.Format("Jan"))
}

// Keep moves path into the dated directory tree and returns its new path.
func (o *Organizer) Keep(path string) (string, error) {
	if o.outputDir == "" {
		return "", errors.New("no output directory configured")
	}
	var (
		t  time.Time
		ok bool
	)
	if o.dates != nil {
		t, ok = o.dates(path)
	}
	return o.MoveTo(path, DatedDir(o.outputDir, t, ok))
}

// Delete moves path into the Deleted directory and returns its new path.
func (o *Organizer) Delete(path string) (string, error) {
	return o.MoveTo(path, filepath.Join(o.outputDir, DeletedDir))
}

// MoveTo moves path into dir, creating dir if needed. A name that is
// already taken gets a _<n> suffix before the extension.
func (o *Organizer) MoveTo(path, dir string) (string, error) {
	if _, err := filesystem.StatWithRetry(path, o.retry); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrSourceMissing, path)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	target, err := UniquePath(dir, filepath.Base(path))
	if err != nil {
		return "", err
	}

	if err := filesystem.RenameWithRetry(path, target, o.retry); err != nil {
		var linkErr *os.LinkError
		if !errors.As(err, &linkErr) || !isCrossDevice(linkErr) {
			return "", fmt.Errorf("failed to move %s: %w", path, err)
		}
		if err := copyAndRemove(path, target); err != nil {
			return "", fmt.Errorf("failed to move %s across devices: %w", path, err)
		}
	}

	logging.Debug("Moved %s -> %s", path, target)
	return target, nil
}

// UniquePath returns dir/name, or dir/<stem>_<n><ext> with the smallest
// n >= 1 that does not exist yet.
func UniquePath(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	if _, err := os.Lstat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; n < 100000; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}

// Status returns the badge shown for a file: Saved when it lives under the
// output directory outside Deleted, Deleted when any path segment is
// Deleted, and "" otherwise.
func Status(path, outputDir string) string {
	if hasSegment(path, DeletedDir) {
		return StatusDeleted
	}
	if outputDir != "" && isUnder(path, outputDir) {
		return StatusSaved
	}
	return ""
}

func hasSegment(path, segment string) bool {
	for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if part == segment {
			return true
		}
	}
	return false
}

func isUnder(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
