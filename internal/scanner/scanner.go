package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"photocull/internal/logging"
	"photocull/internal/mediatypes"
)

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("scan root is not a directory")

// Options configures a directory scan.
type Options struct {
	// Recursive descends into subdirectories.
	Recursive bool
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
	// Ignore holds glob patterns matched against the file name and the
	// slash separated path relative to the root.
	Ignore []string
	// Exclude lists directories that are never entered.
	Exclude []string
}

// DefaultOptions returns a recursive scan that skips hidden entries.
func DefaultOptions() Options {
	return Options{
		Recursive:  true,
		SkipHidden: true,
	}
}

// Scan returns the image files under dir.
func Scan(dir string, opts Options) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	matchers, err := compileIgnore(opts.Ignore)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(opts.Exclude))
	for _, e := range opts.Exclude {
		if e == "" {
			continue
		}
		abs, err := filepath.Abs(e)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve excluded dir %s: %w", e, err)
		}
		excluded[abs] = true
	}

	start := time.Now()
	var paths []string
	var skipped int

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}

		if path == root {
			if !d.IsDir() {
				return ErrNotDirectory
			}
			return nil
		}

		if opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if !opts.Recursive || excluded[path] {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !mediatypes.IsImage(mediatypes.Ext(path)) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			//nolint:nilerr // skip this file but keep walking
			return nil
		}
		if ignored(matchers, d.Name(), filepath.ToSlash(rel)) {
			skipped++
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	logging.Info("Scan complete: %d images in %v (ignored: %d)", len(paths), time.Since(start), skipped)
	return paths, nil
}

func compileIgnore(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		matchers = append(matchers, g)
	}
	return matchers, nil
}

func ignored(matchers []glob.Glob, name, rel string) bool {
	for _, g := range matchers {
		if g.Match(name) || g.Match(rel) {
			return true
		}
	}
	return false
}
