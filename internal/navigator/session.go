package navigator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"time"

	"photocull/internal/capture"
	"photocull/internal/logging"
	"photocull/internal/metrics"
	"photocull/internal/organize"
	"photocull/internal/overlay"
	"photocull/internal/workers"

	"golang.org/x/sync/errgroup"
)

// State of a Session.
type State int

// Session states
const (
	StateBrowsing State = iota
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateBrowsing:
		return "browsing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Preloader is the background cache the session reads images from.
type Preloader interface {
	Start(current, next []string)
	Stop()
	GetImage(path string) (string, *image.RGBA)
	Rekey(oldPath, newPath string)
}

// Display shows frames and reads key presses.
type Display interface {
	Show(frame *image.RGBA) error
	ReadKey(ctx context.Context) (string, error)
	Finish(summary Summary)
}

// Mover relocates kept and deleted files and returns their new paths.
type Mover interface {
	Keep(path string) (string, error)
	Delete(path string) (string, error)
}

// DateSource provides capture dates.
type DateSource interface {
	Date(path string) (time.Time, bool)
}

// Recorder persists completed moves.
type Recorder interface {
	Record(ctx context.Context, action, from, to string) error
}

// Options configures a Session.
type Options struct {
	ChunkSize int
	// SortWindows orders each window by capture date the first time it is entered.
	SortWindows bool
	Bindings    Bindings
	// OutputDir is used for the saved/deleted badge.
	OutputDir string
	// Journal is optional.
	Journal Recorder
}

// Summary describes how a session ended.
type Summary struct {
	State      State
	Total      int
	Kept       int
	Deleted    int
	Skipped    int
	Unreadable int
}

// Session is the interactive culling loop over an ordered list of paths.
// It is driven from a single goroutine; the accessors are safe to call
// concurrently with Run.
type Session struct {
	preload Preloader
	display Display
	mover   Mover
	dates   DateSource
	opts    Options

	mu      sync.Mutex
	paths   []string
	cursor  int
	state   State
	history *History
	summary Summary

	// index maps each current path to its position; moves maps a moved
	// path to the path it was moved to.
	index  map[string]int
	moves  map[string]string
	sorted map[int]bool

	windowStart int
	message     string
}

// NewSession creates a Session. paths is copied.
func NewSession(paths []string, preload Preloader, display Display, mover Mover, dates DateSource, opts Options) (*Session, error) {
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", opts.ChunkSize)
	}
	if opts.Bindings == (Bindings{}) {
		opts.Bindings = DefaultBindings()
	}
	if err := opts.Bindings.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		preload:     preload,
		display:     display,
		mover:       mover,
		dates:       dates,
		opts:        opts,
		paths:       append([]string(nil), paths...),
		history:     NewHistory(HistorySize),
		index:       make(map[string]int, len(paths)),
		moves:       make(map[string]string),
		sorted:      make(map[int]bool),
		windowStart: -1,
		state:       StateBrowsing,
	}
	for i, p := range s.paths {
		s.index[p] = i
	}
	s.summary.Total = len(s.paths)
	return s, nil
}

// Cursor returns the index of the image being shown.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// History returns the undo history, oldest first.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Paths()
}

// State returns the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Paths returns the current path list, moved files at their new paths.
func (s *Session) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// Run shows images until every path has been handled or the user quits.
// The background cache is stopped on every return path.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	defer s.preload.Stop()

	for {
		s.mu.Lock()
		done := s.cursor >= len(s.paths)
		s.mu.Unlock()
		if done {
			return s.finish(StateDone), nil
		}

		if err := ctx.Err(); err != nil {
			return s.finish(StateAborted), err
		}

		s.enterWindowIfNeeded(ctx)

		path := s.currentPath()
		_, buf := s.preload.GetImage(path)
		if buf == nil {
			logging.Info("Skipping unreadable image %s", path)
			metrics.NavigationSkippedUnreadable.Inc()
			s.mu.Lock()
			s.summary.Unreadable++
			s.cursor++
			s.mu.Unlock()
			continue
		}

		if err := s.display.Show(overlay.Compose(buf, s.frameInfo(path))); err != nil {
			return s.finish(StateAborted), fmt.Errorf("failed to show %s: %w", path, err)
		}

		key, err := s.display.ReadKey(ctx)
		if err != nil {
			return s.finish(StateAborted), fmt.Errorf("failed to read key: %w", err)
		}

		action := s.opts.Bindings.Action(key)
		metrics.NavigationActions.WithLabelValues(action.String()).Inc()
		logging.Debug("Key %q -> %s on %s", key, action, filepath.Base(path))

		switch action {
		case ActionQuit:
			return s.finish(StateAborted), nil
		case ActionBack:
			s.back()
		case ActionKeep:
			s.move(ctx, path, action, s.mover.Keep)
		case ActionDelete:
			s.move(ctx, path, action, s.mover.Delete)
		default:
			s.mu.Lock()
			s.history.Push(path)
			s.summary.Skipped++
			s.cursor++
			s.mu.Unlock()
		}
	}
}

func (s *Session) currentPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paths[s.cursor]
}

func (s *Session) finish(state State) Summary {
	s.preload.Stop()

	s.mu.Lock()
	s.state = state
	s.summary.State = state
	summary := s.summary
	s.mu.Unlock()

	logging.Info("Session %s: %d kept, %d deleted, %d skipped, %d unreadable of %d",
		state, summary.Kept, summary.Deleted, summary.Skipped, summary.Unreadable, summary.Total)
	s.display.Finish(summary)
	return summary
}

// enterWindowIfNeeded restarts the background cache when the cursor has
// left the loaded window, in either direction.
func (s *Session) enterWindowIfNeeded(ctx context.Context) {
	chunk := s.opts.ChunkSize

	s.mu.Lock()
	start := (s.cursor / chunk) * chunk
	if start == s.windowStart {
		s.mu.Unlock()
		return
	}
	n := len(s.paths)
	end := min(start+chunk, n)
	needSort := s.opts.SortWindows && s.dates != nil && !s.sorted[start]
	s.mu.Unlock()

	if needSort {
		s.sortWindow(ctx, start, end)
	}

	s.mu.Lock()
	s.sorted[start] = true
	s.windowStart = start
	current := append([]string(nil), s.paths[start:end]...)
	next := append([]string(nil), s.paths[end:min(end+chunk, n)]...)
	s.mu.Unlock()

	logging.Debug("Entering window %d-%d of %d", start, end, n)
	s.preload.Start(current, next)
}

// sortWindow reads the capture dates of paths[start:end] in parallel and
// reorders that slice by date.
func (s *Session) sortWindow(ctx context.Context, start, end int) {
	s.mu.Lock()
	window := append([]string(nil), s.paths[start:end]...)
	s.mu.Unlock()

	items := make([]capture.Dated, len(window))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers.ForIO(len(window)))
	for i, p := range window {
		g.Go(func() error {
			items[i] = capture.Dated{Path: p}
			if gctx.Err() != nil {
				return nil
			}
			items[i].Date, items[i].OK = s.dates.Date(p)
			return nil
		})
	}
	_ = g.Wait()

	capture.Sort(items)

	s.mu.Lock()
	for i, it := range items {
		s.paths[start+i] = it.Path
		s.index[it.Path] = start + i
	}
	s.mu.Unlock()
}

func (s *Session) frameInfo(path string) overlay.Info {
	var date string
	if s.dates != nil {
		date = capture.Format(s.dates.Date(path))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	info := overlay.Info{
		Position:   s.cursor + 1,
		Total:      len(s.paths),
		Keys:       s.opts.Bindings.Help(),
		Status:     organize.Status(path, s.opts.OutputDir),
		Date:       date,
		HistoryLen: s.history.Len(),
		HistoryCap: s.history.Cap(),
		Message:    s.message,
	}
	s.message = ""
	return info
}

func (s *Session) back() {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.history.Pop()
	if !ok {
		s.message = "Nothing to undo"
		return
	}

	idx, ok := s.locate(p)
	if !ok {
		logging.Warn("History entry %s is no longer in the list", p)
		s.message = fmt.Sprintf("%s is no longer in the list", filepath.Base(p))
		return
	}
	s.cursor = idx
}

// locate finds the current index of path, following it through moves.
// Callers hold s.mu.
func (s *Session) locate(path string) (int, bool) {
	cur := path
	for hops := 0; hops <= len(s.moves); hops++ {
		if idx, ok := s.index[cur]; ok && s.paths[idx] == cur {
			return idx, true
		}
		next, ok := s.moves[cur]
		if !ok {
			return 0, false
		}
		cur = next
	}
	return 0, false
}

func (s *Session) move(ctx context.Context, path string, action Action, op func(string) (string, error)) {
	newPath, err := op(path)
	if err != nil {
		logging.Error("Failed to %s %s: %v", action, path, err)
		metrics.MoveErrors.WithLabelValues(action.String()).Inc()
		s.mu.Lock()
		s.message = moveErrorMessage(action, path, err)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.history.Push(path)
	idx := s.cursor
	s.paths[idx] = newPath
	delete(s.index, path)
	s.index[newPath] = idx
	s.moves[path] = newPath
	if action == ActionKeep {
		s.summary.Kept++
	} else {
		s.summary.Deleted++
	}
	s.cursor++
	s.mu.Unlock()

	s.preload.Rekey(path, newPath)

	if s.opts.Journal != nil {
		if err := s.opts.Journal.Record(ctx, action.String(), path, newPath); err != nil {
			logging.Warn("Failed to journal %s of %s: %v", action, path, err)
		}
	}
}

func moveErrorMessage(action Action, path string, err error) string {
	if errors.Is(err, organize.ErrSourceMissing) {
		return fmt.Sprintf("Cannot %s %s: file is gone", action, filepath.Base(path))
	}
	return fmt.Sprintf("Cannot %s %s: %v", action, filepath.Base(path), err)
}
