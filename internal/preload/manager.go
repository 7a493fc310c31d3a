package preload

import (
	"context"
	"image"
	"sync"
	"time"

	"photocull/internal/logging"
	"photocull/internal/media"
	"photocull/internal/mediatypes"
	"photocull/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// State is the lifecycle state of a Manager.
type State int

// Manager states
const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Decoder produces a display buffer for a path.
type Decoder interface {
	DecodeAndResize(path string, maxW, maxH int, q media.Quality) (*image.RGBA, error)
}

// Backpressure lets the worker yield to memory pressure.
type Backpressure interface {
	// ShouldThrottle reports that the worker should slow down.
	ShouldThrottle() bool
	// Wait blocks while processing is paused. It returns false when ctx is
	// done or the monitor shut down.
	Wait(ctx context.Context) bool
}

// Options configures a Manager.
type Options struct {
	Width   int
	Height  int
	Quality media.Quality

	// ItemInterval is slept between two decodes.
	ItemInterval time.Duration
	// IdleInterval is slept when both windows are fully processed.
	IdleInterval time.Duration
	// JoinTimeout bounds how long Start and Stop wait for the old worker.
	JoinTimeout time.Duration

	Backpressure Backpressure
}

// DefaultOptions returns the standard worker pacing.
func DefaultOptions(width, height int, q media.Quality) Options {
	return Options{
		Width:        width,
		Height:       height,
		Quality:      q,
		ItemInterval: 10 * time.Millisecond,
		IdleInterval: 500 * time.Millisecond,
		JoinTimeout:  500 * time.Millisecond,
	}
}

// entry is a resident buffer or, when buf is nil, a tombstone.
type entry struct {
	buf *image.RGBA
}

type worker struct {
	cancel  context.CancelFunc
	done    chan struct{}
	gen     uint64
	current []string
	next    []string
}

// Manager keeps the current and next window of decoded images in memory.
// A single background worker fills the map; GetImage falls back to a
// synchronous decode when the worker has not reached a path yet.
type Manager struct {
	decoder Decoder
	opts    Options

	// ctl serializes Start and Stop.
	ctl    sync.Mutex
	worker *worker

	mu      sync.RWMutex
	entries map[string]entry
	gen     uint64
	state   State

	flight singleflight.Group
}

// NewManager creates an idle Manager.
func NewManager(decoder Decoder, opts Options) *Manager {
	def := DefaultOptions(opts.Width, opts.Height, opts.Quality)
	if opts.ItemInterval <= 0 {
		opts.ItemInterval = def.ItemInterval
	}
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = def.IdleInterval
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = def.JoinTimeout
	}
	return &Manager{
		decoder: decoder,
		opts:    opts,
		entries: make(map[string]entry),
		state:   StateIdle,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Resident returns the number of entries in memory, tombstones included.
func (m *Manager) Resident() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Contains reports whether path has an entry, decoded or failed.
func (m *Manager) Contains(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[path]
	return ok
}

// Rekey makes the entry of oldPath available under newPath, used after a
// file has been moved. The old entry stays until the next Start.
func (m *Manager) Rekey(oldPath, newPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[oldPath]
	if !ok {
		return
	}
	if _, exists := m.entries[newPath]; !exists {
		m.entries[newPath] = e
	}
}

// Start stops any running worker, evicts entries outside current and next,
// and starts a new worker over the two windows.
func (m *Manager) Start(current, next []string) {
	m.ctl.Lock()
	defer m.ctl.Unlock()

	m.stopLocked()

	keep := make(map[string]struct{}, len(current)+len(next))
	for _, p := range current {
		keep[p] = struct{}{}
	}
	for _, p := range next {
		keep[p] = struct{}{}
	}

	m.mu.Lock()
	m.gen++
	evicted := 0
	for p := range m.entries {
		if _, ok := keep[p]; !ok {
			delete(m.entries, p)
			evicted++
		}
	}
	gen := m.gen
	m.state = StateRunning
	resident := len(m.entries)
	m.mu.Unlock()

	metrics.PreloadResidentEntries.Set(float64(resident))
	metrics.PreloadRestarts.Inc()
	logging.Debug("Preload start: current=%d next=%d evicted=%d resident=%d", len(current), len(next), evicted, resident)

	ctx, cancel := context.WithCancel(context.Background())
	w := &worker{
		cancel:  cancel,
		done:    make(chan struct{}),
		gen:     gen,
		current: append([]string(nil), current...),
		next:    append([]string(nil), next...),
	}
	m.worker = w
	go m.run(ctx, w)
}

// Stop signals the worker to exit and waits a bounded time for it.
// It is safe to call at any time, any number of times.
func (m *Manager) Stop() {
	m.ctl.Lock()
	defer m.ctl.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	w := m.worker
	if w == nil {
		return
	}
	m.worker = nil

	// Anything a late worker still writes is dropped by the generation check.
	m.mu.Lock()
	m.gen++
	m.state = StateStopped
	m.mu.Unlock()

	w.cancel()
	select {
	case <-w.done:
	case <-time.After(m.opts.JoinTimeout):
		metrics.PreloadJoinTimeouts.Inc()
		logging.Warn("Preload worker did not stop within %v, continuing without it", m.opts.JoinTimeout)
	}
}

// GetImage returns the buffer for path, decoding it synchronously on a
// miss. A nil buffer means the image cannot be decoded.
func (m *Manager) GetImage(path string) (string, *image.RGBA) {
	m.mu.RLock()
	e, ok := m.entries[path]
	gen := m.gen
	m.mu.RUnlock()

	if ok {
		metrics.PreloadLookups.WithLabelValues("memory").Inc()
		return path, e.buf
	}

	metrics.PreloadLookups.WithLabelValues("sync").Inc()
	logging.Debug("Preload miss, decoding synchronously: %s", path)
	e = m.load(path, gen)

	// The flight may have been led by a worker from an older generation.
	m.mu.Lock()
	if _, exists := m.entries[path]; !exists && m.gen == gen {
		m.entries[path] = e
	}
	m.mu.Unlock()

	return path, e.buf
}

// load decodes path at most once at a time and records the result.
func (m *Manager) load(path string, gen uint64) entry {
	v, _, _ := m.flight.Do(path, func() (interface{}, error) {
		m.mu.RLock()
		e, ok := m.entries[path]
		m.mu.RUnlock()
		if ok {
			return e, nil
		}

		e = m.decode(path)

		m.mu.Lock()
		if m.gen == gen {
			m.entries[path] = e
		}
		resident := len(m.entries)
		m.mu.Unlock()
		metrics.PreloadResidentEntries.Set(float64(resident))
		return e, nil
	})
	return v.(entry)
}

// decode never panics and never returns an error; failures are tombstones.
func (m *Manager) decode(path string) (e entry) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Panic decoding %s: %v", path, r)
			e = entry{}
		}
	}()

	buf, err := m.decoder.DecodeAndResize(path, m.opts.Width, m.opts.Height, m.opts.Quality)
	if err != nil {
		logging.Warn("Skipping unreadable image %s: %v", path, err)
		return entry{}
	}
	if buf == nil {
		logging.Warn("Decoder returned no buffer for %s", path)
		return entry{}
	}
	return entry{buf: buf}
}

func (m *Manager) run(ctx context.Context, w *worker) {
	defer close(w.done)

	metrics.PreloadWorkerRunning.Set(1)
	defer metrics.PreloadWorkerRunning.Set(0)

	for {
		if ctx.Err() != nil {
			return
		}

		if bp := m.opts.Backpressure; bp != nil && !bp.Wait(ctx) {
			return
		}

		path, window, ok := m.nextPending(w)
		if !ok {
			if !sleep(ctx, m.opts.IdleInterval) {
				return
			}
			continue
		}

		m.load(path, w.gen)
		metrics.PreloadDecoded.WithLabelValues(window).Inc()

		interval := m.opts.ItemInterval
		if bp := m.opts.Backpressure; bp != nil && bp.ShouldThrottle() {
			interval = m.opts.IdleInterval
		}
		if !sleep(ctx, interval) {
			return
		}
	}
}

// nextPending picks the next path without an entry: current window before
// next window, RAW files first within each.
func (m *Manager) nextPending(w *worker) (string, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	windows := []struct {
		name  string
		paths []string
	}{
		{"current", w.current},
		{"next", w.next},
	}

	for _, win := range windows {
		fallback := ""
		for _, p := range win.paths {
			if _, done := m.entries[p]; done {
				continue
			}
			if mediatypes.IsRaw(p) {
				return p, win.name, true
			}
			if fallback == "" {
				fallback = p
			}
		}
		if fallback != "" {
			return fallback, win.name, true
		}
	}
	return "", "", false
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
