package navigator

import (
	"context"
	"errors"
	"image"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"photocull/internal/media"
	"photocull/internal/preload"
)

// stubDecoder decodes every path except those containing "corrupt".
type stubDecoder struct{}

func (stubDecoder) DecodeAndResize(path string, w, h int, _ media.Quality) (*image.RGBA, error) {
	if strings.Contains(path, "corrupt") {
		return nil, errors.New("corrupt")
	}
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

// recordingPreloader wraps a real Manager and records window restarts.
type recordingPreloader struct {
	*preload.Manager
	mu     sync.Mutex
	starts [][2][]string
}

func (r *recordingPreloader) Start(current, next []string) {
	r.mu.Lock()
	r.starts = append(r.starts, [2][]string{
		append([]string(nil), current...),
		append([]string(nil), next...),
	})
	r.mu.Unlock()
	r.Manager.Start(current, next)
}

func newPreloader() *recordingPreloader {
	opts := preload.DefaultOptions(32, 24, media.QualityNormal)
	opts.ItemInterval = time.Millisecond
	opts.IdleInterval = 5 * time.Millisecond
	return &recordingPreloader{Manager: preload.NewManager(stubDecoder{}, opts)}
}

type scriptedDisplay struct {
	keys     []string
	shown    int
	onShow   func()
	finished *Summary
}

func (d *scriptedDisplay) Show(frame *image.RGBA) error {
	if frame.Bounds() != image.Rect(0, 0, 32, 24) {
		return errors.New("unexpected frame size")
	}
	d.shown++
	if d.onShow != nil {
		d.onShow()
	}
	return nil
}

func (d *scriptedDisplay) ReadKey(context.Context) (string, error) {
	if len(d.keys) == 0 {
		return "", io.EOF
	}
	k := d.keys[0]
	d.keys = d.keys[1:]
	return k, nil
}

func (d *scriptedDisplay) Finish(summary Summary) {
	d.finished = &summary
}

type fakeMover struct {
	fail map[string]bool
}

func (m *fakeMover) Keep(path string) (string, error) {
	if m.fail[path] {
		return "", errors.New("permission denied")
	}
	return filepath.Join("out", "2021", "May", filepath.Base(path)), nil
}

func (m *fakeMover) Delete(path string) (string, error) {
	if m.fail[path] {
		return "", errors.New("permission denied")
	}
	return filepath.Join("out", "Deleted", filepath.Base(path)), nil
}

type fakeDates map[string]time.Time

func (f fakeDates) Date(path string) (time.Time, bool) {
	t, ok := f[path]
	return t, ok
}

type fakeJournal struct {
	entries []string
}

func (j *fakeJournal) Record(_ context.Context, action, from, to string) error {
	j.entries = append(j.entries, action+":"+from+"->"+to)
	return nil
}

func newTestSession(t *testing.T, paths []string, keys []string, opts Options) (*Session, *scriptedDisplay, *recordingPreloader) {
	t.Helper()
	if opts.ChunkSize == 0 {
		opts.ChunkSize = 2
	}
	pre := newPreloader()
	display := &scriptedDisplay{keys: keys}
	s, err := NewSession(paths, pre, display, &fakeMover{}, fakeDates{}, opts)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s, display, pre
}

func TestSessionEndToEnd(t *testing.T) {
	paths := []string{"a.jpg", "corrupt.jpg", "b.png", "c.nef"}
	s, display, pre := newTestSession(t, paths, []string{"right", "right", "right"}, Options{ChunkSize: 2})

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if display.shown != 3 {
		t.Errorf("interactive slots = %d, want 3", display.shown)
	}
	if summary.State != StateDone || s.State() != StateDone {
		t.Errorf("state = %v / %v, want done", summary.State, s.State())
	}
	if summary.Unreadable != 1 || summary.Skipped != 3 {
		t.Errorf("summary = %+v, want 1 unreadable and 3 skipped", summary)
	}
	if got := len(s.History()); got > 3 {
		t.Errorf("history length = %d, want at most 3", got)
	}
	if display.finished == nil || display.finished.State != StateDone {
		t.Error("display should be told the session is done")
	}
	if pre.State() != preload.StateStopped {
		t.Errorf("preload state = %v, want stopped", pre.State())
	}
	if s.Cursor() != len(paths) {
		t.Errorf("Cursor() = %d, want %d", s.Cursor(), len(paths))
	}
}

func TestSessionHistoryKeepsTenMostRecent(t *testing.T) {
	var paths, keys []string
	for i := 0; i < 12; i++ {
		paths = append(paths, filepath.Join("in", string(rune('a'+i))+".jpg"))
		keys = append(keys, "right")
	}

	s, _, _ := newTestSession(t, paths, keys, Options{ChunkSize: 5})
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	history := s.History()
	if len(history) != 10 {
		t.Fatalf("history length = %d, want 10", len(history))
	}
	for i, p := range history {
		if p != paths[i+2] {
			t.Errorf("history[%d] = %q, want %q", i, p, paths[i+2])
		}
	}
}

func TestSessionBackAfterMove(t *testing.T) {
	paths := []string{"in/a.jpg", "in/b.jpg", "in/c.jpg"}
	s, display, _ := newTestSession(t, paths, []string{"space", "left", "escape"}, Options{ChunkSize: 3})

	type view struct {
		cursor  int
		path    string
		history int
	}
	var views []view
	display.onShow = func() {
		c := s.Cursor()
		views = append(views, view{c, s.Paths()[c], len(s.History())})
	}

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.State != StateAborted {
		t.Errorf("state = %v, want aborted", summary.State)
	}

	want := []view{
		{0, "in/a.jpg", 0},
		{1, "in/b.jpg", 1},
		{0, filepath.Join("out", "2021", "May", "a.jpg"), 0},
	}
	if len(views) != len(want) {
		t.Fatalf("views = %+v, want %+v", views, want)
	}
	for i := range want {
		if views[i] != want[i] {
			t.Errorf("view %d = %+v, want %+v", i, views[i], want[i])
		}
	}
	if summary.Kept != 1 {
		t.Errorf("Kept = %d, want 1", summary.Kept)
	}
}

func TestSessionBackAcrossWindow(t *testing.T) {
	paths := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}
	s, display, pre := newTestSession(t, paths, []string{"right", "right", "left", "escape"}, Options{ChunkSize: 2})

	var cursors []int
	display.onShow = func() { cursors = append(cursors, s.Cursor()) }

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantCursors := []int{0, 1, 2, 1}
	if len(cursors) != len(wantCursors) {
		t.Fatalf("cursors = %v, want %v", cursors, wantCursors)
	}
	for i := range wantCursors {
		if cursors[i] != wantCursors[i] {
			t.Errorf("cursors = %v, want %v", cursors, wantCursors)
			break
		}
	}

	if len(pre.starts) != 3 {
		t.Fatalf("window restarts = %d, want 3", len(pre.starts))
	}
	wantCurrent := [][]string{{"a.jpg", "b.jpg"}, {"c.jpg", "d.jpg"}, {"a.jpg", "b.jpg"}}
	wantNext := []int{2, 0, 2}
	for i, start := range pre.starts {
		if strings.Join(start[0], ",") != strings.Join(wantCurrent[i], ",") {
			t.Errorf("start %d current = %v, want %v", i, start[0], wantCurrent[i])
		}
		if len(start[1]) != wantNext[i] {
			t.Errorf("start %d next = %v, want %d paths", i, start[1], wantNext[i])
		}
	}
}

func TestSessionMoveFailureNotInHistory(t *testing.T) {
	paths := []string{"locked.jpg", "b.jpg"}
	pre := newPreloader()
	display := &scriptedDisplay{keys: []string{"backspace", "right", "right"}}
	mover := &fakeMover{fail: map[string]bool{"locked.jpg": true}}

	s, err := NewSession(paths, pre, display, mover, fakeDates{}, Options{ChunkSize: 2})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	var cursors []int
	display.onShow = func() { cursors = append(cursors, s.Cursor()) }

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The failed delete keeps the cursor in place
	if len(cursors) != 3 || cursors[0] != 0 || cursors[1] != 0 || cursors[2] != 1 {
		t.Errorf("cursors = %v, want [0 0 1]", cursors)
	}
	if summary.Deleted != 0 {
		t.Errorf("Deleted = %d, want 0", summary.Deleted)
	}
	history := s.History()
	if len(history) != 2 || history[0] != "locked.jpg" || history[1] != "b.jpg" {
		t.Errorf("history = %v, want only the two skips", history)
	}
	if s.Paths()[0] != "locked.jpg" {
		t.Errorf("failed move must not rewrite the path list, got %q", s.Paths()[0])
	}
}

func TestSessionQuit(t *testing.T) {
	s, display, pre := newTestSession(t, []string{"a.jpg", "b.jpg", "c.jpg"}, []string{"right", "q"}, Options{})

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.State != StateAborted {
		t.Errorf("state = %v, want aborted", summary.State)
	}
	if display.shown != 2 {
		t.Errorf("shown = %d, want 2", display.shown)
	}
	if pre.State() != preload.StateStopped {
		t.Errorf("preload state = %v, want stopped", pre.State())
	}
	if display.finished == nil || display.finished.State != StateAborted {
		t.Error("display should be told the session was aborted")
	}
}

func TestSessionBackWithEmptyHistory(t *testing.T) {
	s, display, _ := newTestSession(t, []string{"a.jpg", "b.jpg"}, []string{"left", "escape"}, Options{})

	var cursors []int
	display.onShow = func() { cursors = append(cursors, s.Cursor()) }

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cursors) != 2 || cursors[0] != 0 || cursors[1] != 0 {
		t.Errorf("cursors = %v, want [0 0]", cursors)
	}
}

func TestSessionSortsWindowsByDate(t *testing.T) {
	day := func(y int) time.Time { return time.Date(y, time.January, 1, 12, 0, 0, 0, time.UTC) }
	paths := []string{"x.jpg", "y.jpg", "z.jpg", "w.jpg"}
	dates := fakeDates{"x.jpg": day(2022), "y.jpg": day(2020), "w.jpg": day(2019)}

	pre := newPreloader()
	display := &scriptedDisplay{keys: []string{"right", "right", "right", "right"}}
	s, err := NewSession(paths, pre, display, &fakeMover{}, dates, Options{ChunkSize: 2, SortWindows: true})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	var shown []string
	display.onShow = func() { shown = append(shown, s.Paths()[s.Cursor()]) }

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"y.jpg", "x.jpg", "w.jpg", "z.jpg"}
	if strings.Join(shown, ",") != strings.Join(want, ",") {
		t.Errorf("shown = %v, want %v", shown, want)
	}
}

func TestSessionJournalsMoves(t *testing.T) {
	journal := &fakeJournal{}
	s, _, _ := newTestSession(t, []string{"a.jpg", "b.jpg"}, []string{"space", "backspace"}, Options{Journal: journal})

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Kept != 1 || summary.Deleted != 1 {
		t.Errorf("summary = %+v, want 1 kept and 1 deleted", summary)
	}

	want := []string{
		"keep:a.jpg->" + filepath.Join("out", "2021", "May", "a.jpg"),
		"delete:b.jpg->" + filepath.Join("out", "Deleted", "b.jpg"),
	}
	if strings.Join(journal.entries, "|") != strings.Join(want, "|") {
		t.Errorf("journal = %v, want %v", journal.entries, want)
	}
}

func TestSessionReadKeyError(t *testing.T) {
	s, _, _ := newTestSession(t, []string{"a.jpg"}, nil, Options{})

	summary, err := s.Run(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Errorf("Run() error = %v, want io.EOF", err)
	}
	if summary.State != StateAborted {
		t.Errorf("state = %v, want aborted", summary.State)
	}
}

func TestSessionCancelledContext(t *testing.T) {
	s, display, _ := newTestSession(t, []string{"a.jpg"}, []string{"right"}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if display.shown != 0 {
		t.Errorf("shown = %d, want 0", display.shown)
	}
}

func TestNewSessionValidation(t *testing.T) {
	pre := newPreloader()
	display := &scriptedDisplay{}

	if _, err := NewSession(nil, pre, display, &fakeMover{}, nil, Options{ChunkSize: 0}); err == nil {
		t.Error("expected error for zero chunk size")
	}
	bad := Options{ChunkSize: 2, Bindings: Bindings{Save: "d", Delete: "d"}}
	if _, err := NewSession(nil, pre, display, &fakeMover{}, nil, bad); err == nil {
		t.Error("expected error for colliding key bindings")
	}
}

func TestSessionEmptyList(t *testing.T) {
	s, display, _ := newTestSession(t, nil, nil, Options{})
	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.State != StateDone || display.shown != 0 {
		t.Errorf("summary = %+v, shown = %d, want done with nothing shown", summary, display.shown)
	}
}
