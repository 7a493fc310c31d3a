package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/term"

	"photocull/internal/logging"
	"photocull/internal/navigator"
)

// ErrClosed is returned by ReadKey after Close.
var ErrClosed = errors.New("display is closed")

const previewQuality = 90

type keyEvent struct {
	key string
	err error
}

// Display writes frames to a preview file and reads keys from an input stream.
type Display struct {
	previewPath string
	out         io.Writer

	keys      chan keyEvent
	done      chan struct{}
	closeOnce sync.Once

	// restore is set when the input terminal was switched to raw mode.
	restore func() error
	frames  int
}

// New returns a Display reading keys from in without touching terminal
// modes. Input is taken to be line buffered: the newline that submits a
// line of keys is dropped, and only an empty line reports enter.
func New(previewPath string, in io.Reader, out io.Writer) *Display {
	return newDisplay(previewPath, in, out, false)
}

func newDisplay(previewPath string, in io.Reader, out io.Writer, raw bool) *Display {
	d := &Display{
		previewPath: previewPath,
		out:         out,
		keys:        make(chan keyEvent),
		done:        make(chan struct{}),
	}
	go d.readLoop(newKeyReader(in, d.done), raw)
	return d
}

// Open returns a Display on a terminal file, switching it to raw mode so
// single key presses arrive without a newline. Close restores the mode.
func Open(previewPath string, in *os.File, out io.Writer) (*Display, error) {
	fd := int(in.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		logging.Warn("Input is not a terminal, keys are read line buffered")
		return New(previewPath, in, out), nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}

	d := newDisplay(previewPath, in, out, true)
	d.restore = func() error { return term.Restore(fd, state) }
	return d, nil
}

// readLoop runs until the input fails. A read blocked on stdin cannot be
// interrupted, so the goroutine may outlive Close.
func (d *Display) readLoop(r *keyReader, raw bool) {
	midLine := false
	for {
		key, err := r.readKey()
		if !raw && err == nil {
			if key == "enter" && midLine {
				midLine = false
				continue
			}
			midLine = key != "enter"
		}
		select {
		case d.keys <- keyEvent{key: key, err: err}:
		case <-d.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// PreviewPath returns where frames are written.
func (d *Display) PreviewPath() string {
	return d.previewPath
}

// Show writes frame to the preview path. The file is replaced atomically so
// a watching viewer never reads a partial image.
func (d *Display) Show(frame *image.RGBA) error {
	dir := filepath.Dir(d.previewPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create preview directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".preview.*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create preview file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if err := jpeg.Encode(w, frame, &jpeg.Options{Quality: previewQuality}); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write preview: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close preview: %w", err)
	}
	if err := os.Rename(tmpName, d.previewPath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace preview: %w", err)
	}

	d.frames++
	logging.Debug("Preview frame %d written to %s", d.frames, d.previewPath)
	return nil
}

// ReadKey blocks until a key is pressed, the input ends or ctx is done.
func (d *Display) ReadKey(ctx context.Context) (string, error) {
	select {
	case ev := <-d.keys:
		return ev.key, ev.err
	case <-d.done:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Finish restores the terminal and prints the session summary.
func (d *Display) Finish(summary navigator.Summary) {
	if err := d.Close(); err != nil {
		logging.Warn("Failed to restore terminal: %v", err)
	}

	_, _ = fmt.Fprintf(d.out, "\nSession %s: %d images\n", summary.State, summary.Total)
	_, _ = fmt.Fprintf(d.out, "  kept:       %d\n", summary.Kept)
	_, _ = fmt.Fprintf(d.out, "  deleted:    %d\n", summary.Deleted)
	_, _ = fmt.Fprintf(d.out, "  skipped:    %d\n", summary.Skipped)
	_, _ = fmt.Fprintf(d.out, "  unreadable: %d\n", summary.Unreadable)
}

// Close restores the terminal mode and stops delivering keys. It is safe
// to call more than once.
func (d *Display) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.done)
		if d.restore != nil {
			err = d.restore()
		}
	})
	return err
}
