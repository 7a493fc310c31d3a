package terminal

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photocull/internal/navigator"
)

func TestReadKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"arrows", "\x1b[D\x1b[C\x1b[A\x1b[B", []string{"left", "right", "up", "down"}},
		{"backspace variants", "\x7f\x08", []string{"backspace", "backspace"}},
		{"enter variants", "\r\n", []string{"enter", "enter"}},
		{"space and tab", " \t", []string{"space", "tab"}},
		{"letters lowercased", "kQ", []string{"k", "q"}},
		{"lone escape at end", "x\x1b", []string{"x", "escape"}},
		{"escape then letter", "\x1bq", []string{"escape", "q"}},
		{"ctrl-c quits", "\x03", []string{"escape"}},
		{"unknown csi skipped", "\x1b[5~d", []string{"d"}},
		{"modified arrow", "\x1b[1;5D", []string{"left"}},
		{"other controls skipped", "\x01\x02a", []string{"a"}},
		{"non-ascii", "é", []string{"é"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newKeyReader(strings.NewReader(tt.input), nil)
			for i, want := range tt.want {
				got, err := r.readKey()
				if err != nil {
					t.Fatalf("key %d: readKey() error = %v", i, err)
				}
				if got != want {
					t.Errorf("key %d: readKey() = %q, want %q", i, got, want)
				}
			}
			if _, err := r.readKey(); !errors.Is(err, io.EOF) {
				t.Errorf("readKey() after input = %v, want io.EOF", err)
			}
		})
	}
}

func TestReadKeySplitSequence(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	go func() {
		_, _ = pw.Write([]byte{keyEsc})
		time.Sleep(5 * time.Millisecond)
		_, _ = pw.Write([]byte("[D"))
		time.Sleep(5 * time.Millisecond)
		_, _ = pw.Write([]byte("\x1b[1;"))
		time.Sleep(5 * time.Millisecond)
		_, _ = pw.Write([]byte("5C"))
	}()

	r := newKeyReader(pr, nil)
	for _, want := range []string{"left", "right"} {
		got, err := r.readKey()
		if err != nil {
			t.Fatalf("readKey() error = %v", err)
		}
		if got != want {
			t.Errorf("readKey() = %q, want %q", got, want)
		}
	}
}

func TestReadKeyLoneEscapeTimesOut(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	go func() { _, _ = pw.Write([]byte{keyEsc}) }()

	r := newKeyReader(pr, nil)
	r.escWait = 10 * time.Millisecond

	start := time.Now()
	got, err := r.readKey()
	if err != nil {
		t.Fatalf("readKey() error = %v", err)
	}
	if got != "escape" {
		t.Errorf("readKey() = %q, want escape", got)
	}
	if elapsed := time.Since(start); elapsed < r.escWait {
		t.Errorf("escape reported after %v, before the %v wait", elapsed, r.escWait)
	}

	go func() { _, _ = pw.Write([]byte("k")) }()
	if got, err := r.readKey(); err != nil || got != "k" {
		t.Errorf("readKey() after escape = %q, %v; want k", got, err)
	}
}

func TestDisplayLineModeDropsNewline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"key then newline", " \n", []string{"space"}},
		{"empty line is enter", " \n\n", []string{"space", "enter"}},
		{"several keys on a line", "\x7f \n", []string{"backspace", "space"}},
		{"bare newlines", "\n\n", []string{"enter", "enter"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(filepath.Join(t.TempDir(), "preview.jpg"), strings.NewReader(tt.input), io.Discard)
			defer func() { _ = d.Close() }()

			ctx := context.Background()
			for i, want := range tt.want {
				got, err := d.ReadKey(ctx)
				if err != nil {
					t.Fatalf("key %d: ReadKey() error = %v", i, err)
				}
				if got != want {
					t.Errorf("key %d: ReadKey() = %q, want %q", i, got, want)
				}
			}
			if _, err := d.ReadKey(ctx); !errors.Is(err, io.EOF) {
				t.Errorf("ReadKey() at end of input = %v, want io.EOF", err)
			}
		})
	}
}

func TestDisplayRawModeKeepsEnter(t *testing.T) {
	d := newDisplay(filepath.Join(t.TempDir(), "preview.jpg"), strings.NewReader(" \r"), io.Discard, true)
	defer func() { _ = d.Close() }()

	for _, want := range []string{"space", "enter"} {
		got, err := d.ReadKey(context.Background())
		if err != nil {
			t.Fatalf("ReadKey() error = %v", err)
		}
		if got != want {
			t.Errorf("ReadKey() = %q, want %q", got, want)
		}
	}
}

func TestDisplayReadKey(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "preview.jpg"), strings.NewReader("\x1b[C \x7f"), io.Discard)
	defer func() { _ = d.Close() }()

	ctx := context.Background()
	for _, want := range []string{"right", "space", "backspace"} {
		got, err := d.ReadKey(ctx)
		if err != nil {
			t.Fatalf("ReadKey() error = %v", err)
		}
		if got != want {
			t.Errorf("ReadKey() = %q, want %q", got, want)
		}
	}

	if _, err := d.ReadKey(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("ReadKey() at end of input = %v, want io.EOF", err)
	}
}

func TestDisplayReadKeyContext(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	d := New(filepath.Join(t.TempDir(), "preview.jpg"), pr, io.Discard)
	defer func() { _ = d.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := d.ReadKey(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ReadKey() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestDisplayReadKeyAfterClose(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	d := New(filepath.Join(t.TempDir(), "preview.jpg"), pr, io.Discard)
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, err := d.ReadKey(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadKey() after Close = %v, want ErrClosed", err)
	}
}

func TestDisplayShow(t *testing.T) {
	preview := filepath.Join(t.TempDir(), "nested", "preview.jpg")
	d := New(preview, strings.NewReader(""), io.Discard)
	defer func() { _ = d.Close() }()

	frame := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			frame.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}

	for i := 0; i < 2; i++ {
		if err := d.Show(frame); err != nil {
			t.Fatalf("Show() error = %v", err)
		}
	}

	f, err := os.Open(preview)
	if err != nil {
		t.Fatalf("preview not written: %v", err)
	}
	defer func() { _ = f.Close() }()

	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("preview is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("preview size = %v, want 64x48", b)
	}

	entries, err := os.ReadDir(filepath.Dir(preview))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("preview dir has %d entries, want only the preview", len(entries))
	}
}

func TestDisplayFinish(t *testing.T) {
	var out bytes.Buffer
	d := New(filepath.Join(t.TempDir(), "preview.jpg"), strings.NewReader(""), &out)

	d.Finish(navigator.Summary{
		State:      navigator.StateDone,
		Total:      7,
		Kept:       3,
		Deleted:    2,
		Skipped:    1,
		Unreadable: 1,
	})

	text := out.String()
	for _, want := range []string{"Session done: 7 images", "kept:       3", "deleted:    2", "unreadable: 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("Finish() output missing %q:\n%s", want, text)
		}
	}

	if _, err := d.ReadKey(context.Background()); !errors.Is(err, ErrClosed) && !errors.Is(err, io.EOF) {
		t.Errorf("ReadKey() after Finish = %v", err)
	}
}
