package organize

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(filepath.Base(path)), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func fixedDate(t time.Time, ok bool) DateFunc {
	return func(string) (time.Time, bool) { return t, ok }
}

func TestDatedDir(t *testing.T) {
	out := filepath.Join("out")
	tests := []struct {
		name string
		date time.Time
		ok   bool
		want string
	}{
		{"dated", time.Date(2021, time.May, 10, 0, 0, 0, 0, time.Local), true, filepath.Join(out, "2021", "May")},
		{"december", time.Date(1999, time.December, 31, 0, 0, 0, 0, time.Local), true, filepath.Join(out, "1999", "Dec")},
		{"undated", time.Time{}, false, filepath.Join(out, "No Date")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DatedDir(out, tt.date, tt.ok); got != tt.want {
				t.Errorf("DatedDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeep(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	src := filepath.Join(in, "DSC_0001.jpg")
	touch(t, src)

	o := New(out, fixedDate(time.Date(2021, time.May, 10, 8, 0, 0, 0, time.Local), true))
	got, err := o.Keep(src)
	if err != nil {
		t.Fatalf("Keep: %v", err)
	}

	want := filepath.Join(out, "2021", "May", "DSC_0001.jpg")
	if got != want {
		t.Errorf("Keep() = %q, want %q", got, want)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source should be gone after Keep")
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("target missing: %v", err)
	}
}

func TestKeepUndated(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.png")
	touch(t, src)
	out := t.TempDir()

	got, err := New(out, fixedDate(time.Time{}, false)).Keep(src)
	if err != nil {
		t.Fatalf("Keep: %v", err)
	}
	if want := filepath.Join(out, "No Date", "a.png"); got != want {
		t.Errorf("Keep() = %q, want %q", got, want)
	}
}

func TestKeepWithoutOutputDir(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.png")
	touch(t, src)

	if _, err := New("", nil).Keep(src); err == nil {
		t.Error("expected error without an output directory")
	}
}

func TestDeleteCollision(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	touch(t, filepath.Join(out, "Deleted", "IMG.jpg"))
	touch(t, filepath.Join(out, "Deleted", "IMG_1.jpg"))

	src := filepath.Join(in, "IMG.jpg")
	touch(t, src)

	got, err := New(out, nil).Delete(src)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if want := filepath.Join(out, "Deleted", "IMG_2.jpg"); got != want {
		t.Errorf("Delete() = %q, want %q", got, want)
	}

	// The files that were already there are untouched
	data, err := os.ReadFile(filepath.Join(out, "Deleted", "IMG.jpg"))
	if err != nil || string(data) != "IMG.jpg" {
		t.Errorf("existing file changed: %q, %v", data, err)
	}
}

func TestDeleteWithoutOutputDir(t *testing.T) {
	work := t.TempDir()
	t.Chdir(work)

	touch(t, filepath.Join(work, "x.jpg"))
	got, err := New("", nil).Delete("x.jpg")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if want := filepath.Join("Deleted", "x.jpg"); got != want {
		t.Errorf("Delete() = %q, want %q", got, want)
	}
}

func TestMoveToMissingSource(t *testing.T) {
	_, err := New(t.TempDir(), nil).MoveTo(filepath.Join(t.TempDir(), "gone.jpg"), t.TempDir())
	if !errors.Is(err, ErrSourceMissing) {
		t.Errorf("MoveTo() error = %v, want ErrSourceMissing", err)
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	got, err := UniquePath(dir, "photo.tar.nef")
	if err != nil {
		t.Fatalf("UniquePath: %v", err)
	}
	if want := filepath.Join(dir, "photo.tar.nef"); got != want {
		t.Errorf("UniquePath() = %q, want %q", got, want)
	}

	touch(t, got)
	got, err = UniquePath(dir, "photo.tar.nef")
	if err != nil {
		t.Fatalf("UniquePath: %v", err)
	}
	if want := filepath.Join(dir, "photo.tar_1.nef"); got != want {
		t.Errorf("UniquePath() = %q, want %q", got, want)
	}

	touch(t, filepath.Join(dir, "noext"))
	got, _ = UniquePath(dir, "noext")
	if want := filepath.Join(dir, "noext_1"); got != want {
		t.Errorf("UniquePath() = %q, want %q", got, want)
	}
}

func TestStatus(t *testing.T) {
	out := filepath.Join(string(filepath.Separator), "photos", "sorted")
	tests := []struct {
		name string
		path string
		out  string
		want string
	}{
		{"saved", filepath.Join(out, "2021", "May", "a.jpg"), out, StatusSaved},
		{"deleted under output", filepath.Join(out, "Deleted", "a.jpg"), out, StatusDeleted},
		{"deleted without output", filepath.Join("Deleted", "a.jpg"), "", StatusDeleted},
		{"untouched", filepath.Join(string(filepath.Separator), "photos", "in", "a.jpg"), out, ""},
		{"sibling with shared prefix", filepath.Join(string(filepath.Separator), "photos", "sorted2", "a.jpg"), out, ""},
		{"segment must match exactly", filepath.Join(string(filepath.Separator), "photos", "NotDeleted", "a.jpg"), "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.path, tt.out); got != tt.want {
				t.Errorf("Status(%q, %q) = %q, want %q", tt.path, tt.out, got, tt.want)
			}
		})
	}
}
