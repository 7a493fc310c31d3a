package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func grey(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{128, 128, 128, 255}), image.Point{}, draw.Src)
	return img
}

func countMatching(img *image.RGBA, r image.Rectangle, match func(color.RGBA) bool) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if match(img.RGBAAt(x, y)) {
				n++
			}
		}
	}
	return n
}

func TestComposeLeavesInputUntouched(t *testing.T) {
	base := grey(400, 300)
	frame := Compose(base, Info{Position: 1, Total: 3, Keys: "Space: keep", Date: "2021-05-10"})

	if frame == base {
		t.Fatal("Compose must return a copy")
	}
	if frame.Bounds() != base.Bounds() {
		t.Errorf("bounds = %v, want %v", frame.Bounds(), base.Bounds())
	}
	changed := countMatching(base, base.Bounds(), func(c color.RGBA) bool {
		return c != (color.RGBA{128, 128, 128, 255})
	})
	if changed != 0 {
		t.Errorf("input buffer has %d modified pixels", changed)
	}
}

func TestComposeDrawsText(t *testing.T) {
	frame := Compose(grey(400, 300), Info{Position: 2, Total: 10})

	// Position counter sits in the bottom-left corner
	bottomLeft := image.Rect(0, 260, 120, 300)
	white := countMatching(frame, bottomLeft, func(c color.RGBA) bool {
		return c.R > 240 && c.G > 240 && c.B > 240
	})
	if white == 0 {
		t.Error("expected white text pixels in the bottom-left corner")
	}

	// Nothing is drawn at the center of the frame
	if c := frame.RGBAAt(200, 150); c != (color.RGBA{128, 128, 128, 255}) {
		t.Errorf("center pixel = %v, want unchanged", c)
	}
}

func TestComposeStatusColors(t *testing.T) {
	topRight := image.Rect(300, 0, 400, 40)

	tests := []struct {
		status string
		match  func(color.RGBA) bool
	}{
		{"Saved", func(c color.RGBA) bool { return c.G > 200 && c.R < 30 }},
		{"Deleted", func(c color.RGBA) bool { return c.R > 200 && c.G < 60 }},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			frame := Compose(grey(400, 300), Info{Position: 1, Total: 1, Status: tt.status})
			if countMatching(frame, topRight, tt.match) == 0 {
				t.Errorf("no %s-colored pixels in the top-right corner", tt.status)
			}
		})
	}
}

func TestComposeHistoryOnlyWhenPresent(t *testing.T) {
	topLeft := image.Rect(0, 0, 120, 30)
	isText := func(c color.RGBA) bool { return c.R > 240 && c.G > 240 && c.B > 240 }

	without := Compose(grey(400, 300), Info{Position: 1, Total: 1, HistoryCap: 10})
	if n := countMatching(without, topLeft, isText); n != 0 {
		t.Errorf("found %d text pixels with empty history", n)
	}

	with := Compose(grey(400, 300), Info{Position: 1, Total: 1, HistoryLen: 3, HistoryCap: 10})
	if n := countMatching(with, topLeft, isText); n == 0 {
		t.Error("expected history text in the top-left corner")
	}
}
