package media

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func isBlack(c color.RGBA) bool {
	return c.R == 0 && c.G == 0 && c.B == 0 && c.A == 255
}

func TestLetterboxWideImage(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	buf := Letterbox(solid(600, 300, white), 400, 400, QualityNormal)

	if buf.Bounds() != image.Rect(0, 0, 400, 400) {
		t.Fatalf("bounds = %v, want 400x400", buf.Bounds())
	}

	// 600x300 scaled by 2/3 is 400x200, centered vertically
	for _, y := range []int{0, 50, 99, 300, 350, 399} {
		if c := buf.RGBAAt(200, y); !isBlack(c) {
			t.Errorf("pixel (200,%d) = %v, want black border", y, c)
		}
	}
	for _, y := range []int{101, 200, 298} {
		if c := buf.RGBAAt(200, y); c.R < 250 || c.G < 250 || c.B < 250 {
			t.Errorf("pixel (200,%d) = %v, want image content", y, c)
		}
	}
}

func TestLetterboxUpscales(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	buf := Letterbox(solid(10, 20, red), 200, 200, QualityLow)

	if buf.Bounds().Dx() != 200 || buf.Bounds().Dy() != 200 {
		t.Fatalf("bounds = %v, want 200x200", buf.Bounds())
	}
	// 10x20 scaled by 10 is 100x200, so columns 50..149 carry the image
	if c := buf.RGBAAt(100, 100); c.R < 250 || c.G > 5 {
		t.Errorf("center pixel = %v, want red", c)
	}
	if c := buf.RGBAAt(10, 100); !isBlack(c) {
		t.Errorf("left border pixel = %v, want black", c)
	}
	if c := buf.RGBAAt(190, 100); !isBlack(c) {
		t.Errorf("right border pixel = %v, want black", c)
	}
}

func TestLetterboxExactFit(t *testing.T) {
	blue := color.RGBA{0, 0, 255, 255}
	buf := Letterbox(solid(64, 48, blue), 64, 48, QualityHigh)

	for _, p := range []image.Point{{0, 0}, {63, 47}, {32, 24}} {
		if c := buf.RGBAAt(p.X, p.Y); c != blue {
			t.Errorf("pixel %v = %v, want %v", p, c, blue)
		}
	}
}

func TestLetterboxEmptySource(t *testing.T) {
	buf := Letterbox(image.NewRGBA(image.Rect(0, 0, 0, 0)), 30, 20, QualityNormal)
	if buf.Bounds() != image.Rect(0, 0, 30, 20) {
		t.Fatalf("bounds = %v, want 30x20", buf.Bounds())
	}
	if c := buf.RGBAAt(15, 10); !isBlack(c) {
		t.Errorf("pixel = %v, want black", c)
	}
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		name         string
		sw, sh       int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"wide into square", 600, 300, 400, 400, 400, 200},
		{"tall into square", 300, 600, 400, 400, 200, 400},
		{"upscale", 100, 50, 1720, 1000, 1720, 860},
		{"exact", 1720, 1000, 1720, 1000, 1720, 1000},
		{"extreme panorama", 10000, 1, 100, 100, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitSize(tt.sw, tt.sh, tt.maxW, tt.maxH)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("FitSize(%d, %d, %d, %d) = %dx%d, want %dx%d",
					tt.sw, tt.sh, tt.maxW, tt.maxH, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		input   string
		want    Quality
		wantErr bool
	}{
		{"low", QualityLow, false},
		{"NORMAL", QualityNormal, false},
		{"", QualityNormal, false},
		{" high ", QualityHigh, false},
		{"ultra", QualityNormal, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseQuality(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseQuality(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseQuality(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
