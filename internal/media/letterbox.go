package media

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// Letterbox scales src by min(maxW/w, maxH/h), up or down, and centers it on
// a black canvas of exactly maxW x maxH.
func Letterbox(src image.Image, maxW, maxH int, q Quality) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, maxW, maxH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 || maxW <= 0 || maxH <= 0 {
		return canvas
	}

	w, h := FitSize(sw, sh, maxW, maxH)

	var scaled image.Image = src
	if w != sw || h != sh {
		scaled = imaging.Resize(src, w, h, q.resampleFilter())
	}

	off := image.Pt((maxW-w)/2, (maxH-h)/2)
	draw.Draw(canvas, image.Rectangle{Min: off, Max: off.Add(image.Pt(w, h))}, scaled, scaled.Bounds().Min, draw.Over)
	return canvas
}

// FitSize returns the size of a sw x sh image scaled to fit inside maxW x maxH
// with its aspect ratio kept. Neither side is ever smaller than 1.
func FitSize(sw, sh, maxW, maxH int) (int, int) {
	scale := math.Min(float64(maxW)/float64(sw), float64(maxH)/float64(sh))
	w := clamp(int(math.Round(float64(sw)*scale)), 1, maxW)
	h := clamp(int(math.Round(float64(sh)*scale)), 1, maxH)
	return w, h
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
