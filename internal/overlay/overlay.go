package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	margin  = 10
	padding = 4
)

var (
	textColor    = color.RGBA{255, 255, 255, 255}
	savedColor   = color.RGBA{0, 220, 0, 255}
	deletedColor = color.RGBA{230, 30, 30, 255}
	errorColor   = color.RGBA{255, 200, 0, 255}
	boxColor     = color.RGBA{0, 0, 0, 160}
)

// Info is the text drawn over a frame.
type Info struct {
	Position int // 1-based
	Total    int
	Keys     string
	Status   string
	Date     string

	HistoryLen int
	HistoryCap int

	// Message is a transient notice such as a failed move.
	Message string
}

// Compose draws info onto a copy of buf. buf itself is never modified.
func Compose(buf *image.RGBA, info Info) *image.RGBA {
	frame := image.NewRGBA(buf.Bounds())
	draw.Draw(frame, frame.Bounds(), buf, buf.Bounds().Min, draw.Src)

	face := basicfont.Face7x13
	b := frame.Bounds()
	lineHeight := face.Metrics().Height.Ceil()
	bottom := b.Max.Y - margin
	top := b.Min.Y + margin + lineHeight

	position := fmt.Sprintf("Image %d/%d", info.Position, info.Total)
	drawLabel(frame, face, position, b.Min.X+margin, bottom, textColor)

	if info.Keys != "" {
		x := b.Min.X + (b.Dx()-textWidth(face, info.Keys))/2
		drawLabel(frame, face, info.Keys, x, bottom, textColor)
	}

	date := info.Date
	if date == "" {
		date = "No date"
	}
	drawLabel(frame, face, date, b.Max.X-margin-textWidth(face, date), bottom, textColor)

	if info.HistoryLen > 0 {
		drawLabel(frame, face, fmt.Sprintf("History: %d/%d", info.HistoryLen, info.HistoryCap), b.Min.X+margin, top, textColor)
	}

	if info.Status != "" {
		c := textColor
		switch info.Status {
		case "Saved":
			c = savedColor
		case "Deleted":
			c = deletedColor
		}
		drawLabel(frame, face, info.Status, b.Max.X-margin-textWidth(face, info.Status), top, c)
	}

	if info.Message != "" {
		x := b.Min.X + (b.Dx()-textWidth(face, info.Message))/2
		drawLabel(frame, face, info.Message, x, top+lineHeight+2*padding, errorColor)
	}

	return frame
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// drawLabel draws s with its baseline at y on a translucent box.
func drawLabel(dst *image.RGBA, face font.Face, s string, x, y int, c color.Color) {
	m := face.Metrics()
	box := image.Rect(
		x-padding,
		y-m.Ascent.Ceil()-padding,
		x+textWidth(face, s)+padding,
		y+m.Descent.Ceil()+padding,
	).Intersect(dst.Bounds())
	draw.Draw(dst, box, image.NewUniform(boxColor), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
