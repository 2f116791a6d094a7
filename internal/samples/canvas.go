package samples

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// canvas is a gg drawing context with fill-only helpers for the generators.
type canvas struct {
	*gg.Context
}

func newCanvas(w, h int, bg color.Color) canvas {
	dc := gg.NewContext(w, h)
	dc.SetColor(bg)
	dc.Clear()
	return canvas{dc}
}

func (c canvas) rect(r image.Rectangle, col color.Color) {
	c.SetColor(col)
	c.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	c.Fill()
}

func (c canvas) ellipse(cx, cy, rx, ry float64, col color.Color) {
	c.SetColor(col)
	c.DrawEllipse(cx, cy, rx, ry)
	c.Fill()
}

func (c canvas) circle(cx, cy, r float64, col color.Color) {
	c.SetColor(col)
	c.DrawCircle(cx, cy, r)
	c.Fill()
}

func (c canvas) polygon(pts []gg.Point, col color.Color) {
	if len(pts) < 3 {
		return
	}
	c.SetColor(col)
	c.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		c.LineTo(p.X, p.Y)
	}
	c.ClosePath()
	c.Fill()
}

// rotatedRect fills a w x h rectangle centred on (cx, cy), turned by deg.
func (c canvas) rotatedRect(cx, cy, w, h, deg float64, col color.Color) {
	c.Push()
	defer c.Pop()
	c.RotateAbout(gg.Radians(deg), cx, cy)
	c.SetColor(col)
	c.DrawRectangle(cx-w/2, cy-h/2, w, h)
	c.Fill()
}

// at reads back a pixel as NRGBA.
func (c canvas) at(x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(c.Image().At(x, y)).(color.NRGBA)
}
