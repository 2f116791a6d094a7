package samples

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
)

// Generator draws a synthetic stand-in for a sample photograph.
type Generator func() image.Image

// DocumentCorners are the page corners in the document sample, ordered
// top-left, top-right, bottom-left, bottom-right.
var DocumentCorners = [4]image.Point{{X: 50, Y: 550}, {X: 1050, Y: 550}, {X: 0, Y: 2000}, {X: 1250, Y: 1950}}

// DocumentSize is the flattened page size the corners map to.
var DocumentSize = image.Pt(1150, 1500)

var generators = map[string]Generator{
	"photo":        photo,
	"dog":          dog,
	"document":     document,
	"noisy":        noisy,
	"portrait":     portrait,
	"chess":        chess,
	"glyph":        glyph,
	"glyph-dots":   glyphDots,
	"glyph-holes":  glyphHoles,
	"hand":         hand,
	"shapes":       shapes,
	"box":          box,
	"box-in-scene": boxInScene,
}

var (
	black = color.NRGBA{A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func hex(s string) color.NRGBA {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func nrgba(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// palette returns n evenly spaced hues of equal lightness.
func palette(n int, chroma, lightness float64) []color.NRGBA {
	out := make([]color.NRGBA, n)
	for i := range out {
		out[i] = nrgba(colorful.Hcl(360*float64(i)/float64(n), chroma, lightness))
	}
	return out
}

// verticalGradient blends from top to bottom in Lab space.
func verticalGradient(c canvas, r image.Rectangle, top, bottom string) {
	a, _ := colorful.Hex(top)
	b, _ := colorful.Hex(bottom)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		t := float64(y-r.Min.Y) / float64(r.Dy())
		c.rect(image.Rect(r.Min.X, y, r.Max.X, y+1), nrgba(a.BlendLab(b, t)))
	}
}

func photo() image.Image {
	c := newCanvas(640, 480, black)
	verticalGradient(c, image.Rect(0, 0, 640, 300), "#3a7bd5", "#cfe6ff")
	verticalGradient(c, image.Rect(0, 300, 640, 480), "#5a9e3a", "#2f5d1e")

	c.circle(520, 80, 40, hex("#ffd34d"))

	// house
	c.rect(image.Rect(120, 220, 320, 380), hex("#c8553d"))
	c.polygon([]gg.Point{{X: 100, Y: 225}, {X: 220, Y: 130}, {X: 340, Y: 225}}, hex("#6b2d1f"))
	c.rect(image.Rect(195, 300, 245, 380), hex("#3b2416"))
	c.rect(image.Rect(140, 250, 180, 285), hex("#e8f1f2"))
	c.rect(image.Rect(260, 250, 300, 285), hex("#e8f1f2"))

	// trees
	for i, x := range []float64{400, 460, 560} {
		h := 70 + float64(i)*15
		c.rect(image.Rect(int(x)-6, 330, int(x)+6, 380), hex("#5b3a1e"))
		c.ellipse(x, 330-h/2, 32, h/2, hex("#2e7d32"))
	}

	return blur.Gaussian(c.Image(), 1.2)
}

func dog() image.Image {
	c := newCanvas(480, 360, black)
	verticalGradient(c, image.Rect(0, 0, 480, 200), "#9ecfff", "#e0f0ff")
	verticalGradient(c, image.Rect(0, 200, 480, 360), "#7cb342", "#558b2f")

	fur, dark := hex("#b5793e"), hex("#6d4320")
	// legs
	for _, x := range []int{170, 200, 290, 320} {
		c.rect(image.Rect(x, 230, x+18, 300), fur)
	}
	c.ellipse(245, 210, 100, 50, fur)
	c.ellipse(245, 225, 70, 20, hex("#c98c52"))
	c.polygon([]gg.Point{{X: 340, Y: 190}, {X: 400, Y: 150}, {X: 405, Y: 160}, {X: 350, Y: 205}}, dark)

	// head
	c.circle(150, 160, 45, fur)
	c.ellipse(115, 175, 30, 18, hex("#c98c52"))
	c.polygon([]gg.Point{{X: 140, Y: 125}, {X: 175, Y: 100}, {X: 185, Y: 150}}, dark)
	c.circle(95, 170, 7, black)
	c.circle(140, 150, 5, black)

	return blur.Gaussian(c.Image(), 0.8)
}

func document() image.Image {
	c := newCanvas(1300, 2050, hex("#4e342e"))
	tl, tr, bl, br := toPoint(DocumentCorners[0]), toPoint(DocumentCorners[1]), toPoint(DocumentCorners[2]), toPoint(DocumentCorners[3])

	c.polygon([]gg.Point{tl, tr, br, bl}, hex("#f5f1e6"))

	rng := rand.New(rand.NewSource(2))
	ink := hex("#2b2b2b")
	// title
	c.polygon(quad(tl, tr, bl, br, 0.05, 0.08, 0.2, 0.8), ink)
	for i := 0; i < 18; i++ {
		v0 := 0.14 + float64(i)*0.045
		end := 0.9
		if i%6 == 5 {
			end = 0.3 + rng.Float64()*0.4
		}
		c.polygon(quad(tl, tr, bl, br, v0, v0+0.015, 0.08, end), ink)
	}
	return c.Image()
}

// quad returns the patch of the page between v0..v1 down and u0..u1 across.
func quad(tl, tr, bl, br gg.Point, v0, v1, u0, u1 float64) []gg.Point {
	l0, r0 := tl.Interpolate(bl, v0), tr.Interpolate(br, v0)
	l1, r1 := tl.Interpolate(bl, v1), tr.Interpolate(br, v1)
	return []gg.Point{l0.Interpolate(r0, u0), l0.Interpolate(r0, u1), l1.Interpolate(r1, u1), l1.Interpolate(r1, u0)}
}

func toPoint(p image.Point) gg.Point {
	return gg.Point{X: float64(p.X), Y: float64(p.Y)}
}

// noisy is the photo with salt-and-pepper noise.
func noisy() image.Image {
	img := imaging.Clone(photo())
	rng := rand.New(rand.NewSource(3))
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			switch p := rng.Float64(); {
			case p < 0.03:
				img.SetNRGBA(x, y, black)
			case p < 0.06:
				img.SetNRGBA(x, y, white)
			}
		}
	}
	return img
}

// portrait is a face with fine grain for the edge-preserving filters.
func portrait() image.Image {
	c := newCanvas(400, 500, hex("#37474f"))
	skin := hex("#e0ac69")

	c.ellipse(200, 470, 150, 90, hex("#1e88e5"))
	c.rect(image.Rect(170, 330, 230, 400), skin)
	c.ellipse(200, 150, 110, 100, hex("#3e2723"))
	c.ellipse(200, 230, 95, 120, skin)
	c.ellipse(160, 210, 14, 8, white)
	c.ellipse(240, 210, 14, 8, white)
	c.circle(160, 210, 6, hex("#4e342e"))
	c.circle(240, 210, 6, hex("#4e342e"))
	c.polygon([]gg.Point{{X: 200, Y: 220}, {X: 188, Y: 270}, {X: 212, Y: 270}}, hex("#c68642"))
	c.ellipse(200, 300, 30, 9, hex("#b71c1c"))

	img := imaging.Clone(c.Image())
	rng := rand.New(rand.NewSource(4))
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := img.NRGBAAt(x, y)
			d := int(rng.NormFloat64() * 8)
			img.SetNRGBA(x, y, color.NRGBA{R: clamp(int(p.R) + d), G: clamp(int(p.G) + d), B: clamp(int(p.B) + d), A: 255})
		}
	}
	return img
}

func clamp(v int) uint8 {
	return uint8(math.Max(0, math.Min(255, float64(v))))
}

func chess() image.Image {
	const square, margin = 50, 40
	c := newCanvas(8*square+2*margin, 8*square+2*margin, hex("#9e9e9e"))
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			fill := white
			if (row+col)%2 == 1 {
				fill = black
			}
			x, y := margin+col*square, margin+row*square
			c.rect(image.Rect(x, y, x+square, y+square), fill)
		}
	}
	return c.Image()
}

// glyph draws a white "J" on black for the morphology demos.
func glyph() image.Image {
	return glyphCanvas().Image()
}

func glyphCanvas() canvas {
	c := newCanvas(300, 300, black)
	c.rect(image.Rect(100, 40, 240, 70), white)
	c.rect(image.Rect(170, 40, 205, 210), white)
	// the hook is the lower half of a ring
	c.circle(135, 205, 70, white)
	c.circle(135, 205, 35, black)
	c.rect(image.Rect(65, 130, 205, 205), black)
	c.rect(image.Rect(170, 130, 205, 210), white)
	return c
}

// glyphDots adds white specks around the glyph, removed by opening.
func glyphDots() image.Image {
	c := glyphCanvas()
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 120; i++ {
		x, y := rng.Intn(300), rng.Intn(300)
		c.rect(image.Rect(x, y, x+3, y+3), white)
	}
	return c.Image()
}

// glyphHoles punches black specks into the glyph, filled by closing.
func glyphHoles() image.Image {
	c := glyphCanvas()
	rng := rand.New(rand.NewSource(6))
	for placed := 0; placed < 80; {
		x, y := rng.Intn(300), rng.Intn(300)
		if c.at(x, y) != white {
			continue
		}
		c.rect(image.Rect(x, y, x+3, y+3), black)
		placed++
	}
	return c.Image()
}

func hand() image.Image {
	c := newCanvas(400, 420, black)
	skin := white
	c.ellipse(200, 290, 85, 100, skin)
	fingers := []struct{ x, y, len, angle float64 }{
		{130, 170, 110, -18},
		{175, 140, 130, -6},
		{220, 140, 135, 4},
		{262, 165, 115, 14},
	}
	for _, f := range fingers {
		c.rotatedRect(f.x, f.y, 34, f.len, f.angle, skin)
		rad := f.angle * math.Pi / 180
		c.circle(f.x+math.Sin(rad)*f.len/2, f.y-math.Cos(rad)*f.len/2, 17, skin)
	}
	// thumb
	c.rotatedRect(108, 280, 34, 110, -55, skin)
	c.circle(70, 248, 17, skin)
	return c.Image()
}

// shapes is a rotated frame: the inner contour is a tilted rectangle.
func shapes() image.Image {
	c := newCanvas(400, 300, black)
	c.rotatedRect(200, 150, 260, 150, 20, white)
	c.rotatedRect(200, 150, 220, 110, 20, black)
	c.circle(60, 50, 20, white)
	return c.Image()
}

// box is a textured card with plenty of corners for feature matching.
func box() image.Image {
	return texture(320, 240, 7, hex("#fafafa"))
}

func texture(w, h int, seed int64, bg color.NRGBA) image.Image {
	c := newCanvas(w, h, bg)
	rng := rand.New(rand.NewSource(seed))
	colours := palette(9, 0.7, 0.55)
	for i := 0; i < 60; i++ {
		col := colours[rng.Intn(len(colours))]
		x, y := rng.Intn(w), rng.Intn(h)
		size := 8 + rng.Intn(40)
		if i%3 == 0 {
			c.circle(float64(x), float64(y), float64(size)/2, col)
		} else {
			c.rect(image.Rect(x, y, x+size, y+size*2/3), col)
		}
	}
	c.rect(image.Rect(0, 0, w, 6), black)
	c.rect(image.Rect(0, h-6, w, h), black)
	c.rect(image.Rect(0, 0, 6, h), black)
	c.rect(image.Rect(w-6, 0, w, h), black)
	return c.Image()
}

// boxInScene places a scaled, rotated box on a cluttered table.
func boxInScene() image.Image {
	scene := imaging.Clone(texture(640, 480, 11, hex("#8d8d8d")))
	card := imaging.Resize(box(), 256, 192, imaging.Lanczos)
	card = imaging.Rotate(card, 20, hex("#8d8d8d"))
	return imaging.Paste(scene, card, image.Pt(220, 160))
}
