package samples

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvlab/internal/logger"
)

func TestNames(t *testing.T) {
	expected := []string{
		"box", "box-in-scene", "chess", "document", "dog", "glyph", "glyph-dots",
		"glyph-holes", "hand", "noisy", "photo", "portrait", "shapes",
	}
	if diff := cmp.Diff(expected, Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_Sizes(t *testing.T) {
	tests := []struct {
		name string
		size image.Point
	}{
		{"photo", image.Pt(640, 480)},
		{"noisy", image.Pt(640, 480)},
		{"dog", image.Pt(480, 360)},
		{"document", image.Pt(1300, 2050)},
		{"chess", image.Pt(480, 480)},
		{"glyph", image.Pt(300, 300)},
		{"box", image.Pt(320, 240)},
		{"box-in-scene", image.Pt(640, 480)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Generate(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.size, img.Bounds().Size())
		})
	}
}

func TestGenerate_Unknown(t *testing.T) {
	_, err := Generate("lena")
	assert.ErrorIs(t, err, ErrUnknownSample)
}

func TestGenerate_Deterministic(t *testing.T) {
	for _, name := range []string{"noisy", "glyph-dots", "box-in-scene", "portrait"} {
		a, err := Generate(name)
		require.NoError(t, err)
		b, err := Generate(name)
		require.NoError(t, err)
		assert.Equal(t, imaging.Clone(a).Pix, imaging.Clone(b).Pix, name)
	}
}

func TestGenerate_GlyphVariants(t *testing.T) {
	isWhite := func(c color.Color) bool {
		r, g, b, _ := c.RGBA()
		return r == 0xffff && g == 0xffff && b == 0xffff
	}
	count := func(img image.Image) int {
		n := 0
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if isWhite(img.At(x, y)) {
					n++
				}
			}
		}
		return n
	}

	base, _ := Generate("glyph")
	dots, _ := Generate("glyph-dots")
	holes, _ := Generate("glyph-holes")

	assert.Greater(t, count(dots), count(base), "dots add white pixels")
	assert.Less(t, count(holes), count(base), "holes remove white pixels")
	assert.True(t, isWhite(base.At(185, 100)), "stem is white")
	assert.False(t, isWhite(base.At(10, 10)), "background is black")
}

func TestChessSquares(t *testing.T) {
	img, _ := Generate("chess")
	// margin 40, squares 50: (65,65) is in the first (white) square
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, color.NRGBAModel.Convert(img.At(65, 65)))
	assert.Equal(t, color.NRGBA{A: 255}, color.NRGBAModel.Convert(img.At(115, 65)))
}

func TestCanvas_Fills(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	c := newCanvas(100, 100, black)

	c.rect(image.Rect(0, 0, 10, 10), white)
	c.circle(50, 50, 10, red)
	c.polygon([]gg.Point{{X: 70, Y: 90}, {X: 90, Y: 90}, {X: 80, Y: 70}}, white)
	c.polygon([]gg.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}, red)
	c.rotatedRect(20, 70, 20, 4, 90, red)

	assert.Equal(t, white, c.at(5, 5))
	assert.Equal(t, black, c.at(10, 10), "rect is half-open")
	assert.Equal(t, red, c.at(50, 50))
	assert.Equal(t, black, c.at(50, 35))
	assert.Equal(t, white, c.at(80, 85))
	assert.Equal(t, black, c.at(72, 72), "outside the triangle")
	assert.Equal(t, white, c.at(1, 1), "degenerate polygon draws nothing")
	// turned upright: 4 wide, 20 tall
	assert.Equal(t, red, c.at(20, 62))
	assert.Equal(t, black, c.at(28, 70))
}

func TestLibrary_Path(t *testing.T) {
	sampleDir := t.TempDir()
	cacheDir := filepath.Join(t.TempDir(), "cache")
	lib := NewLibrary(sampleDir, cacheDir, logger.NewNop())

	// A real file in the sample directory wins.
	own := filepath.Join(sampleDir, "dog.jpeg")
	require.NoError(t, imaging.Save(imaging.New(10, 10, color.White), own))
	path, err := lib.Path("dog")
	require.NoError(t, err)
	assert.Equal(t, own, path)

	// Otherwise a synthetic image is generated into the cache.
	path, err = lib.Path("chess")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cacheDir, "chess.png"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)

	// and reused on the next call.
	again, err := lib.Path("chess")
	require.NoError(t, err)
	assert.Equal(t, path, again)
	info2, err := os.Stat(again)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), info2.ModTime())

	_, err = lib.Path("lena")
	assert.ErrorIs(t, err, ErrUnknownSample)
}

func TestLibrary_WriteAll(t *testing.T) {
	lib := NewLibrary("", t.TempDir(), logger.NewNop())
	out := filepath.Join(t.TempDir(), "samples")

	paths, err := lib.WriteAll(out)
	require.NoError(t, err)
	assert.Len(t, paths, len(Names()))

	for _, p := range paths {
		img, err := imaging.Open(p)
		require.NoError(t, err, p)
		assert.False(t, img.Bounds().Empty(), p)
	}
}

func TestTrafficCrossings(t *testing.T) {
	// first car centre reaches y=600 at frame 73
	assert.Equal(t, 0, TrafficCrossings(73, 600))
	assert.Equal(t, 1, TrafficCrossings(74, 600))
	assert.Equal(t, 3, TrafficCrossings(TrafficFrames/2, 600))

	for _, b := range TrafficBoxes(150) {
		assert.True(t, b.In(image.Rect(0, 0, TrafficWidth, TrafficHeight)))
	}
	img := TrafficFrame(10)
	assert.Equal(t, image.Pt(TrafficWidth, TrafficHeight), img.Bounds().Size())
}
