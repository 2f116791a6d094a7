// Package vision is the demo catalog. Each demo loads its inputs, makes one
// or two OpenCV calls with fixed parameters and shows the results.
package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"gocv.io/x/gocv"

	"cvlab/internal/demo"
)

var (
	ErrNoContours    = errors.New("no contours found")
	ErrTooFewMatches = errors.New("too few good matches")
	ErrInputTooSmall = errors.New("input image too small")
)

// bgr converts a colour to an OpenCV scalar in blue, green, red order.
func bgr(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}

// toGray converts a BGR image to a new single channel Mat.
func toGray(src gocv.Mat) (gocv.Mat, error) {
	gray := gocv.NewMat()
	if err := gocv.CvtColor(src, &gray, gocv.ColorBGRToGray); err != nil {
		gray.Close()
		return gray, fmt.Errorf("failed to convert to grayscale: %w", err)
	}
	return gray, nil
}

type view struct {
	title string
	img   gocv.Mat
}

// show hands several images to the sink in order, stopping at the first error.
func show(env *demo.Env, views ...view) error {
	for _, v := range views {
		if err := env.Show(v.title, v.img); err != nil {
			return err
		}
	}
	return nil
}

// positive reads a parameter that must be greater than zero.
func positive(env *demo.Env, key string, def float64) (float64, error) {
	v, err := env.Float(key, def)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %v", demo.ErrBadParam, key, v)
	}
	return v, nil
}

// oddKernel reads an odd, positive kernel size.
func oddKernel(env *demo.Env, key string, def int) (int, error) {
	k, err := env.Int(key, def)
	if err != nil {
		return 0, err
	}
	if k <= 0 || k%2 == 0 {
		return 0, fmt.Errorf("%w: %s must be odd and positive, got %d", demo.ErrBadParam, key, k)
	}
	return k, nil
}

// parsePoints reads "x,y;x,y;..." into exactly n points.
func parsePoints(s string, n int) ([]image.Point, error) {
	parts := strings.Split(s, ";")
	if len(parts) != n {
		return nil, fmt.Errorf("%w: expected %d points, got %q", demo.ErrBadParam, n, s)
	}
	pts := make([]image.Point, n)
	for i, p := range parts {
		xs, ys, ok := strings.Cut(strings.TrimSpace(p), ",")
		if !ok {
			return nil, fmt.Errorf("%w: bad point %q", demo.ErrBadParam, p)
		}
		x, errX := strconv.Atoi(strings.TrimSpace(xs))
		y, errY := strconv.Atoi(strings.TrimSpace(ys))
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("%w: bad point %q", demo.ErrBadParam, p)
		}
		pts[i] = image.Pt(x, y)
	}
	return pts, nil
}
