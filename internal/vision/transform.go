package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"cvlab/internal/demo"
	"cvlab/internal/samples"
)

// Resize scales the photo by the same factor on both axes with area
// interpolation.
func Resize(env *demo.Env) error {
	scale, err := positive(env, "scale", 0.9)
	if err != nil {
		return err
	}

	src, err := env.Load("photo", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.Resize(src, &dst, image.Point{}, scale, scale, gocv.InterpolationArea); err != nil {
		return fmt.Errorf("failed to resize: %w", err)
	}

	env.Logger().Info("Resized %dx%d to %dx%d", src.Cols(), src.Rows(), dst.Cols(), dst.Rows())
	return env.Show("resized", dst)
}

// Rotate turns the dog counter-clockwise about (100,100).
func Rotate(env *demo.Env) error {
	angle, err := env.Float("angle", 15)
	if err != nil {
		return err
	}
	scale, err := positive(env, "scale", 1)
	if err != nil {
		return err
	}

	src, err := env.Load("dog", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	m := gocv.GetRotationMatrix2D(image.Pt(100, 100), angle, scale)
	defer m.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.WarpAffine(src, &dst, m, image.Pt(src.Cols(), src.Rows())); err != nil {
		return fmt.Errorf("failed to rotate: %w", err)
	}
	return env.Show("rotated", dst)
}

// Translate shifts the dog with an explicit 2x3 affine matrix.
func Translate(env *demo.Env) error {
	dx, err := env.Int("dx", 100)
	if err != nil {
		return err
	}
	dy, err := env.Int("dy", 0)
	if err != nil {
		return err
	}

	src, err := env.Load("dog", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	// [1 0 dx]
	// [0 1 dy]
	m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV32F)
	defer m.Close()
	m.SetFloatAt(0, 0, 1)
	m.SetFloatAt(0, 1, 0)
	m.SetFloatAt(0, 2, float32(dx))
	m.SetFloatAt(1, 0, 0)
	m.SetFloatAt(1, 1, 1)
	m.SetFloatAt(1, 2, float32(dy))

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.WarpAffine(src, &dst, m, image.Pt(src.Cols(), src.Rows())); err != nil {
		return fmt.Errorf("failed to translate: %w", err)
	}
	return env.Show("translated", dst)
}

// Perspective flattens the photographed page onto an upright rectangle.
// The corners param overrides the page corners as "x,y;x,y;x,y;x,y"
// (top-left, top-right, bottom-left, bottom-right).
func Perspective(env *demo.Env) error {
	corners := samples.DocumentCorners[:]
	if s := env.String("corners", ""); s != "" {
		pts, err := parsePoints(s, 4)
		if err != nil {
			return err
		}
		corners = pts
	}
	width, err := env.Int("width", samples.DocumentSize.X)
	if err != nil {
		return err
	}
	height, err := env.Int("height", samples.DocumentSize.Y)
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: output size must be positive", demo.ErrBadParam)
	}

	src, err := env.Load("document", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	from := gocv.NewPointVectorFromPoints(corners)
	defer from.Close()
	to := gocv.NewPointVectorFromPoints([]image.Point{
		{0, 0}, {width, 0}, {0, height}, {width, height},
	})
	defer to.Close()

	m := gocv.GetPerspectiveTransform(from, to)
	defer m.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.WarpPerspective(src, &dst, m, image.Pt(width, height)); err != nil {
		return fmt.Errorf("failed to warp perspective: %w", err)
	}
	return env.Show("flattened", dst)
}
