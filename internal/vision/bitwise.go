package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"cvlab/internal/demo"
)

const maskSize = 200

var (
	firstSquare  = image.Rect(20, 20, 140, 140)
	secondSquare = image.Rect(60, 60, 180, 180)
)

// fill sets a rectangular region of m to s.
func fill(m gocv.Mat, r image.Rectangle, s gocv.Scalar) {
	roi := m.Region(r)
	roi.SetTo(s)
	roi.Close()
}

// RoiFill whitens a square of a black image through a region view, then
// inverts the whole image.
func RoiFill(env *demo.Env) error {
	img := gocv.NewMatWithSize(maskSize, maskSize, gocv.MatTypeCV8UC1)
	defer img.Close()
	img.SetTo(gocv.NewScalar(0, 0, 0, 0))
	fill(img, image.Rect(50, 50, 150, 150), gocv.NewScalar(255, 0, 0, 0))

	inverted := gocv.NewMat()
	defer inverted.Close()
	if err := gocv.BitwiseNot(img, &inverted); err != nil {
		return fmt.Errorf("failed to invert: %w", err)
	}
	return show(env, view{"filled", img}, view{"inverted", inverted})
}

// squareMask is a black single channel image with one white square.
func squareMask(r image.Rectangle) gocv.Mat {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), maskSize, maskSize, gocv.MatTypeCV8UC1)
	fill(m, r, gocv.NewScalar(255, 0, 0, 0))
	return m
}

// bitwiseDemo combines two overlapping square masks with op.
func bitwiseDemo(title string, op func(a, b gocv.Mat, dst *gocv.Mat) error) func(*demo.Env) error {
	return func(env *demo.Env) error {
		a := squareMask(firstSquare)
		defer a.Close()
		b := squareMask(secondSquare)
		defer b.Close()

		dst := gocv.NewMat()
		defer dst.Close()
		if err := op(a, b, &dst); err != nil {
			return fmt.Errorf("failed to combine masks: %w", err)
		}
		return env.Show(title, dst)
	}
}

var (
	BitwiseAnd = bitwiseDemo("and", gocv.BitwiseAnd)
	BitwiseOr  = bitwiseDemo("or", gocv.BitwiseOr)
	BitwiseXor = bitwiseDemo("xor", gocv.BitwiseXor)
)

// Logo stamps two coloured squares onto the top-left corner of the dog.
// The inverted mask cuts the squares out of the photo before the logo is
// added, so the logo colours are not mixed with the photo.
func Logo(env *demo.Env) error {
	img, err := env.Load("dog", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer img.Close()
	if img.Cols() < maskSize || img.Rows() < maskSize {
		return fmt.Errorf("%w: need %dx%d, got %dx%d", ErrInputTooSmall, maskSize, maskSize, img.Cols(), img.Rows())
	}

	logo := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), maskSize, maskSize, gocv.MatTypeCV8UC3)
	defer logo.Close()
	fill(logo, firstSquare, gocv.NewScalar(0, 0, 255, 0))
	fill(logo, secondSquare, gocv.NewScalar(0, 255, 0, 0))

	mask := squareMask(firstSquare)
	defer mask.Close()
	fill(mask, secondSquare, gocv.NewScalar(255, 0, 0, 0))

	inverted := gocv.NewMat()
	defer inverted.Close()
	if err := gocv.BitwiseNot(mask, &inverted); err != nil {
		return fmt.Errorf("failed to invert mask: %w", err)
	}

	roi := img.Region(image.Rect(0, 0, maskSize, maskSize))
	defer roi.Close()

	background := gocv.NewMat()
	defer background.Close()
	if err := gocv.BitwiseAndWithMask(roi, roi, &background, inverted); err != nil {
		return fmt.Errorf("failed to cut out logo area: %w", err)
	}

	stamped := gocv.NewMat()
	defer stamped.Close()
	if err := gocv.Add(background, logo, &stamped); err != nil {
		return fmt.Errorf("failed to add logo: %w", err)
	}

	// roi shares memory with img, so this writes the corner of img.
	if err := stamped.CopyTo(&roi); err != nil {
		return fmt.Errorf("failed to write logo back: %w", err)
	}
	return env.Show("logo", img)
}
