package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"cvlab/internal/demo"
)

// Erode thins the glyph with an explicit 3x3 kernel of ones.
func Erode(env *demo.Env) error {
	k, err := oddKernel(env, "ksize", 3)
	if err != nil {
		return err
	}

	src, err := env.Load("glyph", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	kernel := gocv.Ones(k, k, gocv.MatTypeCV8U)
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.Erode(src, &dst, kernel); err != nil {
		return fmt.Errorf("failed to erode: %w", err)
	}
	return show(env, view{"eroded", dst}, view{"original", src})
}

// Dilate thickens the glyph with a 7x7 rectangular structuring element.
func Dilate(env *demo.Env) error {
	k, err := oddKernel(env, "ksize", 7)
	if err != nil {
		return err
	}

	src, err := env.Load("glyph", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(k, k))
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.Dilate(src, &dst, kernel); err != nil {
		return fmt.Errorf("failed to dilate: %w", err)
	}
	return show(env, view{"dilated", dst}, view{"original", src})
}

// morphology returns a demo applying one MorphologyEx operation with a
// square rectangular structuring element.
func morphology(sample string, op gocv.MorphType, size int, title string) func(*demo.Env) error {
	return func(env *demo.Env) error {
		k, err := oddKernel(env, "ksize", size)
		if err != nil {
			return err
		}

		src, err := env.Load(sample, gocv.IMReadColor)
		if err != nil {
			return err
		}
		defer src.Close()

		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(k, k))
		defer kernel.Close()

		dst := gocv.NewMat()
		defer dst.Close()
		if err := gocv.MorphologyEx(src, &dst, op, kernel); err != nil {
			return fmt.Errorf("failed to apply %s: %w", title, err)
		}
		return show(env, view{title, dst}, view{"original", src})
	}
}

var (
	// Opening removes specks outside the glyph (erode, then dilate).
	Opening = morphology("glyph-dots", gocv.MorphOpen, 7, "opened")
	// Closing fills holes inside the glyph (dilate, then erode).
	Closing = morphology("glyph-holes", gocv.MorphClose, 7, "closed")
	// Gradient keeps the outline: dilation minus erosion.
	Gradient = morphology("glyph", gocv.MorphGradient, 5, "gradient")
	// TopHat keeps the small bright specks: original minus opening.
	TopHat = morphology("glyph-dots", gocv.MorphTophat, 7, "tophat")
	// BlackHat keeps the small dark holes: closing minus original.
	BlackHat = morphology("glyph-holes", gocv.MorphBlackhat, 7, "blackhat")
)
