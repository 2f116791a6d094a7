package vision

import (
	"fmt"

	"gocv.io/x/gocv"

	"cvlab/internal/demo"
)

// Threshold binarizes the grayscale photo: above 100 becomes 200.
func Threshold(env *demo.Env) error {
	thresh, err := env.Float("thresh", 100)
	if err != nil {
		return err
	}
	maxValue, err := env.Float("max", 200)
	if err != nil {
		return err
	}

	src, err := env.Load("photo", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	gray, err := toGray(src)
	if err != nil {
		return err
	}
	defer gray.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, float32(thresh), float32(maxValue), gocv.ThresholdBinary)

	return env.Show("binary", binary)
}

// AdaptiveThreshold binarizes against a Gaussian-weighted local mean so
// shadows do not swallow light regions.
func AdaptiveThreshold(env *demo.Env) error {
	block, err := oddKernel(env, "block", 3)
	if err != nil {
		return err
	}
	if block < 3 {
		return fmt.Errorf("%w: block must be at least 3", demo.ErrBadParam)
	}
	c, err := env.Float("c", 0)
	if err != nil {
		return err
	}

	src, err := env.Load("photo", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	gray, err := toGray(src)
	if err != nil {
		return err
	}
	defer gray.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	if err := gocv.AdaptiveThreshold(gray, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, block, float32(c)); err != nil {
		return fmt.Errorf("failed to threshold: %w", err)
	}
	return env.Show("binary", binary)
}
