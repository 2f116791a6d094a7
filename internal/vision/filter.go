package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"cvlab/internal/demo"
)

// Convolve averages each pixel over a k x k window with Filter2D.
func Convolve(env *demo.Env) error {
	k, err := oddKernel(env, "ksize", 5)
	if err != nil {
		return err
	}

	src, err := env.Load("photo", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	kernel := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1/float64(k*k), 0, 0, 0), k, k, gocv.MatTypeCV32F)
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.Filter2D(src, &dst, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderDefault); err != nil {
		return fmt.Errorf("failed to convolve: %w", err)
	}
	return env.Show("convolved", dst)
}

func BoxBlur(env *demo.Env) error {
	k, err := oddKernel(env, "ksize", 5)
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
	if err := gocv.Blur(src, &dst, image.Pt(k, k)); err != nil {
		return fmt.Errorf("failed to blur: %w", err)
	}
	return env.Show("blurred", dst)
}

// GaussianBlur shows the noisy image, then the result of a 5x5 Gaussian.
func GaussianBlur(env *demo.Env) error {
	k, err := oddKernel(env, "ksize", 5)
	if err != nil {
		return err
	}
	sigma, err := env.Float("sigma", 1)
	if err != nil {
		return err
	}

	src, err := env.Load("noisy", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.GaussianBlur(src, &dst, image.Pt(k, k), sigma, 0, gocv.BorderDefault); err != nil {
		return fmt.Errorf("failed to blur: %w", err)
	}
	return show(env, view{"original", src}, view{"blurred", dst})
}

// MedianBlur removes salt-and-pepper noise.
func MedianBlur(env *demo.Env) error {
	k, err := oddKernel(env, "ksize", 5)
	if err != nil {
		return err
	}

	src, err := env.Load("noisy", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.MedianBlur(src, &dst, k); err != nil {
		return fmt.Errorf("failed to blur: %w", err)
	}
	return env.Show("denoised", dst)
}

// Bilateral smooths skin while keeping edges.
func Bilateral(env *demo.Env) error {
	d, err := env.Int("d", 7)
	if err != nil {
		return err
	}
	sigmaColor, err := env.Float("sigma-color", 20)
	if err != nil {
		return err
	}
	sigmaSpace, err := env.Float("sigma-space", 50)
	if err != nil {
		return err
	}

	src, err := env.Load("portrait", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.BilateralFilter(src, &dst, d, sigmaColor, sigmaSpace); err != nil {
		return fmt.Errorf("failed to filter: %w", err)
	}
	return show(env, view{"original", src}, view{"smoothed", dst})
}

// Sobel sums the vertical and horizontal derivatives of the chessboard.
func Sobel(env *demo.Env) error {
	k, err := oddKernel(env, "ksize", 5)
	if err != nil {
		return err
	}

	src, err := env.Load("chess", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	dy := gocv.NewMat()
	defer dy.Close()
	if err := gocv.Sobel(src, &dy, -1, 0, 1, k, 1, 0, gocv.BorderDefault); err != nil {
		return fmt.Errorf("failed to compute y derivative: %w", err)
	}

	dx := gocv.NewMat()
	defer dx.Close()
	if err := gocv.Sobel(src, &dx, -1, 1, 0, k, 1, 0, gocv.BorderDefault); err != nil {
		return fmt.Errorf("failed to compute x derivative: %w", err)
	}

	sum := gocv.NewMat()
	defer sum.Close()
	if err := gocv.Add(dy, dx, &sum); err != nil {
		return fmt.Errorf("failed to add derivatives: %w", err)
	}
	return env.Show("sobel", sum)
}

func Laplacian(env *demo.Env) error {
	k, err := oddKernel(env, "ksize", 1)
	if err != nil {
		return err
	}

	src, err := env.Load("chess", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.Laplacian(src, &dst, -1, k, 1, 0, gocv.BorderDefault); err != nil {
		return fmt.Errorf("failed to compute laplacian: %w", err)
	}
	return env.Show("laplacian", dst)
}

// Canny finds the chessboard edges with hysteresis thresholds 200/400.
func Canny(env *demo.Env) error {
	low, err := env.Float("low", 200)
	if err != nil {
		return err
	}
	high, err := env.Float("high", 400)
	if err != nil {
		return err
	}
	if low > high {
		return fmt.Errorf("%w: low threshold %v above high %v", demo.ErrBadParam, low, high)
	}

	src, err := env.Load("chess", gocv.IMReadGrayScale)
	if err != nil {
		return err
	}
	defer src.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	if err := gocv.Canny(src, &edges, float32(low), float32(high)); err != nil {
		return fmt.Errorf("failed to detect edges: %w", err)
	}
	return env.Show("edges", edges)
}
