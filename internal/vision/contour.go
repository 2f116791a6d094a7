package vision

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"cvlab/internal/demo"
)

// ContourInfo describes the contours found in a binarized image.
type ContourInfo struct {
	Count     int
	Area      float64 // of the first contour
	Perimeter float64 // of the first contour, closed
}

// findContours binarizes src (above 100 becomes 200) and returns its contour
// tree. The caller closes the result.
func findContours(src gocv.Mat) (gocv.PointsVector, error) {
	gray, err := toGray(src)
	if err != nil {
		return gocv.PointsVector{}, err
	}
	defer gray.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, 100, 200, gocv.ThresholdBinary)

	contours := gocv.FindContours(binary, gocv.RetrievalTree, gocv.ChainApproxSimple)
	if contours.Size() == 0 {
		contours.Close()
		return gocv.PointsVector{}, ErrNoContours
	}
	return contours, nil
}

// DescribeContours reports the number of contours and the area and
// perimeter of the first one.
func DescribeContours(contours gocv.PointsVector) ContourInfo {
	first := contours.At(0)
	return ContourInfo{
		Count:     contours.Size(),
		Area:      gocv.ContourArea(first),
		Perimeter: gocv.ArcLength(first, true),
	}
}

// Contours draws every contour of the thresholded photo.
func Contours(env *demo.Env) error {
	img, err := env.Load("photo", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer img.Close()

	contours, err := findContours(img)
	if err != nil {
		return err
	}
	defer contours.Close()

	info := DescribeContours(contours)
	env.Logger().Info("Found %d contours, first has area %.1f and perimeter %.1f", info.Count, info.Area, info.Perimeter)

	if err := gocv.DrawContours(&img, contours, -1, env.Overlay(), 1); err != nil {
		return fmt.Errorf("failed to draw contours: %w", err)
	}
	return env.Show("contours", img)
}

// HullPoints returns the convex hull of a contour in drawing order.
func HullPoints(contour gocv.PointVector) ([]image.Point, error) {
	indices := gocv.NewMat()
	defer indices.Close()
	if err := gocv.ConvexHull(contour, &indices, false, false); err != nil {
		return nil, fmt.Errorf("failed to compute convex hull: %w", err)
	}

	pts := make([]image.Point, 0, indices.Rows())
	for i := 0; i < indices.Rows(); i++ {
		pts = append(pts, contour.At(int(indices.GetIntAt(i, 0))))
	}
	return pts, nil
}

// Hull outlines the hand with its convex hull, or with a polygon
// approximation when mode=approx.
func Hull(env *demo.Env) error {
	mode := env.String("mode", "hull")
	epsilon, err := positive(env, "epsilon", 20)
	if err != nil {
		return err
	}

	img, err := env.Load("hand", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer img.Close()

	contours, err := findContours(img)
	if err != nil {
		return err
	}
	defer contours.Close()

	first := contours.At(0)
	var outline []image.Point
	switch mode {
	case "hull":
		if outline, err = HullPoints(first); err != nil {
			return err
		}
	case "approx":
		approx := gocv.ApproxPolyDP(first, epsilon, true)
		outline = approx.ToPoints()
		approx.Close()
	default:
		return fmt.Errorf("%w: mode must be hull or approx, got %q", demo.ErrBadParam, mode)
	}
	env.Logger().Info("%s outline has %d points", mode, len(outline))

	if err := drawClosed(&img, outline, env.Overlay()); err != nil {
		return err
	}
	return env.Show(mode, img)
}

// drawClosed joins consecutive points and the last point back to the first.
func drawClosed(img *gocv.Mat, pts []image.Point, c color.RGBA) error {
	for i := range pts {
		next := pts[(i+1)%len(pts)]
		if err := gocv.Line(img, pts[i], next, c, 1); err != nil {
			return fmt.Errorf("failed to draw outline: %w", err)
		}
	}
	return nil
}

// MinRect draws the minimum-area rotated rectangle and the upright bounding
// rectangle of the inner contour.
func MinRect(env *demo.Env) error {
	img, err := env.Load("shapes", gocv.IMReadColor)
	if err != nil {
		return err
	}
	defer img.Close()

	contours, err := findContours(img)
	if err != nil {
		return err
	}
	defer contours.Close()

	idx := 1
	if contours.Size() < 2 {
		idx = 0
	}
	contour := contours.At(idx)

	rotated := gocv.MinAreaRect(contour)
	env.Logger().Info("Minimum area rectangle at %v, %dx%d, angle %.1f", rotated.Center, rotated.Width, rotated.Height, rotated.Angle)

	box := gocv.NewPointsVectorFromPoints([][]image.Point{rotated.Points})
	defer box.Close()
	if err := gocv.DrawContours(&img, box, 0, env.Overlay(), 1); err != nil {
		return fmt.Errorf("failed to draw rotated rectangle: %w", err)
	}

	upright := gocv.BoundingRect(contour)
	if err := gocv.Rectangle(&img, upright, env.Overlay(), 1); err != nil {
		return fmt.Errorf("failed to draw bounding rectangle: %w", err)
	}
	return env.Show("rectangles", img)
}
