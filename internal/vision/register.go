package vision

import (
	"cvlab/internal/demo"
)

// contribDemos is filled by files built with the contrib tag.
var contribDemos []demo.Demo

// Catalog returns every demo in this package.
func Catalog() []demo.Demo {
	demos := []demo.Demo{
		{Name: "resize", Group: "transform", Summary: "scale by 0.9 with area interpolation", Inputs: []string{"photo"}, Run: Resize},
		{Name: "rotate", Group: "transform", Summary: "rotate 15 degrees about (100,100)", Inputs: []string{"dog"}, Run: Rotate},
		{Name: "translate", Group: "transform", Summary: "shift 100px right with a 2x3 matrix", Inputs: []string{"dog"}, Run: Translate},
		{Name: "perspective", Group: "transform", Summary: "flatten a photographed page", Inputs: []string{"document"}, Run: Perspective},

		{Name: "convolve", Group: "filter", Summary: "5x5 averaging kernel with Filter2D", Inputs: []string{"photo"}, Run: Convolve},
		{Name: "box-blur", Group: "filter", Summary: "5x5 box blur", Inputs: []string{"photo"}, Run: BoxBlur},
		{Name: "gaussian-blur", Group: "filter", Summary: "5x5 Gaussian blur, sigma 1", Inputs: []string{"noisy"}, Run: GaussianBlur},
		{Name: "median-blur", Group: "filter", Summary: "median blur against salt-and-pepper noise", Inputs: []string{"noisy"}, Run: MedianBlur},
		{Name: "bilateral", Group: "filter", Summary: "edge preserving smoothing", Inputs: []string{"portrait"}, Run: Bilateral},
		{Name: "sobel", Group: "filter", Summary: "sum of x and y Sobel derivatives", Inputs: []string{"chess"}, Run: Sobel},
		{Name: "laplacian", Group: "filter", Summary: "Laplacian second derivative", Inputs: []string{"chess"}, Run: Laplacian},
		{Name: "canny", Group: "filter", Summary: "Canny edges, thresholds 200/400", Inputs: []string{"chess"}, Run: Canny},

		{Name: "threshold", Group: "threshold", Summary: "global binary threshold 100 -> 200", Inputs: []string{"photo"}, Run: Threshold},
		{Name: "adaptive-threshold", Group: "threshold", Summary: "Gaussian adaptive threshold, block 3", Inputs: []string{"photo"}, Run: AdaptiveThreshold},

		{Name: "erode", Group: "morphology", Summary: "erode with a 3x3 kernel of ones", Inputs: []string{"glyph"}, Run: Erode},
		{Name: "dilate", Group: "morphology", Summary: "dilate with a 7x7 rectangle", Inputs: []string{"glyph"}, Run: Dilate},
		{Name: "open", Group: "morphology", Summary: "opening removes outside specks", Inputs: []string{"glyph-dots"}, Run: Opening},
		{Name: "close", Group: "morphology", Summary: "closing fills inside holes", Inputs: []string{"glyph-holes"}, Run: Closing},
		{Name: "gradient", Group: "morphology", Summary: "morphological gradient outline", Inputs: []string{"glyph"}, Run: Gradient},
		{Name: "tophat", Group: "morphology", Summary: "top-hat keeps small bright details", Inputs: []string{"glyph-dots"}, Run: TopHat},
		{Name: "blackhat", Group: "morphology", Summary: "black-hat keeps small dark details", Inputs: []string{"glyph-holes"}, Run: BlackHat},

		{Name: "contours", Group: "contour", Summary: "find and draw contours, log area and perimeter", Inputs: []string{"photo"}, Run: Contours},
		{Name: "hull", Group: "contour", Summary: "convex hull or polygon approximation", Inputs: []string{"hand"}, Run: Hull},
		{Name: "min-rect", Group: "contour", Summary: "minimum area and bounding rectangles", Inputs: []string{"shapes"}, Run: MinRect},

		{Name: "sift", Group: "feature", Summary: "SIFT keypoints", Inputs: []string{"chess"}, Run: SIFT},
		{Name: "orb", Group: "feature", Summary: "ORB keypoints", Inputs: []string{"chess"}, Run: ORB},
		{Name: "bf-match", Group: "feature", Summary: "brute force SIFT matching", Inputs: []string{"box", "box-in-scene"}, Run: BFMatch},
		{Name: "flann-match", Group: "feature", Summary: "FLANN SIFT matching with ratio test", Inputs: []string{"box", "box-in-scene"}, Run: FlannMatch},
		{Name: "homography", Group: "feature", Summary: "locate the box with a RANSAC homography", Inputs: []string{"box", "box-in-scene"}, Run: Homography},

		{Name: "roi-fill", Group: "bitwise", Summary: "fill a region, then invert", Run: RoiFill},
		{Name: "bitwise-and", Group: "bitwise", Summary: "AND of two square masks", Run: BitwiseAnd},
		{Name: "bitwise-or", Group: "bitwise", Summary: "OR of two square masks", Run: BitwiseOr},
		{Name: "bitwise-xor", Group: "bitwise", Summary: "XOR of two square masks", Run: BitwiseXor},
		{Name: "logo", Group: "bitwise", Summary: "stamp a logo through an inverted mask", Inputs: []string{"dog"}, Run: Logo},

		{Name: "mat-basics", Group: "matrix", Summary: "inspect Mat types, shapes and views", Run: MatBasics},
	}
	return append(demos, contribDemos...)
}

// Register adds the catalog to r.
func Register(r *demo.Registry) {
	r.MustRegister(Catalog()...)
}
