package vision

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"cvlab/internal/demo"
)

// minHomographyMatches is the fewest point pairs a homography can be
// estimated from.
const minHomographyMatches = 4

var (
	matchColor  = color.RGBA{G: 255, A: 255}
	singleColor = color.RGBA{B: 255, A: 255}
)

// detector is satisfied by the gocv SIFT and ORB types and the contrib SURF.
type detector interface {
	DetectAndCompute(src gocv.Mat, mask gocv.Mat) ([]gocv.KeyPoint, gocv.Mat)
	Close() error
}

// keypointDemo returns a demo that draws the keypoints a detector finds on
// the chessboard.
func keypointDemo(name string, newDetector func() detector) func(*demo.Env) error {
	return func(env *demo.Env) error {
		img, err := env.Load("chess", gocv.IMReadColor)
		if err != nil {
			return err
		}
		defer img.Close()

		gray, err := toGray(img)
		if err != nil {
			return err
		}
		defer gray.Close()

		d := newDetector()
		defer d.Close()

		mask := gocv.NewMat()
		defer mask.Close()
		kps, desc := d.DetectAndCompute(gray, mask)
		defer desc.Close()
		env.Logger().Info("%s found %d keypoints, descriptors %dx%d", name, len(kps), desc.Rows(), desc.Cols())

		out := gocv.NewMat()
		defer out.Close()
		gocv.DrawKeyPoints(img, kps, &out, env.Overlay(), gocv.DrawDefault)
		return env.Show(name, out)
	}
}

var (
	SIFT = keypointDemo("sift", func() detector { s := gocv.NewSIFT(); return &s })
	ORB  = keypointDemo("orb", func() detector { o := gocv.NewORB(); return &o })
)

// pair holds both images of a matching demo with their SIFT features.
type pair struct {
	query, scene         gocv.Mat
	queryKps, sceneKps   []gocv.KeyPoint
	queryDesc, sceneDesc gocv.Mat
}

func (p *pair) Close() {
	p.query.Close()
	p.scene.Close()
	p.queryDesc.Close()
	p.sceneDesc.Close()
}

// loadPair reads the box and the scene containing it and computes SIFT
// features on both.
func loadPair(env *demo.Env) (*pair, error) {
	query, err := env.Load("box", gocv.IMReadColor)
	if err != nil {
		return nil, err
	}
	scene, err := env.Load("box-in-scene", gocv.IMReadColor)
	if err != nil {
		query.Close()
		return nil, err
	}

	p := &pair{query: query, scene: scene, queryDesc: gocv.NewMat(), sceneDesc: gocv.NewMat()}

	sift := gocv.NewSIFT()
	defer sift.Close()

	for _, side := range []struct {
		img  gocv.Mat
		kps  *[]gocv.KeyPoint
		desc *gocv.Mat
	}{
		{query, &p.queryKps, &p.queryDesc},
		{scene, &p.sceneKps, &p.sceneDesc},
	} {
		gray, err := toGray(side.img)
		if err != nil {
			p.Close()
			return nil, err
		}
		mask := gocv.NewMat()
		kps, desc := sift.DetectAndCompute(gray, mask)
		mask.Close()
		gray.Close()

		side.desc.Close()
		*side.kps, *side.desc = kps, desc
	}

	if p.queryDesc.Empty() || p.sceneDesc.Empty() {
		p.Close()
		return nil, fmt.Errorf("%w: no descriptors to match", ErrTooFewMatches)
	}
	env.Logger().Info("SIFT keypoints: %d in query, %d in scene", len(p.queryKps), len(p.sceneKps))
	return p, nil
}

func drawMatches(p *pair, matches []gocv.DMatch, out *gocv.Mat) {
	mask := make([]byte, len(matches))
	for i := range mask {
		mask[i] = 1
	}
	gocv.DrawMatches(p.query, p.queryKps, p.scene, p.sceneKps, matches, out, matchColor, singleColor, mask, gocv.DrawDefault)
}

// BFMatch pairs every query descriptor with its nearest scene descriptor by
// brute force.
func BFMatch(env *demo.Env) error {
	p, err := loadPair(env)
	if err != nil {
		return err
	}
	defer p.Close()

	bf := gocv.NewBFMatcher()
	defer bf.Close()

	var matches []gocv.DMatch
	for _, m := range bf.KnnMatch(p.queryDesc, p.sceneDesc, 1) {
		matches = append(matches, m...)
	}
	env.Logger().Info("Brute force found %d matches", len(matches))

	out := gocv.NewMat()
	defer out.Close()
	drawMatches(p, matches, &out)
	return env.Show("matches", out)
}

// RatioFilter keeps the best match of each k-nearest list when it is
// clearly better than the runner-up: best < ratio * second.
func RatioFilter(knn [][]gocv.DMatch, ratio float64) []gocv.DMatch {
	var good []gocv.DMatch
	for _, m := range knn {
		if len(m) < 2 {
			continue
		}
		if m[0].Distance < ratio*m[1].Distance {
			good = append(good, m[0])
		}
	}
	return good
}

// flannMatches runs a 2-nearest FLANN search and applies the ratio filter.
func flannMatches(env *demo.Env, p *pair) ([]gocv.DMatch, error) {
	ratio, err := positive(env, "ratio", 0.7)
	if err != nil {
		return nil, err
	}
	if ratio >= 1 {
		return nil, fmt.Errorf("%w: ratio must be below 1, got %v", demo.ErrBadParam, ratio)
	}

	flann := gocv.NewFlannBasedMatcher()
	defer flann.Close()

	knn := flann.KnnMatch(p.queryDesc, p.sceneDesc, 2)
	good := RatioFilter(knn, ratio)
	env.Logger().Info("FLANN kept %d of %d matches at ratio %.2f", len(good), len(knn), ratio)
	return good, nil
}

func FlannMatch(env *demo.Env) error {
	p, err := loadPair(env)
	if err != nil {
		return err
	}
	defer p.Close()

	good, err := flannMatches(env, p)
	if err != nil {
		return err
	}

	out := gocv.NewMat()
	defer out.Close()
	drawMatches(p, good, &out)
	return env.Show("matches", out)
}

// Homography locates the box in the scene: with enough good matches it
// estimates the query-to-scene homography and outlines the projected box.
func Homography(env *demo.Env) error {
	p, err := loadPair(env)
	if err != nil {
		return err
	}
	defer p.Close()

	good, err := flannMatches(env, p)
	if err != nil {
		return err
	}
	if len(good) < minHomographyMatches {
		return fmt.Errorf("%w: %d, need %d", ErrTooFewMatches, len(good), minHomographyMatches)
	}

	src := gocv.NewMatWithSize(len(good), 1, gocv.MatTypeCV64FC2)
	defer src.Close()
	dst := gocv.NewMatWithSize(len(good), 1, gocv.MatTypeCV64FC2)
	defer dst.Close()
	for i, m := range good {
		q, s := p.queryKps[m.QueryIdx], p.sceneKps[m.TrainIdx]
		src.SetDoubleAt(i, 0, q.X)
		src.SetDoubleAt(i, 1, q.Y)
		dst.SetDoubleAt(i, 0, s.X)
		dst.SetDoubleAt(i, 1, s.Y)
	}

	inliers := gocv.NewMat()
	defer inliers.Close()
	h := gocv.FindHomography(src, dst, gocv.HomographyMethodRANSAC, 5, &inliers, 2000, 0.995)
	defer h.Close()
	if h.Empty() {
		return fmt.Errorf("%w: homography could not be estimated", ErrTooFewMatches)
	}

	var m [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r][c] = h.GetDoubleAt(r, c)
		}
	}
	outline := ProjectCorners(m, p.query.Cols(), p.query.Rows())
	env.Logger().Info("Box located at %v (%d inliers)", outline, gocv.CountNonZero(inliers))

	if err := drawClosed(&p.scene, outline, env.Overlay()); err != nil {
		return err
	}

	out := gocv.NewMat()
	defer out.Close()
	drawMatches(p, good, &out)
	return show(env, view{"located", p.scene}, view{"matches", out})
}

// ProjectCorners maps the corners of a w x h image through a homography,
// in the order top-left, bottom-left, bottom-right, top-right.
func ProjectCorners(h [3][3]float64, w, hgt int) []image.Point {
	corners := [][2]float64{
		{0, 0},
		{0, float64(hgt - 1)},
		{float64(w - 1), float64(hgt - 1)},
		{float64(w - 1), 0},
	}
	out := make([]image.Point, len(corners))
	for i, c := range corners {
		x := h[0][0]*c[0] + h[0][1]*c[1] + h[0][2]
		y := h[1][0]*c[0] + h[1][1]*c[1] + h[1][2]
		z := h[2][0]*c[0] + h[2][1]*c[1] + h[2][2]
		if z == 0 {
			z = 1e-9
		}
		out[i] = image.Pt(int(math.Round(x/z)), int(math.Round(y/z)))
	}
	return out
}
