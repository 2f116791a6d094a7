package vision

import (
	"context"
	"image"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"cvlab/internal/demo"
	"cvlab/internal/samples"
)

// captureSink keeps a copy of every shown image.
type captureSink struct {
	mu     sync.Mutex
	titles []string
	images []gocv.Mat
}

func (s *captureSink) Show(title string, img gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append(s.titles, title)
	s.images = append(s.images, img.Clone())
	return nil
}

func (s *captureSink) Close() error {
	for _, m := range s.images {
		m.Close()
	}
	return nil
}

func (s *captureSink) image(t *testing.T, title string) gocv.Mat {
	t.Helper()
	for i, name := range s.titles {
		if name == title {
			return s.images[i]
		}
	}
	t.Fatalf("no image shown as %q, got %v", title, s.titles)
	return gocv.Mat{}
}

func runDemo(t *testing.T, run func(*demo.Env) error, sampleDir string, params map[string]string) (*captureSink, error) {
	t.Helper()
	sink := &captureSink{}
	t.Cleanup(func() { sink.Close() })

	lib := samples.NewLibrary(sampleDir, filepath.Join(t.TempDir(), "cache"), nil)
	env := demo.NewEnv(context.Background(), "test", demo.Options{
		Samples: lib,
		Sink:    sink,
		Params:  params,
	})
	return sink, run(env)
}

func TestCatalog_Registers(t *testing.T) {
	r := demo.NewRegistry()
	require.NotPanics(t, func() { Register(r) })

	for _, name := range []string{"resize", "perspective", "canny", "open", "hull", "homography", "logo", "mat-basics"} {
		_, err := r.Lookup(name)
		assert.NoError(t, err, name)
	}
	assert.Len(t, r.Group("morphology"), 7)
	assert.Len(t, r.Group("bitwise"), 5)

	for _, d := range Catalog() {
		for _, in := range d.Inputs {
			_, err := samples.Generate(in)
			assert.NoError(t, err, "%s input %s", d.Name, in)
		}
	}
}

func TestCatalog_RunsEveryDemo(t *testing.T) {
	sampleDir := t.TempDir()
	for _, d := range Catalog() {
		t.Run(d.Name, func(t *testing.T) {
			sink, err := runDemo(t, d.Run, sampleDir, nil)
			require.NoError(t, err)

			if d.Name == "mat-basics" {
				// logs its report, shows nothing
				assert.Empty(t, sink.titles)
				return
			}
			require.NotEmpty(t, sink.titles)
			for i, img := range sink.images {
				assert.False(t, img.Empty(), "%s shown empty", sink.titles[i])
			}
		})
	}
}

func TestResize(t *testing.T) {
	sink, err := runDemo(t, Resize, t.TempDir(), nil)
	require.NoError(t, err)

	out := sink.image(t, "resized")
	assert.Equal(t, 576, out.Cols())
	assert.Equal(t, 432, out.Rows())
}

func TestResize_BadScale(t *testing.T) {
	_, err := runDemo(t, Resize, t.TempDir(), map[string]string{"scale": "-1"})
	assert.ErrorIs(t, err, demo.ErrBadParam)

	_, err = runDemo(t, Resize, t.TempDir(), map[string]string{"scale": "big"})
	assert.ErrorIs(t, err, demo.ErrBadParam)

	_, err = runDemo(t, Resize, t.TempDir(), map[string]string{"scale": "NaN"})
	assert.ErrorIs(t, err, demo.ErrBadParam)
}

func TestRoiFill(t *testing.T) {
	sink, err := runDemo(t, RoiFill, t.TempDir(), nil)
	require.NoError(t, err)

	filled := sink.image(t, "filled")
	inverted := sink.image(t, "inverted")

	assert.Equal(t, uint8(0), filled.GetUCharAt(10, 10))
	assert.Equal(t, uint8(255), filled.GetUCharAt(100, 100))
	assert.Equal(t, uint8(0), filled.GetUCharAt(150, 150))
	assert.Equal(t, uint8(255), inverted.GetUCharAt(10, 10))
	assert.Equal(t, uint8(0), inverted.GetUCharAt(100, 100))
}

func TestBitwise(t *testing.T) {
	tests := []struct {
		name  string
		run   func(*demo.Env) error
		title string
		// only the first square, the overlap, only the second square, neither
		want [4]uint8
	}{
		{"and", BitwiseAnd, "and", [4]uint8{0, 255, 0, 0}},
		{"or", BitwiseOr, "or", [4]uint8{255, 255, 255, 0}},
		{"xor", BitwiseXor, "xor", [4]uint8{255, 0, 255, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, err := runDemo(t, tt.run, t.TempDir(), nil)
			require.NoError(t, err)

			out := sink.image(t, tt.title)
			got := [4]uint8{
				out.GetUCharAt(30, 30),
				out.GetUCharAt(100, 100),
				out.GetUCharAt(170, 170),
				out.GetUCharAt(5, 190),
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogo(t *testing.T) {
	sink, err := runDemo(t, Logo, t.TempDir(), nil)
	require.NoError(t, err)

	out := sink.image(t, "logo")
	require.Equal(t, 3, out.Channels())

	// BGR at a point covered only by the red square.
	red := out.GetVecbAt(30, 30)
	assert.Equal(t, []uint8{0, 0, 255}, []uint8{red[0], red[1], red[2]})

	// The green square is drawn last and wins the overlap.
	green := out.GetVecbAt(100, 100)
	assert.Equal(t, []uint8{0, 255, 0}, []uint8{green[0], green[1], green[2]})
}

func TestLogo_InputTooSmall(t *testing.T) {
	dir := t.TempDir()
	small := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer small.Close()
	require.True(t, gocv.IMWrite(filepath.Join(dir, "dog.png"), small))

	_, err := runDemo(t, Logo, dir, nil)
	assert.ErrorIs(t, err, ErrInputTooSmall)
}

func TestContours_Shapes(t *testing.T) {
	img, err := samples.Generate("shapes")
	require.NoError(t, err)
	src, err := gocv.ImageToMatRGB(img)
	require.NoError(t, err)
	defer src.Close()

	contours, err := findContours(src)
	require.NoError(t, err)
	defer contours.Close()

	info := DescribeContours(contours)
	assert.GreaterOrEqual(t, info.Count, 2)
	assert.Greater(t, info.Area, 0.0)
	assert.Greater(t, info.Perimeter, 0.0)
}

func TestContours_Empty(t *testing.T) {
	black := gocv.NewMatWithSize(50, 50, gocv.MatTypeCV8UC3)
	defer black.Close()
	black.SetTo(gocv.NewScalar(0, 0, 0, 0))

	_, err := findContours(black)
	assert.ErrorIs(t, err, ErrNoContours)
}

func TestHull_BadMode(t *testing.T) {
	_, err := runDemo(t, Hull, t.TempDir(), map[string]string{"mode": "circle"})
	assert.ErrorIs(t, err, demo.ErrBadParam)
}

func TestHullPoints(t *testing.T) {
	// a square with one point pushed inwards
	contour := gocv.NewPointVectorFromPoints([]image.Point{
		{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 50, Y: 50}, {X: 25, Y: 30}, {X: 0, Y: 50},
	})
	defer contour.Close()

	hull, err := HullPoints(contour)
	require.NoError(t, err)
	assert.Len(t, hull, 4)
	assert.NotContains(t, hull, image.Pt(25, 30))
}

func TestRatioFilter(t *testing.T) {
	knn := [][]gocv.DMatch{
		{{QueryIdx: 0, TrainIdx: 4, Distance: 10}, {QueryIdx: 0, TrainIdx: 5, Distance: 100}},
		{{QueryIdx: 1, TrainIdx: 2, Distance: 80}, {QueryIdx: 1, TrainIdx: 3, Distance: 90}},
		{{QueryIdx: 2, TrainIdx: 7, Distance: 5}},
		{},
	}

	got := RatioFilter(knn, 0.7)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].TrainIdx)
}

func TestProjectCorners(t *testing.T) {
	identity := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	want := []image.Point{{0, 0}, {0, 99}, {199, 99}, {199, 0}}
	if diff := cmp.Diff(want, ProjectCorners(identity, 200, 100)); diff != "" {
		t.Errorf("identity mismatch (-want +got):\n%s", diff)
	}

	shift := [3][3]float64{{1, 0, 220}, {0, 1, 160}, {0, 0, 1}}
	want = []image.Point{{220, 160}, {220, 259}, {419, 259}, {419, 160}}
	if diff := cmp.Diff(want, ProjectCorners(shift, 200, 100)); diff != "" {
		t.Errorf("translation mismatch (-want +got):\n%s", diff)
	}

	// Homogeneous scale must be divided out.
	scaled := [3][3]float64{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}}
	if diff := cmp.Diff(ProjectCorners(identity, 10, 10), ProjectCorners(scaled, 10, 10)); diff != "" {
		t.Errorf("scaled mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePoints(t *testing.T) {
	pts, err := parsePoints("50,550; 1050,550;0,2000;1250,1950", 4)
	require.NoError(t, err)
	assert.Equal(t, []image.Point{{50, 550}, {1050, 550}, {0, 2000}, {1250, 1950}}, pts)

	for _, bad := range []string{"1,2;3,4", "1,2;3,4;5,6;x,8", "1;2;3;4"} {
		_, err := parsePoints(bad, 4)
		assert.ErrorIs(t, err, demo.ErrBadParam, bad)
	}
}

func TestInspectMats(t *testing.T) {
	report, err := InspectMats()
	require.NoError(t, err)
	byLabel := make(map[string]MatInfo, len(report))
	for _, info := range report {
		byLabel[info.Label] = info
	}

	assert.True(t, byLabel["empty"].Empty)

	filled := byLabel["filled"]
	assert.Equal(t, "CV_32FC1", filled.Type)
	assert.Equal(t, 100, filled.Total)
	assert.Equal(t, 7.0, filled.First)

	region := byLabel["region"]
	assert.Equal(t, []int{6, 3}, region.Size)
	assert.Equal(t, 7.0, region.First)

	converted := byLabel["converted"]
	assert.Equal(t, "CV_8UC1", converted.Type)
	assert.Equal(t, 7.0, converted.First)

	assert.Equal(t, []int{1, 9}, byLabel["row"].Size)
	assert.Equal(t, []int{9, 1}, byLabel["column"].Size)

	cube := byLabel["cube"]
	assert.Equal(t, 3, cube.Dims)
	assert.Equal(t, 27, cube.Total)

	assert.Contains(t, report.String(), "square")
}

func TestTypeName(t *testing.T) {
	name, depth := typeName(gocv.MatTypeCV8UC3)
	assert.Equal(t, "CV_8UC3", name)
	assert.Equal(t, "CV_8U", depth)

	name, _ = typeName(gocv.MatTypeCV64FC2)
	assert.Equal(t, "CV_64FC2", name)
}
