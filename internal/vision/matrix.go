package vision

import (
	"fmt"
	"image"
	"strings"

	"gocv.io/x/gocv"

	"cvlab/internal/demo"
)

var depthNames = []string{"CV_8U", "CV_8S", "CV_16U", "CV_16S", "CV_32S", "CV_32F", "CV_64F", "CV_16F"}

// MatInfo is what the matrix demo reports about one Mat.
type MatInfo struct {
	Label    string
	Type     string
	Depth    string
	Channels int
	Size     []int
	Dims     int
	Total    int
	Empty    bool
	First    float64 // value of the first element, when there is one
}

func (i MatInfo) String() string {
	return fmt.Sprintf("%-10s type=%s depth=%s channels=%d size=%v dims=%d total=%d empty=%t first=%g",
		i.Label, i.Type, i.Depth, i.Channels, i.Size, i.Dims, i.Total, i.Empty, i.First)
}

// MatReport lists the inspected Mats in creation order.
type MatReport []MatInfo

func (r MatReport) String() string {
	lines := make([]string, len(r))
	for i, info := range r {
		lines[i] = info.String()
	}
	return strings.Join(lines, "\n")
}

// typeName renders a Mat type the way OpenCV spells it, e.g. CV_32FC1.
func typeName(t gocv.MatType) (name, depth string) {
	d := int(t) & 7
	channels := 1 + int(t)>>3
	depth = depthNames[d]
	return fmt.Sprintf("%sC%d", depth, channels), depth
}

func describe(label string, m gocv.Mat) MatInfo {
	name, depth := typeName(m.Type())
	info := MatInfo{
		Label:    label,
		Type:     name,
		Depth:    depth,
		Channels: m.Channels(),
		Size:     m.Size(),
		Dims:     len(m.Size()),
		Total:    m.Total(),
		Empty:    m.Empty(),
	}
	if !info.Empty && info.Dims == 2 {
		switch m.Type() {
		case gocv.MatTypeCV32F:
			info.First = float64(m.GetFloatAt(0, 0))
		case gocv.MatTypeCV64F:
			info.First = m.GetDoubleAt(0, 0)
		case gocv.MatTypeCV8U:
			info.First = float64(m.GetUCharAt(0, 0))
		}
	}
	return info
}

// InspectMats builds a handful of Mats and describes each of them: an empty
// one, a filled float matrix, reshapes, a region view, a type conversion and
// a three dimensional Mat.
func InspectMats() (MatReport, error) {
	var report MatReport

	empty := gocv.NewMat()
	defer empty.Close()
	report = append(report, describe("empty", empty))

	filled := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(7, 0, 0, 0), 10, 10, gocv.MatTypeCV32F)
	defer filled.Close()
	report = append(report, describe("filled", filled))

	region := filled.Region(image.Rect(2, 2, 5, 8))
	defer region.Close()
	report = append(report, describe("region", region))

	converted := gocv.NewMat()
	defer converted.Close()
	if err := filled.ConvertTo(&converted, gocv.MatTypeCV8U); err != nil {
		return nil, fmt.Errorf("failed to convert matrix: %w", err)
	}
	report = append(report, describe("converted", converted))

	square := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV8U)
	defer square.Close()
	for i := 0; i < 9; i++ {
		square.SetUCharAt(i/3, i%3, uint8(i+1))
	}
	row := square.Reshape(0, 1)
	defer row.Close()
	col := square.Reshape(0, 9)
	defer col.Close()
	report = append(report, describe("square", square), describe("row", row), describe("column", col))

	cube := gocv.NewMatWithSizes([]int{3, 3, 3}, gocv.MatTypeCV8U)
	defer cube.Close()
	report = append(report, describe("cube", cube))

	return report, nil
}

// MatBasics logs the report of InspectMats.
func MatBasics(env *demo.Env) error {
	report, err := InspectMats()
	if err != nil {
		return err
	}
	for _, info := range report {
		env.Logger().Info("%s", info)
	}
	return nil
}
