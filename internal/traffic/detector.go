package traffic

import (
	"fmt"
	"image"
	"image/color"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// Detector finds moving blobs in consecutive frames of one video. It keeps a
// background model, so a Detector must not be shared between videos.
type Detector struct {
	subtractor gocv.BackgroundSubtractorMOG2
	kernel     gocv.Mat

	// scratch buffers reused across frames
	gray    gocv.Mat
	blurred gocv.Mat
	mask    gocv.Mat
	eroded  gocv.Mat
	dilated gocv.Mat
	closed  gocv.Mat
}

func NewDetector() *Detector {
	return &Detector{
		subtractor: gocv.NewBackgroundSubtractorMOG2(),
		kernel:     gocv.GetStructuringElement(gocv.MorphRect, image.Pt(5, 5)),
		gray:       gocv.NewMat(),
		blurred:    gocv.NewMat(),
		mask:       gocv.NewMat(),
		eroded:     gocv.NewMat(),
		dilated:    gocv.NewMat(),
		closed:     gocv.NewMat(),
	}
}

// Detect updates the background model with frame and returns the bounding
// rectangles of the foreground regions.
func (d *Detector) Detect(frame gocv.Mat) ([]image.Rectangle, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("failed to detect: empty frame")
	}

	if err := gocv.CvtColor(frame, &d.gray, gocv.ColorBGRToGray); err != nil {
		return nil, fmt.Errorf("failed to convert frame to grayscale: %w", err)
	}
	if err := gocv.GaussianBlur(d.gray, &d.blurred, image.Pt(3, 3), 5, 0, gocv.BorderDefault); err != nil {
		return nil, fmt.Errorf("failed to blur frame: %w", err)
	}
	if err := d.subtractor.Apply(d.blurred, &d.mask); err != nil {
		return nil, fmt.Errorf("failed to subtract background: %w", err)
	}

	// Erosion drops specks, dilation grows the cars back.
	if err := gocv.Erode(d.mask, &d.eroded, d.kernel); err != nil {
		return nil, fmt.Errorf("failed to erode mask: %w", err)
	}
	if err := gocv.DilateWithParams(d.eroded, &d.dilated, d.kernel, image.Pt(-1, -1), 3, gocv.BorderConstant, color.RGBA{}); err != nil {
		return nil, fmt.Errorf("failed to dilate mask: %w", err)
	}
	if err := gocv.MorphologyEx(d.dilated, &d.closed, gocv.MorphClose, d.kernel); err != nil {
		return nil, fmt.Errorf("failed to close mask: %w", err)
	}
	if err := gocv.MorphologyEx(d.closed, &d.dilated, gocv.MorphClose, d.kernel); err != nil {
		return nil, fmt.Errorf("failed to close mask: %w", err)
	}

	contours := gocv.FindContours(d.dilated, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	boxes := make([]image.Rectangle, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		boxes = append(boxes, gocv.BoundingRect(contours.At(i)))
	}
	return boxes, nil
}

// Close releases the background model and the scratch buffers.
func (d *Detector) Close() error {
	err := d.subtractor.Close()
	for _, m := range []*gocv.Mat{&d.kernel, &d.gray, &d.blurred, &d.mask, &d.eroded, &d.dilated, &d.closed} {
		err = multierr.Append(err, m.Close())
	}
	return err
}
