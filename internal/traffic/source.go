package traffic

import (
	"fmt"

	"gocv.io/x/gocv"

	"cvlab/internal/samples"
)

// FrameSource yields the frames of one video in order.
type FrameSource interface {
	// Read fills dst with the next frame. It returns false at the end of
	// the stream.
	Read(dst *gocv.Mat) (bool, error)
	Name() string
	Close() error
}

// VideoSource reads a video file through OpenCV.
type VideoSource struct {
	path    string
	capture *gocv.VideoCapture
}

func OpenVideo(path string) (*VideoSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("failed to open video %s", path)
	}
	return &VideoSource{path: path, capture: capture}, nil
}

func (v *VideoSource) Read(dst *gocv.Mat) (bool, error) {
	if !v.capture.Read(dst) || dst.Empty() {
		return false, nil
	}
	return true, nil
}

func (v *VideoSource) Name() string { return v.path }

func (v *VideoSource) Close() error { return v.capture.Close() }

// SyntheticSource renders the generated traffic clip.
type SyntheticSource struct {
	frames int
	next   int
}

// NewSyntheticSource returns a source of the first frames of the generated
// clip. frames <= 0 means the whole clip.
func NewSyntheticSource(frames int) *SyntheticSource {
	if frames <= 0 || frames > samples.TrafficFrames {
		frames = samples.TrafficFrames
	}
	return &SyntheticSource{frames: frames}
}

func (s *SyntheticSource) Read(dst *gocv.Mat) (bool, error) {
	if s.next >= s.frames {
		return false, nil
	}
	m, err := gocv.ImageToMatRGB(samples.TrafficFrame(s.next))
	if err != nil {
		return false, fmt.Errorf("failed to render frame %d: %w", s.next, err)
	}
	defer m.Close()
	if err := m.CopyTo(dst); err != nil {
		return false, fmt.Errorf("failed to copy frame %d: %w", s.next, err)
	}
	s.next++
	return true, nil
}

func (s *SyntheticSource) Name() string { return "synthetic" }

func (s *SyntheticSource) Close() error { return nil }
