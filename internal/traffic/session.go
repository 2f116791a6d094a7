package traffic

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"

	"cvlab/internal/display"
	"cvlab/internal/logger"
	"cvlab/internal/model"
	"cvlab/internal/repository"
)

// SessionOptions wires a counting session. Only Source and Counter are
// required.
type SessionOptions struct {
	Source    FrameSource
	Counter   *Counter
	Sink      display.Sink
	Logger    *logger.Logger
	Crossings repository.CrossingRepository
	RunID     string
	Overlay   color.RGBA
	Stride    int           // process every N-th frame
	Delay     time.Duration // pause between processed frames, for sinks that do not wait themselves
}

// Result summarises a finished session.
type Result struct {
	Frames    int // frames read from the source
	Processed int
	Total     int
	Stopped   bool // ended by the user or by cancellation, not by the end of the video
}

// Session runs the detector and counter over one video.
type Session struct {
	opts     SessionOptions
	detector *Detector
}

func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Source == nil || opts.Counter == nil {
		return nil, fmt.Errorf("%w: session needs a source and a counter", ErrBadCounterConfig)
	}
	if opts.Sink == nil {
		opts.Sink = display.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Overlay == (color.RGBA{}) {
		opts.Overlay = color.RGBA{R: 255, A: 255}
	}
	if opts.Stride < 1 {
		opts.Stride = 1
	}
	return &Session{opts: opts, detector: NewDetector()}, nil
}

// Run reads frames until the source ends, the sink asks to stop or ctx is
// cancelled. Stopping is not an error.
func (s *Session) Run(ctx context.Context) (Result, error) {
	var res Result
	frame := gocv.NewMat()
	defer frame.Close()

	s.opts.Logger.Info("Counting vehicles in %s (line y=%d, mode %s)",
		s.opts.Source.Name(), s.opts.Counter.Config().LineY, s.opts.Counter.Config().Mode)

	for {
		if ctx.Err() != nil {
			res.Stopped = true
			break
		}

		ok, err := s.opts.Source.Read(&frame)
		if err != nil {
			return s.finish(res), err
		}
		if !ok {
			break
		}
		n := res.Frames
		res.Frames++

		if n%s.opts.Stride != 0 {
			continue
		}
		res.Processed++

		if err := s.step(n, &frame); err != nil {
			if errors.Is(err, display.ErrStopped) {
				res.Stopped = true
				break
			}
			return s.finish(res), err
		}

		if s.opts.Delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.opts.Delay):
			}
		}
	}

	return s.finish(res), nil
}

func (s *Session) finish(res Result) Result {
	res.Total = s.opts.Counter.Total()
	s.opts.Logger.Info("Counted %d vehicles in %d frames", res.Total, res.Frames)
	return res
}

// step processes one frame: detect, count, annotate and show.
func (s *Session) step(n int, frame *gocv.Mat) error {
	boxes, err := s.detector.Detect(*frame)
	if err != nil {
		return fmt.Errorf("frame %d: %w", n, err)
	}

	cfg := s.opts.Counter.Config()
	if err := gocv.Line(frame, image.Pt(cfg.LineStartX, cfg.LineY), image.Pt(cfg.LineEndX, cfg.LineY), s.opts.Overlay, 2); err != nil {
		return fmt.Errorf("failed to draw line: %w", err)
	}
	for _, box := range boxes {
		if !cfg.Accept(box) {
			continue
		}
		if err := gocv.Rectangle(frame, box, s.opts.Overlay, 2); err != nil {
			return fmt.Errorf("failed to draw box: %w", err)
		}
	}

	crossings := s.opts.Counter.Observe(n, boxes)
	for _, c := range crossings {
		s.opts.Logger.Debug("Vehicle %d at %v on frame %d", c.Total, c.Center, c.Frame)
	}
	if err := s.persist(crossings); err != nil {
		s.opts.Logger.Error("Failed to save crossings: %v", err)
	}

	total := s.opts.Counter.Total()
	label := fmt.Sprintf("cars: %d", total)
	if err := gocv.PutText(frame, label, image.Pt(20, 50), gocv.FontHersheySimplex, 1.5, s.opts.Overlay, 3); err != nil {
		return fmt.Errorf("failed to draw total: %w", err)
	}

	if ts, ok := s.opts.Sink.(display.TotalSetter); ok {
		ts.SetTotal(total)
	}
	return s.opts.Sink.Show("traffic", *frame)
}

func (s *Session) persist(crossings []Crossing) error {
	if s.opts.Crossings == nil || len(crossings) == 0 {
		return nil
	}
	rows := make([]model.Crossing, len(crossings))
	for i, c := range crossings {
		rows[i] = model.Crossing{
			RunID:  s.opts.RunID,
			Frame:  c.Frame,
			X:      c.Box.Min.X,
			Y:      c.Box.Min.Y,
			Width:  c.Box.Dx(),
			Height: c.Box.Dy(),
			Total:  c.Total,
		}
	}
	return s.opts.Crossings.InsertBatch(rows)
}

// Close releases the detector. The source is closed by whoever opened it.
func (s *Session) Close() error {
	return s.detector.Close()
}
