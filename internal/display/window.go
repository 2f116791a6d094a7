package display

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// noKey is what WaitKey reports when the delay elapsed without a key press.
const noKey = -1

// WindowSink shows each title in its own OpenCV window.
type WindowSink struct {
	// Delay is passed to WaitKey after every Show, in milliseconds.
	// Zero waits forever.
	Delay int
	// StopOnKey makes Show return ErrStopped when a key was pressed.
	StopOnKey bool

	mu      sync.Mutex
	windows map[string]*gocv.Window
}

func NewWindowSink(delay int, stopOnKey bool) *WindowSink {
	return &WindowSink{
		Delay:     delay,
		StopOnKey: stopOnKey,
		windows:   make(map[string]*gocv.Window),
	}
}

func (s *WindowSink) Show(title string, img gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[title]
	if !ok {
		w = gocv.NewWindow(title)
		s.windows[title] = w
	}
	if err := w.IMShow(img); err != nil {
		return fmt.Errorf("failed to show %s: %w", title, err)
	}

	key := w.WaitKey(s.Delay)
	if s.StopOnKey && key != noKey && key != 255 {
		return ErrStopped
	}
	return nil
}

func (s *WindowSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	for title, w := range s.windows {
		err = multierr.Append(err, w.Close())
		delete(s.windows, title)
	}
	return err
}
