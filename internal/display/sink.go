// Package display routes the images a demo produces to windows, files or
// websocket viewers.
package display

import (
	"errors"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// ErrStopped is returned by a sink when the user asked to stop, for example
// by pressing a key in a window.
var ErrStopped = errors.New("stopped by user")

// Sink receives the images a demo shows. Show must not retain img.
type Sink interface {
	Show(title string, img gocv.Mat) error
	Close() error
}

// TotalSetter is implemented by sinks that annotate frames with a running
// total, such as the vehicle count.
type TotalSetter interface {
	SetTotal(total int)
}

type discard struct{}

func (discard) Show(string, gocv.Mat) error { return nil }
func (discard) Close() error                { return nil }

// Discard drops every image.
var Discard Sink = discard{}

// Tee shows every image on all of its sinks.
type Tee []Sink

func (t Tee) Show(title string, img gocv.Mat) error {
	var err error
	for _, s := range t {
		if serr := s.Show(title, img); serr != nil {
			if errors.Is(serr, ErrStopped) {
				return serr
			}
			err = multierr.Append(err, serr)
		}
	}
	return err
}

func (t Tee) SetTotal(total int) {
	for _, s := range t {
		if ts, ok := s.(TotalSetter); ok {
			ts.SetTotal(total)
		}
	}
}

func (t Tee) Close() error {
	var err error
	for _, s := range t {
		err = multierr.Append(err, s.Close())
	}
	return err
}

// sampled passes every n-th image on to its sink.
type sampled struct {
	Sink
	n    int
	seen int
}

// Every returns a sink that shows only the first of every n images on s.
// Long frame loops use it to keep file output small.
func Every(s Sink, n int) Sink {
	if n <= 1 {
		return s
	}
	return &sampled{Sink: s, n: n}
}

func (s *sampled) Show(title string, img gocv.Mat) error {
	s.seen++
	if (s.seen-1)%s.n != 0 {
		return nil
	}
	return s.Sink.Show(title, img)
}

func (s *sampled) SetTotal(total int) {
	if ts, ok := s.Sink.(TotalSetter); ok {
		ts.SetTotal(total)
	}
}
