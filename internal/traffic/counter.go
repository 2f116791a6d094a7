// Package traffic counts vehicles crossing a horizontal line in a video.
package traffic

import (
	"errors"
	"fmt"
	"image"

	"cvlab/internal/config"
)

// Counting modes.
const (
	// ModePerFrame adds one for every in-band centre in every frame, so a car
	// that stays in the band for two frames is counted twice.
	ModePerFrame = "per-frame"
	// ModeCrossing ignores an in-band centre that is close to one seen in the
	// band on the previous frame.
	ModeCrossing = "crossing"
)

var ErrBadCounterConfig = errors.New("invalid counter configuration")

// Config places the counting line and filters detections.
type Config struct {
	LineY       int
	LineStartX  int
	LineEndX    int
	Offset      int // half height of the band around the line
	MinWidth    int
	MinHeight   int
	Mode        string
	MatchRadius int
}

// DefaultConfig matches a 1280x720 road video.
func DefaultConfig() Config {
	return Config{
		LineY:       600,
		LineStartX:  10,
		LineEndX:    1200,
		Offset:      6,
		MinWidth:    90,
		MinHeight:   90,
		Mode:        ModeCrossing,
		MatchRadius: 30,
	}
}

// FromConfig copies the counter settings out of the application config.
func FromConfig(c config.CounterConfig) Config {
	return Config{
		LineY:       c.LineY,
		LineStartX:  c.LineStartX,
		LineEndX:    c.LineEndX,
		Offset:      c.LineOffset,
		MinWidth:    c.MinWidth,
		MinHeight:   c.MinHeight,
		Mode:        c.Mode,
		MatchRadius: c.MatchRadius,
	}
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModePerFrame, ModeCrossing:
	default:
		return fmt.Errorf("%w: mode must be %s or %s, got %q", ErrBadCounterConfig, ModePerFrame, ModeCrossing, c.Mode)
	}
	if c.Offset <= 0 {
		return fmt.Errorf("%w: line offset must be positive, got %d", ErrBadCounterConfig, c.Offset)
	}
	if c.MatchRadius < 0 {
		return fmt.Errorf("%w: match radius must not be negative, got %d", ErrBadCounterConfig, c.MatchRadius)
	}
	return nil
}

// Accept reports whether a detection is big enough to be a car. Only boxes
// that are both too narrow and too short are dropped.
func (c Config) Accept(r image.Rectangle) bool {
	return r.Dx() >= c.MinWidth || r.Dy() >= c.MinHeight
}

// InBand reports whether p lies strictly inside the band around the line.
func (c Config) InBand(p image.Point) bool {
	return p.Y > c.LineY-c.Offset && p.Y < c.LineY+c.Offset
}

// Center is the middle of r, rounded down.
func Center(r image.Rectangle) image.Point {
	return image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
}

// Crossing is one counted vehicle.
type Crossing struct {
	Frame  int
	Box    image.Rectangle
	Center image.Point
	Total  int // running total including this vehicle
}

// Counter turns per-frame detections into a running total.
type Counter struct {
	cfg      Config
	total    int
	previous []image.Point
}

func NewCounter(cfg Config) (*Counter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Counter{cfg: cfg}, nil
}

func (c *Counter) Config() Config { return c.cfg }

func (c *Counter) Total() int { return c.total }

// Observe feeds the boxes detected on one frame and returns the vehicles
// counted on it, in box order.
func (c *Counter) Observe(frame int, boxes []image.Rectangle) []Crossing {
	var (
		inBand  []image.Point
		counted []Crossing
	)
	for _, box := range boxes {
		if !c.cfg.Accept(box) {
			continue
		}
		center := Center(box)
		if !c.cfg.InBand(center) {
			continue
		}
		inBand = append(inBand, center)

		if c.cfg.Mode == ModeCrossing && c.seenBefore(center) {
			continue
		}
		c.total++
		counted = append(counted, Crossing{Frame: frame, Box: box, Center: center, Total: c.total})
	}
	c.previous = inBand
	return counted
}

// seenBefore reports whether p is within the match radius of a centre that
// was in the band on the previous frame.
func (c *Counter) seenBefore(p image.Point) bool {
	r2 := c.cfg.MatchRadius * c.cfg.MatchRadius
	for _, q := range c.previous {
		dx, dy := p.X-q.X, p.Y-q.Y
		if dx*dx+dy*dy <= r2 {
			return true
		}
	}
	return false
}

// Reset clears the total and the previous frame.
func (c *Counter) Reset() {
	c.total = 0
	c.previous = nil
}
