package demo

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gocv.io/x/gocv"

	"cvlab/internal/display"
	"cvlab/internal/logger"
)

// Resolver turns a sample name into a readable file path.
type Resolver interface {
	Path(name string) (string, error)
}

// Options configures an Env.
type Options struct {
	Samples Resolver
	Sink    display.Sink
	Params  map[string]string
	Logger  *logger.Logger
	Overlay color.RGBA
}

// Env is what a running demo sees: its inputs, parameters, logger and sink.
type Env struct {
	ctx     context.Context
	name    string
	samples Resolver
	sink    display.Sink
	params  map[string]string
	log     *logger.Logger
	overlay color.RGBA
}

// DefaultOverlay is the red used for drawn outlines when none is configured.
var DefaultOverlay = color.RGBA{R: 255, A: 255}

func NewEnv(ctx context.Context, name string, opts Options) *Env {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Sink == nil {
		opts.Sink = display.Discard
	}
	if opts.Params == nil {
		opts.Params = map[string]string{}
	}
	if opts.Overlay == (color.RGBA{}) {
		opts.Overlay = DefaultOverlay
	}
	return &Env{
		ctx:     ctx,
		name:    name,
		samples: opts.Samples,
		sink:    opts.Sink,
		params:  opts.Params,
		log:     opts.Logger,
		overlay: opts.Overlay,
	}
}

func (e *Env) Context() context.Context { return e.ctx }

func (e *Env) Name() string { return e.name }

func (e *Env) Logger() *logger.Logger { return e.log }

// Overlay is the colour demos draw contours, outlines and boxes with.
func (e *Env) Overlay() color.RGBA { return e.overlay }

// Load reads a sample image. The caller owns the returned Mat.
func (e *Env) Load(sample string, flags gocv.IMReadFlag) (gocv.Mat, error) {
	if e.samples == nil {
		return gocv.NewMat(), fmt.Errorf("failed to load %s: no sample library", sample)
	}
	path, err := e.samples.Path(sample)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to load %s: %w", sample, err)
	}

	img := gocv.IMRead(path, flags)
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), fmt.Errorf("failed to load %s (%s): %w", sample, path, ErrEmptyImage)
	}
	e.log.Debug("Loaded %s from %s (%dx%d)", sample, path, img.Cols(), img.Rows())
	return img, nil
}

// Show hands an image to the sink under a title.
func (e *Env) Show(title string, img gocv.Mat) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	if img.Empty() {
		return fmt.Errorf("failed to show %s: %w", title, ErrEmptyImage)
	}
	return e.sink.Show(title, img)
}

// String returns a parameter or its default.
func (e *Env) String(key, def string) string {
	if v, ok := e.params[key]; ok && v != "" {
		return v
	}
	return def
}

// Int returns an integer parameter or its default.
func (e *Env) Int(key string, def int) (int, error) {
	v, ok := e.params[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrBadParam, key, v)
	}
	return n, nil
}

// Float returns a floating point parameter or its default.
func (e *Env) Float(key string, def float64) (float64, error) {
	v, ok := e.params[key]
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s=%q is not a finite number", ErrBadParam, key, v)
	}
	return f, nil
}

// ParseParams turns key=value pairs from the command line into a map.
func ParseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q, expected key=value", ErrBadParam, p)
		}
		params[key] = strings.TrimSpace(value)
	}
	return params, nil
}
