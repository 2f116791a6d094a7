// Package app wires configuration, logging, history, the demo catalog and the
// display sinks together for the command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"cvlab/internal/config"
	"cvlab/internal/demo"
	"cvlab/internal/display"
	"cvlab/internal/logger"
	"cvlab/internal/model"
	"cvlab/internal/repository"
	"cvlab/internal/repository/sqlite"
	"cvlab/internal/routes"
	"cvlab/internal/samples"
	"cvlab/internal/services/websocket"
	"cvlab/internal/traffic"
	"cvlab/internal/vision"
)

var ErrHistoryDisabled = errors.New("run history is disabled, set DB_PATH")

// shutdownTimeout bounds how long serve waits for open requests.
const shutdownTimeout = 5 * time.Second

// counterFileEvery keeps one counter frame in this many when writing files.
const counterFileEvery = 10

type App struct {
	config   *config.Config
	logger   *logger.Logger
	registry *demo.Registry
	samples  *samples.Library
	overlay  color.RGBA

	db        *sqlite.DB
	runs      repository.RunRepository
	crossings repository.CrossingRepository
	artifacts repository.ArtifactRepository

	// newSink picks the sink for a run; tests replace it.
	newSink func(ctx context.Context, runID string, counting bool) (display.Sink, func())
}

// New builds an App from cfg. The caller must Close it.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return newWithLogger(cfg, log)
}

func newWithLogger(cfg *config.Config, log *logger.Logger) (*App, error) {
	switch cfg.Display {
	case config.DisplayWindow, config.DisplayFile, config.DisplayNone:
	default:
		return nil, multierr.Append(
			fmt.Errorf("unknown display mode %q, expected %s, %s or %s", cfg.Display, config.DisplayWindow, config.DisplayFile, config.DisplayNone),
			log.Close())
	}

	overlay, err := display.ParseColor(cfg.OverlayColor)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to parse OVERLAY_COLOR: %w", err), log.Close())
	}

	a := &App{
		config:   cfg,
		logger:   log,
		registry: demo.NewRegistry(),
		samples:  samples.NewLibrary(cfg.SampleDirectory, cfg.CacheDirectory, log),
		overlay:  overlay,
	}
	a.newSink = a.sinkFor
	vision.Register(a.registry)

	if cfg.DatabasePath != "" {
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to open history: %w", err), log.Close())
		}
		a.db = db
		a.runs = sqlite.NewRunRepository(db)
		a.crossings = sqlite.NewCrossingRepository(db)
		a.artifacts = sqlite.NewArtifactRepository(db)
		log.Info("Run history in %s", cfg.DatabasePath)
	}

	return a, nil
}

func (a *App) Config() *config.Config { return a.config }

func (a *App) Logger() *logger.Logger { return a.logger }

func (a *App) Registry() *demo.Registry { return a.registry }

func (a *App) Samples() *samples.Library { return a.samples }

// sinkFor builds the sink for the configured display mode. The returned
// stop function ends background work the sink started; Close is separate.
func (a *App) sinkFor(ctx context.Context, runID string, counting bool) (display.Sink, func()) {
	switch a.config.Display {
	case config.DisplayWindow:
		if counting {
			return display.NewWindowSink(a.config.Counter.FrameDelayMillis, true), func() {}
		}
		return display.NewWindowSink(a.config.DisplayWaitMillis, false), func() {}

	case config.DisplayFile:
		fs := display.NewFileSink(a.config.OutputDirectory, runID, a.config.OutputBufferLimit, a.logger, a.artifacts)
		if !counting {
			return fs, func() {}
		}
		flushCtx, cancel := context.WithCancel(ctx)
		go fs.Run(flushCtx, display.FlushInterval)
		return display.Every(fs, counterFileEvery), cancel

	default:
		return display.Discard, func() {}
	}
}

// startRun creates the run record. Without history the run only lives in
// memory.
func (a *App) startRun(kind, name, input string) *model.Run {
	run := &model.Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Name:      name,
		Input:     input,
		StartedAt: time.Now(),
		Status:    model.StatusRunning,
	}
	if a.runs != nil {
		if err := a.runs.Insert(run); err != nil {
			a.logger.Error("Failed to save run %s: %v", run.ID, err)
		}
	}
	return run
}

// finishRun records how the run ended and returns runErr unless the run was
// merely stopped.
func (a *App) finishRun(run *model.Run, runErr error) error {
	run.FinishedAt = time.Now()
	switch {
	case runErr == nil:
		run.Status = model.StatusOK
	case errors.Is(runErr, display.ErrStopped), errors.Is(runErr, context.Canceled):
		run.Status = model.StatusStopped
		runErr = nil
	default:
		run.Status = model.StatusFailed
		run.Error = runErr.Error()
	}

	if a.runs != nil {
		if err := a.runs.Finish(run); err != nil {
			a.logger.Error("Failed to update run %s: %v", run.ID, err)
		}
	}

	if runErr != nil {
		a.logger.Error("%s %s failed after %s: %v", run.Kind, run.Name, run.Duration(), runErr)
	} else {
		a.logger.Info("%s %s %s in %s", run.Kind, run.Name, run.Status, run.Duration())
	}
	return runErr
}

// RunDemo runs one demo from the catalog with optional parameters.
func (a *App) RunDemo(ctx context.Context, name string, params map[string]string) (*model.Run, error) {
	d, err := a.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	run := a.startRun(model.KindDemo, d.Name, strings.Join(d.Inputs, ","))
	sink, stop := a.newSink(ctx, run.ID, false)

	env := demo.NewEnv(ctx, d.Name, demo.Options{
		Samples: a.samples,
		Sink:    sink,
		Params:  params,
		Logger:  a.logger,
		Overlay: a.overlay,
	})

	a.logger.Info("Running %s/%s", d.Group, d.Name)
	runErr := d.Run(env)
	stop()
	if err := sink.Close(); err != nil {
		runErr = multierr.Append(runErr, fmt.Errorf("failed to close display: %w", err))
	}
	return run, a.finishRun(run, runErr)
}

// RunGroup runs every demo of a group in name order. A failing demo does not
// stop the others; a stop request does.
func (a *App) RunGroup(ctx context.Context, group string, params map[string]string) ([]*model.Run, error) {
	demos := a.registry.Group(group)
	if len(demos) == 0 {
		return nil, fmt.Errorf("%w: no demos in group %q", demo.ErrUnknownDemo, group)
	}

	var (
		runs []*model.Run
		err  error
	)
	for _, d := range demos {
		run, runErr := a.RunDemo(ctx, d.Name, params)
		runs = append(runs, run)
		err = multierr.Append(err, runErr)
		if run.Status == model.StatusStopped || ctx.Err() != nil {
			break
		}
	}
	return runs, err
}

// CountOptions overrides the configured counter settings for one run.
type CountOptions struct {
	Video  string // empty uses COUNTER_VIDEO, then the synthetic clip
	Mode   string
	Frames int // synthetic clip length, 0 for all of it
	// Sink, when set, replaces the configured display for this run.
	Sink  func(runID string) display.Sink
	Delay time.Duration
}

// Count runs the vehicle counter over a video.
func (a *App) Count(ctx context.Context, opts CountOptions) (*model.Run, traffic.Result, error) {
	cfg := traffic.FromConfig(a.config.Counter)
	if opts.Mode != "" {
		cfg.Mode = opts.Mode
	}
	counter, err := traffic.NewCounter(cfg)
	if err != nil {
		return nil, traffic.Result{}, err
	}

	video := opts.Video
	if video == "" {
		video = a.config.Counter.VideoPath
	}
	var source traffic.FrameSource
	if video != "" {
		vs, err := traffic.OpenVideo(video)
		if err != nil {
			return nil, traffic.Result{}, err
		}
		source = vs
	} else {
		source = traffic.NewSyntheticSource(opts.Frames)
	}
	defer source.Close()

	run := a.startRun(model.KindCount, "traffic", source.Name())

	var (
		sink display.Sink
		stop = func() {}
	)
	if opts.Sink != nil {
		sink = opts.Sink(run.ID)
	} else {
		sink, stop = a.newSink(ctx, run.ID, true)
	}

	session, err := traffic.NewSession(traffic.SessionOptions{
		Source:    source,
		Counter:   counter,
		Sink:      sink,
		Logger:    a.logger,
		Crossings: a.crossings,
		RunID:     run.ID,
		Overlay:   a.overlay,
		Stride:    a.config.Counter.FrameStride,
		Delay:     opts.Delay,
	})
	if err != nil {
		stop()
		sink.Close()
		return run, traffic.Result{}, a.finishRun(run, err)
	}

	res, runErr := session.Run(ctx)
	stop()
	runErr = multierr.Combine(runErr, session.Close(), sink.Close())
	if runErr == nil && res.Stopped {
		runErr = display.ErrStopped
	}
	run.Total = res.Total
	return run, res, a.finishRun(run, runErr)
}

// History lists recent runs, newest first.
func (a *App) History(filter *model.RunFilter) ([]model.Run, error) {
	if a.runs == nil {
		return nil, ErrHistoryDisabled
	}
	return a.runs.List(filter)
}

// Crossings returns the vehicles counted by one run.
func (a *App) Crossings(runID string) ([]model.Crossing, error) {
	if a.crossings == nil {
		return nil, ErrHistoryDisabled
	}
	return a.crossings.GetByRunID(runID)
}

// ServeOptions configures the viewer server.
type ServeOptions struct {
	Count bool // stream a counter session to viewers
	Video string
}

// Serve runs the HTTP server until ctx is cancelled. With opts.Count it
// also streams one counter session to the connected viewers.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	// The counter must record its outcome before the caller closes the DB.
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	hub := websocket.NewHubService(a.logger)
	go hub.Run(ctx)

	deps := routes.Deps{
		Hub:       hub,
		Registry:  a.registry,
		OutputDir: a.config.OutputDirectory,
		Logger:    a.logger,
	}
	if a.db != nil {
		deps.Runs, deps.Crossings, deps.Artifacts = a.runs, a.crossings, a.artifacts
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: routes.SetupRoutes(deps),
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("🚀 cvlab viewer on http://localhost:%d", a.config.Port)
		serveErr <- server.ListenAndServe()
	}()

	if opts.Count || opts.Video != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.streamCount(ctx, hub, opts.Video)
		}()
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("🛑 Shutting down viewer server")
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	return server.Shutdown(shutdownCtx)
}

func (a *App) streamCount(ctx context.Context, hub *websocket.HubService, video string) {
	run, res, err := a.Count(ctx, CountOptions{
		Video: video,
		Sink: func(runID string) display.Sink {
			return display.NewHubSink(hub, runID)
		},
		Delay: time.Duration(a.config.Counter.FrameDelayMillis) * time.Millisecond,
	})
	if err != nil {
		a.logger.Warning("Counter session ended with an error: %v", err)
		return
	}
	a.logger.Info("Counter session %s finished: %d vehicles in %d frames", run.ID, res.Total, res.Frames)
}

// Close releases the database and the log files.
func (a *App) Close() error {
	var err error
	if a.db != nil {
		err = multierr.Append(err, a.db.Close())
	}
	return multierr.Append(err, a.logger.Close())
}
