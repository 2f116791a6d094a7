package traffic

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"cvlab/internal/display"
	"cvlab/internal/model"
	"cvlab/internal/samples"
)

type countingSink struct {
	shows  int
	stopAt int
	total  int
}

func (s *countingSink) Show(title string, img gocv.Mat) error {
	s.shows++
	if s.stopAt > 0 && s.shows >= s.stopAt {
		return display.ErrStopped
	}
	return nil
}

func (s *countingSink) SetTotal(total int) { s.total = total }

func (s *countingSink) Close() error { return nil }

type memCrossings struct {
	mu   sync.Mutex
	rows []model.Crossing
}

func (m *memCrossings) InsertBatch(rows []model.Crossing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *memCrossings) GetByRunID(runID string) ([]model.Crossing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Crossing
	for _, r := range m.rows {
		if r.RunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newSession(t *testing.T, opts SessionOptions) *Session {
	t.Helper()
	if opts.Counter == nil {
		opts.Counter = newCounter(t, nil)
	}
	s, err := NewSession(opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSession_RequiresSource(t *testing.T) {
	_, err := NewSession(SessionOptions{})
	assert.ErrorIs(t, err, ErrBadCounterConfig)
}

func TestSession_RunsToEnd(t *testing.T) {
	sink := &countingSink{}
	repo := &memCrossings{}
	s := newSession(t, SessionOptions{
		Source:    NewSyntheticSource(120),
		Sink:      sink,
		Crossings: repo,
		RunID:     "run-1",
	})

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Stopped)
	assert.Equal(t, 120, res.Frames)
	assert.Equal(t, 120, res.Processed)
	assert.Equal(t, 120, sink.shows)
	assert.Equal(t, res.Total, sink.total)
	// every car whose centre passed the line, give or take one at the clip edge
	want := samples.TrafficCrossings(120, DefaultConfig().LineY)
	assert.InDelta(t, want, res.Total, 1, "counted %d, %d cars crossed", res.Total, want)

	rows, err := repo.GetByRunID("run-1")
	require.NoError(t, err)
	assert.Len(t, rows, res.Total)
	for i, r := range rows {
		assert.Equal(t, i+1, r.Total)
	}
}

func TestSession_Stride(t *testing.T) {
	sink := &countingSink{}
	s := newSession(t, SessionOptions{Source: NewSyntheticSource(10), Sink: sink, Stride: 3})

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, res.Frames)
	// frames 0, 3, 6 and 9
	assert.Equal(t, 4, res.Processed)
	assert.Equal(t, 4, sink.shows)
}

func TestSession_StopFromSink(t *testing.T) {
	sink := &countingSink{stopAt: 5}
	s := newSession(t, SessionOptions{Source: NewSyntheticSource(50), Sink: sink})

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Stopped)
	assert.Equal(t, 5, res.Processed)
}

func TestSession_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &countingSink{}
	s := newSession(t, SessionOptions{Source: NewSyntheticSource(50), Sink: sink})

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.Stopped)
	assert.Zero(t, sink.shows)
}

func TestSyntheticSource(t *testing.T) {
	src := NewSyntheticSource(2)
	defer src.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	for i := 0; i < 2; i++ {
		ok, err := src.Read(&frame)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1280, frame.Cols())
		assert.Equal(t, 720, frame.Rows())
		assert.Equal(t, 3, frame.Channels())
	}

	ok, err := src.Read(&frame)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 300, NewSyntheticSource(0).frames)
}

func TestDetector_FindsNewObject(t *testing.T) {
	d := NewDetector()
	defer d.Close()

	background := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(90, 90, 90, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer background.Close()
	for i := 0; i < 20; i++ {
		_, err := d.Detect(background)
		require.NoError(t, err)
	}

	car := image.Rect(200, 150, 360, 290)
	frame := background.Clone()
	defer frame.Close()
	require.NoError(t, gocv.Rectangle(&frame, car, color.RGBA{R: 255, G: 255, B: 255}, -1))

	boxes, err := d.Detect(frame)
	require.NoError(t, err)
	require.NotEmpty(t, boxes)

	center := Center(car)
	found := false
	for _, b := range boxes {
		if center.In(b) && b.Dx() >= car.Dx()/2 && b.Dy() >= car.Dy()/2 {
			found = true
		}
	}
	assert.True(t, found, "no box around %v in %v", car, boxes)
}

func TestDetector_EmptyFrame(t *testing.T) {
	d := NewDetector()
	defer d.Close()

	empty := gocv.NewMat()
	defer empty.Close()
	_, err := d.Detect(empty)
	assert.Error(t, err)
}
