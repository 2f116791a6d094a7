package display

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"cvlab/internal/logger"
	"cvlab/internal/model"
	"cvlab/internal/repository"
)

const (
	// SheetName is the contact sheet written next to a run's images.
	SheetName = "sheet.png"
	// FlushInterval is how often Run flushes buffered frames to disk.
	FlushInterval = 30 * time.Second

	thumbWidth  = 240
	thumbHeight = 180
	sheetCols   = 4
	sheetGap    = 8
)

type bufferedFrame struct {
	seq    int
	title  string
	data   []byte
	width  int
	height int
}

// FileSink buffers encoded frames in memory and writes them to
// <dir>/<run>/NN_title.png on Flush. Close flushes and writes a contact sheet.
type FileSink struct {
	dir       string
	runID     string
	limit     int
	frames    []bufferedFrame
	buffered  int
	seq       int
	thumbs    []image.Image
	mu        sync.Mutex
	logger    *logger.Logger
	artifacts repository.ArtifactRepository
}

// NewFileSink creates a sink for one run. limit caps the frames held between
// flushes; frames beyond it are dropped. artifacts may be nil.
func NewFileSink(outputDir, runID string, limit int, logger *logger.Logger, artifacts repository.ArtifactRepository) *FileSink {
	if limit <= 0 {
		limit = 1
	}
	return &FileSink{
		dir:       filepath.Join(outputDir, runID),
		runID:     runID,
		limit:     limit,
		logger:    logger,
		artifacts: artifacts,
	}
}

// Dir is where this run's images are written.
func (s *FileSink) Dir() string {
	return s.dir
}

func (s *FileSink) Show(title string, img gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if s.buffered >= s.limit {
		s.logger.Warning("Buffer full for run %s (%d/%d), dropping %q", s.runID, s.buffered, s.limit, title)
		return nil
	}

	buf, err := gocv.IMEncode(".png", img)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", title, err)
	}
	defer buf.Close()

	// The native buffer is freed on Close, keep a copy.
	data := append([]byte(nil), buf.GetBytes()...)
	s.frames = append(s.frames, bufferedFrame{
		seq:    s.seq,
		title:  title,
		data:   data,
		width:  img.Cols(),
		height: img.Rows(),
	})
	s.buffered++
	s.logger.Debug("Buffer size for run %s: %d/%d", s.runID, s.buffered, s.limit)
	return nil
}

// Run flushes on a ticker until ctx is done.
func (s *FileSink) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				s.logger.Error("Error flushing run %s: %v", s.runID, err)
			}
		}
	}
}

// Flush writes buffered frames to disk, records them as artifacts and
// resets the buffer.
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *FileSink) flushLocked() error {
	if len(s.frames) == 0 {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	savedCount := 0
	for _, f := range s.frames {
		filename := fmt.Sprintf("%02d_%s.png", f.seq, slug(f.title))
		fullpath := filepath.Join(s.dir, filename)

		if err := os.WriteFile(fullpath, f.data, 0644); err != nil {
			s.logger.Error("Error saving image %s: %v", filename, err)
			continue
		}

		if thumb, err := imaging.Decode(bytes.NewReader(f.data)); err == nil {
			s.thumbs = append(s.thumbs, imaging.Fit(thumb, thumbWidth, thumbHeight, imaging.Box))
		}

		s.record(f.title, fullpath, f.width, f.height, int64(len(f.data)))
		savedCount++
	}

	s.logger.Info("Flushed %d images to %s", savedCount, s.dir)
	s.frames = s.frames[:0]
	s.buffered = 0
	return nil
}

func (s *FileSink) record(title, path string, width, height int, size int64) {
	if s.artifacts == nil {
		return
	}
	a := &model.Artifact{
		RunID:    s.runID,
		Title:    title,
		Path:     path,
		Width:    width,
		Height:   height,
		FileSize: size,
	}
	if _, err := s.artifacts.Insert(a); err != nil {
		s.logger.Error("Error saving artifact %s to database: %v", path, err)
	}
}

// Close flushes the remaining frames and writes the contact sheet.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(); err != nil {
		return err
	}
	if len(s.thumbs) == 0 {
		return nil
	}

	sheet := ContactSheet(s.thumbs)
	path := filepath.Join(s.dir, SheetName)
	if err := imaging.Save(sheet, path); err != nil {
		return fmt.Errorf("failed to save contact sheet: %w", err)
	}

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	b := sheet.Bounds()
	s.record("sheet", path, b.Dx(), b.Dy(), size)
	s.thumbs = nil
	return nil
}

// ContactSheet lays thumbnails out on a grid, left to right then top to bottom.
func ContactSheet(thumbs []image.Image) *image.NRGBA {
	background := color.NRGBA{R: 32, G: 32, B: 32, A: 255}
	if len(thumbs) == 0 {
		return imaging.New(sheetGap, sheetGap, background)
	}

	cols := sheetCols
	if len(thumbs) < cols {
		cols = len(thumbs)
	}
	rows := (len(thumbs) + cols - 1) / cols

	width := cols*thumbWidth + (cols+1)*sheetGap
	height := rows*thumbHeight + (rows+1)*sheetGap
	sheet := imaging.New(width, height, background)

	for i, t := range thumbs {
		col, row := i%cols, i/cols
		// Center each thumbnail in its cell.
		b := t.Bounds()
		x := sheetGap + col*(thumbWidth+sheetGap) + (thumbWidth-b.Dx())/2
		y := sheetGap + row*(thumbHeight+sheetGap) + (thumbHeight-b.Dy())/2
		sheet = imaging.Paste(sheet, t, image.Pt(x, y))
	}
	return sheet
}

func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "image"
	}
	return s
}
