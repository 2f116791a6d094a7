// Package samples resolves the named inputs the demos read. A name maps to a
// file in the sample directory when one exists; otherwise a synthetic image
// is generated once into the cache directory.
package samples

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/disintegration/imaging"

	"cvlab/internal/logger"
)

var ErrUnknownSample = errors.New("unknown sample")

// Extensions tried, in order, when looking for a sample on disk.
var Extensions = []string{".png", ".jpg", ".jpeg"}

// Library finds sample files and generates the missing ones.
type Library struct {
	dir    string
	cache  string
	logger *logger.Logger
	mu     sync.Mutex
}

func NewLibrary(sampleDir, cacheDir string, log *logger.Logger) *Library {
	if log == nil {
		log = logger.NewNop()
	}
	return &Library{dir: sampleDir, cache: cacheDir, logger: log}
}

// Names returns every known sample name, sorted.
func Names() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate draws the synthetic version of a sample.
func Generate(name string) (image.Image, error) {
	gen, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSample, name)
	}
	return gen(), nil
}

// Path returns a readable file for the sample.
func (l *Library) Path(name string) (string, error) {
	if _, ok := generators[name]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSample, name)
	}

	if l.dir != "" {
		for _, ext := range Extensions {
			path := filepath.Join(l.dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	path := filepath.Join(l.cache, name+".png")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(l.cache, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := l.write(name, path); err != nil {
		return "", err
	}
	l.logger.Info("Generated sample %s at %s", name, path)
	return path, nil
}

// WriteAll generates every sample into dir and returns the written paths.
func (l *Library) WriteAll(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var paths []string
	for _, name := range Names() {
		path := filepath.Join(dir, name+".png")
		if err := l.write(name, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// write saves through a temporary file so a half-written sample is never
// picked up by Path.
func (l *Library) write(name, path string) error {
	img, err := Generate(name)
	if err != nil {
		return err
	}

	tmp := path + ".tmp.png"
	if err := imaging.Save(img, tmp); err != nil {
		return fmt.Errorf("failed to save sample %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save sample %s: %w", name, err)
	}
	return nil
}
