package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"cvlab/internal/logger"
	"cvlab/internal/model"
	"cvlab/internal/repository"
)

// ListArtifactsHandler lists the images a run wrote, selected by ?run=.
func ListArtifactsHandler(artifacts repository.ArtifactRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := r.URL.Query().Get("run")
		if runID == "" {
			http.Error(w, "run parameter is required", http.StatusBadRequest)
			return
		}

		list, err := artifacts.GetByRunID(runID)
		if err != nil {
			log.Error("Failed to list artifacts for %s: %v", runID, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []model.Artifact{}
		}
		writeJSON(w, log, http.StatusOK, list)
	}
}

// ViewArtifactHandler serves the image file of one artifact, selected by
// ?id=. Only files under outputDir are served.
func ViewArtifactHandler(artifacts repository.ArtifactRepository, outputDir string, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "id parameter must be a number", http.StatusBadRequest)
			return
		}

		a, err := artifacts.GetByID(id)
		if err != nil {
			log.Error("Failed to load artifact %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if a == nil {
			http.Error(w, "Artifact not found", http.StatusNotFound)
			return
		}

		if !within(outputDir, a.Path) {
			log.Warning("Artifact %d points outside the output directory: %s", id, a.Path)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		http.ServeFile(w, r, a.Path)
	}
}

// within reports whether path is inside dir.
func within(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
