package handlers

import (
	"net/http"

	"cvlab/internal/logger"
	"cvlab/internal/model"
	"cvlab/internal/repository"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

// RunDetails is a run with the vehicles it counted.
type RunDetails struct {
	Run       *model.Run       `json:"run"`
	Crossings []model.Crossing `json:"crossings"`
}

// ListRunsHandler lists recent runs, newest first. Optional query
// parameters: kind, name, status, limit.
func ListRunsHandler(runs repository.RunRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := atoiDefault(q.Get("limit"), defaultRunLimit)
		if limit > maxRunLimit {
			limit = maxRunLimit
		}

		list, err := runs.List(&model.RunFilter{
			Kind:   q.Get("kind"),
			Name:   q.Get("name"),
			Status: q.Get("status"),
			Limit:  limit,
		})
		if err != nil {
			log.Error("Failed to list runs: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []model.Run{}
		}
		writeJSON(w, log, http.StatusOK, list)
	}
}

// RunCrossingsHandler returns one run and its crossings, selected by ?id=.
func RunCrossingsHandler(runs repository.RunRepository, crossings repository.CrossingRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "id parameter is required", http.StatusBadRequest)
			return
		}

		run, err := runs.GetByID(id)
		if err != nil {
			log.Error("Failed to load run %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if run == nil {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}

		list, err := crossings.GetByRunID(id)
		if err != nil {
			log.Error("Failed to load crossings for %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []model.Crossing{}
		}
		writeJSON(w, log, http.StatusOK, RunDetails{Run: run, Crossings: list})
	}
}
