package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"cvlab/internal/logger"
)

func writeJSON(w http.ResponseWriter, log *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error encoding JSON response: %v", err)
	}
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// HistoryDisabledHandler answers history endpoints when no database is
// configured.
func HistoryDisabledHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Run history is disabled (set DB_PATH)", http.StatusServiceUnavailable)
}
