package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"cvlab/internal/logger"
)

// ShowLogsHandler serves one of the logger's files as plain text.
func ShowLogsHandler(log *logger.Logger, fileName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveLogFile(w, r, log.Dir(), fileName)
	}
}

// serveLogFile writes a single log file, or 404 when it was never created.
func serveLogFile(w http.ResponseWriter, r *http.Request, logDir, fileName string) {
	filePath := filepath.Join(logDir, fileName)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.Error(w, "Log file not found: "+fileName, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, filePath)
}

// ClearLogsHandler truncates one of the logger's files.
func ClearLogsHandler(log *logger.Logger, fileName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := log.CleanLogs(fileName); err != nil {
			log.Error("Failed to clear %s: %v", fileName, err)
			http.Error(w, "Failed to clear log", http.StatusInternalServerError)
			return
		}
		writeJSON(w, log, http.StatusOK, map[string]string{"cleared": fileName})
	}
}
