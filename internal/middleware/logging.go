package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"cvlab/internal/logger"
)

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// LoggingMiddleware logs every request with its status and duration, and
// turns a handler panic into a 500.
func LoggingMiddleware(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				log.Error("Panic serving %s %s: %v", r.Method, r.URL.Path, p)
				http.Error(rec, "Internal Server Error", http.StatusInternalServerError)
			}

			elapsed := time.Since(start)
			if rec.status >= http.StatusInternalServerError {
				log.Warning("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, elapsed)
				return
			}
			log.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, elapsed)
		}()

		next.ServeHTTP(rec, r)
	})
}
