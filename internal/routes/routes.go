package routes

import (
	"embed"
	"io/fs"
	"net/http"

	"cvlab/internal/demo"
	"cvlab/internal/handlers"
	"cvlab/internal/logger"
	"cvlab/internal/middleware"
	"cvlab/internal/repository"
	"cvlab/internal/services/websocket"
)

//go:embed static
var staticFiles embed.FS

// Deps is what the HTTP surface needs. The repositories are nil when run
// history is disabled.
type Deps struct {
	Hub       *websocket.HubService
	Registry  *demo.Registry
	Runs      repository.RunRepository
	Crossings repository.CrossingRepository
	Artifacts repository.ArtifactRepository
	OutputDir string
	Logger    *logger.Logger
}

// dynamicHTMLHandler serves /path as static/path.html if the file exists;
// otherwise 404.
func dynamicHTMLHandler(static fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		if name == "/" {
			name = "/index"
		}

		data, err := fs.ReadFile(static, name[1:]+".html")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(data)
	}
}

// SetupRoutes registers the viewer page, the API endpoints and the log
// endpoints, and wraps the mux with request logging.
func SetupRoutes(deps Deps) http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// The embedded directory always exists.
		panic(err)
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// API endpoints
	mux.HandleFunc("/api/view", handlers.ViewWebsocketHandler(deps.Hub, deps.Logger))
	mux.HandleFunc("/api/demos", handlers.ListDemosHandler(deps.Registry, deps.Logger))

	if deps.Runs != nil && deps.Crossings != nil && deps.Artifacts != nil {
		mux.HandleFunc("/api/runs", handlers.ListRunsHandler(deps.Runs, deps.Logger))
		mux.HandleFunc("/api/runs/crossings", handlers.RunCrossingsHandler(deps.Runs, deps.Crossings, deps.Logger))
		mux.HandleFunc("/api/artifacts", handlers.ListArtifactsHandler(deps.Artifacts, deps.Logger))
		mux.HandleFunc("/api/artifacts/view", handlers.ViewArtifactHandler(deps.Artifacts, deps.OutputDir, deps.Logger))
	} else {
		for _, p := range []string{"/api/runs", "/api/runs/crossings", "/api/artifacts", "/api/artifacts/view"} {
			mux.HandleFunc(p, handlers.HistoryDisabledHandler)
		}
	}

	// Log endpoints
	for name, file := range map[string]string{
		"info":    logger.InfoFile,
		"warning": logger.WarningFile,
		"error":   logger.ErrorFile,
	} {
		mux.HandleFunc("/logs/"+name, handlers.ShowLogsHandler(deps.Logger, file))
		mux.HandleFunc("/logs/"+name+"/clear", handlers.ClearLogsHandler(deps.Logger, file))
	}

	// / -> static/index.html
	mux.HandleFunc("/", dynamicHTMLHandler(static))

	return middleware.LoggingMiddleware(deps.Logger, mux)
}
