package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"cvlab/internal/logger"
	hub "cvlab/internal/services/websocket"
)

// Viewers never send, so the read deadline is renewed by the pongs that
// answer our pings.
var (
	viewerReadTimeout = 60 * time.Second
	viewerPingPeriod  = viewerReadTimeout * 9 / 10
	viewerWriteWait   = 10 * time.Second
)

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler registers a viewer with the hub and keeps the
// connection open until the viewer goes away. Viewers only receive.
func ViewWebsocketHandler(h *hub.HubService, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warning("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(viewerReadTimeout))
		connection.SetPongHandler(func(string) error {
			return connection.SetReadDeadline(time.Now().Add(viewerReadTimeout))
		})
		defer connection.Close()

		if !h.Register(connection) {
			log.Warning("Viewer rejected, hub is stopped")
			return
		}
		defer h.Unregister(connection)

		done := make(chan struct{})
		defer close(done)
		go pingViewer(connection, done, log)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				log.Debug("Viewer disconnected: %v", err)
				return
			}
			connection.SetReadDeadline(time.Now().Add(viewerReadTimeout))
		}
	}
}

// pingViewer sends a ping every viewerPingPeriod until done is closed.
// WriteControl may run alongside the hub's frame writes.
func pingViewer(connection *websocket.Conn, done <-chan struct{}, log *logger.Logger) {
	ticker := time.NewTicker(viewerPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := connection.WriteControl(websocket.PingMessage, nil, time.Now().Add(viewerWriteWait)); err != nil {
				log.Debug("Ping failed: %v", err)
				return
			}
		}
	}
}
