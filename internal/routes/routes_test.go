package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvlab/internal/demo"
	"cvlab/internal/logger"
	"cvlab/internal/services/websocket"
)

func newServer(t *testing.T) (*httptest.Server, *websocket.HubService) {
	t.Helper()
	log := logger.NewNop()
	hub := websocket.NewHubService(log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	srv := httptest.NewServer(SetupRoutes(Deps{
		Hub:      hub,
		Registry: demo.NewRegistry(),
		Logger:   log,
	}))
	t.Cleanup(srv.Close)
	return srv, hub
}

func TestSetupRoutes_IndexAndNotFound(t *testing.T) {
	srv, _ := newServer(t)

	res, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, strings.HasPrefix(res.Header.Get("Content-Type"), "text/html"))

	res, err = http.Get(srv.URL + "/settings")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSetupRoutes_HistoryDisabled(t *testing.T) {
	srv, _ := newServer(t)

	for _, p := range []string{"/api/runs", "/api/runs/crossings?id=x", "/api/artifacts?run=x", "/api/artifacts/view?id=1"} {
		res, err := http.Get(srv.URL + p)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode, p)
	}
}

func TestSetupRoutes_ViewerReceivesBroadcast(t *testing.T) {
	srv, hub := newServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/view"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast([]byte(`{"run":"r1","title":"traffic","image":"","total":3}`))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"total":3`)
}
