package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darahcli/pkg/contracts/events"
)

// newUpgradeServer serves a websocket endpoint that hands every upgraded
// connection to the hub, the way the application's /ws route does.
func newUpgradeServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		ServeWS(hub, conn, r.Header.Get("X-Request-ID"))
	}))
	t.Cleanup(server.Close)
	return server
}

func dialWS(t *testing.T, server *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readEnvelope(t *testing.T, ws *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := ws.ReadMessage()
	require.NoError(t, err)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &envelope))
	return envelope
}

// TestServeWSEndToEnd exercises the full upgrade, welcome, broadcast and
// disconnect cycle over real websocket connections
func TestServeWSEndToEnd(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := NewHub(testHubConfig(), logger)
	hub.Start()
	defer hub.Stop()

	server := newUpgradeServer(t, hub)

	t.Run("welcome carries the request trace id", func(t *testing.T) {
		ws := dialWS(t, server, http.Header{"X-Request-ID": []string{"req-123"}})

		envelope := readEnvelope(t, ws)
		assert.Equal(t, string(events.MessageTypeConnect), envelope["type"])
		assert.Equal(t, "req-123", envelope["trace_id"])

		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, "connected", data["status"])
		assert.NotEmpty(t, data["client_id"])
	})

	t.Run("snapshot reaches every connected client", func(t *testing.T) {
		first := dialWS(t, server, nil)
		second := dialWS(t, server, nil)
		readEnvelope(t, first)  // welcome
		readEnvelope(t, second) // welcome

		require.Eventually(t, func() bool {
			return hub.ClientCount() >= 2
		}, time.Second, 10*time.Millisecond)

		hub.BroadcastSnapshot(&events.RunSnapshot{
			RunID:    "run-e2e",
			Status:   "running",
			Progress: 66,
			Stages: []events.StageSnapshot{
				{ID: "export", Name: "Export reports", Status: "active", Progress: 30},
			},
			StartedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		})

		for _, ws := range []*websocket.Conn{first, second} {
			envelope := readEnvelope(t, ws)
			assert.Equal(t, string(events.MessageTypeRunSnapshot), envelope["type"])
			data := envelope["data"].(map[string]interface{})
			assert.Equal(t, "run-e2e", data["run_id"])
			assert.Equal(t, float64(66), data["progress"])
		}
	})

	t.Run("heartbeat keeps the connection receiving", func(t *testing.T) {
		ws := dialWS(t, server, nil)
		readEnvelope(t, ws) // welcome

		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`)))
		time.Sleep(50 * time.Millisecond)

		hub.BroadcastEvent(events.MessageTypeRunComplete, map[string]string{"run_id": "run-hb"})

		envelope := readEnvelope(t, ws)
		assert.Equal(t, string(events.MessageTypeRunComplete), envelope["type"])
	})

	t.Run("closing the connection unregisters the client", func(t *testing.T) {
		ws := dialWS(t, server, nil)
		readEnvelope(t, ws) // welcome

		before := hub.ClientCount()
		require.NoError(t, ws.Close())

		require.Eventually(t, func() bool {
			return hub.ClientCount() < before
		}, time.Second, 10*time.Millisecond, "client should unregister after close")
	})
}
