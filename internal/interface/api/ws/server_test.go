package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertBot/internal/app/events"
)

func startHub(t *testing.T, hub *Hub) (*websocket.Conn, *events.Bus) {
	t.Helper()
	e := echo.New()
	e.GET("/ws/overlay", hub.HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	bus := events.NewBus()
	ch, unsubscribe := bus.Subscribe(events.TopicOverlay)
	t.Cleanup(unsubscribe)
	go hub.Run(t.Context(), ch)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/overlay"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, bus
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_SendsImagesOnConnect(t *testing.T) {
	images := func() ([]string, error) { return []string{"a.png", "b.gif"}, nil }
	conn, _ := startHub(t, NewHub(Config{Images: images}))

	msg := readEnvelope(t, conn)
	assert.Equal(t, "images", msg["type"])
	assert.Equal(t, []any{"a.png", "b.gif"}, msg["data"])
	assert.NotEmpty(t, msg["id"])
}

func TestHub_RelaysBusBroadcasts(t *testing.T) {
	hub := NewHub(Config{})
	conn, bus := startHub(t, hub)
	readEnvelope(t, conn)

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	bus.PublishOverlay("toast", map[string]any{"text": 7})

	msg := readEnvelope(t, conn)
	assert.Equal(t, "toast", msg["type"])
	assert.Equal(t, map[string]any{"text": float64(7)}, msg["data"])
}

func TestHub_RemovesClosedClients(t *testing.T) {
	hub := NewHub(Config{})
	conn, _ := startHub(t, hub)
	readEnvelope(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_StalledClientIsDroppedAfterWriteTimeout(t *testing.T) {
	hub := NewHub(Config{WriteTimeout: 50 * time.Millisecond})
	_, _ = startHub(t, hub) // el cliente nunca lee
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	big := strings.Repeat("x", 1<<20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 256 && hub.ClientCount() > 0; i++ {
			hub.Broadcast("toast", map[string]any{"text": big})
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("broadcast blocked on a stalled client")
	}
	assert.Zero(t, hub.ClientCount())
}
