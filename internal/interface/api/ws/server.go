package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"alertBot/internal/app/events"
	"alertBot/internal/domain"
	"alertBot/internal/infrastructure/metrics"
)

// Envelope es lo que recibe el overlay por cada mensaje.
type Envelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

// defaultWriteTimeout acota cada escritura; un overlay colgado no frena al resto.
const defaultWriteTimeout = 5 * time.Second

type Config struct {
	// Images lista los archivos que el overlay precarga al conectarse.
	Images       func() ([]string, error)
	WriteTimeout time.Duration
}

// Hub mantiene las conexiones del overlay y les retransmite los broadcasts del bus.
type Hub struct {
	upgrader     websocket.Upgrader
	images       func() ([]string, error)
	writeTimeout time.Duration

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn    *websocket.Conn
	timeout time.Duration
	mu      sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func NewHub(cfg Config) *Hub {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		images:       cfg.Images,
		writeTimeout: timeout,
		clients:      make(map[*wsClient]struct{}),
	}
}

// Run consume una suscripción al tópico del overlay hasta que ctx termina;
// al salir cierra todas las conexiones.
func (h *Hub) Run(ctx context.Context, ch <-chan any) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			dto, ok := msg.(events.OverlayDTO)
			if !ok {
				continue
			}
			h.Broadcast(dto.Type, dto.Data)
		}
	}
}

// HandleWebSocket es el handler echo de /ws/overlay.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("ws: upgrade error", "error", err)
		return nil
	}

	client := &wsClient{conn: conn, timeout: h.writeTimeout}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	clientCount := len(h.clients)
	h.mu.Unlock()
	metrics.OverlayClients.Set(float64(clientCount))

	slog.Info("ws: overlay connected", "remote", c.Request().RemoteAddr, "clients", clientCount)

	if err := client.writeJSON(newEnvelope(domain.OverlayImages, h.listImages())); err != nil {
		slog.Warn("ws: send images failed", "error", err)
	}

	go h.readLoop(client)
	return nil
}

// El overlay no envía comandos: sólo leemos para detectar el cierre.
func (h *Hub) readLoop(client *wsClient) {
	defer h.remove(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("ws: read error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) Broadcast(kind string, data any) {
	envelope := newEnvelope(kind, data)
	payload, err := json.Marshal(envelope)
	if err != nil {
		slog.Error("ws: encode envelope", "type", kind, "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	slog.Debug("ws: broadcasting", "type", kind, "clients", len(clients))

	for _, c := range clients {
		if err := c.writeJSON(json.RawMessage(payload)); err != nil {
			slog.Warn("ws: removing client due to write error", "error", err)
			h.remove(c)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	clientCount := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	c.conn.Close()
	metrics.OverlayClients.Set(float64(clientCount))
	slog.Info("ws: overlay disconnected", "clients", clientCount)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.conn.Close()
	}
	metrics.OverlayClients.Set(0)
}

func (h *Hub) listImages() []string {
	if h.images == nil {
		return []string{}
	}
	images, err := h.images()
	if err != nil {
		slog.Warn("ws: list images", "error", err)
		return []string{}
	}
	if images == nil {
		images = []string{}
	}
	return images
}

func newEnvelope(kind string, data any) Envelope {
	return Envelope{ID: uuid.NewString(), Type: kind, Data: data}
}
