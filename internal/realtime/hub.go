package realtime

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/odavaloshdz/estacionador/api/internal/logger"
)

// Hub fans committed occupancy events out to connected websocket dashboards.
// Writes to a single connection are serialized through the hub lock, as the
// websocket package forbids concurrent writers on one connection.
type Hub struct {
	log      *logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates a Hub with no connected clients.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser dashboards connect cross-origin; access control is
			// the bearer token checked before the upgrade, not the Origin
			// header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Publish sends the event to every connected client. Clients whose write
// fails are dropped; delivery is best effort by design since the change
// feed is a refresh hint, not the source of truth.
func (h *Hub) Publish(_ context.Context, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			h.log.Warn("Dropping websocket client after write failure", map[string]interface{}{
				"remote_addr": conn.RemoteAddr().String(),
				"error":       err.Error(),
			})
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS handles GET /api/v1/ws: it upgrades the connection and registers
// the client with the hub until the peer disconnects.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.log.Warn("Websocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	h.log.Info("Websocket client connected", map[string]interface{}{
		"remote_addr": conn.RemoteAddr().String(),
	})

	// Drain incoming frames so close/ping control messages are processed;
	// subscribers are not expected to send data.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()

		h.log.Info("Websocket client disconnected", map[string]interface{}{
			"remote_addr": conn.RemoteAddr().String(),
		})
	}()
}
