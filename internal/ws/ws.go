package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/justdancerequests/overlay/internal/logger"
)

const (
	pingInterval = 20 * time.Second
	writeWait    = 10 * time.Second
	readWait     = 60 * time.Second
)

// Message types pushed to overlays.
const (
	TypeConfigUpdate = "CONFIG_UPDATE"
	TypeStatus       = "STATUS"
)

// Message is the JSON frame sent to overlays.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub fans messages out to every connected overlay.
type Hub struct {
	upgrader websocket.Upgrader
	log      logger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub returns a hub with no clients.
func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		log:      log,
		clients:  make(map[*websocket.Conn]bool),
	}
}

// Broadcast writes m to every client and drops the ones that fail.
// It returns the number of clients reached.
func (h *Hub) Broadcast(m Message) int {
	b, err := json.Marshal(m)
	if err != nil {
		h.log.Error("ws marshal failed", "type", m.Type, "error", err)
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			h.log.Warn("ws write failed", "error", err)
			_ = c.Close()
			delete(h.clients, c)
			continue
		}
		n++
	}
	h.log.Debug("broadcast", "type", m.Type, "clients", n)
	return n
}

// ClientsCount returns the number of connected overlays.
func (h *Hub) ClientsCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handler upgrades the request and keeps the connection alive until the
// overlay goes away.
func (h *Hub) Handler(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()
	h.log.Info("ws connected", "clients", total)

	done := make(chan struct{})
	defer close(done)

	// keepalive pings
	go func() {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				h.mu.Lock()
				err := c.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait))
				h.mu.Unlock()
				if err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// read loop w/ pong
	c.SetReadLimit(1024)
	_ = c.SetReadDeadline(time.Now().Add(readWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(readWait))
	})
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			h.mu.Lock()
			delete(h.clients, c)
			total = len(h.clients)
			h.mu.Unlock()
			h.log.Info("ws disconnected", "clients", total)
			_ = c.Close()
			return
		}
	}
}
