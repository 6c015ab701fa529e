package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/pkg/logger"
	"github.com/wonny/moat/backend/pkg/metrics"
)

const (
	// Ping/Pong settings
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second

	// 느린 클라이언트는 메시지를 건너뜀 (override 이벤트는 항상 전체 상태)
	clientBuffer = 8
)

// MessageTypeOverrides is pushed after every override change
const MessageTypeOverrides = "overrides"

// Message is the WebSocket payload: the full override set and the resulting composites
type Message struct {
	Type      string                      `json:"type"`
	Overrides contracts.OverrideSet       `json:"overrides"`
	Sectors   []contracts.SectorComposite `json:"sectors"`
}

// StateFunc builds the message sent to a client on connect
type StateFunc func(ctx context.Context) Message

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboards are served from other origins
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans override changes out to connected dashboards
// ⭐ SSOT: WebSocket 클라이언트 관리는 여기서만
type Hub struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
	state   StateFunc

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub; state may be nil (no initial message)
func NewHub(state StateFunc, log *logger.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		logger:  log.WithField("component", "ws_hub"),
		metrics: m,
		state:   state,
		clients: make(map[*client]struct{}),
	}
}

// ServeWS upgrades the connection and streams messages until the client leaves
// GET /ws/overrides
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	if h.state != nil {
		if data, err := json.Marshal(h.state(r.Context())); err == nil {
			c.send <- data
		}
	}

	if !h.register(c) {
		_ = conn.Close()
		return
	}

	go h.writeLoop(c)
	h.readLoop(c)
}

// Broadcast queues msg for every client. Never blocks; full client buffers drop the message.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal WebSocket message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("WebSocket client buffer full, dropping message")
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		close(c.send)
	}
	h.metrics.SetWSClients(0)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.metrics.SetWSClients(len(h.clients))
	h.logger.WithField("clients", len(h.clients)).Debug("WebSocket client connected")
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.metrics.SetWSClients(len(h.clients))
	h.logger.WithField("clients", len(h.clients)).Debug("WebSocket client disconnected")
}

// readLoop discards client frames and detects disconnects
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop is the only writer of c.conn
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
