package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message is one broadcast event fanned out to every connected client.
// Channel multiplexes event families over a single socket; post lifecycle
// events all travel on "posts".
type Message struct {
	Channel string      `json:"channel"`
	Action  string      `json:"action"`
	Post    interface{} `json:"post,omitempty"`
}

// Publisher is the write side of the hub. Controllers depend on this
// interface so tests can substitute a recording fake.
type Publisher interface {
	Emit(msg Message)
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	clientSendBuffer = 16
	broadcastBuffer  = 64
)

// Hub is the single process-wide fan-out point for post lifecycle events.
// It is constructed once at boot and shared by all requests. The client set
// is owned by the run loop; register, unregister and broadcast all flow
// through channels, so no lock is needed.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	upgrader   websocket.Upgrader
	log        *zap.SugaredLogger
}

// NewHub creates the hub. Run must be started before clients connect.
func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, broadcastBuffer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// cross-origin policy is enforced by the CORS middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Run owns the client set and loops until process exit.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case payload := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// slow client: drop it rather than stall the fan-out
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Emit broadcasts a message to every currently connected client. Fire and
// forget: no acknowledgment, no delivery guarantee, and no buffering for
// clients that are not connected.
func (h *Hub) Emit(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Errorf("marshal broadcast message: %v", err)
		return
	}
	h.broadcast <- payload
}

// ServeWS upgrades the HTTP request and attaches the client to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.register <- c

	go c.writeLoop()
	go c.readLoop()
}

// client is one connected websocket subscriber.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readLoop discards inbound frames; the feed is broadcast-only. It exists to
// process control frames and to notice disconnects.
func (c *client) readLoop() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
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

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
