// internal/live/hub.go
package live

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/richard-senior/rocketrun/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is handled by the http middleware, pages may be served from anywhere
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is what clients receive on every update
type Message struct {
	Highscore int `json:"highscore"`
}

type client struct {
	conn *websocket.Conn
	send chan Message
	// highest value queued so far, guarded by Hub.mu
	sent int
}

// Hub fans high score changes out to every connected websocket
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Broadcast queues v for every client that hasn't already been sent v or
// something higher. Raises can arrive here out of order, so a stale lower
// value must never follow a newer one. A client whose buffer is full is too
// slow to keep up and gets disconnected.
func (h *Hub) Broadcast(v int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if v <= c.sent {
			continue
		}
		c.sent = v
		select {
		case c.send <- Message{Highscore: v}:
		default:
			logger.Warn("Dropping slow websocket client %s", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve upgrades the request, sends current() straight away and then
// streams every Broadcast until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, current func() int) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		logger.Warn("Websocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Message, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	// queued under the lock so it can't land after a newer broadcast
	c.sent = current()
	c.send <- Message{Highscore: c.sent}
	h.mu.Unlock()
	logger.Debug("Websocket client connected from %s", conn.RemoteAddr())

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump only exists to process control frames and notice disconnects,
// clients never send anything meaningful
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		logger.Debug("Websocket client %s disconnected", c.conn.RemoteAddr())
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Debug("Websocket write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
