// Package realtime pushes dashboard refresh notices to a user's open
// websocket connections.
package realtime

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type Message struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// client serializes writes; gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return fn()
}

func (c *client) writeJSON(msg Message) error {
	return c.write(func() error { return c.conn.WriteJSON(msg) })
}

type Hub struct {
	mu       sync.RWMutex
	clients  map[uint]map[*client]bool
	upgrader websocket.Upgrader
}

// NewHub accepts websocket upgrades from the listed origins, and from
// requests without an Origin header or whose Origin matches the host.
func NewHub(allowedOrigins []string) *Hub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	h := &Hub{clients: make(map[uint]map[*client]bool)}

	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			if origin == "" || allowed[origin] {
				return true
			}

			return origin == "http://"+r.Host || origin == "https://"+r.Host
		},
	}

	return h
}

// Connections reports how many sockets are open for the user.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[userID])
}

func (h *Hub) register(userID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]bool)
	}
	h.clients[userID][c] = true
}

func (h *Hub) unregister(userID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[userID]; exists {
		delete(clients, c)

		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
}

// BroadcastRefresh tells every connection of the user to reload its tasks.
// Connections whose write fails are dropped.
func (h *Hub) BroadcastRefresh(userID uint) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		err := c.writeJSON(Message{Type: "refresh", Message: "Tasks updated"})

		if err != nil {
			log.Printf("Failed to broadcast refresh to user %d: %v", userID, err)
			h.unregister(userID, c)
			c.conn.Close()
		}
	}
}

// Serve upgrades the request and keeps the connection registered for the
// user until the peer goes away.
func (h *Hub) Serve(ctx *gin.Context, userID uint) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)

	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn}

	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.register(userID, c)

	done := make(chan struct{})

	defer func() {
		close(done)
		h.unregister(userID, c)
		conn.Close()
	}()

	if err := c.writeJSON(Message{Type: "connected", Message: "WebSocket connection established"}); err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				err := c.write(func() error { return conn.WriteMessage(websocket.PingMessage, nil) })

				if err != nil {
					log.Printf("Ping failed for user %d: %v", userID, err)
					return
				}
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error for user %d: %v", userID, err)
			}
			return
		}
	}
}
