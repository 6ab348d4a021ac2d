package ws

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"vox/internal/constants"
	"vox/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// Minimum gap between content-bearing messages from one connection.
	minMessageInterval = 200 * time.Millisecond
)

// Client is one websocket connection. It starts unauthenticated; a
// successful register, login or auto_login binds it to a username
// through the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan any

	closed atomic.Bool

	mu       sync.RWMutex
	username string
	user     *models.User

	// Only touched by the readPump goroutine.
	lastContentAt time.Time
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan any, constants.WSClientSendBufferSize),
	}
}

// Start registers the client and launches its pumps.
func (c *Client) Start() {
	c.hub.register <- c
	go c.writePump()
	go c.readPump()
}

func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

func (c *Client) setUsername(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
	if username == "" {
		c.user = nil
	}
}

// User returns the snapshot cached at authentication time. Handlers that
// act on mutable state (balance, frozen, role) must re-read from the
// database instead.
func (c *Client) User() *models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Client) setUser(user *models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
}

func (c *Client) isClosed() bool {
	return c.closed.Load()
}

func (c *Client) markClosed() {
	c.closed.Store(true)
}

// allowContent enforces the per-connection message rate limit.
func (c *Client) allowContent() bool {
	now := time.Now()
	if now.Sub(c.lastContentAt) < minMessageInterval {
		return false
	}
	c.lastContentAt = now
	return true
}

// reply queues a direct response to this connection. The hub lock
// serializes the send against connection teardown.
func (c *Client) reply(payload any) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	c.hub.trySend(c, payload)
}

// fail sends a generic failure response for the given request type.
func (c *Client) fail(reqType, message string) {
	c.reply(Response{Type: reqType, Success: false, Error: message})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error: %v", err)
			}
			return
		}
		c.dispatch(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(payload); err != nil {
				log.Printf("ws write error: %v", err)
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
