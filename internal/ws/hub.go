package ws

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Message is a broadcast envelope. Channel is "house:<house id>"; events
// currently emitted are "metric.created".
type Message struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event"`
	Data    interface{} `json:"data"`
}

// AuthorizeFunc decides whether a connected user may subscribe to a house
// channel
type AuthorizeFunc func(userID, houseID uuid.UUID) error

// Client represents a WebSocket client connection
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	userID   uuid.UUID
	send     chan []byte
	channels map[string]bool
	mu       sync.RWMutex
	closed   bool
	done     chan bool
}

// Hub maintains active WebSocket connections and broadcasts house-scoped
// metric events to subscribed clients
type Hub struct {
	clients      map[*Client]bool
	broadcast    chan *Message
	register     chan *Client
	unregister   chan *Client
	shutdownChan chan struct{}
	authorize    AuthorizeFunc
	mu           sync.RWMutex
}

// NewHub creates a new WebSocket hub. Subscriptions to house channels are
// checked through authorize before any event is delivered.
func NewHub(authorize AuthorizeFunc) *Hub {
	return &Hub{
		clients:      make(map[*Client]bool),
		broadcast:    make(chan *Message, 256),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		shutdownChan: make(chan struct{}),
		authorize:    authorize,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.shutdownChan:
			h.mu.Lock()
			for client := range h.clients {
				client.closeSend()
				client.conn.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			log.Printf("[WebSocket] Hub shutdown complete")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("[WebSocket] Failed to marshal message: %v", err)
				continue
			}

			h.mu.RLock()
			// Collect clients to remove to avoid modifying map during iteration
			var slow []*Client
			for client := range h.clients {
				client.mu.RLock()
				subscribed := client.channels[message.Channel]
				client.mu.RUnlock()
				if !subscribed {
					continue
				}
				select {
				case client.send <- data:
				default:
					// Client buffer full, mark for removal
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			if len(slow) > 0 {
				h.mu.Lock()
				for _, client := range slow {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						client.closeSend()
					}
				}
				h.mu.Unlock()
			}
		}
	}
}

// Broadcast sends a message to all clients subscribed to the channel
func (h *Hub) Broadcast(channel, event string, data interface{}) {
	h.broadcast <- &Message{Channel: channel, Event: event, Data: data}
}

// Shutdown gracefully shuts down the WebSocket hub
func (h *Hub) Shutdown() {
	close(h.shutdownChan)
}

// NewClient creates a new WebSocket client bound to an authenticated user
func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		userID:   userID,
		send:     make(chan []byte, 256),
		channels: make(map[string]bool),
		done:     make(chan bool),
	}
}

// Start begins processing for a client
func (c *Client) Start() {
	c.hub.register <- c
	go c.writePump()
	c.readPump()
}

func (c *Client) closeSend() {
	c.mu.Lock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
	c.mu.Unlock()
}

// subscribe adds a house channel after the ownership check passes.
// Unauthorized subscriptions are silently ignored; the client learns
// nothing about whether the house exists.
func (c *Client) subscribe(channel string) {
	houseID, ok := parseHouseChannel(channel)
	if !ok {
		return
	}
	if c.hub.authorize != nil && c.hub.authorize(c.userID, houseID) != nil {
		return
	}
	c.mu.Lock()
	c.channels[channel] = true
	c.mu.Unlock()
}

// parseHouseChannel extracts the house id from a "house:<id>" channel name
func parseHouseChannel(channel string) (uuid.UUID, bool) {
	raw, found := strings.CutPrefix(channel, "house:")
	if !found {
		return uuid.Nil, false
	}
	houseID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return houseID, true
}

// readPump handles incoming subscription messages from the client
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		close(c.done)
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg struct {
			Action   string   `json:"action"`
			Channels []string `json:"channels"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Action {
		case "subscribe":
			for _, channel := range msg.Channels {
				c.subscribe(channel)
			}
		case "unsubscribe":
			c.mu.Lock()
			for _, channel := range msg.Channels {
				delete(c.channels, channel)
			}
			c.mu.Unlock()
		}
	}
}

// writePump handles outgoing messages to the client
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
