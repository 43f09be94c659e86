package realtime

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	EventTaskCreated = "task-created"
	EventTaskUpdated = "task-updated"
	EventTaskDeleted = "task-deleted"
)

const (
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 512
)

// ChannelName returns the broadcast channel for a project. One logical
// channel per project.
func ChannelName(projectID uint) string {
	return fmt.Sprintf("project-%d", projectID)
}

// Event is the wire envelope delivered to every subscriber of a channel.
type Event struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event"`
	Data    interface{} `json:"data"`
}

// Client is one subscribed WebSocket connection. The mutex serializes writes
// between broadcasts and the ping loop.
type Client struct {
	ID      string
	Channel string

	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *Client) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
		return err
	}

	return c.conn.WriteJSON(v)
}

func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
		return err
	}

	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Hub tracks subscribers per channel and fans events out to them.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[*Client]bool),
	}
}

// Register subscribes a connection to a project's channel for the lifetime of
// the view.
func (h *Hub) Register(projectID uint, conn *websocket.Conn) *Client {
	client := &Client{
		ID:      uuid.NewString(),
		Channel: ChannelName(projectID),
		conn:    conn,
	}

	h.mu.Lock()
	if h.channels[client.Channel] == nil {
		h.channels[client.Channel] = make(map[*Client]bool)
	}
	h.channels[client.Channel][client] = true
	h.mu.Unlock()

	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()

	if clients, exists := h.channels[client.Channel]; exists {
		delete(clients, client)

		if len(clients) == 0 {
			delete(h.channels, client.Channel)
		}
	}

	h.mu.Unlock()
	client.conn.Close()
}

// Subscribers reports how many connections are on a project's channel.
func (h *Hub) Subscribers(projectID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[ChannelName(projectID)])
}

// Broadcast delivers one event to every subscriber of the project's channel,
// including the origin client. Fire-and-forget: failed writes are logged,
// the dead connection is dropped, and the caller is never told.
func (h *Hub) Broadcast(projectID uint, event string, data interface{}) {
	channel := ChannelName(projectID)

	h.mu.RLock()
	clients, exists := h.channels[channel]
	if !exists || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy so the lock is not held during network writes
	clientsCopy := make([]*Client, 0, len(clients))
	for client := range clients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	message := Event{
		Channel: channel,
		Event:   event,
		Data:    data,
	}

	for _, client := range clientsCopy {
		if err := client.WriteJSON(message); err != nil {
			log.Printf("Failed to broadcast %s to client %s: %v", event, client.ID, err)
			h.Unregister(client)
		}
	}
}

// defaultHub backs the package-level API used by the HTTP handlers.
var defaultHub = NewHub()

func Register(projectID uint, conn *websocket.Conn) *Client {
	return defaultHub.Register(projectID, conn)
}

func Unregister(client *Client) {
	defaultHub.Unregister(client)
}

func Broadcast(projectID uint, event string, data interface{}) {
	defaultHub.Broadcast(projectID, event, data)
}
