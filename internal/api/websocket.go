package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"kaspi-seller-dashboard/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// In production, you should check the origin
		return true
	},
}

// WSClient represents a WebSocket client
type WSClient struct {
	conn      *websocket.Conn
	send      chan []byte
	hub       *WSHub
	userID    string
	closeChan chan struct{}
}

// WSHub manages all WebSocket clients. Events scoped to one merchant are only
// delivered to that merchant's connections; unscoped events go to everyone.
type WSHub struct {
	clients     map[*WSClient]bool
	userClients map[string][]*WSClient
	register    chan *WSClient
	unregister  chan *WSClient
	mu          sync.RWMutex
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		clients:     make(map[*WSClient]bool),
		userClients: make(map[string][]*WSClient),
		register:    make(chan *WSClient),
		unregister:  make(chan *WSClient),
	}
}

// Run starts the WebSocket hub
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if client.userID != "" {
				h.userClients[client.userID] = append(h.userClients[client.userID], client)
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				if client.userID != "" {
					h.removeClientFromUserMap(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastEvent delivers an event to the right set of clients
func (h *WSHub) BroadcastEvent(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if event.UserID != "" {
		for _, client := range h.userClients[event.UserID] {
			h.deliver(client, data)
		}
		return
	}
	for client := range h.clients {
		h.deliver(client, data)
	}
}

// deliver queues a message without blocking; a full client is unregistered.
// Caller must hold at least the read lock.
func (h *WSHub) deliver(client *WSClient, data []byte) {
	select {
	case client.send <- data:
	default:
		go func(c *WSClient) {
			h.unregister <- c
		}(client)
	}
}

// GetClientCount returns the number of connected clients
func (h *WSHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// removeClientFromUserMap removes a client from the userClients map.
// Caller must hold the write lock.
func (h *WSHub) removeClientFromUserMap(client *WSClient) {
	clients, ok := h.userClients[client.userID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.userClients[client.userID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.userClients[client.userID]) == 0 {
		delete(h.userClients, client.userID)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *WSClient) writePump() {
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

		case <-c.closeChan:
			return
		}
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		close(c.closeChan)
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}
		// Clients don't send messages; the connection is push-only
	}
}

// Global WebSocket hub
var wsHub *WSHub

// InitWebSocket initializes the WebSocket hub and subscribes to events
func InitWebSocket(eventBus *events.EventBus) *WSHub {
	wsHub = NewWSHub()
	go wsHub.Run()

	eventBus.SubscribeAll(func(event events.Event) {
		wsHub.BroadcastEvent(event)
	})

	log.Println("WebSocket hub initialized")
	return wsHub
}

// handleWebSocket upgrades the connection. The browser WebSocket API cannot
// set an Authorization header, so the access token arrives as a query param.
func (s *Server) handleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		errorResponse(c, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		errorResponse(c, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := &WSClient{
		conn:      conn,
		send:      make(chan []byte, 256),
		hub:       wsHub,
		userID:    claims.UserID,
		closeChan: make(chan struct{}),
	}

	client.hub.register <- client
	go client.writePump()
	go client.readPump()

	welcomeMsg := map[string]interface{}{
		"type":      "CONNECTED",
		"message":   "WebSocket connection established",
		"timestamp": time.Now(),
	}
	if data, err := json.Marshal(welcomeMsg); err == nil {
		select {
		case client.send <- data:
		default:
		}
	}
}
