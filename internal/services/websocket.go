package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// MessageStore persists an incoming chat message. The hub calls it before
// forwarding so history never loses a delivered message.
type MessageStore func(msg *models.ChatMessage) error

// Client represents a connected chat participant.
type Client struct {
	ID   uint
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
}

// Hub maintains the set of active clients and routes chat messages.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	store      MessageStore
	mutex      sync.RWMutex
}

func NewHub(store MessageStore) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		store:      store,
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Chat client %d connected", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			log.Printf("Chat client %d disconnected", client.ID)
		}
	}
}

// SendToUser delivers a message to every open connection of a user. Takes
// the write lock because a stalled client is dropped in place.
func (h *Hub) SendToUser(userID uint, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.ID == userID {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// WebSocketMessage is the envelope for every frame on the chat socket.
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ChatFrame is the payload of a "chat_message" frame.
type ChatFrame struct {
	ReceiverID uint   `json:"receiverId"`
	Body       string `json:"body"`
}

// HandleWebSocket upgrades the connection and starts the pumps.
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:   userID,
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  hub,
	}

	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var wsMessage WebSocketMessage
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			log.Printf("Error unmarshaling WebSocket message: %v", err)
			continue
		}

		switch wsMessage.Type {
		case "chat_message":
			c.handleChatMessage(wsMessage.Data)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleChatMessage(data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	var frame ChatFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.ReceiverID == 0 || frame.Body == "" {
		log.Printf("Invalid chat frame from client %d", c.ID)
		return
	}

	msg := models.ChatMessage{
		SenderID:   c.ID,
		ReceiverID: frame.ReceiverID,
		Body:       frame.Body,
	}
	if c.Hub.store != nil {
		if err := c.Hub.store(&msg); err != nil {
			log.Printf("Failed to persist chat message from %d: %v", c.ID, err)
			return
		}
	}

	out, err := json.Marshal(WebSocketMessage{Type: "chat_message", Data: msg})
	if err != nil {
		return
	}
	c.Hub.SendToUser(frame.ReceiverID, out)
}
