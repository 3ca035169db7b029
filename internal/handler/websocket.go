package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/CageChen/workset/internal/agent"
	"github.com/CageChen/workset/internal/watcher"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string `json:"type"`
	Project string `json:"project"`
	Payload any    `json:"payload"`
}

// Message types pushed to clients.
const (
	MsgRunEvent      = "runEvent"
	MsgProjectChange = "projectChange"
)

// wsClient serializes writes to one connection.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHandler streams run progress and external project changes
type WSHandler struct {
	clients map[*websocket.Conn]*wsClient
	mu      sync.RWMutex
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler() *WSHandler {
	return &WSHandler{
		clients: make(map[*websocket.Conn]*wsClient),
	}
}

// HandleWS handles WebSocket upgrade and connection
func (h *WSHandler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer func() {
		h.removeClient(conn)
		_ = conn.Close()
	}()

	h.addClient(conn)

	// Keep connection alive until the client goes away
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

// OnRunEvent returns a loop callback that forwards events for project
func (h *WSHandler) OnRunEvent(project string) agent.Callback {
	return func(e agent.Event) {
		h.broadcast(WSMessage{
			Type:    MsgRunEvent,
			Project: project,
			Payload: e,
		})
	}
}

// OnBlobChange is called when a stored project changes on disk
func (h *WSHandler) OnBlobChange(event watcher.Event) {
	h.broadcast(WSMessage{
		Type:    MsgProjectChange,
		Project: event.ProjectID,
		Payload: map[string]string{
			"event": event.Type.String(),
			"blob":  event.Blob,
		},
	})
}

// Clients reports the number of connected clients
func (h *WSHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WSHandler) addClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = &wsClient{conn: conn}
}

func (h *WSHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

func (h *WSHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.write(data); err != nil {
			h.removeClient(client.conn)
		}
	}
}
