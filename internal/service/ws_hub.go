package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"bridgebot/backend/internal/model"
	"bridgebot/backend/pkg/logger"
	"bridgebot/backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsAuthTimeout = 10 * time.Second

// Client represents a connected operator over WebSocket
type Client struct {
	Hub      *WSHub
	Conn     *websocket.Conn
	Username string
	Send     chan []byte
}

// TokenValidator checks the token sent as the first WebSocket message
type TokenValidator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// WSHub handles WebSocket connections and broadcasting
type WSHub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{} // closed when Run returns
	mu         sync.RWMutex

	redisClient *redis.Client
	auth        TokenValidator
	upgrader    websocket.Upgrader
	log         *logger.Logger
}

func NewWSHub(redisClient *redis.Client, auth TokenValidator, allowedOrigins []string) *WSHub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &WSHub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan []byte, 64),
		done:        make(chan struct{}),
		redisClient: redisClient,
		auth:        auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
		log: logger.GetLogger().Component("ws_hub"),
	}
}

// Run serves register, unregister and broadcast requests until ctx is done
func (h *WSHub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Infof("WS Client registered: %s", client.Username)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			h.log.Infof("WS Client unregistered: %s", client.Username)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Done is closed once the hub has stopped serving clients
func (h *WSHub) Done() <-chan struct{} {
	return h.done
}

// ClientCount returns the number of connected operators
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to all connected clients
func (h *WSHub) Broadcast(msg model.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Errorf("Failed to marshal WS broadcast message: %v", err)
		return
	}
	h.broadcastRaw(data)
}

func (h *WSHub) broadcastRaw(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.log.Warn("WS broadcast buffer full, dropping message")
	}
}

// ReadPump handles messages from the client (e.g., heartbeats)
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Errorf("WS error: %v", err)
			}
			break
		}
	}
}

// WritePump handles outgoing messages to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// StartPubSubListener relays the Redis events channel to connected clients
func (h *WSHub) StartPubSubListener(ctx context.Context) {
	pubsub := h.redisClient.Subscribe(ctx, redis.EventsChannel())
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var wsMsg model.WSMessage
			if err := json.Unmarshal([]byte(msg.Payload), &wsMsg); err != nil {
				h.log.Warnf("Dropping malformed event: %v", err)
				continue
			}
			h.broadcastRaw([]byte(msg.Payload))
		}
	}
}

// ServeWS upgrades the request. The first client message must be a
// WSAuthRequest carrying a valid access token.
func (h *WSHub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorf("Failed to upgrade websocket: %v", err)
		return
	}

	username, err := h.authenticate(c.Request.Context(), conn)
	if err != nil {
		h.log.Warnf("WS authentication failed: %v", err)
		conn.WriteJSON(model.WSMessage{Type: model.MessageTypeError, Payload: "authentication failed"})
		conn.Close()
		return
	}

	client := &Client{
		Hub:      h,
		Conn:     conn,
		Username: username,
		Send:     make(chan []byte, 256),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

func (h *WSHub) authenticate(ctx context.Context, conn *websocket.Conn) (string, error) {
	conn.SetReadDeadline(time.Now().Add(wsAuthTimeout))

	var req model.WSAuthRequest
	if err := conn.ReadJSON(&req); err != nil {
		return "", err
	}

	username, err := h.auth.Authenticate(ctx, req.Token)
	if err != nil {
		return "", err
	}

	if err := conn.WriteJSON(model.WSMessage{Type: model.MessageTypeAuthSuccess, Payload: username}); err != nil {
		return "", err
	}
	return username, nil
}
