package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub pushes gating and progress updates to the lesson player. Each
// user gets one Redis subscription shared across all of their open
// tabs; the player updates its completion button without polling.
type Hub struct {
	mu        sync.RWMutex
	clients   map[uuid.UUID][]*websocket.Conn
	pubsub    *redis.Client
	jwtSecret []byte
	cancels   map[uuid.UUID]context.CancelFunc
}

func NewHub(pubsub *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		clients:   make(map[uuid.UUID][]*websocket.Conn),
		pubsub:    pubsub,
		jwtSecret: []byte(jwtSecret),
		cancels:   make(map[uuid.UUID]context.CancelFunc),
	}
}

// ServeHTTP upgrades the connection. Browsers cannot set an
// Authorization header on the websocket handshake, so the access token
// rides in the query string.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed for user %s: %v", userID, err)
		return
	}

	h.attach(userID, conn)

	go func() {
		defer h.detach(userID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) authenticate(r *http.Request) (uuid.UUID, bool) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return uuid.Nil, false
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, false
	}

	userIDStr, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func (h *Hub) attach(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[userID] = append(h.clients[userID], conn)

	// First tab for this user starts the shared subscription.
	if len(h.clients[userID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancels[userID] = cancel
		go h.relay(ctx, userID)
	}

	log.Printf("websocket connected: user %s (%d open)", userID, len(h.clients[userID]))
}

func (h *Hub) detach(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.clients[userID]
	for i, c := range conns {
		if c == conn {
			h.clients[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
		if cancel, ok := h.cancels[userID]; ok {
			cancel()
			delete(h.cancels, userID)
		}
	}

	log.Printf("websocket disconnected: user %s", userID)
}

// relay copies the user's Redis channel onto every open tab until the
// last tab closes.
func (h *Hub) relay(ctx context.Context, userID uuid.UUID) {
	sub := h.pubsub.Subscribe(ctx, "user_updates:"+userID.String())
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.fanOut(userID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) fanOut(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.clients[userID] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}
