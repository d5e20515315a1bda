package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"vocab-backend/internal/logger"
	"vocab-backend/internal/middleware"
	"vocab-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ChannelFor is the pub/sub channel carrying one student's events.
func ChannelFor(studentID uuid.UUID) string {
	return "student_events:" + studentID.String()
}

// Hub fans pub/sub events out to every open socket of a student. Each
// replica subscribes only for students connected to it.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	redisClient *redis.Client
	jwt         *middleware.JWTAuth
	cancelFuncs map[uuid.UUID]context.CancelFunc
	log         *logger.Logger
}

func NewHub(redisClient *redis.Client, jwt *middleware.JWTAuth, log *logger.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		redisClient: redisClient,
		jwt:         jwt,
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		log:         log.With("component", "ws"),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on the upgrade request
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	studentID, _, err := h.jwt.ParseAccessToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.registerConnection(studentID, conn)

	go func() {
		defer h.unregisterConnection(studentID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) registerConnection(studentID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[studentID] = append(h.connections[studentID], conn)

	if len(h.connections[studentID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[studentID] = cancel
		go h.subscribe(ctx, studentID)
	}

	h.log.Debug("websocket connected", "student_id", studentID, "connections", len(h.connections[studentID]))
}

func (h *Hub) unregisterConnection(studentID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[studentID]
	for i, c := range conns {
		if c == conn {
			h.connections[studentID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[studentID]) == 0 {
		delete(h.connections, studentID)
		if cancel, ok := h.cancelFuncs[studentID]; ok {
			cancel()
			delete(h.cancelFuncs, studentID)
		}
	}

	h.log.Debug("websocket disconnected", "student_id", studentID)
}

func (h *Hub) subscribe(ctx context.Context, studentID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, ChannelFor(studentID))
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
			h.broadcast(studentID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(studentID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[studentID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("websocket write failed", "student_id", studentID, "error", err)
		}
	}
}

// Close drops every subscription. Sockets close as their readers fail.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, cancel := range h.cancelFuncs {
		cancel()
		delete(h.cancelFuncs, id)
	}
}

// Publisher sends events through redis so that whichever replica holds the
// student's socket delivers them.
type Publisher struct {
	redis *redis.Client
}

func NewPublisher(redisClient *redis.Client) *Publisher {
	return &Publisher{redis: redisClient}
}

func (p *Publisher) Publish(ctx context.Context, studentID uuid.UUID, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, ChannelFor(studentID), data).Err()
}
