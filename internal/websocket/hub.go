package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// ImportUpdatesChannel carries import-job status events from the worker
// pool to connected dashboard clients.
const ImportUpdatesChannel = "import_updates"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans Redis pub/sub import events out to every connected client. The
// subscription is held only while at least one client is connected.
type Hub struct {
	mu          sync.RWMutex
	connections map[*websocket.Conn]struct{}
	redisClient *redis.Client
	cancel      context.CancelFunc
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]struct{}),
		redisClient: redisClient,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.register(conn)

	// Drain the read side to detect disconnects.
	go func() {
		defer h.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn] = struct{}{}
	if len(h.connections) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		go h.subscribe(ctx)
	}

	log.Printf("WebSocket connected (total: %d)", len(h.connections))
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	delete(h.connections, conn)

	if len(h.connections) == 0 && h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}

	log.Printf("WebSocket disconnected (total: %d)", len(h.connections))
}

func (h *Hub) subscribe(ctx context.Context) {
	pubsub := h.redisClient.Subscribe(ctx, ImportUpdatesChannel)
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
			h.broadcast([]byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}
