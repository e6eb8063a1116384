package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// Number of outbound messages buffered per websocket client before we start
// dropping. Subscribers re-fetch on every event, so a dropped event costs one
// refresh at most.
const sendBufferSize = 16

const writeTimeout = 10 * time.Second

// wireMessage is what goes over the websocket to the browser.
type wireMessage struct {
	Event     string `json:"event"`
	Action    string `json:"action"`
	ProjectID int64  `json:"project_id"`
}

// Hub relays events from the redis channel to all connected websocket
// clients. Connections are unauthenticated: events carry only ids.
type Hub struct {
	client   *redis.Client
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(client *redis.Client, allowedOrigins []string) *Hub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &Hub{
		client: client,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		conns: make(map[*subscriber]struct{}),
	}
}

// Run subscribes to the redis channel and fans messages out until ctx is
// cancelled. Intended to run in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.client.Subscribe(ctx, Channel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}

			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("realtime: bad event payload: %v", err)
				continue
			}

			data, err := json.Marshal(wireMessage{
				Event:     "projects_updated",
				Action:    ev.Action,
				ProjectID: ev.ProjectID,
			})
			if err != nil {
				continue
			}
			h.broadcast(data)
		}
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.conns {
		select {
		case s.send <- data:
		default:
			// Slow consumer: drop the event rather than block the fanout.
		}
	}
}

// HandleWS upgrades the request and keeps the connection subscribed until the
// client goes away.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("realtime: websocket upgrade failed: %v", err)
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	h.conns[s] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(s)
	h.readLoop(s)
}

func (h *Hub) writeLoop(s *subscriber) {
	for data := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
	s.conn.Close()
}

// readLoop discards inbound messages; its job is to notice the close.
func (h *Hub) readLoop(s *subscriber) {
	defer h.drop(s)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.conns[s]; ok {
		delete(h.conns, s)
		close(s.send)
	}
	h.mu.Unlock()
	s.conn.Close()
}
