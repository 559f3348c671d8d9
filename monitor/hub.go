// Package monitor broadcasts call lifecycle events to ops dashboards over
// WebSocket. The feed is observational only; call handling never blocks on
// it and a slow or dead subscriber is dropped rather than waited on.
package monitor

import (
	"log"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

const (
	subscriberBuffer = 64
	writeTimeout     = 10 * time.Second
)

// Hub fans events out to connected subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*websocket.Conn]chan Event
	keepAlive   time.Duration
	closed      bool
}

// NewHub creates a hub. keepAlive sets the ping interval for subscribers.
func NewHub(keepAlive time.Duration) *Hub {
	return &Hub{
		subscribers: make(map[*websocket.Conn]chan Event),
		keepAlive:   keepAlive,
	}
}

// Publish sends the event to every subscriber. Full subscriber buffers are
// skipped; the event is lost for that subscriber only.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			// The write pump notices the closed connection and exits.
			log.Printf("📡 Dropping slow monitor subscriber %s", conn.RemoteAddr())
			delete(h.subscribers, conn)
			conn.Close()
		}
	}
}

// Subscribe registers the connection and starts its write pump. The pump
// owns the connection and closes it when the hub shuts down or the
// subscriber falls behind.
func (h *Hub) Subscribe(conn *websocket.Conn) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	ch := make(chan Event, subscriberBuffer)
	h.subscribers[conn] = ch
	h.mu.Unlock()

	go h.writePump(conn, ch)
}

func (h *Hub) writePump(conn *websocket.Conn, ch chan Event) {
	ticker := time.NewTicker(h.keepAlive)
	defer func() {
		ticker.Stop()
		h.unsubscribe(conn)
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := sonic.Marshal(ev)
			if err != nil {
				log.Printf("📡 Failed to encode monitor event: %v", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) unsubscribe(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.subscribers[conn]; ok {
		close(ch)
		delete(h.subscribers, conn)
	}
	h.mu.Unlock()
	conn.Close()
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Shutdown disconnects all subscribers and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for conn, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, conn)
		conn.Close()
	}
}
