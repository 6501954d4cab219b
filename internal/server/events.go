package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/12Rushikesh/damage-agent/internal/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans finished audit records out to websocket subscribers. A subscriber
// that cannot keep up is dropped rather than allowed to stall the
// inspection loop.
type Hub struct {
	mu   sync.Mutex
	subs map[chan *service.Audit]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan *service.Audit]struct{})}
}

// Publish delivers an audit record to every subscriber without blocking.
func (h *Hub) Publish(a *service.Audit) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- a:
		default:
			// Slow subscriber; close and forget it.
			delete(h.subs, ch)
			close(ch)
		}
	}
}

func (h *Hub) subscribe() chan *service.Audit {
	ch := make(chan *service.Audit, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan *service.Audit) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *Hub) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	// Drain the reader so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.unsubscribe(ch)
				return
			}
		}
	}()

	for audit := range ch {
		if err := conn.WriteJSON(audit); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket write: %v", err)
			}
			return
		}
	}
}
