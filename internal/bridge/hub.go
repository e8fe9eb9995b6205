package bridge

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/go2n/internal/logging"
)

// hub tracks connected clients and fans broadcast messages out to
// them. The clients map is owned by the run loop; only the counter is
// shared for GetActiveConnections.
type hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client

	mu    sync.Mutex
	count int
}

func newHub() *hub {
	return &hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// run owns the client set until the context is canceled
func (h *hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.setCount(0)
			return

		case c := <-h.register:
			h.clients[c] = true
			h.setCount(len(h.clients))
			logging.LogConnection(c.remoteAddr, "client_registered")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.setCount(len(h.clients))
				logging.LogConnection(c.remoteAddr, "client_unregistered")
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Client is not draining its queue, drop it
					logging.Warn("Dropping slow client",
						zap.String("remote_addr", c.remoteAddr),
					)
					delete(h.clients, c)
					close(c.send)
					h.setCount(len(h.clients))
				}
			}
		}
	}
}

func (h *hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// activeClients returns the current number of registered clients
func (h *hub) activeClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}
