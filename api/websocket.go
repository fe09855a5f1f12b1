package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/econoscale/econoscale/internal/refresh"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; restrict in production
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// WSHub fans completed refresh reports out to connected clients.
type WSHub struct {
	mu        sync.Mutex
	clients   map[chan *refresh.Report]struct{}
	broadcast chan *refresh.Report
}

// NewWSHub creates an empty hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:   make(map[chan *refresh.Report]struct{}),
		broadcast: make(chan *refresh.Report, 16),
	}
}

// Run pumps broadcast reports to every registered client. Slow clients
// drop messages rather than stall the hub.
func (h *WSHub) Run() {
	for report := range h.broadcast {
		h.mu.Lock()
		for ch := range h.clients {
			select {
			case ch <- report:
			default:
			}
		}
		h.mu.Unlock()
	}
}

// Broadcast queues a report for delivery to all clients.
func (h *WSHub) Broadcast(report *refresh.Report) {
	select {
	case h.broadcast <- report:
	default:
	}
}

func (h *WSHub) register() chan *refresh.Report {
	ch := make(chan *refresh.Report, 4)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *WSHub) unregister(ch chan *refresh.Report) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// handleWebSocket upgrades the connection and streams one JSON refresh
// report per completed cycle.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	ch := s.wsHub.register()

	go func() {
		defer func() {
			s.wsHub.unregister(ch)
			conn.Close()
		}()
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case report := <-ch:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(report); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader goroutine: we accept no client messages, but must drain the
	// connection to process control frames.
	go func() {
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()
}
