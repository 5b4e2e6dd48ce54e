package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/pkg/logger"
)

// clientBuffer is how many outcomes a slow client may fall behind before
// further outcomes are dropped for it.
const clientBuffer = 16

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ResultsHandler streams recognition outcomes to WebSocket clients.
type ResultsHandler struct {
	clients map[*websocket.Conn]chan []byte
	mu      sync.RWMutex
	closed  bool
	log     logger.Logger
}

// NewResultsHandler creates a ResultsHandler.
func NewResultsHandler() *ResultsHandler {
	return &ResultsHandler{
		clients: make(map[*websocket.Conn]chan []byte),
		log:     logger.NamedOrNop("server"),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *ResultsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan []byte, clientBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.clients[conn] = send
	h.mu.Unlock()

	defer h.remove(conn)

	// reader detects the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case msg, ok := <-send:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeTimeout))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

func (h *ResultsHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		if !h.closed {
			close(send)
		}
	}
}

// Publish sends an outcome to every connected client without blocking.
func (h *ResultsHandler) Publish(o app.Outcome) {
	msg, err := json.Marshal(o)
	if err != nil {
		h.log.Error(context.Background(), "encode outcome", logger.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for _, send := range h.clients {
		select {
		case send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *ResultsHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *ResultsHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, send := range h.clients {
		close(send)
	}
}
