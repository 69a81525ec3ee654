package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// ReceiveFunc handles a frame sent by a client: actions arrive as
// JSONMessage, microphone audio as BinaryMessage.
type ReceiveFunc func(msg Message)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	logger *slog.Logger

	// Registered clients
	clients map[*Client]bool

	// Inbound audio to broadcast, in order
	broadcast chan Message

	// Newest pending JSON message; older pending ones are replaced
	latest chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Guards clients, last and onReceive for readers outside Run
	mu sync.RWMutex

	// Last JSON message, replayed on register
	last *Message

	onReceive ReceiveFunc

	running bool

	// Closed when Run returns
	done chan struct{}
}

// New creates a new Hub
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger.With("component", "hub", "hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		latest:     make(chan Message, 1),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// OnReceive sets the handler for frames sent by clients.
func (h *Hub) OnReceive(fn ReceiveFunc) {
	h.mu.Lock()
	h.onReceive = fn
	h.mu.Unlock()
}

// Run starts the hub's main loop and returns when ctx is done, closing
// every client. Run must be called once.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		h.running = false
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			last := h.last
			h.mu.Unlock()

			if last != nil {
				select {
				case client.send <- *last:
				default:
				}
			}
			h.logger.Info("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", "clients", count)

		case message := <-h.latest:
			h.fanOut(message)

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) fanOut(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if message.Type == JSONMessage {
		m := message
		h.last = &m
	}
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Client's buffer is full; drop it
			close(client.send)
			delete(h.clients, client)
			h.logger.Warn("dropped slow client")
		}
	}
}

// Broadcast sends a message to all connected clients. A JSON message
// replaces any JSON message still waiting for the hub, so the newest view is
// never lost. Audio frames are dropped when the queue is full.
func (h *Hub) Broadcast(msg Message) {
	if msg.Type == JSONMessage {
		for {
			select {
			case h.latest <- msg:
				return
			default:
			}
			select {
			case stale := <-h.latest:
				h.logger.Debug("coalesced pending message", "bytes", len(stale.Data))
			default:
			}
		}
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast channel full, dropping audio frame")
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

func (h *Hub) receive(msg Message) {
	h.mu.RLock()
	fn := h.onReceive
	h.mu.RUnlock()
	if fn != nil {
		fn(msg)
	}
}
