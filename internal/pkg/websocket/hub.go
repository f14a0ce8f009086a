package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ojtetr/tracker/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// Feed message types
const (
	MessageAnnouncementCreated = "announcement.created"
	MessageAnnouncementDeleted = "announcement.deleted"
	MessageCommentAdded        = "announcement.comment_added"
	MessageCommentDeleted      = "announcement.comment_deleted"
)

// Message is pushed to every connected feed client
type Message struct {
	Type           string      `json:"type"`
	AnnouncementID int64       `json:"announcementId"`
	Payload        interface{} `json:"payload,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// Guards count so readers outside Run see a consistent value
	mu    sync.RWMutex
	count int

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run owns the client set until ctx is cancelled, then disconnects everyone
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount()
			h.logger.Info().Int64("userID", client.userID).Msg("Feed client registered")

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
				h.logger.Info().Int64("userID", client.userID).Msg("Feed client unregistered")
			}

		case data := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// slow consumer; it reconnects and refetches the list
					h.drop(client)
					h.logger.Warn().Int64("userID", client.userID).Msg("Dropped slow feed client")
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.setCount()
}

func (h *Hub) setCount() {
	h.mu.Lock()
	h.count = len(h.clients)
	h.mu.Unlock()
	metrics.FeedClients.Set(float64(len(h.clients)))
}

// Broadcast queues msg for every client; it never blocks the caller
func (h *Hub) Broadcast(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal feed message")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn().Str("type", msg.Type).Msg("Feed broadcast queue full, message dropped")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
