package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const broadcastBuffer = 256

// Hub maintains the set of subscribed clients per topic and fans published messages out to them
type Hub struct {
	// Subscribed clients organized by topic
	clients map[string]map[*Client]bool

	// Outbound messages waiting to be fanned out
	broadcast chan *Message

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed once Run returns
	done chan struct{}

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	// Logger for Hub operations
	logger zerolog.Logger
}

// Message is one payload published on a topic
type Message struct {
	// Topic the message was published on
	Topic string `json:"topic"`

	// JSON encoded payload
	Payload json.RawMessage `json:"payload"`

	// Timestamp when the message was published
	Timestamp time.Time `json:"timestamp"`
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run handles client registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Publish encodes payload and queues it for every subscriber of topic.
// It never blocks: when the queue is full the message is dropped and an error returned.
func (h *Hub) Publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for topic %s: %w", topic, err)
	}

	message := &Message{Topic: topic, Payload: data, Timestamp: time.Now()}
	select {
	case h.broadcast <- message:
		return nil
	default:
		h.logger.Warn().Str("topic", topic).Msg("Broadcast queue full, dropping message")
		return fmt.Errorf("broadcast queue full for topic %s", topic)
	}
}

// registerClient registers a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.topic]; !ok {
		h.clients[client.topic] = make(map[*Client]bool)
	}
	h.clients[client.topic][client] = true

	h.logger.Info().
		Str("topic", client.topic).
		Int64("userID", client.userID).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Client subscribed")
}

// unregisterClient unregisters a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	subscribers, ok := h.clients[client.topic]
	if !ok {
		return
	}
	if _, ok := subscribers[client]; !ok {
		return
	}

	delete(subscribers, client)
	close(client.send)
	if len(subscribers) == 0 {
		delete(h.clients, client.topic)
	}

	h.logger.Info().
		Str("topic", client.topic).
		Int64("userID", client.userID).
		Msg("Client unsubscribed")
}

// broadcastMessage sends a message to all clients subscribed to its topic. Snapshots supersede
// each other, so a client with a full buffer loses its oldest queued frame instead of the newest.
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", message.Topic).Msg("Failed to marshal message for broadcast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers := h.clients[message.Topic]
	for client := range subscribers {
		for !offer(client.send, data) {
			select {
			case <-client.send:
			default:
			}
		}
	}

	h.logger.Debug().
		Str("topic", message.Topic).
		Int("clientCount", len(subscribers)).
		Msg("Message broadcasted to topic")
}

func offer(send chan<- []byte, data []byte) bool {
	select {
	case send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, subscribers := range h.clients {
		for client := range subscribers {
			h.removeLocked(client)
		}
	}
}

// SubscriberCount returns the number of connected clients for a topic
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[topic])
}
