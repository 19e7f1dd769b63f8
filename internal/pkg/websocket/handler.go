package websocket

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// Handler upgrades authorized HTTP requests into topic subscriptions
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
	}
}

// Subscribe upgrades the connection and subscribes it to topic. Authorization is the caller's job.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request, topic string, userID int64) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("topic", topic).
			Int64("userID", userID).
			Msg("Failed to upgrade connection to WebSocket")
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		topic:  topic,
		logger: h.logger,
	}
	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return fmt.Errorf("websocket hub stopped")
	}

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Str("topic", topic).
		Int64("userID", userID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket subscription established")
	return nil
}
