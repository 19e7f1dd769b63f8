package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Subscribers only send control frames
	maxMessageSize = 4 * 1024

	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks are left to the reverse proxy
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one subscription of a websocket connection to a topic
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
	topic  string
	logger zerolog.Logger
}

func (c *Client) log() zerolog.Logger {
	return c.logger.With().Int64("userID", c.userID).Str("topic", c.topic).Logger()
}

// readPump discards inbound frames so pongs and closes are processed, then unsubscribes
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		log := c.log()
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			log.Warn().Err(err).Msg("Unexpected WebSocket close")
		} else {
			log.Debug().Err(err).Msg("WebSocket closed")
		}
		return
	}
}

// writePump delivers snapshots to the peer. Status snapshots supersede each other,
// so when several are queued only the newest is written.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			message, ok = latest(c.send, message)
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// latest drains what is already buffered in send and returns the newest message.
// ok is false when send was closed while draining.
func latest(send <-chan []byte, current []byte) ([]byte, bool) {
	for {
		select {
		case next, ok := <-send:
			if !ok {
				return current, false
			}
			current = next
		default:
			return current, true
		}
	}
}
