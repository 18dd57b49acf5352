package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait     = 10 * time.Second
	sendQueueSize = 16
)

// client is one WebSocket session. Outbound frames go through a
// buffered queue drained by writePump so broadcasts never block on a
// slow connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string

	outbound  chan []byte
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, id string) *client {
	return &client{
		hub:      h,
		conn:     conn,
		id:       id,
		outbound: make(chan []byte, sendQueueSize),
	}
}

// send queues a frame for delivery. Returns false when the queue is
// full or the client is closed; the hub drops such clients.
func (c *client) send(frame []byte) bool {
	if frame == nil {
		return true
	}
	select {
	case c.outbound <- frame:
		return true
	default:
		return false
	}
}

// close shuts the outbound queue, which ends writePump and closes the
// connection. Idempotent.
func (c *client) close() {
	c.closeOnce.Do(func() { close(c.outbound) })
}

// readPump consumes client frames until the connection drops and hands
// command events to the hub. Runs on the handler goroutine.
func (c *client) readPump() {
	defer c.close()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn().Str("client_id", c.id).Err(err).Msg("WebSocket read error")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.hub.logger.Error().Str("client_id", c.id).Err(err).Msg("Failed to parse client message")
			continue
		}
		c.hub.dispatch(c, env)
	}
}

// writePump delivers queued frames to the connection. Runs on its own
// goroutine; exits when the queue is closed.
func (c *client) writePump() {
	defer c.conn.Close()

	for frame := range c.outbound {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
}
