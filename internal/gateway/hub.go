// Package gateway exposes the WebSocket surface: start/stop commands
// from clients and bpm_update broadcasts to every connected observer.
package gateway

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cadencehq/bpmtrack/internal/controller"
	"github.com/cadencehq/bpmtrack/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The UI is served from the same process; allow all origins.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Envelope is the JSON frame exchanged with clients in both directions.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StatusPayload is sent to a client right after it connects.
type StatusPayload struct {
	IsRunning bool `json:"is_running"`
}

// Commander handles the client-issued lifecycle commands.
// *controller.Controller is the production implementation.
type Commander interface {
	Start() controller.Ack
	Stop() controller.Ack
	IsRunning() bool
}

// Recorder tracks gateway metrics. *observability.Metrics satisfies it.
type Recorder interface {
	RecordClientConnected()
	RecordClientDisconnected()
}

// Hub tracks connected clients and fans events out to them. Emit never
// blocks the caller: a client that cannot keep up is dropped.
type Hub struct {
	commander Commander
	recorder  Recorder
	logger    zerolog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub dispatching commands to commander.
func NewHub(commander Commander, recorder Recorder, logger zerolog.Logger) *Hub {
	return &Hub{
		commander: commander,
		recorder:  recorder,
		logger:    logger,
		clients:   make(map[*client]struct{}),
	}
}

// Handler upgrades HTTP connections to WebSocket sessions.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}

		c := newClient(h, conn, observability.NewClientID())
		h.register(c)
		defer h.unregister(c)

		h.logger.Info().Str("client_id", c.id).Msg("Client connected")

		go c.writePump()
		// The newly connected client learns the current state right away.
		c.send(marshalEnvelope("status", StatusPayload{IsRunning: h.commander.IsRunning()}))

		c.readPump()
		h.logger.Info().Str("client_id", c.id).Msg("Client disconnected")
	}
}

// Emit broadcasts an event to every connected client.
func (h *Hub) Emit(event string, payload any) {
	frame := marshalEnvelope(event, payload)
	if frame == nil {
		h.logger.Error().Str("event", event).Msg("Failed to marshal broadcast payload")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.send(frame) {
			// Slow consumer: drop it rather than stall the broadcast.
			h.logger.Warn().Str("client_id", c.id).Msg("Client send buffer full, dropping client")
			delete(h.clients, c)
			c.close()
			if h.recorder != nil {
				h.recorder.RecordClientDisconnected()
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// dispatch handles one command frame from a client. Acks go only to the
// issuing client; state changes reach everyone through later broadcasts.
func (h *Hub) dispatch(c *client, env Envelope) {
	switch env.Event {
	case "start":
		ack := h.commander.Start()
		c.send(marshalEnvelope("start_ack", ack))
	case "stop":
		ack := h.commander.Stop()
		c.send(marshalEnvelope("stop_ack", ack))
	default:
		h.logger.Warn().
			Str("client_id", c.id).
			Str("event", env.Event).
			Msg("Unknown client event")
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	if h.recorder != nil {
		h.recorder.RecordClientConnected()
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if present {
		c.close()
		if h.recorder != nil {
			h.recorder.RecordClientDisconnected()
		}
	}
}

func marshalEnvelope(event string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	frame, err := json.Marshal(Envelope{Event: event, Payload: raw})
	if err != nil {
		return nil
	}
	return frame
}
