// Package controller serializes the start/stop/shutdown commands that
// gate the capture source and the analysis monitor.
package controller

import (
	"github.com/rs/zerolog"

	"github.com/cadencehq/bpmtrack/internal/audio"
	"github.com/cadencehq/bpmtrack/internal/capture"
)

// Ack is the structured outcome returned to the command caller. Command
// failures are reported here, never raised further.
type Ack struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Controller handles lifecycle commands against the shared audio state.
type Controller struct {
	state  *audio.State
	source capture.Source
	logger zerolog.Logger
}

// New creates a controller for the given state and capture source.
func New(state *audio.State, source capture.Source, logger zerolog.Logger) *Controller {
	return &Controller{state: state, source: source, logger: logger}
}

// Start clears the buffer, activates capture and marks the system
// running. An activation failure leaves the system stopped and is
// reported in the ack.
func (c *Controller) Start() Ack {
	c.logger.Info().Msg("Start request received")

	c.state.ClearBuffer()
	if err := c.source.Activate(); err != nil {
		c.logger.Error().Err(err).Msg("Failed to start BPM detection")
		return Ack{Success: false, Error: err.Error()}
	}
	c.state.SetRunning(true)

	c.logger.Info().Msg("BPM detection started")
	return Ack{Success: true}
}

// Stop marks the system stopped, deactivates capture and clears the
// buffer. Stopping an already stopped system is a no-op and still
// acknowledges success.
func (c *Controller) Stop() Ack {
	c.logger.Info().Msg("Stop request received")

	c.state.SetRunning(false)
	if err := c.source.Deactivate(); err != nil {
		// Deactivation problems are logged but never fail a stop.
		c.logger.Error().Err(err).Msg("Error stopping audio capture")
	}
	c.state.ClearBuffer()

	c.logger.Info().Msg("BPM detection stopped")
	return Ack{Success: true}
}

// IsRunning reports whether detection is currently active.
func (c *Controller) IsRunning() bool {
	return c.state.IsRunning()
}

// Shutdown stops capture and signals every loop to terminate. Safe to
// call more than once.
func (c *Controller) Shutdown() {
	c.Stop()
	c.state.RequestShutdown()
}
