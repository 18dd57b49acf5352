package audio

import (
	"sync"
	"time"
)

// State owns the sample ring and the run/shutdown flags shared between
// the capture callback, the analysis monitor and the command handlers.
// All buffer and flag access goes through State; nothing else touches
// the ring directly.
type State struct {
	mu      sync.Mutex
	ring    *Ring
	running bool

	shutdownOnce sync.Once
	shutdown     chan struct{}

	deviceID int
}

// NewState creates a State around a ring of the given capacity.
func NewState(capacity, minSamples int) *State {
	return &State{
		ring:     NewRing(capacity, minSamples),
		shutdown: make(chan struct{}),
	}
}

// SetRunning toggles whether capture/analysis is active.
func (s *State) SetRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

// IsRunning reports whether capture/analysis is active.
func (s *State) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RequestShutdown signals all loops to terminate. The signal is one-way
// and idempotent; requesting shutdown twice is a no-op.
func (s *State) RequestShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
}

// ShutdownRequested reports whether shutdown has been signalled.
func (s *State) ShutdownRequested() bool {
	select {
	case <-s.shutdown:
		return true
	default:
		return false
	}
}

// WaitForShutdown blocks up to timeout and returns true if shutdown was
// signalled during the wait, false on timeout. The analysis monitor uses
// this as its sleep so shutdown wakes it immediately instead of after a
// full interval.
func (s *State) WaitForShutdown(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-s.shutdown:
		return true
	case <-timer.C:
		return false
	}
}

// AddSamples appends a block of mono samples to the ring. Called from
// the realtime capture callback: bounded work, no allocation.
func (s *State) AddSamples(samples []float32) {
	s.mu.Lock()
	s.ring.Write(samples)
	s.mu.Unlock()
}

// Snapshot returns an oldest-first copy of the buffered samples, or nil
// when too few samples have accumulated for analysis. The copy is taken
// under the same lock that serializes writes, so it is always consistent.
func (s *State) Snapshot() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.Snapshot()
}

// BufferedSamples returns the number of valid samples currently held.
func (s *State) BufferedSamples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.Len()
}

// ClearBuffer empties the sample ring.
func (s *State) ClearBuffer() {
	s.mu.Lock()
	s.ring.Clear()
	s.mu.Unlock()
}

// SetDeviceID records the input device chosen at startup.
func (s *State) SetDeviceID(id int) {
	s.mu.Lock()
	s.deviceID = id
	s.mu.Unlock()
}

// DeviceID returns the input device chosen at startup.
func (s *State) DeviceID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceID
}
