package analysis

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cadencehq/bpmtrack/internal/audio"
)

type stubEstimator struct {
	candidates []float64
	err        error
	panicWith  any

	mu    sync.Mutex
	calls int
}

func (s *stubEstimator) Estimate(samples []float32, sampleRate int) ([]float64, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	return s.candidates, s.err
}

func (s *stubEstimator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type capturingBroadcaster struct {
	mu     sync.Mutex
	events []string
	last   BPMUpdate
}

func (b *capturingBroadcaster) Emit(event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	if update, ok := payload.(BPMUpdate); ok {
		b.last = update
	}
}

func (b *capturingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func newTestState(samples int) *audio.State {
	s := audio.NewState(samples, 1)
	block := make([]float32, samples)
	for i := range block {
		block[i] = 0.5
	}
	s.AddSamples(block)
	return s
}

func newTestMonitor(state *audio.State, est Estimator, b Broadcaster) *Monitor {
	return NewMonitor(state, est, b, nil, zerolog.Nop(), 22050, 10*time.Millisecond, 180, 5)
}

func TestMonitor_EmitsRoundedTempoWithTargetFlag(t *testing.T) {
	state := newTestState(100)
	state.SetRunning(true)
	est := &stubEstimator{candidates: []float64{182.34, 91.2}}
	b := &capturingBroadcaster{}

	m := newTestMonitor(state, est, b)
	m.tick()

	if b.count() != 1 || b.events[0] != "bpm_update" {
		t.Fatalf("Expected one bpm_update event, got %v", b.events)
	}
	if b.last.BPM == nil || *b.last.BPM != 182.3 {
		t.Errorf("Expected bpm 182.3, got %v", b.last.BPM)
	}
	if !b.last.IsTarget {
		t.Error("Expected is_target true for 182.3 against 180±5")
	}
	if b.last.Target != 180 || b.last.Tolerance != 5 {
		t.Errorf("Expected target 180 tolerance 5, got %d/%d", b.last.Target, b.last.Tolerance)
	}
}

func TestMonitor_OutsideToleranceClearsTargetFlag(t *testing.T) {
	state := newTestState(100)
	state.SetRunning(true)
	est := &stubEstimator{candidates: []float64{120.0}}
	b := &capturingBroadcaster{}

	newTestMonitor(state, est, b).tick()

	if b.last.IsTarget {
		t.Error("Expected is_target false for 120 against 180±5")
	}
}

func TestMonitor_EstimatorErrorSkipsEmit(t *testing.T) {
	state := newTestState(100)
	state.SetRunning(true)
	est := &stubEstimator{err: errors.New("malformed input")}
	b := &capturingBroadcaster{}

	newTestMonitor(state, est, b).tick()

	if b.count() != 0 {
		t.Errorf("Expected no events after estimator error, got %v", b.events)
	}
}

func TestMonitor_EstimatorPanicIsContained(t *testing.T) {
	state := newTestState(100)
	state.SetRunning(true)
	est := &stubEstimator{panicWith: "boom"}
	b := &capturingBroadcaster{}
	m := newTestMonitor(state, est, b)

	m.tick() // must not propagate the panic
	if b.count() != 0 {
		t.Errorf("Expected no events after estimator panic, got %v", b.events)
	}

	// The loop must survive and keep ticking afterwards.
	est.panicWith = nil
	est.candidates = []float64{180}
	m.tick()
	if b.count() != 1 {
		t.Errorf("Expected an event on the next tick, got %d", b.count())
	}
}

func TestMonitor_EmptyCandidatesSkipsEmit(t *testing.T) {
	state := newTestState(100)
	state.SetRunning(true)
	est := &stubEstimator{candidates: nil}
	b := &capturingBroadcaster{}

	newTestMonitor(state, est, b).tick()

	if b.count() != 0 {
		t.Errorf("Expected no events for an empty estimate, got %v", b.events)
	}
}

func TestMonitor_InsufficientDataSkipsEstimator(t *testing.T) {
	state := audio.NewState(100, 50) // nothing buffered yet
	state.SetRunning(true)
	est := &stubEstimator{candidates: []float64{180}}
	b := &capturingBroadcaster{}

	newTestMonitor(state, est, b).tick()

	if est.callCount() != 0 {
		t.Error("Expected estimator not to run without enough audio")
	}
	if b.count() != 0 {
		t.Errorf("Expected no events, got %v", b.events)
	}
}

func TestMonitor_NotRunningDoesNotAnalyze(t *testing.T) {
	state := newTestState(100)
	est := &stubEstimator{candidates: []float64{180}}
	b := &capturingBroadcaster{}
	m := newTestMonitor(state, est, b)

	done := make(chan struct{})
	go func() {
		m.Run()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	state.RequestShutdown()
	<-done

	if est.callCount() != 0 {
		t.Error("Expected no analysis while stopped")
	}
}

func TestMonitor_ShutdownStopsLoopPromptly(t *testing.T) {
	state := newTestState(100)
	state.SetRunning(true)
	est := &stubEstimator{candidates: []float64{180}}
	b := &capturingBroadcaster{}
	m := NewMonitor(state, est, b, nil, zerolog.Nop(), 22050, time.Hour, 180, 5)

	done := make(chan struct{})
	go func() {
		m.Run()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	state.RequestShutdown()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Monitor did not exit promptly after shutdown, despite a one-hour interval")
	}
}
