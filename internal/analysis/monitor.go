package analysis

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/cadencehq/bpmtrack/internal/audio"
)

// Broadcaster delivers events to connected observers. The gateway hub
// is the production implementation.
type Broadcaster interface {
	Emit(event string, payload any)
}

// Recorder tracks analysis-side metrics. *observability.Metrics
// satisfies it.
type Recorder interface {
	RecordAnalysisTick(result string)
	RecordAnalysisDuration(seconds float64)
	RecordBPM(bpm float64)
}

// BPMUpdate is the payload broadcast on each successful analysis tick.
type BPMUpdate struct {
	BPM       *float64 `json:"bpm"`
	IsTarget  bool     `json:"is_target"`
	Target    int      `json:"target"`
	Tolerance int      `json:"tolerance"`
}

// Monitor periodically drains a snapshot of the sample ring and runs
// tempo estimation on it. Failures inside the loop are contained: an
// estimator error or panic is logged and the tick is skipped, never
// terminating the loop. The loop exits permanently once shutdown is
// requested and observes the signal within one interval.
type Monitor struct {
	state       *audio.State
	estimator   Estimator
	broadcaster Broadcaster
	recorder    Recorder
	logger      zerolog.Logger

	sampleRate int
	interval   time.Duration
	targetBPM  int
	tolerance  int
}

// NewMonitor wires a monitor to the shared audio state.
func NewMonitor(state *audio.State, estimator Estimator, broadcaster Broadcaster, recorder Recorder, logger zerolog.Logger, sampleRate int, interval time.Duration, targetBPM, tolerance int) *Monitor {
	return &Monitor{
		state:       state,
		estimator:   estimator,
		broadcaster: broadcaster,
		recorder:    recorder,
		logger:      logger,
		sampleRate:  sampleRate,
		interval:    interval,
		targetBPM:   targetBPM,
		tolerance:   tolerance,
	}
}

// Run executes the analysis loop until shutdown is requested. Intended
// to be called in its own goroutine.
func (m *Monitor) Run() {
	m.logger.Info().
		Int("target_bpm", m.targetBPM).
		Int("tolerance", m.tolerance).
		Dur("interval", m.interval).
		Msg("BPM monitor started")

	for !m.state.ShutdownRequested() {
		if m.state.IsRunning() {
			m.tick()
		}
		// The timed shutdown wait doubles as the inter-tick sleep, so a
		// shutdown request wakes the loop immediately.
		if m.state.WaitForShutdown(m.interval) {
			break
		}
	}

	m.logger.Info().Msg("BPM monitor stopped")
}

// tick runs one analysis pass: snapshot, estimate, broadcast.
func (m *Monitor) tick() {
	snapshot := m.state.Snapshot()
	if snapshot == nil {
		// Not enough audio yet; expected during warm-up.
		m.record("skipped")
		return
	}

	tempo, ok := m.estimate(snapshot)
	if !ok {
		return
	}

	isTarget := math.Abs(tempo-float64(m.targetBPM)) <= float64(m.tolerance)
	rounded := math.Round(tempo*10) / 10

	if m.recorder != nil {
		m.recorder.RecordBPM(rounded)
	}
	m.record("estimate")

	m.broadcaster.Emit("bpm_update", BPMUpdate{
		BPM:       &rounded,
		IsTarget:  isTarget,
		Target:    m.targetBPM,
		Tolerance: m.tolerance,
	})
}

// estimate invokes the external estimator on the snapshot, outside any
// lock, and normalizes its result. Errors and panics are contained here
// and reported as "no estimate" for the tick.
func (m *Monitor) estimate(snapshot []float32) (tempo float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Interface("panic", r).Msg("BPM analysis panic")
			m.record("error")
			tempo, ok = 0, false
		}
	}()

	start := time.Now()
	candidates, err := m.estimator.Estimate(snapshot, m.sampleRate)
	if m.recorder != nil {
		m.recorder.RecordAnalysisDuration(time.Since(start).Seconds())
	}

	if err != nil {
		m.logger.Error().Err(err).Msg("BPM analysis error")
		m.record("error")
		return 0, false
	}
	if len(candidates) == 0 {
		m.record("skipped")
		return 0, false
	}
	// The estimator may return several candidates; the first is taken.
	return candidates[0], true
}

func (m *Monitor) record(result string) {
	if m.recorder != nil {
		m.recorder.RecordAnalysisTick(result)
	}
}
