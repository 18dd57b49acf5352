package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway metrics
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bpmtrack_connected_clients",
		Help: "Number of connected WebSocket clients",
	})

	// Capture metrics
	samplesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bpmtrack_samples_ingested_total",
		Help: "Total audio samples written to the ring buffer",
	})

	captureStatusAnomalies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bpmtrack_capture_status_anomalies_total",
		Help: "Stream status anomalies reported by the audio driver",
	}, []string{"kind"}) // kind: "input_overflow", "input_underflow", ...

	inputLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bpmtrack_input_level_rms",
		Help: "RMS level of the most recent capture block",
	})

	// Analysis metrics
	analysisTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bpmtrack_analysis_ticks_total",
		Help: "Analysis ticks by outcome",
	}, []string{"result"}) // result: "estimate", "skipped", "error"

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bpmtrack_analysis_duration_seconds",
		Help:    "Time spent in one tempo estimation call",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
	})

	currentBPM = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bpmtrack_bpm_current",
		Help: "Most recently estimated tempo in beats per minute",
	})
)

// Metrics is the process-wide metrics recorder handed to the capture,
// analysis and gateway components at wiring time.
type Metrics struct{}

// NewMetrics returns the metrics recorder.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordClientConnected tracks a WebSocket client joining.
func (m *Metrics) RecordClientConnected() {
	connectedClients.Inc()
}

// RecordClientDisconnected tracks a WebSocket client leaving.
func (m *Metrics) RecordClientDisconnected() {
	connectedClients.Dec()
}

// RecordSamples tracks samples appended to the ring buffer.
func (m *Metrics) RecordSamples(n int) {
	samplesIngested.Add(float64(n))
}

// RecordCaptureAnomaly tracks a non-fatal driver status flag.
func (m *Metrics) RecordCaptureAnomaly(kind string) {
	captureStatusAnomalies.WithLabelValues(kind).Inc()
}

// RecordInputLevel tracks the RMS level of the latest capture block.
func (m *Metrics) RecordInputLevel(rms float64) {
	inputLevel.Set(rms)
}

// RecordAnalysisTick tracks one scheduler tick by outcome.
func (m *Metrics) RecordAnalysisTick(result string) {
	analysisTicks.WithLabelValues(result).Inc()
}

// RecordAnalysisDuration tracks the latency of one estimator call.
func (m *Metrics) RecordAnalysisDuration(seconds float64) {
	analysisDuration.Observe(seconds)
}

// RecordBPM tracks the most recent tempo estimate.
func (m *Metrics) RecordBPM(bpm float64) {
	currentBPM.Set(bpm)
}
