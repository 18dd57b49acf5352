package capture

import (
	"github.com/rs/zerolog"

	"github.com/cadencehq/bpmtrack/internal/audio"
)

// Sink receives mono sample blocks from the capture callback.
// *audio.State is the production sink.
type Sink interface {
	AddSamples(samples []float32)
}

// Recorder tracks producer-side metrics. *observability.Metrics
// satisfies it.
type Recorder interface {
	RecordSamples(n int)
	RecordCaptureAnomaly(kind string)
	RecordInputLevel(rms float64)
}

// Source is the capture lifecycle the controller drives. Activating an
// active source and deactivating an inactive one are no-ops.
type Source interface {
	Activate() error
	Deactivate() error
	Active() bool
}

// blockProcessor holds the per-block work done inside the realtime
// callback: channel reduction into a reusable scratch buffer, one
// guarded append, and metric updates. It must never block and never
// return an error; driver status anomalies are logged and counted only.
type blockProcessor struct {
	sink     Sink
	recorder Recorder
	logger   zerolog.Logger
	channels int
	mono     []float32 // scratch for channel reduction, reused across blocks
}

func newBlockProcessor(sink Sink, recorder Recorder, logger zerolog.Logger, channels, blockSize int) *blockProcessor {
	return &blockProcessor{
		sink:     sink,
		recorder: recorder,
		logger:   logger,
		channels: channels,
		mono:     make([]float32, blockSize),
	}
}

// processBlock forwards one interleaved input block to the sink.
func (p *blockProcessor) processBlock(in []float32) {
	if len(in) == 0 {
		return
	}

	mono := in
	if p.channels > 1 {
		p.mono = audio.DownmixMono(p.mono, in, p.channels)
		mono = p.mono
	}

	p.sink.AddSamples(mono)

	if p.recorder != nil {
		p.recorder.RecordSamples(len(mono))
		p.recorder.RecordInputLevel(audio.RMS(mono))
	}
}

// reportAnomaly surfaces a driver status flag as a log line and a
// counter bump. Anomalies are non-fatal; capture continues.
func (p *blockProcessor) reportAnomaly(kind string) {
	p.logger.Warn().Str("status", kind).Msg("Capture stream status anomaly")
	if p.recorder != nil {
		p.recorder.RecordCaptureAnomaly(kind)
	}
}
