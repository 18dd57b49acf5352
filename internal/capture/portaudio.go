package capture

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

// PortAudioSource captures microphone audio through PortAudio and feeds
// mono blocks into the sink. The driver invokes the stream callback at
// block cadence on a realtime thread; everything on that path is
// bounded work with no allocation.
type PortAudioSource struct {
	mu        sync.Mutex
	stream    *portaudio.Stream
	device    *portaudio.DeviceInfo
	processor *blockProcessor
	logger    zerolog.Logger

	sampleRate int
	blockSize  int
	channels   int
	active     bool
}

// NewPortAudioSource creates a capture source bound to the given input
// device. PortAudio must already be initialized by the caller.
func NewPortAudioSource(device *portaudio.DeviceInfo, sink Sink, recorder Recorder, logger zerolog.Logger, sampleRate, blockSize, channels int) *PortAudioSource {
	if channels < 1 {
		channels = 1
	}
	return &PortAudioSource{
		device:     device,
		processor:  newBlockProcessor(sink, recorder, logger, channels, blockSize),
		logger:     logger,
		sampleRate: sampleRate,
		blockSize:  blockSize,
		channels:   channels,
	}
}

// Activate opens and starts the input stream. Activating an already
// active source is a no-op.
func (s *PortAudioSource) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return nil
	}

	params := portaudio.LowLatencyParameters(s.device, nil)
	params.Input.Channels = s.channels
	params.SampleRate = float64(s.sampleRate)
	params.FramesPerBuffer = s.blockSize

	stream, err := portaudio.OpenStream(params, s.onBlock)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	s.stream = stream
	s.active = true
	s.logger.Info().
		Str("device", s.device.Name).
		Int("sample_rate", s.sampleRate).
		Int("block_size", s.blockSize).
		Msg("Audio capture started")
	return nil
}

// Deactivate stops and closes the input stream. Deactivating an
// inactive source is a no-op.
func (s *PortAudioSource) Deactivate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}
	s.active = false

	var firstErr error
	if err := s.stream.Stop(); err != nil {
		firstErr = fmt.Errorf("failed to stop input stream: %w", err)
	}
	if err := s.stream.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close input stream: %w", err)
	}
	s.stream = nil

	s.logger.Info().Msg("Audio capture stopped")
	return firstErr
}

// Active reports whether the stream is currently capturing.
func (s *PortAudioSource) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// onBlock is the realtime stream callback. It must return without
// blocking: status flags become log lines, never errors.
func (s *PortAudioSource) onBlock(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	if flags&portaudio.InputOverflow != 0 {
		s.processor.reportAnomaly("input_overflow")
	}
	if flags&portaudio.InputUnderflow != 0 {
		s.processor.reportAnomaly("input_underflow")
	}

	s.processor.processBlock(in)
}
