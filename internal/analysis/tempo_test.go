package analysis

import (
	"math"
	"testing"
)

// clickTrack generates seconds of audio with a short click every
// periodSamples samples.
func clickTrack(sampleRate, periodSamples, seconds int) []float32 {
	out := make([]float32, sampleRate*seconds)
	for i := 0; i < len(out); i += periodSamples {
		for j := 0; j < 64 && i+j < len(out); j++ {
			out[i+j] = 0.9
		}
	}
	return out
}

func TestOnsetEstimator_DetectsClickTrackTempo(t *testing.T) {
	const sampleRate = 22050
	// A period of 20 STFT hops keeps the beat aligned to the analysis
	// grid: 60 * 22050 / 10240 ≈ 129.2 BPM.
	period := 20 * stftHop
	wantBPM := 60.0 * float64(sampleRate) / float64(period)

	est := NewOnsetEstimator()
	candidates, err := est.Estimate(clickTrack(sampleRate, period, 3), sampleRate)
	if err != nil {
		t.Fatalf("Estimate() failed: %v", err)
	}
	if len(candidates) == 0 {
		t.Fatal("Expected at least one tempo candidate")
	}

	// Accept the estimate or its half/double octave; tempo estimation is
	// ambiguous across octaves by nature.
	got := candidates[0]
	ok := false
	for _, ref := range []float64{wantBPM, wantBPM / 2, wantBPM * 2} {
		if math.Abs(got-ref) <= 5 {
			ok = true
		}
	}
	if !ok {
		t.Errorf("Expected ~%.1f BPM (or an octave), got %.1f (all: %v)", wantBPM, got, candidates)
	}
}

func TestOnsetEstimator_SilenceGivesNoEstimate(t *testing.T) {
	est := NewOnsetEstimator()
	candidates, err := est.Estimate(make([]float32, 22050*3), 22050)
	if err != nil {
		t.Fatalf("Estimate() failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Expected no candidates for silence, got %v", candidates)
	}
}

func TestOnsetEstimator_ShortInputGivesNoEstimate(t *testing.T) {
	est := NewOnsetEstimator()
	candidates, err := est.Estimate(make([]float32, stftWindow), 22050)
	if err != nil {
		t.Fatalf("Estimate() failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Expected no candidates for a short window, got %v", candidates)
	}
}

func TestOnsetEstimator_RejectsInvalidSampleRate(t *testing.T) {
	est := NewOnsetEstimator()
	if _, err := est.Estimate(make([]float32, 4096), 0); err == nil {
		t.Error("Expected error for sample rate 0")
	}
}
