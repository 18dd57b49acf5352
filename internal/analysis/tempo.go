package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/cadencehq/bpmtrack/internal/audio"
)

// Estimator maps an audio window to candidate tempos, strongest first.
// An empty result means no estimate could be made for this window; the
// monitor treats that as a skipped tick, not an error. Estimate may be
// slow (hundreds of milliseconds) and is always invoked outside locks.
type Estimator interface {
	Estimate(samples []float32, sampleRate int) ([]float64, error)
}

// STFT geometry and the tempo search range.
const (
	stftWindow = 1024
	stftHop    = 512

	minBPM = 60.0
	maxBPM = 240.0

	maxCandidates = 3
)

// OnsetEstimator estimates tempo from a spectral-flux onset envelope:
// Hann-windowed STFT, positive magnitude differences summed per frame,
// then autocorrelation of the envelope over the musically plausible lag
// range. Pure and deterministic; safe for concurrent use.
type OnsetEstimator struct {
	// Windows quieter than this RMS are treated as silence.
	silenceFloor float64
}

// NewOnsetEstimator creates an estimator with the default silence floor.
func NewOnsetEstimator() *OnsetEstimator {
	return &OnsetEstimator{silenceFloor: 1e-4}
}

// Estimate returns candidate tempos for the window, strongest first.
func (e *OnsetEstimator) Estimate(samples []float32, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if len(samples) < 2*stftWindow {
		return nil, nil
	}
	if audio.RMS(samples) < e.silenceFloor {
		return nil, nil
	}

	envelope := onsetEnvelope(samples)

	frameRate := float64(sampleRate) / stftHop
	minLag := int(math.Floor(frameRate * 60.0 / maxBPM))
	maxLag := int(math.Ceil(frameRate * 60.0 / minBPM))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag > len(envelope)-1 {
		maxLag = len(envelope) - 1
	}
	if minLag >= maxLag {
		return nil, nil
	}

	ac := autocorrelate(envelope, maxLag)

	type peak struct {
		lag      float64
		strength float64
	}
	var peaks []peak
	for lag := minLag + 1; lag < maxLag; lag++ {
		if ac[lag] <= 0 {
			continue
		}
		if ac[lag] >= ac[lag-1] && ac[lag] > ac[lag+1] {
			peaks = append(peaks, peak{refineLag(ac, lag), ac[lag]})
		}
	}
	if len(peaks) == 0 {
		return nil, nil
	}

	// Strongest peaks first.
	for i := 0; i < len(peaks); i++ {
		for j := i + 1; j < len(peaks); j++ {
			if peaks[j].strength > peaks[i].strength {
				peaks[i], peaks[j] = peaks[j], peaks[i]
			}
		}
	}
	if len(peaks) > maxCandidates {
		peaks = peaks[:maxCandidates]
	}

	candidates := make([]float64, len(peaks))
	for i, p := range peaks {
		candidates[i] = 60.0 * frameRate / p.lag
	}
	return candidates, nil
}

// onsetEnvelope computes the spectral flux per hop: the sum of positive
// magnitude increases between consecutive STFT frames.
func onsetEnvelope(samples []float32) []float64 {
	window := hannWindow(stftWindow)
	frame := make([]float64, stftWindow)

	var prev []float64
	var envelope []float64
	for start := 0; start+stftWindow <= len(samples); start += stftHop {
		for i := 0; i < stftWindow; i++ {
			frame[i] = float64(samples[start+i]) * window[i]
		}

		spectrum := fft.FFTReal(frame)
		mags := make([]float64, stftWindow/2)
		for i := range mags {
			mags[i] = cmplx.Abs(spectrum[i])
		}

		if prev != nil {
			var flux float64
			for i := range mags {
				if d := mags[i] - prev[i]; d > 0 {
					flux += d
				}
			}
			envelope = append(envelope, flux)
		}
		prev = mags
	}

	// Remove the DC component so the autocorrelation reflects rhythmic
	// structure rather than overall loudness.
	var mean float64
	for _, v := range envelope {
		mean += v
	}
	if len(envelope) > 0 {
		mean /= float64(len(envelope))
	}
	for i := range envelope {
		envelope[i] -= mean
	}
	return envelope
}

// autocorrelate returns the raw autocorrelation of x for lags 0..maxLag.
func autocorrelate(x []float64, maxLag int) []float64 {
	ac := make([]float64, maxLag+1)
	for lag := 0; lag <= maxLag; lag++ {
		var sum float64
		for i := 0; i+lag < len(x); i++ {
			sum += x[i] * x[i+lag]
		}
		ac[lag] = sum
	}
	return ac
}

// refineLag sharpens an integer autocorrelation peak with parabolic
// interpolation over its neighbors.
func refineLag(ac []float64, lag int) float64 {
	if lag <= 0 || lag >= len(ac)-1 {
		return float64(lag)
	}
	y0, y1, y2 := ac[lag-1], ac[lag], ac[lag+1]
	denom := y0 - 2*y1 + y2
	if denom == 0 {
		return float64(lag)
	}
	delta := 0.5 * (y0 - y2) / denom
	if delta < -0.5 || delta > 0.5 {
		return float64(lag)
	}
	return float64(lag) + delta
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
